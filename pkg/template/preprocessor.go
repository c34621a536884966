// SPDX-License-Identifier: Apache-2.0

package template

import "strings"

// Result is the outcome of preprocessing one SQL file.
type Result struct {
	OriginalSQL string
	RenderedSQL string
	FilePath    *string
	HadJinja    bool
}

// Preprocessor renders Jinja-templated dbt SQL into plain SQL the parser can
// consume, evaluating ref(), source(), var() and config() against a Context.
type Preprocessor struct {
	ctx Context
}

// New builds a Preprocessor bound to the given context.
func New(ctx Context) *Preprocessor {
	return &Preprocessor{ctx: ctx}
}

// WithDefaults builds a Preprocessor with an empty variable set.
func WithDefaults() *Preprocessor {
	return New(NewContext(nil))
}

// HasJinja reports whether sql contains any Jinja sigil: an expression,
// statement or comment tag.
func HasJinja(sql string) bool {
	return strings.Contains(sql, "{{") || strings.Contains(sql, "{%") || strings.Contains(sql, "{#")
}

// Preprocess renders sql, resolving Jinja tags against the preprocessor's
// context. filePath, when non-nil, is attached to any error's diagnostic
// location.
func (p *Preprocessor) Preprocess(sql string, filePath *string) (Result, error) {
	if !HasJinja(sql) {
		return Result{OriginalSQL: sql, RenderedSQL: sql, FilePath: filePath, HadJinja: false}, nil
	}

	var out strings.Builder
	i := 0
	for i < len(sql) {
		comment := strings.Index(sql[i:], "{#")
		expr := strings.Index(sql[i:], "{{")
		stmt := strings.Index(sql[i:], "{%")

		next := firstNonNegative(comment, expr, stmt)
		if next < 0 {
			out.WriteString(sql[i:])
			break
		}
		next += i
		out.WriteString(sql[i:next])

		switch {
		case comment >= 0 && next == i+comment:
			end := strings.Index(sql[next:], "#}")
			if end < 0 {
				return Result{}, p.unterminated(sql, next, filePath, "{#")
			}
			i = next + end + len("#}")
		case expr >= 0 && next == i+expr:
			end := strings.Index(sql[next:], "}}")
			if end < 0 {
				return Result{}, p.unterminated(sql, next, filePath, "{{")
			}
			body := sql[next+2 : next+end]
			rendered, err := p.renderExpr(body, sql, next, filePath)
			if err != nil {
				return Result{}, err
			}
			out.WriteString(rendered)
			i = next + end + len("}}")
		case stmt >= 0 && next == i+stmt:
			end := strings.Index(sql[next:], "%}")
			if end < 0 {
				return Result{}, p.unterminated(sql, next, filePath, "{%")
			}
			// Statement tags ({% set %}, {% if %}, ...) are not executed;
			// dbt projects mostly use them for config-only metadata, which
			// produces no SQL either way.
			i = next + end + len("%}")
		}
	}

	return Result{
		OriginalSQL: sql,
		RenderedSQL: out.String(),
		FilePath:    filePath,
		HadJinja:    true,
	}, nil
}

func (p *Preprocessor) renderExpr(body, sql string, tagStart int, filePath *string) (string, error) {
	c, err := parseCall(strings.TrimSpace(strings.Trim(body, "-")))
	if err != nil {
		line, col := lineCol(sql, tagStart)
		return "", &RenderError{Message: err.Error(), FilePath: filePath, Line: &line, Column: &col}
	}
	rendered, err := p.ctx.eval(c)
	if err != nil {
		if undef, ok := err.(*UndefinedVariableError); ok {
			undef.FilePath = filePath
			return "", undef
		}
		line, col := lineCol(sql, tagStart)
		return "", &RenderError{Message: err.Error(), FilePath: filePath, Line: &line, Column: &col}
	}
	return rendered, nil
}

func (p *Preprocessor) unterminated(sql string, tagStart int, filePath *string, sigil string) error {
	line, col := lineCol(sql, tagStart)
	return &RenderError{
		Message:  "unterminated " + sigil + " tag",
		FilePath: filePath,
		Line:     &line,
		Column:   &col,
	}
}

func firstNonNegative(vals ...int) int {
	best := -1
	for _, v := range vals {
		if v < 0 {
			continue
		}
		if best < 0 || v < best {
			best = v
		}
	}
	return best
}

func lineCol(s string, idx int) (line, col int) {
	line, col = 1, 1
	for i := 0; i < idx && i < len(s); i++ {
		if s[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
