// SPDX-License-Identifier: Apache-2.0

package template

import "strings"

// call is a parsed `name(arg1, arg2, kw=val, ...)` expression.
type call struct {
	Name   string
	Args   []string
	Kwargs map[string]string
}

// parseCall parses the body of a {{ ... }} tag. Only bare function calls
// with string-literal positional arguments and `key='value'` keyword
// arguments are supported — the handful of shapes dbt projects actually use
// for ref(), source(), var() and config().
func parseCall(expr string) (call, error) {
	expr = strings.TrimSpace(expr)

	open := strings.IndexByte(expr, '(')
	if open < 0 || !strings.HasSuffix(expr, ")") {
		return call{}, unsupportedExpressionError{expr: expr}
	}

	name := strings.TrimSpace(expr[:open])
	if name == "" {
		return call{}, unsupportedExpressionError{expr: expr}
	}

	body := expr[open+1 : len(expr)-1]
	c := call{Name: name, Kwargs: map[string]string{}}

	for _, part := range splitTopLevelCommas(body) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if eq := strings.IndexByte(part, '='); eq >= 0 && !isQuote(part[0]) {
			key := strings.TrimSpace(part[:eq])
			val, err := unquote(strings.TrimSpace(part[eq+1:]))
			if err != nil {
				return call{}, unsupportedExpressionError{expr: expr}
			}
			c.Kwargs[key] = val
			continue
		}
		val, err := unquote(part)
		if err != nil {
			return call{}, unsupportedExpressionError{expr: expr}
		}
		c.Args = append(c.Args, val)
	}

	return c, nil
}

func splitTopLevelCommas(s string) []string {
	var parts []string
	var depth int
	var inQuote byte
	start := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case inQuote != 0:
			if ch == inQuote {
				inQuote = 0
			}
		case isQuote(ch):
			inQuote = ch
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		case ch == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func isQuote(b byte) bool { return b == '\'' || b == '"' }

func unquote(s string) (string, error) {
	if len(s) >= 2 && isQuote(s[0]) && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], nil
	}
	return "", unsupportedExpressionError{expr: s}
}

// eval resolves a parsed call to the string it expands to in rendered SQL,
// mirroring dbt's ref()/source()/var()/config() semantics.
func (ctx Context) eval(c call) (string, error) {
	switch c.Name {
	case "ref":
		switch len(c.Args) {
		case 1:
			return c.Args[0], nil
		case 2:
			return c.Args[1], nil
		default:
			return "", unsupportedExpressionError{expr: "ref() takes 1 or 2 arguments"}
		}
	case "source":
		if len(c.Args) != 2 {
			return "", unsupportedExpressionError{expr: "source() takes exactly 2 arguments"}
		}
		return c.Args[0] + "." + c.Args[1], nil
	case "var":
		if len(c.Args) == 0 {
			return "", unsupportedExpressionError{expr: "var() requires a name"}
		}
		name := c.Args[0]
		if v, ok := ctx.Vars[name]; ok {
			return v, nil
		}
		if len(c.Args) >= 2 {
			return c.Args[1], nil
		}
		return "", &UndefinedVariableError{Name: name}
	case "config":
		// config() is metadata for dbt's own materialization logic; it
		// produces no SQL output.
		return "", nil
	default:
		return "", unsupportedExpressionError{expr: c.Name + "() is not a supported function"}
	}
}

type unsupportedExpressionError struct{ expr string }

func (e unsupportedExpressionError) Error() string { return "unsupported expression: " + e.expr }
