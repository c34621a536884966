// SPDX-License-Identifier: Apache-2.0

package sqlparse

import (
	"fmt"
	"strings"

	"github.com/sqlcontract/sqlcontract/pkg/sqlast"
)

var aliasStopWords = map[string]bool{
	"FROM": true, "WHERE": true, "GROUP": true, "HAVING": true, "ORDER": true, "LIMIT": true,
	"UNION": true, "INTERSECT": true, "EXCEPT": true, "ON": true, "USING": true, "JOIN": true,
	"INNER": true, "LEFT": true, "RIGHT": true, "FULL": true, "CROSS": true, "AS": true,
}

var aggregateFunctions = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true, "STDDEV": true,
	"VARIANCE": true, "ARRAY_AGG": true, "STRING_AGG": true, "LISTAGG": true,
	"PERCENTILE_CONT": true, "PERCENTILE_DISC": true,
}

// IsAggregate reports whether name (case-insensitive) is one of the
// aggregate functions that define GROUP BY validity.
func IsAggregate(name string) bool {
	return aggregateFunctions[strings.ToUpper(name)]
}

// Parser is a recursive-descent parser over a pre-lexed token stream for a
// single dialect.
type Parser struct {
	dialect sqlast.Dialect
	file    string
	tokens  []token
	pos     int
}

// Parse lexes and parses sql for the given dialect. file is attached to any
// resulting error's diagnostic location.
func Parse(sql string, dialect sqlast.Dialect, file string) (sqlast.Statement, error) {
	lx := newLexer(sql)
	var tokens []token
	for {
		tok, err := lx.next()
		if err != nil {
			if se, ok := err.(*SyntaxError); ok {
				se.File = file
				return nil, se
			}
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokEOF {
			break
		}
	}

	p := &Parser{dialect: dialect, file: file, tokens: tokens}
	return p.parseStatement()
}

func (p *Parser) peek() token { return p.tokens[p.pos] }

func (p *Parser) peekAt(n int) token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}
func (p *Parser) advance() token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) atEOF() bool { return p.peek().kind == tokEOF }

// isWord reports whether the current token is an (unquoted) identifier
// matching word, case-insensitively — the only way keywords are recognized,
// since this grammar has no reserved-word table of its own.
func (p *Parser) isWord(word string) bool {
	t := p.peek()
	return t.kind == tokIdent && t.upper() == word
}

func (p *Parser) match(word string) bool {
	if p.isWord(word) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectPunct(text string) error {
	t := p.peek()
	if t.kind == tokPunct && t.text == text {
		p.advance()
		return nil
	}
	return p.syntaxErrorf(t, "expected %q, found %q", text, t.text)
}

func (p *Parser) expectWord(word string) error {
	if p.match(word) {
		return nil
	}
	t := p.peek()
	return p.syntaxErrorf(t, "expected %s, found %q", word, t.text)
}

func (p *Parser) syntaxErrorf(t token, format string, args ...any) error {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Line: t.line, Column: t.column, File: p.file}
}

func (p *Parser) parseStatement() (sqlast.Statement, error) {
	if p.isWord("WITH") || p.isWord("SELECT") || (p.peek().kind == tokPunct && p.peek().text == "(") {
		q, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		return q, nil
	}

	// Anything else (INSERT, UPDATE, DELETE, CREATE, MERGE, ...) is
	// recognized but not modeled: schema inference only supports Query.
	kind := "unknown"
	if p.peek().kind == tokIdent {
		kind = p.peek().upper()
	}
	return sqlast.OtherStatement{Kind: kind}, nil
}

func (p *Parser) parseQuery() (sqlast.Query, error) {
	var ctes []sqlast.CTE
	if p.match("WITH") {
		for {
			name, err := p.parseIdentName()
			if err != nil {
				return sqlast.Query{}, err
			}
			if err := p.expectWord("AS"); err != nil {
				return sqlast.Query{}, err
			}
			if err := p.expectPunct("("); err != nil {
				return sqlast.Query{}, err
			}
			inner, err := p.parseQuery()
			if err != nil {
				return sqlast.Query{}, err
			}
			if err := p.expectPunct(")"); err != nil {
				return sqlast.Query{}, err
			}
			ctes = append(ctes, sqlast.CTE{Name: name, Query: inner})
			if !p.matchPunct(",") {
				break
			}
		}
	}

	body, err := p.parseSetExpr()
	if err != nil {
		return sqlast.Query{}, err
	}

	// Trailing ORDER BY / LIMIT / OFFSET on the overall query are not
	// schema-relevant; consume them so the caller sees a clean EOF.
	if err := p.skipOrderLimit(); err != nil {
		return sqlast.Query{}, err
	}

	return sqlast.Query{CTEs: ctes, Body: body}, nil
}

func (p *Parser) matchPunct(text string) bool {
	t := p.peek()
	if t.kind == tokPunct && t.text == text {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) parseSetExpr() (sqlast.SetExpr, error) {
	left, err := p.parsePrimarySetExpr()
	if err != nil {
		return nil, err
	}

	for {
		var op sqlast.SetOperator
		switch {
		case p.isWord("UNION"):
			op = sqlast.Union
		case p.isWord("INTERSECT"):
			op = sqlast.Intersect
		case p.isWord("EXCEPT"):
			op = sqlast.Except
		default:
			return left, nil
		}
		p.advance()
		all := p.match("ALL")
		_ = p.match("DISTINCT")

		right, err := p.parsePrimarySetExpr()
		if err != nil {
			return nil, err
		}
		left = sqlast.SetOperation{Op: op, All: all, Left: left, Right: right}
	}
}

func (p *Parser) parsePrimarySetExpr() (sqlast.SetExpr, error) {
	if p.matchPunct("(") {
		inner, err := p.parseSetExpr()
		if err != nil {
			return nil, err
		}
		if err := p.skipOrderLimit(); err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil
	}

	if err := p.expectWord("SELECT"); err != nil {
		return nil, err
	}
	return p.parseSelectBody()
}

func (p *Parser) parseSelectBody() (sqlast.Select, error) {
	_ = p.match("DISTINCT") || p.match("ALL")

	var sel sqlast.Select
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return sqlast.Select{}, err
		}
		sel.Projection = append(sel.Projection, item)
		if !p.matchPunct(",") {
			break
		}
	}

	if p.match("FROM") {
		for {
			twj, err := p.parseTableWithJoins()
			if err != nil {
				return sqlast.Select{}, err
			}
			sel.From = append(sel.From, twj)
			if !p.matchPunct(",") {
				break
			}
		}
	}

	if p.match("WHERE") {
		if _, err := p.parseExpr(0); err != nil {
			return sqlast.Select{}, err
		}
	}

	if p.match("GROUP") {
		if err := p.expectWord("BY"); err != nil {
			return sqlast.Select{}, err
		}
		for {
			e, err := p.parseExpr(0)
			if err != nil {
				return sqlast.Select{}, err
			}
			sel.GroupBy = append(sel.GroupBy, e)
			if !p.matchPunct(",") {
				break
			}
		}
	}

	if p.match("HAVING") {
		if _, err := p.parseExpr(0); err != nil {
			return sqlast.Select{}, err
		}
	}

	if err := p.skipOrderLimit(); err != nil {
		return sqlast.Select{}, err
	}

	return sel, nil
}

func (p *Parser) skipOrderLimit() error {
	if p.match("ORDER") {
		if err := p.expectWord("BY"); err != nil {
			return err
		}
		for {
			if _, err := p.parseExpr(0); err != nil {
				return err
			}
			_ = p.match("ASC") || p.match("DESC")
			if !p.matchPunct(",") {
				break
			}
		}
	}
	if p.match("LIMIT") {
		p.advance() // count, or ALL
	}
	if p.match("OFFSET") {
		p.advance()
	}
	return nil
}

func (p *Parser) parseSelectItem() (sqlast.SelectItem, error) {
	t := p.peek()
	if t.kind == tokPunct && t.text == "*" {
		p.advance()
		return sqlast.Wildcard{}, nil
	}

	if (t.kind == tokIdent || t.kind == tokQuotedIdent) &&
		p.peekAt(1).kind == tokPunct && p.peekAt(1).text == "." &&
		p.peekAt(2).kind == tokPunct && p.peekAt(2).text == "*" {
		p.advance()
		p.advance()
		p.advance()
		return sqlast.QualifiedWildcard{Qualifier: t.text}, nil
	}

	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}

	if p.match("AS") {
		alias, err := p.parseIdentName()
		if err != nil {
			return nil, err
		}
		return sqlast.AliasedExpr{Expr: expr, Alias: alias}, nil
	}

	if p.peek().kind == tokIdent && !aliasStopWords[p.peek().upper()] {
		alias, err := p.parseIdentName()
		if err != nil {
			return nil, err
		}
		return sqlast.AliasedExpr{Expr: expr, Alias: alias}, nil
	}
	if p.peek().kind == tokQuotedIdent {
		alias := p.advance().text
		return sqlast.AliasedExpr{Expr: expr, Alias: alias}, nil
	}

	return sqlast.UnnamedExpr{Expr: expr}, nil
}

func (p *Parser) parseIdentName() (string, error) {
	t := p.peek()
	if t.kind == tokIdent || t.kind == tokQuotedIdent {
		p.advance()
		return t.text, nil
	}
	return "", p.syntaxErrorf(t, "expected identifier, found %q", t.text)
}

func (p *Parser) parseCompoundIdentifier() (sqlast.CompoundIdentifier, error) {
	first, err := p.parseIdentName()
	if err != nil {
		return sqlast.CompoundIdentifier{}, err
	}
	parts := []string{first}
	for p.matchPunct(".") {
		next, err := p.parseIdentName()
		if err != nil {
			return sqlast.CompoundIdentifier{}, err
		}
		parts = append(parts, next)
	}
	return sqlast.CompoundIdentifier{Parts: parts}, nil
}

func (p *Parser) parseTableWithJoins() (sqlast.TableWithJoins, error) {
	rel, err := p.parseTableFactor()
	if err != nil {
		return sqlast.TableWithJoins{}, err
	}

	var joins []sqlast.Join
	for {
		op, ok, err := p.matchJoinOperator()
		if err != nil {
			return sqlast.TableWithJoins{}, err
		}
		if !ok {
			break
		}
		joinRel, err := p.parseTableFactor()
		if err != nil {
			return sqlast.TableWithJoins{}, err
		}
		if p.match("ON") {
			if _, err := p.parseExpr(0); err != nil {
				return sqlast.TableWithJoins{}, err
			}
		} else if p.match("USING") {
			if err := p.expectPunct("("); err != nil {
				return sqlast.TableWithJoins{}, err
			}
			for {
				if _, err := p.parseIdentName(); err != nil {
					return sqlast.TableWithJoins{}, err
				}
				if !p.matchPunct(",") {
					break
				}
			}
			if err := p.expectPunct(")"); err != nil {
				return sqlast.TableWithJoins{}, err
			}
		}
		joins = append(joins, sqlast.Join{Relation: joinRel, Operator: op})
	}

	return sqlast.TableWithJoins{Relation: rel, Joins: joins}, nil
}

func (p *Parser) matchJoinOperator() (string, bool, error) {
	op := ""
	switch {
	case p.isWord("INNER"):
		p.advance()
		op = "inner"
	case p.isWord("LEFT"):
		p.advance()
		_ = p.match("OUTER")
		op = "left"
	case p.isWord("RIGHT"):
		p.advance()
		_ = p.match("OUTER")
		op = "right"
	case p.isWord("FULL"):
		p.advance()
		_ = p.match("OUTER")
		op = "full"
	case p.isWord("CROSS"):
		p.advance()
		op = "cross"
	case p.isWord("JOIN"):
		op = "inner"
	default:
		return "", false, nil
	}
	if !p.match("JOIN") {
		t := p.peek()
		return "", false, p.syntaxErrorf(t, "expected JOIN, found %q", t.text)
	}
	return op, true, nil
}

func (p *Parser) parseTableFactor() (sqlast.TableFactor, error) {
	if p.matchPunct("(") {
		if p.isWord("SELECT") || p.isWord("WITH") {
			q, err := p.parseQuery()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			alias, _ := p.parseOptionalAlias()
			if alias == "" {
				t := p.peek()
				return nil, p.syntaxErrorf(t, "derived table requires an alias")
			}
			return sqlast.Derived{Query: q, Alias: alias}, nil
		}
		inner, err := p.parseTableFactor()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil
	}

	name, err := p.parseCompoundIdentifier()
	if err != nil {
		return nil, err
	}
	alias, _ := p.parseOptionalAlias()
	return sqlast.Table{Name: name, Alias: alias}, nil
}

func (p *Parser) parseOptionalAlias() (string, error) {
	if p.match("AS") {
		return p.parseIdentName()
	}
	t := p.peek()
	if (t.kind == tokIdent && !aliasStopWords[t.upper()]) || t.kind == tokQuotedIdent {
		p.advance()
		return t.text, nil
	}
	return "", nil
}
