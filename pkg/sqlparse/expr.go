// SPDX-License-Identifier: Apache-2.0

package sqlparse

import (
	"strings"

	"github.com/sqlcontract/sqlcontract/pkg/sqlast"
)

// binaryOperators maps a recognized operator spelling to its
// precedence-climbing binding power. Multi-word operators (IS NULL, IS NOT
// NULL, NOT IN, NOT LIKE) are special-cased in nextBinaryOp.
var binaryOperators = map[string]int{
	"OR":  1,
	"AND": 2,
	"=":   3, "<>": 3, "!=": 3, "<": 3, ">": 3, "<=": 3, ">=": 3,
	"LIKE": 3, "IN": 3, "IS": 3, "BETWEEN": 3,
	"+": 4, "-": 4, "||": 4,
	"*": 5, "/": 5, "%": 5,
}

// nextBinaryOp inspects the current token (and, for NOT-prefixed and
// two-word operators, a little lookahead) and returns its canonical
// lowercase spelling and precedence, or ok=false if the current position is
// not a binary operator.
func (p *Parser) nextBinaryOp() (op string, prec int, ok bool) {
	t := p.peek()

	if t.kind == tokPunct {
		if prec, ok := binaryOperators[t.text]; ok {
			return t.text, prec, true
		}
		return "", 0, false
	}

	if t.kind != tokIdent {
		return "", 0, false
	}

	switch t.upper() {
	case "NOT":
		switch p.peekAt(1).upper() {
		case "LIKE":
			return "not like", 3, true
		case "IN":
			return "not in", 3, true
		case "BETWEEN":
			return "not between", 3, true
		}
		return "", 0, false
	case "IS", "LIKE", "IN", "BETWEEN", "AND", "OR":
		return strings.ToLower(t.upper()), binaryOperators[t.upper()], true
	}

	return "", 0, false
}

// consumeOperatorWord advances past the tokens forming op: one word, or two
// for the NOT-prefixed forms (not like, not in, not between).
func (p *Parser) consumeOperatorWord(op string) {
	switch op {
	case "not like", "not in", "not between":
		p.advance()
		p.advance()
	default:
		p.advance()
	}
}

// parseExpr parses an expression using precedence climbing: minPrec is the
// minimum binding power a following binary operator must have to be folded
// into the left-hand side at this recursion level.
func (p *Parser) parseExpr(minPrec int) (sqlast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op, prec, ok := p.nextBinaryOp()
		if !ok || prec < minPrec {
			return left, nil
		}
		p.consumeOperatorWord(op)

		switch op {
		case "is":
			_ = p.match("NOT")
			if err := p.expectWord("NULL"); err != nil {
				return nil, err
			}
			left = sqlast.BinaryOp{Left: left, Op: op, Right: sqlast.Value{Kind: sqlast.ValueNull}}

		case "in", "not in":
			if err := p.expectPunct("("); err != nil {
				return nil, err
			}
			for {
				if p.peek().kind == tokPunct && p.peek().text == ")" {
					break
				}
				if _, err := p.parseExpr(0); err != nil {
					return nil, err
				}
				if !p.matchPunct(",") {
					break
				}
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			left = sqlast.BinaryOp{Left: left, Op: op, Right: sqlast.OtherExpr{Raw: op}}

		case "between", "not between":
			lo, err := p.parseExpr(prec + 1)
			if err != nil {
				return nil, err
			}
			if err := p.expectWord("AND"); err != nil {
				return nil, err
			}
			hi, err := p.parseExpr(prec + 1)
			if err != nil {
				return nil, err
			}
			left = sqlast.BinaryOp{Left: left, Op: op, Right: sqlast.BinaryOp{Left: lo, Op: "and", Right: hi}}

		default:
			right, err := p.parseExpr(prec + 1)
			if err != nil {
				return nil, err
			}
			left = sqlast.BinaryOp{Left: left, Op: op, Right: right}
		}
	}
}

func (p *Parser) parseUnary() (sqlast.Expr, error) {
	if p.match("NOT") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return sqlast.BinaryOp{Left: inner, Op: "not", Right: sqlast.OtherExpr{Raw: "not"}}, nil
	}
	if p.matchPunct("-") || p.matchPunct("+") {
		return p.parseUnary()
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (sqlast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.matchPunct("::") {
		typeName, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		e = sqlast.Cast{Expr: e, TargetType: typeName}
	}
	return e, nil
}

func (p *Parser) parsePrimary() (sqlast.Expr, error) {
	t := p.peek()

	switch {
	case t.kind == tokPunct && t.text == "(":
		p.advance()
		if p.isWord("SELECT") || p.isWord("WITH") {
			if _, err := p.parseQuery(); err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return sqlast.OtherExpr{Raw: "subquery"}, nil
		}
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil

	case t.kind == tokNumber:
		p.advance()
		kind := sqlast.ValueInt
		if strings.Contains(t.text, ".") {
			kind = sqlast.ValueFloat
		}
		return sqlast.Value{Kind: kind, Raw: t.text}, nil

	case t.kind == tokString:
		p.advance()
		return sqlast.Value{Kind: sqlast.ValueString, Raw: t.text}, nil

	case t.kind == tokIdent && (t.upper() == "TRUE" || t.upper() == "FALSE"):
		p.advance()
		return sqlast.Value{Kind: sqlast.ValueBool, Raw: t.upper()}, nil

	case t.kind == tokIdent && t.upper() == "NULL":
		p.advance()
		return sqlast.Value{Kind: sqlast.ValueNull}, nil

	case t.kind == tokIdent && t.upper() == "CASE":
		return p.parseCase()

	case t.kind == tokIdent && t.upper() == "CAST":
		return p.parseCast()

	case t.kind == tokIdent || t.kind == tokQuotedIdent:
		return p.parseIdentOrCall()

	default:
		p.advance()
		return sqlast.OtherExpr{Raw: t.text}, nil
	}
}

// parseCase consumes a CASE ... END block, tracking nested CASE depth so an
// inner CASE's END doesn't terminate the outer one. Per the inference
// rules, CASE always types as Unknown, so the branches aren't modeled.
func (p *Parser) parseCase() (sqlast.Expr, error) {
	depth := 0
	for {
		if p.atEOF() {
			t := p.peek()
			return nil, p.syntaxErrorf(t, "unterminated CASE expression")
		}
		switch {
		case p.isWord("CASE"):
			depth++
			p.advance()
		case p.isWord("END"):
			depth--
			p.advance()
			if depth == 0 {
				return sqlast.Case{}, nil
			}
		default:
			p.advance()
		}
	}
}

func (p *Parser) parseCast() (sqlast.Expr, error) {
	p.advance() // CAST
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	e, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("AS"); err != nil {
		return nil, err
	}
	typeName, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return sqlast.Cast{Expr: e, TargetType: typeName}, nil
}

// parseTypeName consumes a type name: an identifier, optionally followed by
// a (precision[, scale]) group and/or an array suffix ([] or ARRAY).
func (p *Parser) parseTypeName() (string, error) {
	name, err := p.parseIdentName()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(name)

	if p.matchPunct("(") {
		sb.WriteString("(")
		first := true
		for {
			t := p.peek()
			if t.kind == tokPunct && t.text == ")" {
				break
			}
			if !first {
				sb.WriteString(", ")
			}
			first = false
			p.advance()
			sb.WriteString(t.text)
			if !p.matchPunct(",") {
				break
			}
		}
		if err := p.expectPunct(")"); err != nil {
			return "", err
		}
		sb.WriteString(")")
	}

	for p.matchPunct("[") {
		if err := p.expectPunct("]"); err != nil {
			return "", err
		}
		sb.WriteString("[]")
	}

	return sb.String(), nil
}

func (p *Parser) parseIdentOrCall() (sqlast.Expr, error) {
	name, err := p.parseIdentName()
	if err != nil {
		return nil, err
	}

	if p.matchPunct("(") {
		var args []sqlast.Expr
		if p.peek().kind == tokPunct && p.peek().text == "*" {
			p.advance()
			args = append(args, sqlast.Identifier{Name: "*"})
		} else {
			for {
				if p.peek().kind == tokPunct && p.peek().text == ")" {
					break
				}
				_ = p.match("DISTINCT")
				arg, err := p.parseExpr(0)
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.matchPunct(",") {
					break
				}
			}
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return sqlast.Function{Name: name, Args: args}, nil
	}

	if p.matchPunct(".") {
		parts := []string{name}
		for {
			next, err := p.parseIdentName()
			if err != nil {
				return nil, err
			}
			parts = append(parts, next)
			if !p.matchPunct(".") {
				break
			}
		}
		return sqlast.CompoundIdentifier{Parts: parts}, nil
	}

	return sqlast.Identifier{Name: name}, nil
}
