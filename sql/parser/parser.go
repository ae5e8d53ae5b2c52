// Copyright 2025 Ekjot Singh
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import (
	"strconv"
	"strings"

	"github.com/ekjotsingh/veloq/internal/errs"
	"github.com/ekjotsingh/veloq/sql/ast"
)

func newParseErr(line, col int, format string, args ...interface{}) error {
	return errs.NewParseFailure(line, col, format, args...)
}

// Parser turns one SQL statement into an *ast.SelectStmt.
type Parser struct {
	lx   *lexer
	cur  token
	peek token
	err  error
}

// Parse is the package entry point: it lexes and parses sql, returning a
// *errs.Failure of kind ParseFailure on any syntactic problem or
// intentionally unsupported construct (non-prefix LIKE, unknown aggregate).
func Parse(sql string) (*ast.SelectStmt, error) {
	p := &Parser{lx: newLexer(sql)}
	if err := p.primeTokens(); err != nil {
		return nil, err
	}
	stmt, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, newParseErr(p.cur.line, p.cur.col, "unexpected trailing input %q", p.cur.raw)
	}
	return stmt, nil
}

func (p *Parser) primeTokens() error {
	t1, err := p.lx.next()
	if err != nil {
		return err
	}
	t2, err := p.lx.next()
	if err != nil {
		return err
	}
	p.cur, p.peek = t1, t2
	return nil
}

func (p *Parser) advance() error {
	p.cur = p.peek
	t, err := p.lx.next()
	if err != nil {
		return err
	}
	p.peek = t
	return nil
}

func (p *Parser) expectKeyword(kw string) error {
	if p.cur.kind != tokKeyword || p.cur.text != kw {
		return newParseErr(p.cur.line, p.cur.col, "expected %s, found %q", kw, p.cur.raw)
	}
	return p.advance()
}

func (p *Parser) expectPunct(s string) error {
	if p.cur.kind != tokPunct || p.cur.text != s {
		return newParseErr(p.cur.line, p.cur.col, "expected %q, found %q", s, p.cur.raw)
	}
	return p.advance()
}

func (p *Parser) isKeyword(kw string) bool {
	return p.cur.kind == tokKeyword && p.cur.text == kw
}

func (p *Parser) isPunct(s string) bool {
	return p.cur.kind == tokPunct && p.cur.text == s
}

func (p *Parser) parseSelect() (*ast.SelectStmt, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}

	stmt := &ast.SelectStmt{}
	if err := p.parseSelectList(stmt); err != nil {
		return nil, err
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	if p.cur.kind != tokIdent {
		return nil, newParseErr(p.cur.line, p.cur.col, "expected table name, found %q", p.cur.raw)
	}
	stmt.Table = p.cur.text
	if err := p.advance(); err != nil {
		return nil, err
	}

	if p.isKeyword("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = expr
	}

	if p.isKeyword("GROUP") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		cols, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		stmt.GroupBy = cols
	}

	if p.isKeyword("ORDER") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		items, err := p.parseOrderList()
		if err != nil {
			return nil, err
		}
		stmt.OrderBy = items
	}

	if p.isKeyword("LIMIT") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind != tokInt {
			return nil, newParseErr(p.cur.line, p.cur.col, "expected integer after LIMIT, found %q", p.cur.raw)
		}
		n, _ := strconv.ParseInt(p.cur.text, 10, 64)
		stmt.Limit = &n
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	return stmt, nil
}

func (p *Parser) parseSelectList(stmt *ast.SelectStmt) error {
	if p.isPunct("*") {
		stmt.Star = true
		return p.advance()
	}

	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return err
		}
		stmt.SelectList = append(stmt.SelectList, item)
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return err
			}
			continue
		}
		break
	}
	if len(stmt.SelectList) == 0 {
		return newParseErr(p.cur.line, p.cur.col, "empty select list")
	}
	return nil
}

var aggFuncs = map[string]ast.AggFunc{
	"COUNT": ast.AggCount, "SUM": ast.AggSum, "AVG": ast.AggAvg,
	"MIN": ast.AggMin, "MAX": ast.AggMax,
}

func (p *Parser) parseSelectItem() (ast.SelectItem, error) {
	if p.cur.kind == tokKeyword {
		fn, ok := aggFuncs[p.cur.text]
		if !ok {
			return ast.SelectItem{}, newParseErr(p.cur.line, p.cur.col, "unsupported aggregate %q", p.cur.raw)
		}
		line, col := p.cur.line, p.cur.col
		if err := p.advance(); err != nil {
			return ast.SelectItem{}, err
		}
		if err := p.expectPunct("("); err != nil {
			return ast.SelectItem{}, err
		}
		call := &ast.AggCall{Func: fn}
		if p.isPunct("*") {
			if fn != ast.AggCount {
				return ast.SelectItem{}, newParseErr(line, col, "%s(*) is not supported, only COUNT(*)", fn)
			}
			call.IsStar = true
			if err := p.advance(); err != nil {
				return ast.SelectItem{}, err
			}
		} else {
			if p.cur.kind != tokIdent {
				return ast.SelectItem{}, newParseErr(p.cur.line, p.cur.col, "expected column name in aggregate, found %q", p.cur.raw)
			}
			call.Arg = p.cur.text
			if err := p.advance(); err != nil {
				return ast.SelectItem{}, err
			}
		}
		if err := p.expectPunct(")"); err != nil {
			return ast.SelectItem{}, err
		}
		alias, err := p.parseOptionalAlias()
		if err != nil {
			return ast.SelectItem{}, err
		}
		return ast.SelectItem{Agg: call, Alias: alias}, nil
	}

	if p.cur.kind != tokIdent {
		return ast.SelectItem{}, newParseErr(p.cur.line, p.cur.col, "expected column or aggregate, found %q", p.cur.raw)
	}
	col := p.cur.text
	if err := p.advance(); err != nil {
		return ast.SelectItem{}, err
	}
	alias, err := p.parseOptionalAlias()
	if err != nil {
		return ast.SelectItem{}, err
	}
	return ast.SelectItem{Column: col, Alias: alias}, nil
}

func (p *Parser) parseOptionalAlias() (string, error) {
	if p.isKeyword("AS") {
		if err := p.advance(); err != nil {
			return "", err
		}
		// Aggregate function names lex as keywords but are accepted as
		// aliases (e.g. AVG(price) AS avg), keeping their original text.
		_, isAggName := aggFuncs[p.cur.text]
		if p.cur.kind != tokIdent && !(p.cur.kind == tokKeyword && isAggName) {
			return "", newParseErr(p.cur.line, p.cur.col, "expected alias after AS, found %q", p.cur.raw)
		}
		alias := p.cur.raw
		return alias, p.advance()
	}
	return "", nil
}

func (p *Parser) parseIdentList() ([]string, error) {
	var out []string
	for {
		if p.cur.kind != tokIdent {
			return nil, newParseErr(p.cur.line, p.cur.col, "expected column name, found %q", p.cur.raw)
		}
		out = append(out, p.cur.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return out, nil
}

func (p *Parser) parseOrderList() ([]ast.OrderItem, error) {
	var out []ast.OrderItem
	for {
		if p.cur.kind != tokIdent {
			return nil, newParseErr(p.cur.line, p.cur.col, "expected column name, found %q", p.cur.raw)
		}
		item := ast.OrderItem{Column: p.cur.text}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isKeyword("ASC") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else if p.isKeyword("DESC") {
			item.Desc = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		out = append(out, item)
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return out, nil
}

// parseOrExpr / parseAndExpr implement OR/AND precedence with AND binding
// tighter, matching standard SQL short-circuit evaluation order.
func (p *Parser) parseOrExpr() (ast.Expr, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAndExpr() (ast.Expr, error) {
	left, err := p.parsePredicate()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePredicate()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parsePredicate() (ast.Expr, error) {
	if p.isPunct("(") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return expr, nil
	}

	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	switch {
	case p.cur.kind == tokPunct && isCompareOp(p.cur.text):
		op := ast.BinOp(p.cur.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return ast.BinaryExpr{Op: op, Left: left, Right: right}, nil

	case p.isKeyword("IN"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		list, err := p.parseLiteralList()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return ast.InExpr{Expr: left, List: list}, nil

	case p.isKeyword("BETWEEN"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		low, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("AND"); err != nil {
			return nil, err
		}
		high, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return ast.BetweenExpr{Expr: left, Low: low, High: high}, nil

	case p.isKeyword("LIKE"):
		line, col := p.cur.line, p.cur.col
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind != tokString {
			return nil, newParseErr(p.cur.line, p.cur.col, "expected string literal after LIKE, found %q", p.cur.raw)
		}
		pattern := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if !isPrefixPattern(pattern) {
			return nil, newParseErr(line, col, "unsupported feature: LIKE only supports a trailing '%%' prefix pattern")
		}
		return ast.LikeExpr{Expr: left, Pattern: strings.TrimSuffix(pattern, "%")}, nil
	}

	return nil, newParseErr(p.cur.line, p.cur.col, "expected comparison operator, IN, BETWEEN or LIKE, found %q", p.cur.raw)
}

// isPrefixPattern accepts exactly one trailing '%' and rejects any other
// wildcard usage (leading '%', '_', or an interior '%'), per spec §4.3.
func isPrefixPattern(pattern string) bool {
	if !strings.HasSuffix(pattern, "%") {
		return false
	}
	body := pattern[:len(pattern)-1]
	return !strings.ContainsAny(body, "%_")
}

func isCompareOp(s string) bool {
	switch s {
	case "=", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

func (p *Parser) parseAtom() (ast.Expr, error) {
	switch p.cur.kind {
	case tokIdent:
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.ColumnRef{Name: name}, nil
	case tokInt:
		n, _ := strconv.ParseInt(p.cur.text, 10, 64)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.Literal{Kind: ast.LiteralInt, Int: n}, nil
	case tokFloat:
		f, _ := strconv.ParseFloat(p.cur.text, 64)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.Literal{Kind: ast.LiteralFloat, Flt: f}, nil
	case tokString:
		s := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.Literal{Kind: ast.LiteralString, Str: s}, nil
	case tokPunct:
		if p.cur.text == "(" {
			if err := p.advance(); err != nil {
				return nil, err
			}
			expr, err := p.parseAtom()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return expr, nil
		}
	}
	return nil, newParseErr(p.cur.line, p.cur.col, "expected column or literal, found %q", p.cur.raw)
}

func (p *Parser) parseLiteralList() ([]ast.Literal, error) {
	var out []ast.Literal
	for {
		atom, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		lit, ok := atom.(ast.Literal)
		if !ok {
			return nil, newParseErr(p.cur.line, p.cur.col, "expected literal inside IN(...)")
		}
		out = append(out, lit)
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return out, nil
}
