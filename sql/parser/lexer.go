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

// Package parser implements the case-insensitive SQL grammar described in
// spec §4.3: a hand-written lexer plus recursive-descent parser producing
// the sql/ast types. There is no generated-parser dependency here — the
// grammar is small and specific enough that a teacher-style hand-rolled
// descent, like the planner's own hand-written clause builders, is the
// idiomatic fit.
package parser

import (
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokKeyword
	tokInt
	tokFloat
	tokString
	tokPunct
)

type token struct {
	kind   tokenKind
	text   string // normalized (upper-cased) for keywords, original text for others
	raw    string
	line   int
	col    int
}

var keywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "GROUP": true, "BY": true,
	"ORDER": true, "ASC": true, "DESC": true, "LIMIT": true, "AND": true,
	"OR": true, "IN": true, "BETWEEN": true, "LIKE": true, "AS": true,
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
}

// lexer tokenizes SQL text, skipping whitespace and `--` line comments.
type lexer struct {
	src  []rune
	pos  int
	line int
	col  int
}

func newLexer(sql string) *lexer {
	return &lexer{src: []rune(sql), line: 1, col: 1}
}

func (l *lexer) peekRune() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipSpaceAndComments() {
	for {
		for l.pos < len(l.src) && isSpace(l.peekRune()) {
			l.advance()
		}
		if l.pos+1 < len(l.src) && l.src[l.pos] == '-' && l.src[l.pos+1] == '-' {
			for l.pos < len(l.src) && l.peekRune() != '\n' {
				l.advance()
			}
			continue
		}
		break
	}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r) || r == '.'
}

// next returns the next token, or a tokEOF token at end of input.
func (l *lexer) next() (token, error) {
	l.skipSpaceAndComments()
	line, col := l.line, l.col
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: line, col: col}, nil
	}

	r := l.peekRune()

	switch {
	case isIdentStart(r):
		start := l.pos
		for l.pos < len(l.src) && isIdentPart(l.peekRune()) {
			l.advance()
		}
		text := string(l.src[start:l.pos])
		upper := strings.ToUpper(text)
		if keywords[upper] {
			return token{kind: tokKeyword, text: upper, raw: text, line: line, col: col}, nil
		}
		return token{kind: tokIdent, text: text, raw: text, line: line, col: col}, nil

	case isDigit(r):
		start := l.pos
		isFloat := false
		for l.pos < len(l.src) && isDigit(l.peekRune()) {
			l.advance()
		}
		if l.peekRune() == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
			isFloat = true
			l.advance()
			for l.pos < len(l.src) && isDigit(l.peekRune()) {
				l.advance()
			}
		}
		text := string(l.src[start:l.pos])
		kind := tokInt
		if isFloat {
			kind = tokFloat
		}
		return token{kind: kind, text: text, raw: text, line: line, col: col}, nil

	case r == '\'':
		l.advance() // opening quote
		var b strings.Builder
		for {
			if l.pos >= len(l.src) {
				return token{}, newParseErr(line, col, "unterminated string literal")
			}
			c := l.advance()
			if c == '\'' {
				if l.peekRune() == '\'' {
					b.WriteRune('\'')
					l.advance()
					continue
				}
				break
			}
			b.WriteRune(c)
		}
		return token{kind: tokString, text: b.String(), raw: b.String(), line: line, col: col}, nil

	case r == '!' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '=':
		l.advance()
		l.advance()
		return token{kind: tokPunct, text: "!=", line: line, col: col}, nil

	case r == '<' || r == '>':
		l.advance()
		if l.peekRune() == '=' {
			l.advance()
			return token{kind: tokPunct, text: string(r) + "=", line: line, col: col}, nil
		}
		return token{kind: tokPunct, text: string(r), line: line, col: col}, nil

	case r == '=' || r == '(' || r == ')' || r == ',' || r == '*':
		l.advance()
		return token{kind: tokPunct, text: string(r), line: line, col: col}, nil

	default:
		return token{}, newParseErr(line, col, "unexpected character %q", r)
	}
}
