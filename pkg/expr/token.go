package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenNumber
	tokenString
	tokenTrue
	tokenFalse
	tokenNull
	tokenAnd
	tokenOr
	tokenNot
	tokenEq
	tokenNe
	tokenLt
	tokenGt
	tokenLe
	tokenGe
	tokenLParen
	tokenRParen
	tokenComma
	tokenDot
	tokenMinus
)

type token struct {
	kind  tokenKind
	pos   Pos
	text  string
	num   float64
	isInt bool
}

func (t token) describe() string {
	switch t.kind {
	case tokenEOF:
		return "end of expression"
	case tokenString:
		return fmt.Sprintf("string %q", t.text)
	case tokenNumber:
		return fmt.Sprintf("number %s", t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

// keywords are case-insensitive; && / || / ! are accepted aliases.
var keywords = map[string]tokenKind{
	"and":   tokenAnd,
	"or":    tokenOr,
	"not":   tokenNot,
	"true":  tokenTrue,
	"false": tokenFalse,
	"null":  tokenNull,
	"none":  tokenNull,
}

type lexer struct {
	src    []rune
	offset int
	line   int
	col    int
}

func lex(source string) ([]token, error) {
	lx := &lexer{src: []rune(source), line: 1, col: 1}
	var tokens []token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.kind == tokenEOF {
			return tokens, nil
		}
	}
}

func (lx *lexer) pos() Pos {
	return Pos{Line: lx.line, Column: lx.col}
}

func (lx *lexer) peekRune() rune {
	if lx.offset >= len(lx.src) {
		return 0
	}
	return lx.src[lx.offset]
}

func (lx *lexer) advance() rune {
	r := lx.src[lx.offset]
	lx.offset++
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *lexer) next() (token, error) {
	for lx.offset < len(lx.src) && unicode.IsSpace(lx.peekRune()) {
		lx.advance()
	}

	start := lx.pos()
	if lx.offset >= len(lx.src) {
		return token{kind: tokenEOF, pos: start, text: ""}, nil
	}

	r := lx.peekRune()
	switch {
	case unicode.IsLetter(r) || r == '_':
		return lx.lexIdent(start), nil
	case unicode.IsDigit(r):
		return lx.lexNumber(start)
	case r == '\'' || r == '"':
		return lx.lexString(start)
	}

	lx.advance()
	switch r {
	case '(':
		return token{kind: tokenLParen, pos: start, text: "("}, nil
	case ')':
		return token{kind: tokenRParen, pos: start, text: ")"}, nil
	case ',':
		return token{kind: tokenComma, pos: start, text: ","}, nil
	case '.':
		return token{kind: tokenDot, pos: start, text: "."}, nil
	case '-':
		return token{kind: tokenMinus, pos: start, text: "-"}, nil
	case '=':
		if lx.peekRune() == '=' {
			lx.advance()
			return token{kind: tokenEq, pos: start, text: "=="}, nil
		}
		return token{}, &SyntaxError{Pos: start, Message: "unexpected \"=\", did you mean \"==\"?"}
	case '!':
		if lx.peekRune() == '=' {
			lx.advance()
			return token{kind: tokenNe, pos: start, text: "!="}, nil
		}
		return token{kind: tokenNot, pos: start, text: "!"}, nil
	case '<':
		if lx.peekRune() == '=' {
			lx.advance()
			return token{kind: tokenLe, pos: start, text: "<="}, nil
		}
		return token{kind: tokenLt, pos: start, text: "<"}, nil
	case '>':
		if lx.peekRune() == '=' {
			lx.advance()
			return token{kind: tokenGe, pos: start, text: ">="}, nil
		}
		return token{kind: tokenGt, pos: start, text: ">"}, nil
	case '&':
		if lx.peekRune() == '&' {
			lx.advance()
			return token{kind: tokenAnd, pos: start, text: "&&"}, nil
		}
		return token{}, &SyntaxError{Pos: start, Message: "unexpected \"&\", did you mean \"&&\"?"}
	case '|':
		if lx.peekRune() == '|' {
			lx.advance()
			return token{kind: tokenOr, pos: start, text: "||"}, nil
		}
		return token{}, &SyntaxError{Pos: start, Message: "unexpected \"|\", did you mean \"||\"?"}
	}

	return token{}, &SyntaxError{Pos: start, Message: fmt.Sprintf("unexpected character %q", string(r))}
}

func (lx *lexer) lexIdent(start Pos) token {
	var sb strings.Builder
	for lx.offset < len(lx.src) {
		r := lx.peekRune()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		sb.WriteRune(lx.advance())
	}
	text := sb.String()
	if kind, ok := keywords[strings.ToLower(text)]; ok {
		return token{kind: kind, pos: start, text: text}
	}
	return token{kind: tokenIdent, pos: start, text: text}
}

func (lx *lexer) lexNumber(start Pos) (token, error) {
	var sb strings.Builder
	isInt := true
	for lx.offset < len(lx.src) && unicode.IsDigit(lx.peekRune()) {
		sb.WriteRune(lx.advance())
	}
	// A dot is part of the number only when followed by a digit; otherwise
	// it would swallow path separators.
	if lx.offset+1 < len(lx.src) && lx.peekRune() == '.' && unicode.IsDigit(lx.src[lx.offset+1]) {
		isInt = false
		sb.WriteRune(lx.advance())
		for lx.offset < len(lx.src) && unicode.IsDigit(lx.peekRune()) {
			sb.WriteRune(lx.advance())
		}
	}
	text := sb.String()
	num, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, &SyntaxError{Pos: start, Message: fmt.Sprintf("invalid number %q", text)}
	}
	return token{kind: tokenNumber, pos: start, text: text, num: num, isInt: isInt}, nil
}

func (lx *lexer) lexString(start Pos) (token, error) {
	quote := lx.advance()
	var sb strings.Builder
	for {
		if lx.offset >= len(lx.src) {
			return token{}, &SyntaxError{Pos: start, Message: "unterminated string literal"}
		}
		r := lx.advance()
		if r == quote {
			return token{kind: tokenString, pos: start, text: sb.String()}, nil
		}
		if r == '\\' {
			if lx.offset >= len(lx.src) {
				return token{}, &SyntaxError{Pos: start, Message: "unterminated string literal"}
			}
			esc := lx.advance()
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '\\', '\'', '"':
				sb.WriteRune(esc)
			default:
				return token{}, &SyntaxError{Pos: start, Message: fmt.Sprintf("unknown escape sequence \\%s", string(esc))}
			}
			continue
		}
		sb.WriteRune(r)
	}
}
