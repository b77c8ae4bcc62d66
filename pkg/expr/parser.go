package expr

import "fmt"

type node interface {
	pos() Pos
}

type literalNode struct {
	at  Pos
	val any
}

type pathNode struct {
	at    Pos
	parts []string
}

type callNode struct {
	at   Pos
	fn   string
	args []node
}

type unaryNode struct {
	at      Pos
	op      string
	operand node
}

type binaryNode struct {
	at    Pos
	op    string
	left  node
	right node
}

func (n *literalNode) pos() Pos { return n.at }
func (n *pathNode) pos() Pos    { return n.at }
func (n *callNode) pos() Pos    { return n.at }
func (n *unaryNode) pos() Pos   { return n.at }
func (n *binaryNode) pos() Pos  { return n.at }

// builtinArity maps function names to their required argument count.
// Arity is enforced at parse time so a bad call is a syntax error, not an
// evaluation fault.
var builtinArity = map[string]int{
	"len":      1,
	"contains": 2,
	"matches":  2,
	"is_empty": 1,
	"is_null":  1,
}

var comparisonOps = map[tokenKind]string{
	tokenEq: "==",
	tokenNe: "!=",
	tokenLt: "<",
	tokenGt: ">",
	tokenLe: "<=",
	tokenGe: ">=",
}

// parser is a recursive-descent parser over the token stream. Precedence is
// or < and < not < comparison.
type parser struct {
	tokens []token
	cursor int
}

func (p *parser) peek() token {
	return p.tokens[p.cursor]
}

func (p *parser) advance() token {
	tok := p.tokens[p.cursor]
	if tok.kind != tokenEOF {
		p.cursor++
	}
	return tok
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	tok := p.peek()
	if tok.kind != kind {
		return token{}, &SyntaxError{Pos: tok.pos, Message: fmt.Sprintf("expected %s, found %s", what, tok.describe())}
	}
	return p.advance(), nil
}

func (p *parser) parseExpr() (node, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenOr {
		tok := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{at: tok.pos, op: "or", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenAnd {
		tok := p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{at: tok.pos, op: "and", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (node, error) {
	if p.peek().kind == tokenNot {
		tok := p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &unaryNode{at: tok.pos, op: "not", operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	op, ok := comparisonOps[p.peek().kind]
	if !ok {
		return left, nil
	}
	tok := p.advance()

	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	if next := p.peek(); comparisonOps[next.kind] != "" {
		return nil, &SyntaxError{Pos: next.pos, Message: "chained comparisons are not supported"}
	}

	return &binaryNode{at: tok.pos, op: op, left: left, right: right}, nil
}

func (p *parser) parseOperand() (node, error) {
	tok := p.peek()
	switch tok.kind {
	case tokenLParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokenRParen, `")"`); err != nil {
			return nil, err
		}
		return inner, nil

	case tokenMinus:
		p.advance()
		num, err := p.expect(tokenNumber, "a number")
		if err != nil {
			return nil, err
		}
		return &literalNode{at: tok.pos, val: numberValue(-num.num, num.isInt)}, nil

	case tokenNumber:
		p.advance()
		return &literalNode{at: tok.pos, val: numberValue(tok.num, tok.isInt)}, nil

	case tokenString:
		p.advance()
		return &literalNode{at: tok.pos, val: tok.text}, nil

	case tokenTrue:
		p.advance()
		return &literalNode{at: tok.pos, val: true}, nil

	case tokenFalse:
		p.advance()
		return &literalNode{at: tok.pos, val: false}, nil

	case tokenNull:
		p.advance()
		return &literalNode{at: tok.pos, val: nil}, nil

	case tokenIdent:
		return p.parsePathOrCall()
	}

	return nil, &SyntaxError{Pos: tok.pos, Message: fmt.Sprintf("expected a value, found %s", tok.describe())}
}

func (p *parser) parsePathOrCall() (node, error) {
	ident := p.advance()

	if p.peek().kind == tokenLParen {
		return p.parseCall(ident)
	}

	parts := []string{ident.text}
	for p.peek().kind == tokenDot {
		p.advance()
		seg, err := p.expect(tokenIdent, "an identifier after \".\"")
		if err != nil {
			return nil, err
		}
		parts = append(parts, seg.text)
	}
	return &pathNode{at: ident.pos, parts: parts}, nil
}

func (p *parser) parseCall(ident token) (node, error) {
	arity, known := builtinArity[ident.text]
	if !known {
		return nil, &SyntaxError{Pos: ident.pos, Message: fmt.Sprintf("unknown function %q", ident.text)}
	}

	p.advance() // consume "("

	var args []node
	if p.peek().kind != tokenRParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokenComma {
				break
			}
			p.advance()
		}
	}

	if _, err := p.expect(tokenRParen, `")"`); err != nil {
		return nil, err
	}

	if len(args) != arity {
		return nil, &SyntaxError{
			Pos:     ident.pos,
			Message: fmt.Sprintf("%s expects %d argument(s), got %d", ident.text, arity, len(args)),
		}
	}

	return &callNode{at: ident.pos, fn: ident.text, args: args}, nil
}

func numberValue(f float64, isInt bool) any {
	if isInt {
		return int64(f)
	}
	return f
}
