// Package expr implements the boolean expression language shared by decision
// rule conditions, preconditions, failure mode detection and compliance policy
// rules. The grammar covers literals, dotted variable paths, comparison
// operators, short-circuiting not/and/or and a small set of built-in
// functions (len, contains, matches, is_empty, is_null).
//
// Parsing is pure: the same source always yields the same AST or the same
// *SyntaxError. Evaluation is referentially transparent and never aborts on
// type errors; instead faults are recorded and the offending subexpression
// evaluates to false.
package expr

import (
	"fmt"
	"sort"
)

// Pos is a 1-based position in the expression source.
type Pos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (p Pos) String() string {
	return fmt.Sprintf("line %d column %d", p.Line, p.Column)
}

// SyntaxError describes a tokenizer or parser failure with its position.
type SyntaxError struct {
	Pos     Pos
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Expr is a parsed, immutable expression.
type Expr struct {
	source string
	root   node
}

// Parse tokenizes and parses the given expression source.
func Parse(source string) (*Expr, error) {
	tokens, err := lex(source)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, &SyntaxError{Pos: tok.pos, Message: fmt.Sprintf("unexpected %s after end of expression", tok.describe())}
	}
	return &Expr{source: source, root: root}, nil
}

// MustParse is a convenience for tests and built-in tables. It panics on
// syntax errors.
func MustParse(source string) *Expr {
	e, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return e
}

// Source returns the original expression text.
func (e *Expr) Source() string {
	return e.source
}

// Variables returns the sorted set of root variable names the expression
// references. For a dotted path like user.profile.name the root is "user".
func (e *Expr) Variables() []string {
	seen := map[string]bool{}
	collectRoots(e.root, seen)

	roots := make([]string, 0, len(seen))
	for name := range seen {
		roots = append(roots, name)
	}
	sort.Strings(roots)
	return roots
}

func collectRoots(n node, seen map[string]bool) {
	switch n := n.(type) {
	case *pathNode:
		seen[n.parts[0]] = true
	case *callNode:
		for _, arg := range n.args {
			collectRoots(arg, seen)
		}
	case *unaryNode:
		collectRoots(n.operand, seen)
	case *binaryNode:
		collectRoots(n.left, seen)
		collectRoots(n.right, seen)
	}
}
