// Package formula evaluates reward formulas: arithmetic over a flat scope of
// named numbers. The grammar is deliberately small.
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = { "+" | "-" } primary
//	primary = number | identifier | "(" expr ")"
//
// There are no function calls, strings, assignments or units, so a formula
// can only read the scope it is given.
package formula

import (
	"fmt"
	"sort"
)

// Error is returned for malformed formulas and undefined variables.
// MaxLength bounds the source length of a formula.
const MaxLength = 4096

type Error struct {
	Name    string
	Message string
	Pos     int // byte offset, -1 when not tied to a position
}

func (e *Error) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("formula %q: %s at offset %d", e.Name, e.Message, e.Pos)
	}
	return fmt.Sprintf("formula %q: %s", e.Name, e.Message)
}

// Program is a parsed formula. It is immutable and safe for concurrent use.
type Program struct {
	name string
	src  string
	root node
	vars []string
}

func (p *Program) Name() string { return p.name }

func (p *Program) String() string { return p.src }

// Vars returns the variable names the formula reads, sorted.
func (p *Program) Vars() []string {
	return append([]string(nil), p.vars...)
}

// Eval runs the program against scope.
func (p *Program) Eval(scope map[string]float64) (float64, error) {
	v, err := p.root.eval(scope)
	if err != nil {
		if fe, ok := err.(*Error); ok {
			fe.Name = p.name
		}
		return 0, err
	}
	return v, nil
}

// Parse compiles src. name is only used to label errors.
func Parse(name, src string) (*Program, error) {
	if len(src) > MaxLength {
		return nil, &Error{Name: name, Message: fmt.Sprintf("expression is longer than %d bytes", MaxLength), Pos: -1}
	}
	p := &parser{name: name, lex: newLexer(src), vars: map[string]struct{}{}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind == tokEOF {
		return nil, &Error{Name: name, Message: "empty expression", Pos: -1}
	}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %s", p.tok)
	}

	vars := make([]string, 0, len(p.vars))
	for v := range p.vars {
		vars = append(vars, v)
	}
	sort.Strings(vars)

	return &Program{name: name, src: src, root: root, vars: vars}, nil
}

// Evaluate parses and runs src in one step.
func Evaluate(name, src string, scope map[string]float64) (float64, error) {
	prog, err := Parse(name, src)
	if err != nil {
		return 0, err
	}
	return prog.Eval(scope)
}
