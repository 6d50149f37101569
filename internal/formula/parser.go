package formula

import "fmt"

// MaxDepth bounds how deeply signs and parentheses may nest.
const MaxDepth = 64

type parser struct {
	name  string
	lex   *lexer
	tok   token
	vars  map[string]struct{}
	depth int
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > MaxDepth {
		return p.errorf("expression nests deeper than %d levels", MaxDepth)
	}
	return nil
}

func (p *parser) errorf(format string, args ...interface{}) *Error {
	return &Error{Name: p.name, Message: fmt.Sprintf(format, args...), Pos: p.tok.pos}
}

func (p *parser) advance() error {
	tok, problem, err := p.lex.next()
	if err != nil {
		return &Error{Name: p.name, Message: err.Error(), Pos: tok.pos}
	}
	if problem != "" {
		return &Error{Name: p.name, Message: problem, Pos: tok.pos}
	}
	p.tok = tok
	return nil
}

func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		op := p.tok.text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binary{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "*" || p.tok.text == "/") {
		op := p.tok.text[0]
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binary{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		negate := p.tok.text == "-"
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer func() { p.depth-- }()
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if negate {
			return negation{operand: operand}, nil
		}
		return operand, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	switch p.tok.kind {
	case tokNumber:
		n := literal(p.tok.num)
		return n, p.advance()

	case tokIdent:
		ident := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind == tokLParen {
			return nil, &Error{Name: p.name, Message: fmt.Sprintf("function calls are not allowed (%s)", ident.text), Pos: ident.pos}
		}
		p.vars[ident.text] = struct{}{}
		return variable{name: ident.text, pos: ident.pos}, nil

	case tokLParen:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer func() { p.depth-- }()
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, p.errorf("expected ')' but found %s", p.tok)
		}
		return inner, p.advance()
	}
	return nil, p.errorf("unexpected %s", p.tok)
}
