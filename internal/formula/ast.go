package formula

import "fmt"

type node interface {
	eval(scope map[string]float64) (float64, error)
}

type literal float64

func (n literal) eval(map[string]float64) (float64, error) { return float64(n), nil }

type variable struct {
	name string
	pos  int
}

func (n variable) eval(scope map[string]float64) (float64, error) {
	v, ok := scope[n.name]
	if !ok {
		return 0, &Error{Message: fmt.Sprintf("undefined variable %q", n.name), Pos: n.pos}
	}
	return v, nil
}

type negation struct {
	operand node
}

func (n negation) eval(scope map[string]float64) (float64, error) {
	v, err := n.operand.eval(scope)
	return -v, err
}

type binary struct {
	op          byte
	left, right node
}

// Division by zero follows IEEE 754 and yields an infinity or NaN.
func (n binary) eval(scope map[string]float64) (float64, error) {
	l, err := n.left.eval(scope)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(scope)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	default:
		return l / r, nil
	}
}
