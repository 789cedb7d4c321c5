package vm

import (
	"fmt"
	"io"
	"math/big"

	"go.starlark.net/syntax"
)

func LoadFile(name string, r io.Reader) (*Program, error) {
	opts := syntax.FileOptions{}
	f, err := opts.Parse(name, r, 0)
	if err != nil {
		return nil, err
	}
	return Compile(f)
}

func unparen(e syntax.Expr) syntax.Expr {
	if p, ok := e.(*syntax.ParenExpr); ok {
		return unparen(p.X)
	}
	return e
}

func litToValue(l any) (Value, error) {
	switch t := l.(type) {
	case int64:
		return NewInt(t), nil
	case *big.Int:
		return NewBigInt(t), nil
	case float64:
		return FloatValue(t), nil
	}
	return nil, fmt.Errorf("unsupported literal value type %T", l)
}

func negate(v Value) Value {
	if i, ok := v.AsInt(); ok {
		return IntValue{v: new(big.Int).Neg(i.big())}
	}
	if f, ok := v.AsFloat(); ok {
		return -f
	}
	return v
}
