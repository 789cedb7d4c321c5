package vm

import (
	"errors"
	"fmt"
)

var ErrNotNumeric = errors.New("operand is not numeric")

// Add sums two numbers. Int+Int stays an integer of arbitrary size; any
// float operand promotes the result to float.
func Add(a, b Value) (Value, error) {
	if ai, ok := a.AsInt(); ok {
		if bi, ok := b.AsInt(); ok {
			return ai.Add(bi), nil
		}
		if bf, ok := b.AsFloat(); ok {
			return FloatValue(ai.Float64() + float64(bf)), nil
		}
		return nil, fmt.Errorf("%w: %s + %s", ErrNotNumeric, a.Kind(), b.Kind())
	}
	if af, ok := a.AsFloat(); ok {
		if bi, ok := b.AsInt(); ok {
			return FloatValue(float64(af) + bi.Float64()), nil
		}
		if bf, ok := b.AsFloat(); ok {
			return af + bf, nil
		}
	}
	return nil, fmt.Errorf("%w: %s + %s", ErrNotNumeric, a.Kind(), b.Kind())
}
