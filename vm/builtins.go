package vm

import (
	"fmt"
	"math"
	"math/big"
	"sort"
)

// Function is a callee reachable from CALL_FUNCTION. It receives its
// arguments in the order they were pushed and returns exactly one value.
type Function func(args []Value) (Value, error)

// FunctionTable maps callee names to their implementations.
type FunctionTable map[string]Function

func (t FunctionTable) Lookup(name string) (Function, bool) {
	fn, ok := t[name]
	return fn, ok
}

// Names returns the table's callee names, sorted.
func (t FunctionTable) Names() []string {
	out := make([]string, 0, len(t))
	for k := range t {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Without returns a copy of the table lacking the given names.
func (t FunctionTable) Without(names ...string) FunctionTable {
	out := make(FunctionTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	for _, n := range names {
		delete(out, n)
	}
	return out
}

// Builtins is the default runtime library.
var Builtins = FunctionTable{
	"range": builtinRange,
	"len":   builtinLen,
	"sum":   builtinSum,
	"float": builtinFloat,
	"int":   builtinInt,
}

// maxRangeLen bounds the list a single range() call may materialize.
const maxRangeLen = 1 << 24

func intArg(fn string, what string, v Value) (int64, error) {
	i, ok := v.AsInt()
	if !ok {
		return 0, fmt.Errorf("%s() %s must be an integer, got %s", fn, what, v.Kind())
	}
	n, ok := i.Int64()
	if !ok {
		return 0, fmt.Errorf("%s() %s out of range: %s", fn, what, i)
	}
	return n, nil
}

// builtinRange implements range(stop), range(start, stop) and
// range(start, stop, step).
func builtinRange(args []Value) (Value, error) {
	var start, stop, step int64 = 0, 0, 1
	var err error

	switch len(args) {
	case 1:
		stop, err = intArg("range", "stop", args[0])
		if err != nil {
			return nil, err
		}
	case 2, 3:
		start, err = intArg("range", "start", args[0])
		if err != nil {
			return nil, err
		}
		stop, err = intArg("range", "stop", args[1])
		if err != nil {
			return nil, err
		}
		if len(args) == 3 {
			step, err = intArg("range", "step", args[2])
			if err != nil {
				return nil, err
			}
			if step == 0 {
				return nil, fmt.Errorf("range() step argument must not be zero")
			}
		}
	default:
		return nil, fmt.Errorf("range() takes 1 to 3 arguments, got %d", len(args))
	}

	n := rangeLen(start, stop, step)
	if n > maxRangeLen {
		return nil, fmt.Errorf("range() result exceeds %d elements", maxRangeLen)
	}
	items := make([]Value, 0, n)
	// Every element lies between start and stop, so only the increment
	// past the last one can wrap, and it is never used.
	for i, k := start, uint64(0); k < n; i, k = i+step, k+1 {
		items = append(items, NewInt(i))
	}
	return NewList(items...), nil
}

// rangeLen counts the elements of range(start, stop, step) without
// overflowing, for any int64 bounds and a non-zero step.
func rangeLen(start, stop, step int64) uint64 {
	var span, stride uint64
	switch {
	case step > 0 && start < stop:
		span, stride = uint64(stop)-uint64(start), uint64(step)
	case step < 0 && start > stop:
		span, stride = uint64(start)-uint64(stop), -uint64(step)
	default:
		return 0
	}
	return (span-1)/stride + 1
}

func builtinLen(args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("len() takes exactly 1 argument, got %d", len(args))
	}
	if l, ok := args[0].AsList(); ok {
		return NewInt(int64(l.Len())), nil
	}
	if it, ok := args[0].AsIter(); ok {
		return NewInt(int64(it.List().Len() - it.Position())), nil
	}
	return nil, fmt.Errorf("len() argument must be a list, got %s", args[0].Kind())
}

// builtinSum adds the elements of a list with the same promotion rules as
// BINARY_ADD.
func builtinSum(args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("sum() takes exactly 1 argument, got %d", len(args))
	}
	l, ok := args[0].AsList()
	if !ok {
		return nil, fmt.Errorf("sum() argument must be a list, got %s", args[0].Kind())
	}
	var acc Value = NewInt(0)
	for i, item := range l.Items {
		next, err := Add(acc, item)
		if err != nil {
			return nil, fmt.Errorf("sum() element %d: %w", i, err)
		}
		acc = next
	}
	return acc, nil
}

func builtinFloat(args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("float() takes exactly 1 argument, got %d", len(args))
	}
	if f, ok := args[0].AsFloat(); ok {
		return f, nil
	}
	if i, ok := args[0].AsInt(); ok {
		return FloatValue(i.Float64()), nil
	}
	return nil, fmt.Errorf("float() argument must be a number, got %s", args[0].Kind())
}

// builtinInt truncates floats toward zero.
func builtinInt(args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("int() takes exactly 1 argument, got %d", len(args))
	}
	if i, ok := args[0].AsInt(); ok {
		return i, nil
	}
	v, ok := args[0].AsFloat()
	if !ok {
		return nil, fmt.Errorf("int() argument must be a number, got %s", args[0].Kind())
	}
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("int() cannot convert %s", v)
	}
	b, _ := big.NewFloat(math.Trunc(f)).Int(nil)
	return NewBigInt(b), nil
}
