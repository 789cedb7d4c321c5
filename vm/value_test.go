package vm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCapabilitiesAreTotal(t *testing.T) {
	list := NewList(NewInt(1))
	iter, ok := NewIter(list)
	require.True(t, ok)

	values := []Value{NewInt(3), FloatValue(1.5), list, iter}
	for _, v := range values {
		_, isInt := v.AsInt()
		_, isFloat := v.AsFloat()
		_, isList := v.AsList()
		_, isIter := v.AsIter()
		require.Equal(t, v.Kind() == IntKind, isInt, v.Kind().String())
		require.Equal(t, v.Kind() == FloatKind, isFloat, v.Kind().String())
		require.Equal(t, v.Kind() == ListKind, isList, v.Kind().String())
		require.Equal(t, v.Kind() == IterKind, isIter, v.Kind().String())
		require.Equal(t, isInt || isFloat, IsNumeric(v))
	}
}

func TestListAliasing(t *testing.T) {
	a := NewList()
	var b Value = a
	bl, ok := b.AsList()
	require.True(t, ok)
	bl.Append(NewInt(1))
	require.Equal(t, 1, a.Len())
	require.Equal(t, "[1]", a.String())
}

func TestIterDoesNotAdvance(t *testing.T) {
	l := NewList(NewInt(1), NewInt(2))
	it, ok := NewIter(l)
	require.True(t, ok)

	v, ok := it.Next(0)
	require.True(t, ok)
	require.Equal(t, "1", v.String())
	v, ok = it.Next(0)
	require.True(t, ok)
	require.Equal(t, "1", v.String())
	require.Equal(t, 0, it.Position())

	_, ok = it.Next(2)
	require.False(t, ok)
	_, ok = it.Next(-1)
	require.False(t, ok)

	// The iterator sees later appends to its list.
	l.Append(NewInt(3))
	v, ok = it.Next(2)
	require.True(t, ok)
	require.Equal(t, "3", v.String())
	require.Same(t, l, it.List())

	_, ok = NewIter(NewInt(1))
	require.False(t, ok)
}

func TestNewBigIntCopies(t *testing.T) {
	b := big.NewInt(10)
	i := NewBigInt(b)
	b.SetInt64(11)
	require.Equal(t, "10", i.String())

	i.Big().SetInt64(12)
	require.Equal(t, "10", i.String())
}

func TestIntValueRange(t *testing.T) {
	n, ok := NewInt(-42).Int64()
	require.True(t, ok)
	require.Equal(t, int64(-42), n)

	huge, ok := new(big.Int).SetString("340282366920938463463374607431768211456", 10)
	require.True(t, ok)
	_, ok = NewBigInt(huge).Int64()
	require.False(t, ok)
	require.Equal(t, 1, NewBigInt(huge).Cmp(NewInt(1)))

	// The zero value is usable.
	var zero IntValue
	require.Equal(t, "0", zero.String())
	require.Equal(t, "5", zero.Add(NewInt(5)).String())
}

func TestFloatString(t *testing.T) {
	tests := []struct {
		in   FloatValue
		want string
	}{
		{1, "1.0"},
		{2.5, "2.5"},
		{-0.25, "-0.25"},
		{1e21, "1e+21"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.in.String())
	}
}

func TestAdd(t *testing.T) {
	tests := []struct {
		a, b Value
		want string
		kind Kind
	}{
		{NewInt(1), NewInt(2), "3", IntKind},
		{NewInt(1), FloatValue(0.5), "1.5", FloatKind},
		{FloatValue(0.5), NewInt(1), "1.5", FloatKind},
		{FloatValue(0.25), FloatValue(0.25), "0.5", FloatKind},
	}
	for _, tt := range tests {
		got, err := Add(tt.a, tt.b)
		require.NoError(t, err)
		require.Equal(t, tt.kind, got.Kind())
		require.Equal(t, tt.want, got.String())
	}

	_, err := Add(NewList(), NewInt(1))
	require.ErrorIs(t, err, ErrNotNumeric)
	_, err = Add(NewInt(1), NewList())
	require.ErrorIs(t, err, ErrNotNumeric)
}

func TestListStringCycles(t *testing.T) {
	l := NewList(NewInt(1))
	l.Append(l)
	require.Equal(t, "[1, [...]]", l.String())

	// Two lists holding each other.
	a, b := NewList(), NewList()
	a.Append(b)
	b.Append(a)
	require.Equal(t, "[[[...]]]", a.String())

	deep := NewList()
	for i := 0; i < MaxPrintDepth+10; i++ {
		deep = NewList(deep)
	}
	require.Contains(t, deep.String(), CycleMarker)
}
