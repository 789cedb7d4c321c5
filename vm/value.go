package vm

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	IntKind Kind = iota
	FloatKind
	ListKind
	IterKind
)

func (k Kind) String() string {
	switch k {
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case ListKind:
		return "list"
	case IterKind:
		return "iterator"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Value is the closed set of runtime values. Callers inspect a Value through
// the capability queries, which report "not this kind" rather than failing.
type Value interface {
	isValue()
	Kind() Kind
	AsInt() (IntValue, bool)
	AsFloat() (FloatValue, bool)
	AsList() (*ListValue, bool)
	AsIter() (*IterValue, bool)
	String() string
}

// IntValue is an immutable arbitrary-precision integer.
type IntValue struct {
	v *big.Int
}

func NewInt(i int64) IntValue {
	return IntValue{v: big.NewInt(i)}
}

// NewBigInt copies b so later changes to it are not observed.
func NewBigInt(b *big.Int) IntValue {
	return IntValue{v: new(big.Int).Set(b)}
}

func (IntValue) isValue() {}
func (IntValue) Kind() Kind { return IntKind }

func (i IntValue) AsInt() (IntValue, bool) { return i, true }
func (IntValue) AsFloat() (FloatValue, bool) { return 0, false }
func (IntValue) AsList() (*ListValue, bool) { return nil, false }
func (IntValue) AsIter() (*IterValue, bool) { return nil, false }

func (i IntValue) big() *big.Int {
	if i.v == nil {
		return new(big.Int)
	}
	return i.v
}

// Big returns a copy of the integer.
func (i IntValue) Big() *big.Int {
	return new(big.Int).Set(i.big())
}

// Int64 reports the value as an int64 if it fits.
func (i IntValue) Int64() (int64, bool) {
	b := i.big()
	if !b.IsInt64() {
		return 0, false
	}
	return b.Int64(), true
}

func (i IntValue) Float64() float64 {
	f, _ := new(big.Float).SetInt(i.big()).Float64()
	return f
}

func (i IntValue) Add(o IntValue) IntValue {
	return IntValue{v: new(big.Int).Add(i.big(), o.big())}
}

func (i IntValue) Cmp(o IntValue) int {
	return i.big().Cmp(o.big())
}

func (i IntValue) String() string {
	return i.big().String()
}

type FloatValue float64

func (FloatValue) isValue() {}
func (FloatValue) Kind() Kind { return FloatKind }

func (FloatValue) AsInt() (IntValue, bool) { return IntValue{}, false }
func (f FloatValue) AsFloat() (FloatValue, bool) { return f, true }
func (FloatValue) AsList() (*ListValue, bool) { return nil, false }
func (FloatValue) AsIter() (*IterValue, bool) { return nil, false }

func (f FloatValue) String() string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// ListValue is always handled by pointer; every stack slot or scope entry
// holding the same *ListValue sees appends made through any of them.
type ListValue struct {
	Items []Value
}

func NewList(items ...Value) *ListValue {
	return &ListValue{Items: items}
}

func (*ListValue) isValue() {}
func (*ListValue) Kind() Kind { return ListKind }

func (*ListValue) AsInt() (IntValue, bool) { return IntValue{}, false }
func (*ListValue) AsFloat() (FloatValue, bool) { return 0, false }
func (l *ListValue) AsList() (*ListValue, bool) { return l, true }
func (*ListValue) AsIter() (*IterValue, bool) { return nil, false }

func (l *ListValue) Append(v Value) {
	l.Items = append(l.Items, v)
}

func (l *ListValue) Len() int {
	return len(l.Items)
}

// CycleMarker stands in for a list that contains itself, or for lists
// nested deeper than MaxPrintDepth.
const CycleMarker = "[...]"

const MaxPrintDepth = 256

func (l *ListValue) String() string {
	var b strings.Builder
	l.writeTo(&b, make(map[*ListValue]bool))
	return b.String()
}

// writeTo prints l, where open holds the lists currently being printed.
func (l *ListValue) writeTo(b *strings.Builder, open map[*ListValue]bool) {
	if open[l] || len(open) >= MaxPrintDepth {
		b.WriteString(CycleMarker)
		return
	}
	open[l] = true
	defer delete(open, l)
	b.WriteString("[")
	for i, v := range l.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		if sub, ok := v.AsList(); ok {
			sub.writeTo(b, open)
			continue
		}
		b.WriteString(v.String())
	}
	b.WriteString("]")
}

// IterValue is a cursor over exactly one list. It records where iteration
// starts but never advances itself; whoever drives the loop owns the
// progress counter.
type IterValue struct {
	list  *ListValue
	start int
}

// NewIter binds an iterator to v, which must be a list.
func NewIter(v Value) (*IterValue, bool) {
	l, ok := v.AsList()
	if !ok {
		return nil, false
	}
	return &IterValue{list: l}, true
}

func (*IterValue) isValue() {}
func (*IterValue) Kind() Kind { return IterKind }

func (*IterValue) AsInt() (IntValue, bool) { return IntValue{}, false }
func (*IterValue) AsFloat() (FloatValue, bool) { return 0, false }
func (*IterValue) AsList() (*ListValue, bool) { return nil, false }
func (it *IterValue) AsIter() (*IterValue, bool) { return it, true }

// Position is the index iteration starts from.
func (it *IterValue) Position() int {
	return it.start
}

// List returns the bound list.
func (it *IterValue) List() *ListValue {
	return it.list
}

// Next returns the element at pos, or false once pos is past the end.
func (it *IterValue) Next(pos int) (Value, bool) {
	if pos < 0 || pos >= len(it.list.Items) {
		return nil, false
	}
	return it.list.Items[pos], true
}

func (it *IterValue) String() string {
	return fmt.Sprintf("<iterator over %d items>", len(it.list.Items))
}

// IsNumeric reports whether v is an Integer or a Float.
func IsNumeric(v Value) bool {
	k := v.Kind()
	return k == IntKind || k == FloatKind
}
