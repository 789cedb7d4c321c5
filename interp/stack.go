package interp

import (
	"fmt"

	"github.com/timewinder-dev/kclvm/vm"
)

// Stack is the operand stack. Every access is checked; an empty or too
// shallow stack is reported as ErrStackUnderflow.
type Stack struct {
	items []vm.Value
}

func (s *Stack) Len() int {
	return len(s.items)
}

func (s *Stack) Push(v vm.Value) {
	s.items = append(s.items, v)
}

func (s *Stack) Pop() (vm.Value, error) {
	if len(s.items) == 0 {
		return nil, fmt.Errorf("%w: pop from empty stack", ErrStackUnderflow)
	}
	v := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	return v, nil
}

// PopN pops n values and returns them in the order they were pushed.
func (s *Stack) PopN(n int) ([]vm.Value, error) {
	if n < 0 || n > len(s.items) {
		return nil, fmt.Errorf("%w: need %d values, have %d", ErrStackUnderflow, n, len(s.items))
	}
	out := make([]vm.Value, n)
	copy(out, s.items[len(s.items)-n:])
	clear(s.items[len(s.items)-n:])
	s.items = s.items[:len(s.items)-n]
	return out, nil
}

func (s *Stack) Peek() (vm.Value, error) {
	if len(s.items) == 0 {
		return nil, fmt.Errorf("%w: peek at empty stack", ErrStackUnderflow)
	}
	return s.items[len(s.items)-1], nil
}

// PeekNth returns the value at index len-n, so PeekNth(1) is the top.
func (s *Stack) PeekNth(n int) (vm.Value, error) {
	if n < 1 || n > len(s.items) {
		return nil, fmt.Errorf("%w: no slot %d below the top of a %d-deep stack", ErrStackUnderflow, n, len(s.items))
	}
	return s.items[len(s.items)-n], nil
}

// Values returns a copy of the stack, bottom first.
func (s *Stack) Values() []vm.Value {
	out := make([]vm.Value, len(s.items))
	copy(out, s.items)
	return out
}
