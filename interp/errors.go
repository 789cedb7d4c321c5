package interp

import (
	"errors"
	"fmt"

	"github.com/timewinder-dev/kclvm/vm"
)

var (
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrUnboundName      = errors.New("unbound name")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrWrongCapability  = errors.New("wrong value kind")
	ErrUnresolvedCallee = errors.New("unresolved callee")
	ErrCallFailed       = errors.New("call failed")
	ErrInvalidOpcode    = errors.New("invalid opcode")
)

// ExecError is a fatal execution error. It aborts the current run only and
// records where in the program it happened.
type ExecError struct {
	Err error // one of the Err* sentinels
	PC  int
	Op  vm.Opcode
	Pos vm.Position
	Msg string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %s (pc %d, %s): %s", e.Pos, e.Err, e.PC, e.Op, e.Msg)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Kind returns the sentinel describing the error class.
func (e *ExecError) Kind() error {
	return e.Err
}

func (m *Machine) fail(inst vm.Instruction, kind error, format string, args ...any) error {
	return &ExecError{
		Err: kind,
		PC:  m.PC,
		Op:  inst.Code,
		Pos: inst.Pos,
		Msg: fmt.Sprintf(format, args...),
	}
}

// wrap attaches instruction provenance to an error from a stack or scope
// operation, keeping its sentinel.
func (m *Machine) wrap(inst vm.Instruction, err error) error {
	kind := err
	for _, s := range []error{ErrStackUnderflow, ErrUnboundName, ErrIndexOutOfRange, ErrWrongCapability} {
		if errors.Is(err, s) {
			kind = s
			break
		}
	}
	return &ExecError{
		Err: kind,
		PC:  m.PC,
		Op:  inst.Code,
		Pos: inst.Pos,
		Msg: err.Error(),
	}
}
