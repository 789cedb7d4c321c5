package interp

import (
	"github.com/timewinder-dev/kclvm/vm"
)

// Resolver finds the callee named by a CALL_FUNCTION instruction.
// vm.FunctionTable satisfies it.
type Resolver interface {
	Lookup(name string) (vm.Function, bool)
}

// Machine is the state of one program execution. It is not safe for
// concurrent use; run independent programs on independent machines.
type Machine struct {
	Program   *vm.Program
	PC        int
	Stack     Stack
	Globals   *Scope
	Locals    *Scope
	Functions Resolver

	progress progressTable
	steps    uint64
}

func NewMachine(prog *vm.Program, fns Resolver) *Machine {
	if fns == nil {
		fns = vm.Builtins
	}
	return &Machine{
		Program:   prog,
		Globals:   NewScope(),
		Locals:    NewScope(),
		Functions: fns,
		progress:  make(progressTable),
	}
}

// Done reports whether the program counter has run off the end of the
// program, which is the normal halt.
func (m *Machine) Done() bool {
	return m.PC >= m.Program.Len()
}

// Steps is the number of instructions executed so far.
func (m *Machine) Steps() uint64 {
	return m.steps
}
