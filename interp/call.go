package interp

import (
	"github.com/timewinder-dev/kclvm/vm"
)

// callFunction pops argc arguments, resolves the callee named by Arg2 and
// pushes its single result. Nothing else on the stack is touched.
func (m *Machine) callFunction(inst vm.Instruction) (vm.Value, error) {
	name, ok := m.Program.Name(int(inst.Arg2))
	if !ok {
		return nil, m.fail(inst, ErrIndexOutOfRange, "callee name index %d, table has %d names", inst.Arg2, len(m.Program.Names))
	}
	fn, ok := m.Functions.Lookup(name)
	if !ok {
		return nil, m.fail(inst, ErrUnresolvedCallee, "no function named %q", name)
	}
	args, err := m.Stack.PopN(int(inst.Arg))
	if err != nil {
		return nil, m.wrap(inst, err)
	}
	result, err := fn(args)
	if err != nil {
		return nil, &ExecError{Err: ErrCallFailed, PC: m.PC, Op: inst.Code, Pos: inst.Pos, Msg: name + ": " + err.Error()}
	}
	if result == nil {
		return nil, m.fail(inst, ErrCallFailed, "%s returned no value", name)
	}
	m.Stack.Push(result)
	return result, nil
}
