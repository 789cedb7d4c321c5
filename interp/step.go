package interp

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/kclvm/vm"
)

type StepResult int

const (
	ContinueStep StepResult = iota
	JumpStep                // the instruction assigned the program counter
	EndStep                 // the program counter is past the last instruction
	ErrorStep
)

func (r StepResult) String() string {
	switch r {
	case ContinueStep:
		return "Continue"
	case JumpStep:
		return "Jump"
	case EndStep:
		return "End"
	case ErrorStep:
		return "Error"
	default:
		return fmt.Sprintf("StepResult(%d)", int(r))
	}
}

// Step executes the instruction at PC. Jumping opcodes set PC to their
// operand, which is the next instruction to run; every other opcode advances
// PC by one. On error PC stays on the failing instruction.
func (m *Machine) Step() (StepResult, error) {
	inst, ok := m.Program.Instruction(m.PC)
	if !ok {
		log.Trace().Int("pc", m.PC).Msg("Step: end of code")
		return EndStep, nil
	}
	m.steps++

	log.Trace().
		Str("opcode", inst.Code.String()).
		Int("pc", m.PC).
		Uint16("arg", inst.Arg).
		Int("stack_depth", m.Stack.Len()).
		Msg("Step: executing instruction")

	switch inst.Code {
	case vm.LOAD_CONST:
		c, ok := m.Program.Constant(int(inst.Arg))
		if !ok {
			return ErrorStep, m.fail(inst, ErrIndexOutOfRange, "constant index %d, pool has %d constants", inst.Arg, len(m.Program.Constants))
		}
		m.Stack.Push(c)
		log.Trace().Stringer("value", c).Msg("  LOAD_CONST")
	case vm.STORE_GLOBAL:
		name, err := m.name(inst)
		if err != nil {
			return ErrorStep, err
		}
		v, err := m.Stack.Pop()
		if err != nil {
			return ErrorStep, m.wrap(inst, err)
		}
		m.Globals.Store(name, v)
		log.Trace().Str("variable", name).Stringer("value", v).Str("scope", "global").Msg("  STORE_GLOBAL")
	case vm.STORE_LOCAL:
		name, err := m.name(inst)
		if err != nil {
			return ErrorStep, err
		}
		v, err := m.Stack.Peek()
		if err != nil {
			return ErrorStep, m.wrap(inst, err)
		}
		m.Locals.Store(name, v)
		log.Trace().Str("variable", name).Stringer("value", v).Str("scope", "local").Msg("  STORE_LOCAL")
	case vm.LOAD_LOCAL:
		if err := m.load(inst, m.Locals); err != nil {
			return ErrorStep, err
		}
	case vm.LOAD_GLOBAL:
		if err := m.load(inst, m.Globals); err != nil {
			return ErrorStep, err
		}
	case vm.BUILD_LIST:
		m.Stack.Push(vm.NewList())
		log.Trace().Int("stack_depth", m.Stack.Len()).Msg("  BUILD_LIST")
	case vm.LIST_APPEND:
		item, err := m.Stack.Pop()
		if err != nil {
			return ErrorStep, m.wrap(inst, err)
		}
		target, err := m.Stack.PeekNth(int(inst.Arg))
		if err != nil {
			return ErrorStep, m.wrap(inst, err)
		}
		l, ok := target.AsList()
		if !ok {
			return ErrorStep, m.fail(inst, ErrWrongCapability, "LIST_APPEND target at depth %d is %s, expected list", inst.Arg, target.Kind())
		}
		l.Append(item)
		log.Trace().Uint16("depth", inst.Arg).Int("len", l.Len()).Msg("  LIST_APPEND")
	case vm.CALL_FUNCTION:
		result, err := m.callFunction(inst)
		if err != nil {
			return ErrorStep, err
		}
		log.Trace().Uint16("argc", inst.Arg).Stringer("result", result).Msg("  CALL_FUNCTION")
	case vm.GET_ITER:
		v, err := m.Stack.Pop()
		if err != nil {
			return ErrorStep, m.wrap(inst, err)
		}
		it, ok := vm.NewIter(v)
		if !ok {
			return ErrorStep, m.fail(inst, ErrWrongCapability, "cannot iterate over %s", v.Kind())
		}
		m.Stack.Push(it)
		log.Trace().Int("len", it.List().Len()).Msg("  GET_ITER")
	case vm.FOR_ITER:
		top, err := m.Stack.Peek()
		if err != nil {
			return ErrorStep, m.wrap(inst, err)
		}
		it, ok := top.AsIter()
		if !ok {
			return ErrorStep, m.fail(inst, ErrWrongCapability, "FOR_ITER on %s, expected iterator", top.Kind())
		}
		item, ok := m.progress.next(it)
		if !ok {
			if err := m.jump(inst); err != nil {
				return ErrorStep, err
			}
			log.Trace().Int("exit_pc", m.PC).Msg("  FOR_ITER: exhausted, exiting loop")
			return JumpStep, nil
		}
		m.Stack.Push(item)
		log.Trace().Stringer("item", item).Int("progress", m.progress[it]).Msg("  FOR_ITER")
	case vm.POP_TOP:
		v, err := m.Stack.Pop()
		if err != nil {
			return ErrorStep, m.wrap(inst, err)
		}
		if it, ok := v.AsIter(); ok {
			m.progress.release(it)
		}
		log.Trace().Stringer("value", v).Msg("  POP_TOP")
	case vm.JMP_ABS:
		from := m.PC
		if err := m.jump(inst); err != nil {
			return ErrorStep, err
		}
		log.Trace().Int("from", from).Int("to", m.PC).Msg("  JMP_ABS")
		return JumpStep, nil
	case vm.BINARY_ADD:
		b, err := m.Stack.Pop()
		if err != nil {
			return ErrorStep, m.wrap(inst, err)
		}
		a, err := m.Stack.Pop()
		if err != nil {
			return ErrorStep, m.wrap(inst, err)
		}
		if !vm.IsNumeric(a) || !vm.IsNumeric(b) {
			return ErrorStep, m.fail(inst, ErrWrongCapability, "cannot add %s and %s", a.Kind(), b.Kind())
		}
		v, err := vm.Add(a, b)
		if err != nil {
			return ErrorStep, m.fail(inst, ErrWrongCapability, "%s", err)
		}
		m.Stack.Push(v)
		log.Trace().Stringer("a", a).Stringer("b", b).Stringer("result", v).Msg("  BINARY_ADD")
	default:
		return ErrorStep, m.fail(inst, ErrInvalidOpcode, "unhandled instruction %s", inst.Code)
	}
	m.PC++
	return ContinueStep, nil
}

func (m *Machine) name(inst vm.Instruction) (string, error) {
	name, ok := m.Program.Name(int(inst.Arg))
	if !ok {
		return "", m.fail(inst, ErrIndexOutOfRange, "name index %d, table has %d names", inst.Arg, len(m.Program.Names))
	}
	return name, nil
}

func (m *Machine) load(inst vm.Instruction, scope *Scope) error {
	name, err := m.name(inst)
	if err != nil {
		return err
	}
	v, err := scope.Load(name)
	if err != nil {
		return m.wrap(inst, err)
	}
	m.Stack.Push(v)
	log.Trace().Str("variable", name).Stringer("value", v).Msg("  " + inst.Code.String())
	return nil
}

// jump moves PC to the instruction's target. A target equal to the program
// length halts normally.
func (m *Machine) jump(inst vm.Instruction) error {
	target := int(inst.Arg)
	if target > m.Program.Len() {
		return m.fail(inst, ErrIndexOutOfRange, "jump target %d, program has %d instructions", target, m.Program.Len())
	}
	m.PC = target
	return nil
}
