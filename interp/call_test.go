package interp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/kclvm/vm"
)

func TestCallFunctionArgumentOrder(t *testing.T) {
	var seen []vm.Value
	fns := vm.FunctionTable{
		"first": func(args []vm.Value) (vm.Value, error) {
			seen = args
			return args[0], nil
		},
	}
	prog := &vm.Program{
		Names:     []string{"first", "r"},
		Constants: ints(7, 8, 9),
		Instructions: []vm.Instruction{
			op(vm.LOAD_CONST, 0),
			op(vm.LOAD_CONST, 1),
			op(vm.LOAD_CONST, 2),
			op(vm.CALL_FUNCTION, 2, 0),
			op(vm.STORE_GLOBAL, 1),
		},
	}
	m, err := Run(prog, fns)
	require.NoError(t, err)
	require.Len(t, seen, 2)
	requireInt(t, 8, seen[0])
	requireInt(t, 9, seen[1])
	requireInt(t, 8, m.Globals.Variables["r"])

	// The value below the arguments is untouched.
	require.Equal(t, 1, m.Stack.Len())
	top, err := m.Stack.Peek()
	require.NoError(t, err)
	requireInt(t, 7, top)
}

func TestCallFunctionUnresolved(t *testing.T) {
	prog := &vm.Program{
		Names:        []string{"missing"},
		Instructions: []vm.Instruction{op(vm.CALL_FUNCTION, 0, 0)},
	}
	m, err := Run(prog, vm.FunctionTable{})
	ee := requireKind(t, err, ErrUnresolvedCallee)
	require.Equal(t, 0, ee.PC)
	require.Equal(t, 0, m.PC)
}

func TestCallFunctionCalleeError(t *testing.T) {
	boom := errors.New("boom")
	fns := vm.FunctionTable{
		"fail": func([]vm.Value) (vm.Value, error) { return nil, boom },
		"none": func([]vm.Value) (vm.Value, error) { return nil, nil },
	}
	for _, name := range []string{"fail", "none"} {
		t.Run(name, func(t *testing.T) {
			prog := &vm.Program{
				Names:        []string{name},
				Instructions: []vm.Instruction{op(vm.CALL_FUNCTION, 0, 0)},
			}
			_, err := Run(prog, fns)
			ee := requireKind(t, err, ErrCallFailed)
			require.Contains(t, ee.Msg, name)
		})
	}
}

func TestCallFunctionNotEnoughArguments(t *testing.T) {
	prog := &vm.Program{
		Names:        []string{"range"},
		Constants:    ints(3),
		Instructions: []vm.Instruction{op(vm.LOAD_CONST, 0), op(vm.CALL_FUNCTION, 2, 0)},
	}
	_, err := Run(prog, nil)
	requireKind(t, err, ErrStackUnderflow)
}

func TestBuiltinsDisabled(t *testing.T) {
	prog, err := vm.CompileLiteral("x = range(3)\n")
	require.NoError(t, err)
	_, err = Run(prog, vm.Builtins.Without("range"))
	requireKind(t, err, ErrUnresolvedCallee)
}

func TestCompiledDemoProgram(t *testing.T) {
	src := `
_a = 0
_b = 0
_a = 1
_b = [i for i in range(200)]
`
	prog, err := vm.CompileLiteral(src)
	require.NoError(t, err)
	m, err := Run(prog, nil)
	require.NoError(t, err)
	require.True(t, m.Done())
	require.Equal(t, 0, m.Stack.Len())

	requireInt(t, 1, m.Globals.Variables["_a"])
	b, ok := m.Globals.Variables["_b"].AsList()
	require.True(t, ok)
	require.Equal(t, 200, b.Len())
	for i, v := range b.Items {
		requireInt(t, int64(i), v)
	}
	// The comprehension variable is left in its own local slot.
	requireInt(t, 199, m.Locals.Variables["i#0"])
	require.False(t, m.Locals.Has("i"))
}

func TestCompiledForStatement(t *testing.T) {
	src := `
total = 0
for x in [1, 2, 3.5]:
    total += x
n = len([total, total])
`
	prog, err := vm.CompileLiteral(src)
	require.NoError(t, err)
	m, err := Run(prog, nil)
	require.NoError(t, err)
	f, ok := m.Globals.Variables["total"].AsFloat()
	require.True(t, ok)
	require.Equal(t, vm.FloatValue(6.5), f)
	requireInt(t, 2, m.Globals.Variables["n"])
}

func TestComprehensionDoesNotClobberLoopVariable(t *testing.T) {
	src := `
for x in [1, 2]:
    y = [x for x in [10]]
    z = x
w = [[x for x in [x + 1]] for x in [5]]
`
	prog, err := vm.CompileLiteral(src)
	require.NoError(t, err)
	m, err := Run(prog, nil)
	require.NoError(t, err)
	requireInt(t, 2, m.Globals.Variables["z"])
	requireInt(t, 2, m.Locals.Variables["x"])
	require.Equal(t, "[10]", m.Globals.Variables["y"].String())
	require.Equal(t, "[[6]]", m.Globals.Variables["w"].String())
}
