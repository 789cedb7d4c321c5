package vm

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.starlark.net/syntax"
)

func TestSmall(t *testing.T) {
	filepath.WalkDir("../testdata/small", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".k") {
			return nil
		}
		name := filepath.Base(path)
		t.Run(name, fileTest(path))
		return nil
	})
}

func fileTest(path string) func(t *testing.T) {
	return func(t *testing.T) {
		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		opts := syntax.FileOptions{}
		synFile, err := opts.Parse(path, f, 0)
		require.NoError(t, err)
		p, err := Compile(synFile)
		require.NoError(t, err)
		requireWellFormed(t, p)

		var b strings.Builder
		require.NoError(t, p.Disassemble(&b))
		t.Log("\n" + b.String())
	}
}

// requireWellFormed checks every operand is in range and that the stack
// height is the same on every path into each instruction.
func requireWellFormed(t *testing.T, p *Program) {
	t.Helper()
	heights := make([]int, p.Len()+1)
	for i := range heights {
		heights[i] = -1
	}
	var walk func(pc, h int)
	walk = func(pc, h int) {
		for {
			require.GreaterOrEqual(t, h, 0, "negative stack height at %d", pc)
			if heights[pc] >= 0 {
				require.Equal(t, heights[pc], h, "inconsistent stack height at %d", pc)
				return
			}
			heights[pc] = h
			if pc == p.Len() {
				require.Equal(t, 0, h, "program ends with a non-empty stack")
				return
			}
			inst := p.Instructions[pc]
			require.True(t, inst.Code.Valid())
			switch inst.Code {
			case LOAD_CONST:
				_, ok := p.Constant(int(inst.Arg))
				require.True(t, ok)
			case STORE_GLOBAL, STORE_LOCAL, LOAD_LOCAL, LOAD_GLOBAL:
				_, ok := p.Name(int(inst.Arg))
				require.True(t, ok)
			case CALL_FUNCTION:
				_, ok := p.Name(int(inst.Arg2))
				require.True(t, ok)
			case LIST_APPEND:
				require.Less(t, int(inst.Arg), h, "LIST_APPEND depth %d at %d reaches past the stack", inst.Arg, pc)
			}
			if inst.Code.IsJump() {
				require.LessOrEqual(t, int(inst.Arg), p.Len())
			}
			switch inst.Code {
			case JMP_ABS:
				pc = int(inst.Arg)
			case FOR_ITER:
				// Exhausted: jump with the iterator still in place.
				walk(int(inst.Arg), h)
				h += StackEffect(inst)
				pc++
			default:
				h += StackEffect(inst)
				pc++
			}
		}
	}
	walk(0, 0)
}

func codes(p *Program) []Opcode {
	var out []Opcode
	for _, inst := range p.Instructions {
		out = append(out, inst.Code)
	}
	return out
}

func TestCompileGlobals(t *testing.T) {
	p, err := CompileLiteral("_a = 0\n_b = 0\n_a = 1\n")
	require.NoError(t, err)
	require.Equal(t, []Opcode{
		LOAD_CONST, STORE_GLOBAL,
		LOAD_CONST, STORE_GLOBAL,
		LOAD_CONST, STORE_GLOBAL,
	}, codes(p))
	require.Equal(t, []string{"_a", "_b"}, p.Names)
	// Constants are shared.
	require.Len(t, p.Constants, 2)
	require.Equal(t, p.Instructions[0].Arg, p.Instructions[2].Arg)
	require.Equal(t, p.Instructions[1].Arg, p.Instructions[5].Arg)
	require.Equal(t, 3, p.Instructions[4].Pos.Line)
}

func TestCompileComprehension(t *testing.T) {
	p, err := CompileLiteral("_b = [i for i in range(3)]\n")
	require.NoError(t, err)
	require.Equal(t, []Opcode{
		BUILD_LIST,
		LOAD_CONST,
		CALL_FUNCTION,
		GET_ITER,
		FOR_ITER,
		STORE_LOCAL,
		POP_TOP,
		LOAD_LOCAL,
		LIST_APPEND,
		JMP_ABS,
		POP_TOP,
		STORE_GLOBAL,
	}, codes(p))
	requireWellFormed(t, p)

	call := p.Instructions[2]
	require.Equal(t, uint16(1), call.Arg)
	name, ok := p.Name(int(call.Arg2))
	require.True(t, ok)
	require.Equal(t, "range", name)

	require.Equal(t, uint16(10), p.Instructions[4].Arg, "FOR_ITER exits to the POP_TOP")
	require.Equal(t, uint16(4), p.Instructions[9].Arg, "JMP_ABS returns to FOR_ITER")
	require.Equal(t, uint16(2), p.Instructions[8].Arg, "LIST_APPEND skips the iterator")
}

func TestCompileListLiteral(t *testing.T) {
	p, err := CompileLiteral("xs = [1, [2]]\n")
	require.NoError(t, err)
	require.Equal(t, []Opcode{
		BUILD_LIST,
		LOAD_CONST, LIST_APPEND,
		BUILD_LIST, LOAD_CONST, LIST_APPEND, LIST_APPEND,
		STORE_GLOBAL,
	}, codes(p))
	for _, i := range []int{2, 5, 6} {
		require.Equal(t, uint16(1), p.Instructions[i].Arg)
	}
	requireWellFormed(t, p)
}

func TestCompileNamesResolveByScope(t *testing.T) {
	p, err := CompileLiteral("n = 1\nxs = [n + x for x in [n]]\ny = x\n")
	require.NoError(t, err)
	requireWellFormed(t, p)
	var loads []string
	for _, inst := range p.Instructions {
		if inst.Code == LOAD_LOCAL || inst.Code == LOAD_GLOBAL {
			name, _ := p.Name(int(inst.Arg))
			loads = append(loads, inst.Code.String()+" "+name)
		}
	}
	// The comprehension variable is not visible after the comprehension.
	require.Equal(t, []string{
		"LOAD_GLOBAL n",
		"LOAD_GLOBAL n",
		"LOAD_LOCAL x#0",
		"LOAD_GLOBAL x",
	}, loads)
}

func TestCompileComprehensionSlots(t *testing.T) {
	p, err := CompileLiteral("for x in [1]:\n    y = [x for x in [x]]\n    z = x\n")
	require.NoError(t, err)
	requireWellFormed(t, p)
	var ops []string
	for _, inst := range p.Instructions {
		switch inst.Code {
		case LOAD_LOCAL, STORE_LOCAL:
			name, _ := p.Name(int(inst.Arg))
			ops = append(ops, inst.Code.String()+" "+name)
		}
	}
	require.Equal(t, []string{
		"STORE_LOCAL x",
		"LOAD_LOCAL x", // the iterable is read before the inner x is bound
		"STORE_LOCAL x#0",
		"LOAD_LOCAL x#0",
		"LOAD_LOCAL x",
	}, ops)
}

func TestCompileNegativeLiterals(t *testing.T) {
	p, err := CompileLiteral("a = -5\nb = -(2.5)\nc = +7\n")
	require.NoError(t, err)
	require.Equal(t, "-5", p.Constants[0].String())
	require.Equal(t, "-2.5", p.Constants[1].String())
	require.Equal(t, "7", p.Constants[2].String())
}

func TestCompileBareExpressionIsPopped(t *testing.T) {
	p, err := CompileLiteral("1\nrange(2)\n")
	require.NoError(t, err)
	require.Equal(t, []Opcode{LOAD_CONST, CALL_FUNCTION, POP_TOP}, codes(p))
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"multiply", "x = 1 * 2\n", "unsupported binary operator"},
		{"tuple target", "x, y = 1, 2\n", "unhandled LHS"},
		{"keyword arg", "x = range(stop=3)\n", "keyword arguments"},
		{"method call", "x = a.b(1)\n", "only calls by name"},
		{"if clause", "x = [i for i in [1] if i]\n", "only for clauses"},
		{"dict comprehension", "x = {i: i for i in [1]}\n", "dict comprehensions"},
		{"loop var assign", "for i in [1]:\n    i = 2\n", "cannot assign to loop variable i"},
		{"tuple loop var", "for a, b in [1]:\n    pass\n", "single identifier"},
		{"def", "def f():\n    pass\n", "unsupported statement"},
		{"break", "for i in [1]:\n    break\n", "break is not supported"},
		{"string", "x = \"s\"\n", "unsupported literal"},
		{"unary not", "x = not 1\n", "unsupported unary operator not"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileLiteral(tt.src)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestCompileErrorHasPosition(t *testing.T) {
	_, err := CompileSource("pos.k", "x = 1\ny = 2 * 3\n")
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "pos.k:2:"), err.Error())
}

func TestCompilePath(t *testing.T) {
	p, err := CompilePath("../testdata/small/demo.k")
	require.NoError(t, err)
	require.Equal(t, "../testdata/small/demo.k", p.Instructions[0].Pos.File)
	_, err = CompilePath("../testdata/small/does-not-exist.k")
	require.Error(t, err)
}
