package vm

import (
	"fmt"
	"math"
	"os"

	"github.com/google/uuid"
	"go.starlark.net/syntax"
)

// pendingOp is an instruction whose jump target may still be a label.
type pendingOp struct {
	inst   Instruction
	label  string // marks a position; emits nothing
	target string // label resolved into inst.Arg
}

type compileContext struct {
	ops       []pendingOp
	names     []string
	nameIdx   map[string]int
	constants []Value
	constIdx  map[string]int
	locals    map[string]bool
	loopVars  map[string]int
	slots     map[string]string // comprehension variable -> local slot
	slotCount int
	height    int
	pos       Position
}

func newCompileContext() *compileContext {
	return &compileContext{
		nameIdx:  make(map[string]int),
		constIdx: make(map[string]int),
		locals:   make(map[string]bool),
		loopVars: make(map[string]int),
		slots:    make(map[string]string),
	}
}

func (cc *compileContext) DebugPrint() {
	for i, op := range cc.ops {
		if op.label != "" {
			fmt.Printf("%03d: LABEL %s\n", i, op.label)
			continue
		}
		fmt.Printf("%03d: %s %s\n", i, op.inst, op.target)
	}
	fmt.Printf("names: %v\n", cc.names)
	fmt.Printf("constants: %v\n", cc.constants)
}

func (cc *compileContext) emit(code Opcode, args ...int) error {
	inst := Instruction{Code: code, Pos: cc.pos}
	operands := []*uint16{&inst.Arg, &inst.Arg2, &inst.Arg3}
	if len(args) > len(operands) {
		return cc.errorf("%s takes at most %d operands", code, len(operands))
	}
	for i, a := range args {
		if a < 0 || a > math.MaxUint16 {
			return cc.errorf("operand %d of %s out of range: %d", i+1, code, a)
		}
		*operands[i] = uint16(a)
	}
	cc.ops = append(cc.ops, pendingOp{inst: inst})
	cc.height += StackEffect(inst)
	return nil
}

func (cc *compileContext) emitJump(code Opcode, label string) {
	inst := Instruction{Code: code, Pos: cc.pos}
	cc.ops = append(cc.ops, pendingOp{inst: inst, target: label})
	cc.height += StackEffect(inst)
}

func (cc *compileContext) newLabel() string {
	return uuid.NewString()
}

func (cc *compileContext) emitLabel(s string) {
	cc.ops = append(cc.ops, pendingOp{label: s})
}

func (cc *compileContext) nameIndex(name string) int {
	if i, ok := cc.nameIdx[name]; ok {
		return i
	}
	i := len(cc.names)
	cc.names = append(cc.names, name)
	cc.nameIdx[name] = i
	return i
}

func (cc *compileContext) constIndex(v Value) int {
	key := v.Kind().String() + ":" + v.String()
	if i, ok := cc.constIdx[key]; ok {
		return i
	}
	i := len(cc.constants)
	cc.constants = append(cc.constants, v)
	cc.constIdx[key] = i
	return i
}

func (cc *compileContext) setPos(n syntax.Node) {
	start, _ := n.Span()
	cc.pos = Position{
		File:   start.Filename(),
		Line:   int(start.Line),
		Column: int(start.Col),
	}
}

func (cc *compileContext) errorf(format string, args ...any) error {
	return fmt.Errorf("%s: %s", cc.pos, fmt.Sprintf(format, args...))
}

// CompilePath compiles the source file at path.
func CompilePath(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadFile(path, f)
}

// CompileSource compiles src, which may be a string, []byte or io.Reader.
func CompileSource(filename string, src any) (*Program, error) {
	opts := syntax.FileOptions{}
	f, err := opts.Parse(filename, src, 0)
	if err != nil {
		return nil, err
	}
	return Compile(f)
}

func CompileLiteral(code string) (*Program, error) {
	return CompileSource("<literal>", code)
}

func Compile(file *syntax.File) (*Program, error) {
	cc := newCompileContext()
	if err := cc.buildFromStatements(file.Stmts); err != nil {
		return nil, err
	}
	return cc.intoProgram()
}

func (cc *compileContext) intoProgram() (*Program, error) {
	p := &Program{
		Names:     cc.names,
		Constants: cc.constants,
	}
	offsetmap := make(map[string]int)
	for _, op := range cc.ops {
		if op.label != "" {
			offsetmap[op.label] = len(p.Instructions)
			continue
		}
		p.Instructions = append(p.Instructions, op.inst)
	}
	n := 0
	for _, op := range cc.ops {
		if op.label != "" {
			continue
		}
		if op.target != "" {
			off, ok := offsetmap[op.target]
			if !ok {
				return nil, fmt.Errorf("%s: unresolved jump label %s", op.inst.Pos, op.target)
			}
			if off > math.MaxUint16 {
				return nil, fmt.Errorf("%s: jump target %d out of range", op.inst.Pos, off)
			}
			p.Instructions[n].Arg = uint16(off)
		}
		n++
	}
	if len(p.Names) > math.MaxUint16+1 || len(p.Constants) > math.MaxUint16+1 {
		return nil, fmt.Errorf("program has too many names or constants")
	}
	return p, nil
}
