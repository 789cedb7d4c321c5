package vm

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Position is the source location an instruction was compiled from.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	file := p.File
	if file == "" {
		file = "<unknown>"
	}
	if p.Line == 0 {
		return file
	}
	return fmt.Sprintf("%s:%d:%d", file, p.Line, p.Column)
}

// Instruction is one decoded unit of bytecode. Arg is the primary operand
// (constant index, name index, depth, argc or jump target); Arg2 and Arg3
// carry secondary operands where an opcode needs them.
type Instruction struct {
	Code Opcode
	Arg  uint16
	Arg2 uint16
	Arg3 uint16
	Pos  Position
}

func (i Instruction) String() string {
	switch i.Code {
	case BINARY_ADD, BUILD_LIST, GET_ITER, POP_TOP:
		return i.Code.String()
	case CALL_FUNCTION:
		return fmt.Sprintf("%s %d %d", i.Code, i.Arg, i.Arg2)
	}
	return fmt.Sprintf("%s %d", i.Code, i.Arg)
}

// Program is the compiler's output: instructions plus the name and constant
// tables they index into. It is read-only once built.
type Program struct {
	Instructions []Instruction
	Names        []string
	Constants    []Value
}

func (p *Program) Len() int {
	return len(p.Instructions)
}

// Instruction returns the instruction at pc, or false past the end.
func (p *Program) Instruction(pc int) (Instruction, bool) {
	if pc < 0 || pc >= len(p.Instructions) {
		return Instruction{}, false
	}
	return p.Instructions[pc], true
}

func (p *Program) Name(idx int) (string, bool) {
	if idx < 0 || idx >= len(p.Names) {
		return "", false
	}
	return p.Names[idx], true
}

func (p *Program) Constant(idx int) (Value, bool) {
	if idx < 0 || idx >= len(p.Constants) {
		return nil, false
	}
	return p.Constants[idx], true
}

func (p *Program) DebugPrint() {
	p.Disassemble(os.Stdout)
}

// Disassemble writes one line per instruction, annotated with the name or
// constant its operand refers to.
func (p *Program) Disassemble(w io.Writer) error {
	for pc, inst := range p.Instructions {
		line := fmt.Sprintf("  %03d: %-22s", pc, inst)
		if note := p.annotate(inst); note != "" {
			line += " ; " + note
		}
		if inst.Pos.Line > 0 {
			line += fmt.Sprintf("  (%s:%d)", filepath.Base(inst.Pos.File), inst.Pos.Line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (p *Program) annotate(inst Instruction) string {
	switch inst.Code {
	case LOAD_CONST:
		if c, ok := p.Constant(int(inst.Arg)); ok {
			return c.String()
		}
		return "<bad constant>"
	case STORE_GLOBAL, STORE_LOCAL, LOAD_LOCAL, LOAD_GLOBAL:
		if n, ok := p.Name(int(inst.Arg)); ok {
			return n
		}
		return "<bad name>"
	case CALL_FUNCTION:
		if n, ok := p.Name(int(inst.Arg2)); ok {
			return fmt.Sprintf("%s/%d", n, inst.Arg)
		}
		return "<bad name>"
	case JMP_ABS, FOR_ITER:
		return fmt.Sprintf("-> %03d", inst.Arg)
	}
	return ""
}
