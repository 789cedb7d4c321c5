package vm

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/shamaton/msgpack/v2"
)

// BytecodeMagic identifies a serialized program; bump BytecodeVersion when
// the wire layout changes.
const (
	BytecodeMagic   = "KCLC"
	BytecodeVersion = 1
)

var ErrBadBytecode = errors.New("not a valid bytecode file")

type programWire struct {
	Magic        string
	Version      int
	Instructions []instructionWire
	Names        []string
	Constants    []constantWire
}

type instructionWire struct {
	Code   uint8
	Arg    uint16
	Arg2   uint16
	Arg3   uint16
	File   string
	Line   int
	Column int
}

type constantWire struct {
	Kind  uint8
	Int   string
	Float float64
	Items []constantWire
}

func encodeConstant(v Value, open map[*ListValue]bool) (constantWire, error) {
	if i, ok := v.AsInt(); ok {
		return constantWire{Kind: uint8(IntKind), Int: i.String()}, nil
	}
	if f, ok := v.AsFloat(); ok {
		return constantWire{Kind: uint8(FloatKind), Float: float64(f)}, nil
	}
	l, ok := v.AsList()
	if !ok {
		return constantWire{}, fmt.Errorf("constant of kind %s cannot be serialized", v.Kind())
	}
	if open[l] {
		return constantWire{}, fmt.Errorf("constant list contains itself")
	}
	open[l] = true
	defer delete(open, l)
	out := constantWire{Kind: uint8(ListKind)}
	for i, item := range l.Items {
		w, err := encodeConstant(item, open)
		if err != nil {
			return constantWire{}, fmt.Errorf("list item %d: %w", i, err)
		}
		out.Items = append(out.Items, w)
	}
	return out, nil
}

func decodeConstant(w constantWire) (Value, error) {
	switch Kind(w.Kind) {
	case IntKind:
		b, ok := new(big.Int).SetString(w.Int, 10)
		if !ok {
			return nil, fmt.Errorf("%w: bad integer constant %q", ErrBadBytecode, w.Int)
		}
		return IntValue{v: b}, nil
	case FloatKind:
		return FloatValue(w.Float), nil
	case ListKind:
		l := NewList()
		for i, item := range w.Items {
			v, err := decodeConstant(item)
			if err != nil {
				return nil, fmt.Errorf("list item %d: %w", i, err)
			}
			l.Append(v)
		}
		return l, nil
	default:
		return nil, fmt.Errorf("%w: unknown constant kind %d", ErrBadBytecode, w.Kind)
	}
}

// EncodeProgram writes p in the msgpack bytecode format.
func EncodeProgram(w io.Writer, p *Program) error {
	wire := programWire{
		Magic:   BytecodeMagic,
		Version: BytecodeVersion,
		Names:   p.Names,
	}
	for _, inst := range p.Instructions {
		wire.Instructions = append(wire.Instructions, instructionWire{
			Code:   uint8(inst.Code),
			Arg:    inst.Arg,
			Arg2:   inst.Arg2,
			Arg3:   inst.Arg3,
			File:   inst.Pos.File,
			Line:   inst.Pos.Line,
			Column: inst.Pos.Column,
		})
	}
	for i, c := range p.Constants {
		cw, err := encodeConstant(c, make(map[*ListValue]bool))
		if err != nil {
			return fmt.Errorf("constant %d: %w", i, err)
		}
		wire.Constants = append(wire.Constants, cw)
	}
	return msgpack.MarshalWrite(w, wire)
}

// DecodeProgram reads a program written by EncodeProgram. Opcodes are
// checked here; operand indices are left to the machine's own checks.
func DecodeProgram(r io.Reader) (*Program, error) {
	var wire programWire
	if err := msgpack.UnmarshalRead(r, &wire); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadBytecode, err)
	}
	if wire.Magic != BytecodeMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadBytecode, wire.Magic)
	}
	if wire.Version != BytecodeVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadBytecode, wire.Version)
	}
	p := &Program{Names: wire.Names}
	for i, iw := range wire.Instructions {
		code := Opcode(iw.Code)
		if !code.Valid() {
			return nil, fmt.Errorf("%w: instruction %d has unknown opcode %d", ErrBadBytecode, i, iw.Code)
		}
		p.Instructions = append(p.Instructions, Instruction{
			Code: code,
			Arg:  iw.Arg,
			Arg2: iw.Arg2,
			Arg3: iw.Arg3,
			Pos:  Position{File: iw.File, Line: iw.Line, Column: iw.Column},
		})
	}
	for i, cw := range wire.Constants {
		v, err := decodeConstant(cw)
		if err != nil {
			return nil, fmt.Errorf("constant %d: %w", i, err)
		}
		p.Constants = append(p.Constants, v)
	}
	return p, nil
}

func MarshalProgram(p *Program) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeProgram(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func UnmarshalProgram(data []byte) (*Program, error) {
	return DecodeProgram(bytes.NewReader(data))
}

func WriteProgramFile(path string, p *Program) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeProgram(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ReadProgramFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeProgram(f)
}
