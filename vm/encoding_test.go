package vm

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/shamaton/msgpack/v2"
	"github.com/stretchr/testify/require"
)

func TestProgramRoundTrip(t *testing.T) {
	p, err := CompilePath("../testdata/small/bigint.k")
	require.NoError(t, err)
	p.Constants = append(p.Constants, NewList(NewInt(1), NewList(FloatValue(2.5))))

	data, err := MarshalProgram(p)
	require.NoError(t, err)
	got, err := UnmarshalProgram(data)
	require.NoError(t, err)

	require.Equal(t, p.Instructions, got.Instructions)
	require.Equal(t, p.Names, got.Names)
	require.Len(t, got.Constants, len(p.Constants))
	for i := range p.Constants {
		require.Equal(t, p.Constants[i].Kind(), got.Constants[i].Kind())
		require.Equal(t, p.Constants[i].String(), got.Constants[i].String())
	}
}

func TestProgramFile(t *testing.T) {
	p, err := CompilePath("../testdata/small/demo.k")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "demo.kclc")
	require.NoError(t, WriteProgramFile(path, p))
	got, err := ReadProgramFile(path)
	require.NoError(t, err)
	require.Equal(t, p.Instructions, got.Instructions)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	_, err := UnmarshalProgram([]byte("not msgpack at all"))
	require.ErrorIs(t, err, ErrBadBytecode)

	data, err := msgpack.Marshal(programWire{Magic: "NOPE", Version: BytecodeVersion})
	require.NoError(t, err)
	_, err = UnmarshalProgram(data)
	require.ErrorIs(t, err, ErrBadBytecode)

	data, err = msgpack.Marshal(programWire{Magic: BytecodeMagic, Version: BytecodeVersion + 1})
	require.NoError(t, err)
	_, err = UnmarshalProgram(data)
	require.ErrorIs(t, err, ErrBadBytecode)

	data, err = msgpack.Marshal(programWire{
		Magic:        BytecodeMagic,
		Version:      BytecodeVersion,
		Instructions: []instructionWire{{Code: uint8(OpcodeMax) + 1}},
	})
	require.NoError(t, err)
	_, err = UnmarshalProgram(data)
	require.ErrorIs(t, err, ErrBadBytecode)
}

func TestEncodeRejectsIterConstant(t *testing.T) {
	it, _ := NewIter(NewList())
	p := &Program{Constants: []Value{it}}
	var buf bytes.Buffer
	require.Error(t, EncodeProgram(&buf, p))
}

func TestEncodeRejectsSelfContainingConstant(t *testing.T) {
	l := NewList(NewInt(1))
	l.Append(l)
	var buf bytes.Buffer
	err := EncodeProgram(&buf, &Program{Constants: []Value{l}})
	require.ErrorContains(t, err, "contains itself")

	// A list shared twice is not a cycle.
	inner := NewList(NewInt(2))
	buf.Reset()
	require.NoError(t, EncodeProgram(&buf, &Program{Constants: []Value{NewList(inner, inner)}}))
}

func TestNegate(t *testing.T) {
	require.Equal(t, "-3", negate(NewInt(3)).String())
	require.Equal(t, "1.5", negate(FloatValue(-1.5)).String())
	l := NewList()
	require.Same(t, l, negate(l))
}
