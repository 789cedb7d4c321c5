package vm

import "fmt"

type Opcode uint8

const (
	// PRE-STACK ... TOS | OP arg | POST-STACK
	BINARY_ADD    Opcode = iota // A B | | A+B
	STORE_GLOBAL  // A | name | ; globals[name] = A
	STORE_LOCAL   // A | name | A ; locals[name] = A
	LOAD_CONST    // | const | C
	LOAD_LOCAL    // | name | locals[name]
	BUILD_LIST    // | | []
	LIST_APPEND   // L ... X | depth | L ... ; appends X to stack[len-depth] after the pop
	CALL_FUNCTION // A B C | argc, name | fn(A, B, C)
	GET_ITER      // L | | IT
	POP_TOP       // A | |
	JMP_ABS       // | target | ; next instruction is target
	FOR_ITER      // IT | exit | IT X, or IT and jump to exit when exhausted
	LOAD_GLOBAL   // | name | globals[name]

	OpcodeMax
)

func (o Opcode) String() string {
	switch o {
	case BINARY_ADD:
		return "BINARY_ADD"
	case STORE_GLOBAL:
		return "STORE_GLOBAL"
	case STORE_LOCAL:
		return "STORE_LOCAL"
	case LOAD_CONST:
		return "LOAD_CONST"
	case LOAD_LOCAL:
		return "LOAD_LOCAL"
	case BUILD_LIST:
		return "BUILD_LIST"
	case LIST_APPEND:
		return "LIST_APPEND"
	case CALL_FUNCTION:
		return "CALL_FUNCTION"
	case GET_ITER:
		return "GET_ITER"
	case POP_TOP:
		return "POP_TOP"
	case JMP_ABS:
		return "JMP_ABS"
	case FOR_ITER:
		return "FOR_ITER"
	case LOAD_GLOBAL:
		return "LOAD_GLOBAL"
	}
	return fmt.Sprintf("Opcode(%d)", uint8(o))
}

// Valid reports whether o is a known opcode.
func (o Opcode) Valid() bool {
	return o < OpcodeMax
}

// StackEffect is the net change in stack depth from executing inst. For
// FOR_ITER it is the effect of the branch that continues the loop; the exit
// branch leaves the depth unchanged.
func StackEffect(inst Instruction) int {
	switch inst.Code {
	case BINARY_ADD:
		return -1
	case STORE_GLOBAL, POP_TOP, LIST_APPEND:
		return -1
	case STORE_LOCAL, GET_ITER, JMP_ABS:
		return 0
	case LOAD_CONST, LOAD_LOCAL, LOAD_GLOBAL, BUILD_LIST, FOR_ITER:
		return 1
	case CALL_FUNCTION:
		return 1 - int(inst.Arg)
	}
	return 0
}

// IsJump reports whether the opcode may assign the program counter.
func (o Opcode) IsJump() bool {
	return o == JMP_ABS || o == FOR_ITER
}
