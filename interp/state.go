package interp

import (
	"fmt"
	"strings"

	"github.com/timewinder-dev/kclvm/vm"
)

// FormatValue formats a value for display, eliding long lists. A list
// that contains itself prints as vm.CycleMarker where it repeats.
func FormatValue(v vm.Value) string {
	var b strings.Builder
	formatValue(&b, v, make(map[*vm.ListValue]bool))
	return b.String()
}

func formatValue(b *strings.Builder, v vm.Value, open map[*vm.ListValue]bool) {
	if v == nil {
		b.WriteString("<nil>")
		return
	}
	l, ok := v.AsList()
	if !ok {
		b.WriteString(v.String())
		return
	}
	if open[l] || len(open) >= vm.MaxPrintDepth {
		b.WriteString(vm.CycleMarker)
		return
	}
	open[l] = true
	defer delete(open, l)
	b.WriteString("[")
	for i, elem := range l.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		if i >= 5 {
			fmt.Fprintf(b, "... (%d more)", l.Len()-i)
			break
		}
		formatValue(b, elem, open)
	}
	b.WriteString("]")
}

// PrettyPrint returns a readable dump of the machine's state.
func (m *Machine) PrettyPrint() string {
	var b strings.Builder

	if inst, ok := m.Program.Instruction(m.PC); ok {
		fmt.Fprintf(&b, "PC: %03d %s  (%s)\n", m.PC, inst, inst.Pos)
	} else {
		fmt.Fprintf(&b, "PC: %03d <end>\n", m.PC)
	}

	b.WriteString("Stack:\n")
	values := m.Stack.Values()
	if len(values) == 0 {
		b.WriteString("  (empty)\n")
	}
	for i := len(values) - 1; i >= 0; i-- {
		v := values[i]
		if it, ok := v.AsIter(); ok {
			fmt.Fprintf(&b, "  %d: %s at %d\n", i, v, m.Progress(it))
			continue
		}
		fmt.Fprintf(&b, "  %d: %s\n", i, FormatValue(v))
	}

	writeScope(&b, "Global Variables", m.Globals)
	writeScope(&b, "Local Variables", m.Locals)
	return b.String()
}

func writeScope(b *strings.Builder, title string, s *Scope) {
	fmt.Fprintf(b, "%s:\n", title)
	names := s.Names()
	if len(names) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, k := range names {
		fmt.Fprintf(b, "  %s = %s\n", k, FormatValue(s.Variables[k]))
	}
}
