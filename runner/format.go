package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gookit/color"
	"github.com/timewinder-dev/kclvm/interp"
	"github.com/timewinder-dev/kclvm/vm"
)

var (
	heavyRule = strings.Repeat("=", 80)
	lightRule = strings.Repeat("-", 80)
)

// FormatResult renders the globals of a finished run followed by its
// statistics.
func FormatResult(res *Result) string {
	var b strings.Builder
	b.WriteString(color.Gray.Sprint(lightRule))
	b.WriteString("\n")
	b.WriteString(color.Cyan.Sprint("Globals:"))
	b.WriteString("\n")
	b.WriteString(color.Gray.Sprint(lightRule))
	b.WriteString("\n")
	names := res.Machine.Globals.Names()
	if len(names) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, name := range names {
		b.WriteString("  ")
		b.WriteString(color.Bold.Sprint(name))
		b.WriteString(" = ")
		b.WriteString(interp.FormatValue(res.Machine.Globals.Variables[name]))
		b.WriteString("\n")
	}
	b.WriteString(FormatStatistics(res))
	return b.String()
}

// FormatStatistics renders the step count and timing of a run.
func FormatStatistics(res *Result) string {
	var b strings.Builder
	b.WriteString(color.Gray.Sprint(lightRule))
	b.WriteString("\n")
	b.WriteString(color.Bold.Sprint("Steps:    "))
	b.WriteString(fmt.Sprintf("%d\n", res.Steps))
	b.WriteString(color.Bold.Sprint("Duration: "))
	b.WriteString(fmt.Sprintf("%s\n", res.Duration))
	return b.String()
}

// FormatError renders an execution error with the offending source line
// when the source is available.
func FormatError(res *Result) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(color.Gray.Sprint(heavyRule))
	b.WriteString("\n")
	b.WriteString(color.Red.Sprint("EXECUTION ERROR"))
	b.WriteString("\n")
	b.WriteString(color.Gray.Sprint(heavyRule))
	b.WriteString("\n")

	var ee *interp.ExecError
	if !errors.As(res.Err, &ee) {
		b.WriteString(color.Bold.Sprint("Error:    "))
		b.WriteString(color.Red.Sprintf("%s\n", res.Err))
		b.WriteString(FormatStatistics(res))
		return b.String()
	}

	b.WriteString(color.Bold.Sprint("Kind:     "))
	b.WriteString(color.Yellow.Sprintf("%s\n", ee.Kind()))
	b.WriteString(color.Bold.Sprint("Message:  "))
	b.WriteString(color.Red.Sprintf("%s\n", ee.Msg))
	b.WriteString(color.Bold.Sprint("At:       "))
	b.WriteString(fmt.Sprintf("pc %d, %s\n", ee.PC, ee.Op))
	if ee.Pos.Line > 0 {
		b.WriteString(color.Bold.Sprint("Location: "))
		b.WriteString(fmt.Sprintf("%s\n", ee.Pos))
		if line, ok := sourceLine(res.Source, ee.Pos.Line); ok {
			b.WriteString("\n")
			b.WriteString(fmt.Sprintf("  %4d | %s\n", ee.Pos.Line, line))
			if ee.Pos.Column > 0 {
				b.WriteString("       | ")
				b.WriteString(strings.Repeat(" ", ee.Pos.Column-1))
				b.WriteString(color.Red.Sprint("^"))
				b.WriteString("\n")
			}
		}
	}
	if res.Machine != nil {
		b.WriteString("\n")
		b.WriteString(color.Gray.Sprint(lightRule))
		b.WriteString("\n")
		b.WriteString(color.Cyan.Sprint("Machine State:"))
		b.WriteString("\n")
		b.WriteString(color.Gray.Sprint(lightRule))
		b.WriteString("\n")
		b.WriteString(res.Machine.PrettyPrint())
	}
	b.WriteString(FormatStatistics(res))
	b.WriteString(color.Gray.Sprint(heavyRule))
	b.WriteString("\n")
	return b.String()
}

func sourceLine(src []byte, line int) (string, bool) {
	if src == nil || line < 1 {
		return "", false
	}
	lines := strings.Split(string(src), "\n")
	if line > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[line-1], "\r"), true
}

// Summary is the machine-readable form of a Result.
type Summary struct {
	File     string         `json:"file"`
	Steps    uint64         `json:"steps"`
	Duration string         `json:"duration"`
	Globals  map[string]any `json:"globals"`
	Error    string         `json:"error,omitempty"`
}

func (res *Result) Summary() Summary {
	s := Summary{
		File:     res.File,
		Steps:    res.Steps,
		Duration: res.Duration.String(),
		Globals:  make(map[string]any),
	}
	if res.Machine != nil {
		for name, v := range res.Machine.Globals.Variables {
			s.Globals[name] = JSONValue(v)
		}
	}
	if res.Err != nil {
		s.Error = res.Err.Error()
	}
	return s
}

func (res *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(res.Summary())
}

// JSONValue converts a value into something encoding/json can write.
// Integers keep their full precision. A list that contains itself is
// written as the string vm.CycleMarker where it repeats.
func JSONValue(v vm.Value) any {
	return jsonValue(v, make(map[*vm.ListValue]bool))
}

func jsonValue(v vm.Value, open map[*vm.ListValue]bool) any {
	if i, ok := v.AsInt(); ok {
		return json.Number(i.String())
	}
	if f, ok := v.AsFloat(); ok {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return f.String()
		}
		return float64(f)
	}
	l, ok := v.AsList()
	if !ok {
		return v.String()
	}
	if open[l] || len(open) >= vm.MaxPrintDepth {
		return vm.CycleMarker
	}
	open[l] = true
	defer delete(open, l)
	out := make([]any, 0, l.Len())
	for _, item := range l.Items {
		out = append(out, jsonValue(item, open))
	}
	return out
}
