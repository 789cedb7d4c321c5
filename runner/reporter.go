package runner

import (
	"fmt"
	"io"

	"github.com/gookit/color"
)

// Reporter receives progress lines while a program runs.
type Reporter interface {
	Printf(format string, args ...any)
}

type SilentReporter struct{}

func (r *SilentReporter) Printf(format string, args ...any) {}

// ColorReporter writes progress to Writer (typically stderr) in Color.
type ColorReporter struct {
	Writer io.Writer
	Color  color.Color
}

func (r *ColorReporter) Printf(format string, args ...any) {
	c := r.Color
	if c == 0 {
		c = color.Cyan
	}
	fmt.Fprint(r.Writer, c.Sprintf(format, args...))
}
