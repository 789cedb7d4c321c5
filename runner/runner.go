package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/kclvm/cache"
	"github.com/timewinder-dev/kclvm/interp"
	"github.com/timewinder-dev/kclvm/vm"
)

// ErrStepLimit is reported when a run executes more instructions than the
// configured max_steps.
var ErrStepLimit = errors.New("step limit exceeded")

// ctxCheckInterval is how many steps run between context checks.
const ctxCheckInterval = 1024

// Runner is the host around the machine: it loads and caches programs,
// enforces step and time limits and reports progress.
type Runner struct {
	Config      *Config
	Store       cache.Store
	Reporter    Reporter
	DebugWriter io.Writer
	// ProgressEvery reports progress after this many steps; 0 disables it.
	ProgressEvery uint64
}

// Result is the outcome of one run. Err is the execution error, if any;
// the machine is kept in both cases so its state can be inspected.
type Result struct {
	File     string
	Source   []byte
	Machine  *interp.Machine
	Steps    uint64
	Duration time.Duration
	Err      error
}

func New(cfg *Config) *Runner {
	return &Runner{
		Config:      cfg,
		Store:       cache.NewLRUCache(cache.NewMemoryStore(), cfg.Run.CacheSize),
		Reporter:    &SilentReporter{},
		DebugWriter: io.Discard,
	}
}

// Functions is the callee table for this configuration.
func (r *Runner) Functions() vm.FunctionTable {
	return vm.Builtins.Without(r.Config.Functions.Disabled...)
}

// Load reads and compiles the configured program, consulting the cache.
func (r *Runner) Load() (*vm.Program, []byte, error) {
	src, err := os.ReadFile(r.Config.Run.File)
	if err != nil {
		return nil, nil, err
	}
	p, err := cache.Compile(r.Store, r.Config.Run.File, src)
	if err != nil {
		return nil, src, err
	}
	return p, src, nil
}

// Run compiles and executes the configured program. The returned error is
// for failures before execution starts; execution errors land in
// Result.Err.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	p, src, err := r.Load()
	if err != nil {
		return nil, err
	}
	res := r.RunProgram(ctx, p)
	res.Source = src
	return res, nil
}

// RunProgram executes an already compiled program under the configured
// limits.
func (r *Runner) RunProgram(ctx context.Context, p *vm.Program) *Result {
	if d := r.Config.Run.Timeout.Duration; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	m := interp.NewMachine(p, r.Functions())
	res := &Result{File: r.Config.Run.File, Machine: m}
	maxSteps := r.Config.Run.MaxSteps

	log.Debug().Str("file", res.File).Int("instructions", p.Len()).Uint64("max_steps", maxSteps).Msg("run starting")
	r.Reporter.Printf("Running %s (%d instructions)\n", res.File, p.Len())
	if r.DebugWriter != io.Discard {
		p.Disassemble(r.DebugWriter)
	}

	start := time.Now()
	res.Err = r.loop(ctx, m, maxSteps)
	res.Duration = time.Since(start)
	res.Steps = m.Steps()

	ev := log.Debug().Str("file", res.File).Uint64("steps", res.Steps).Dur("duration", res.Duration)
	if res.Err != nil {
		ev = ev.Err(res.Err)
	}
	ev.Msg("run finished")
	r.Reporter.Printf("Finished after %d steps in %s\n", res.Steps, res.Duration)
	return res
}

func (r *Runner) loop(ctx context.Context, m *interp.Machine, maxSteps uint64) error {
	for {
		steps := m.Steps()
		if maxSteps > 0 && steps >= maxSteps && !m.Done() {
			log.Warn().Uint64("max_steps", maxSteps).Int("pc", m.PC).Msg("step limit reached")
			return fmt.Errorf("%w: %d steps at pc %d", ErrStepLimit, maxSteps, m.PC)
		}
		if steps%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				log.Warn().Err(err).Uint64("steps", steps).Int("pc", m.PC).Msg("run interrupted")
				return fmt.Errorf("run interrupted at pc %d: %w", m.PC, err)
			}
		}
		if r.ProgressEvery > 0 && steps > 0 && steps%r.ProgressEvery == 0 {
			r.Reporter.Printf("  %d steps, pc %d, stack depth %d\n", steps, m.PC, m.Stack.Len())
		}
		if r.DebugWriter != io.Discard {
			fmt.Fprintf(r.DebugWriter, "*** step %d\n%s", steps, m.PrettyPrint())
		}
		res, err := m.Step()
		if err != nil {
			return err
		}
		if res == interp.EndStep {
			return nil
		}
	}
}
