package interp

import (
	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/kclvm/vm"
)

// Run executes prog on a fresh machine until it halts or fails. The machine
// is returned in both cases so its state can be inspected.
func Run(prog *vm.Program, fns Resolver) (*Machine, error) {
	m := NewMachine(prog, fns)
	return m, m.RunToEnd()
}

// RunToEnd steps the machine until the program counter leaves the program.
// There is no step limit here; hosts that need one drive Step themselves.
func (m *Machine) RunToEnd() error {
	for {
		res, err := m.Step()
		if err != nil {
			log.Trace().Int("pc", m.PC).Uint64("steps", m.steps).Err(err).Msg("RunToEnd: step error")
			return err
		}
		if res == EndStep {
			log.Trace().Uint64("steps", m.steps).Msg("RunToEnd: finished")
			return nil
		}
	}
}
