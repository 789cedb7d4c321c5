package main

import (
	"fmt"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/timewinder-dev/kclvm/interp"
	"github.com/timewinder-dev/kclvm/vm"
)

var traceLimit uint64

var traceCmd = &cobra.Command{
	Use:   "trace FILE",
	Short: "Step through a program, printing the machine state before each instruction",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := loadProgram(args[0])
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't load program")
		}
		trace(p)
	},
}

func init() {
	traceCmd.Flags().Uint64Var(&traceLimit, "limit", 10000, "Stop after this many steps")
}

func trace(prog *vm.Program) {
	m := interp.NewMachine(prog, nil)
	for {
		fmt.Println(color.Gray.Sprint("*******"))
		fmt.Print(m.PrettyPrint())
		if m.Steps() >= traceLimit {
			log.Fatal().Uint64("limit", traceLimit).Msg("trace step limit reached")
		}
		v, err := m.Step()
		if err != nil {
			log.Fatal().Err(err).Msg("Got err")
		}
		if v == interp.EndStep {
			fmt.Println(color.Green.Sprint("Finished"))
			break
		}
		fmt.Println(v)
	}
}
