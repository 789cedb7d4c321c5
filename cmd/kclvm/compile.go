package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/timewinder-dev/kclvm/vm"
)

var outputFlag string

var compileCmd = &cobra.Command{
	Use:   "compile FILE",
	Short: "Compile a source file to " + bytecodeExt + " bytecode",
	Args:  cobra.ExactArgs(1),
	Run:   compileCommand,
}

func init() {
	compileCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output path (defaults to FILE with a "+bytecodeExt+" extension)")
}

func compileCommand(cmd *cobra.Command, args []string) {
	filename := args[0]
	p, err := vm.CompilePath(filename)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't compile")
	}
	out := outputFlag
	if out == "" {
		out = strings.TrimSuffix(filename, ".k") + bytecodeExt
	}
	if err := vm.WriteProgramFile(out, p); err != nil {
		log.Fatal().Err(err).Str("output", out).Msg("Couldn't write bytecode")
	}
	log.Debug().Str("output", out).Int("instructions", p.Len()).Msg("wrote bytecode")
	fmt.Fprintf(os.Stderr, "%s %s (%d instructions, %d names, %d constants)\n",
		color.Green.Sprint("wrote"), out, p.Len(), len(p.Names), len(p.Constants))
}
