package main

import (
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm FILE",
	Short: "Print the bytecode for a .k or " + bytecodeExt + " file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := loadProgram(args[0])
		if err != nil {
			log.Fatal().Err(err).Msg("Couldn't load program")
		}
		fmt.Println(color.Cyan.Sprint("Names:"))
		for i, n := range p.Names {
			fmt.Printf("  %03d: %s\n", i, n)
		}
		fmt.Println(color.Cyan.Sprint("Constants:"))
		for i, c := range p.Constants {
			fmt.Printf("  %03d: %s\n", i, c)
		}
		fmt.Println(color.Cyan.Sprint("Code:"))
		if err := p.Disassemble(os.Stdout); err != nil {
			log.Fatal().Err(err).Msg("Couldn't write disassembly")
		}
	},
}
