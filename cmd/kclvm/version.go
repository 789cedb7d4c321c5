package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/timewinder-dev/kclvm/vm"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of kclvm",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kclvm version %s (bytecode %s v%d)\n", version, vm.BytecodeMagic, vm.BytecodeVersion)
	},
}
