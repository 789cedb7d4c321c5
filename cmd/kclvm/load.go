package main

import (
	"path/filepath"

	"github.com/timewinder-dev/kclvm/runner"
	"github.com/timewinder-dev/kclvm/vm"
)

const bytecodeExt = ".kclc"

// loadConfig accepts a TOML run file or a program file.
func loadConfig(path string) (*runner.Config, error) {
	if filepath.Ext(path) == ".toml" {
		return runner.LoadConfigFromFile(path)
	}
	return runner.ConfigForFile(path), nil
}

// loadProgram compiles a source file or reads a bytecode file.
func loadProgram(path string) (*vm.Program, error) {
	if filepath.Ext(path) == bytecodeExt {
		return vm.ReadProgramFile(path)
	}
	return vm.CompilePath(path)
}
