package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/timewinder-dev/kclvm/runner"
)

var (
	debugFlag    bool
	jsonFlag     bool
	quietFlag    bool
	maxSteps     uint64
	timeoutFlag  time.Duration
	disableFlags []string
)

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Run a program (.k source, .kclc bytecode or .toml run file)",
	Args:  cobra.ExactArgs(1),
	Run:   runCommand,
}

func init() {
	runCmd.Flags().BoolVar(&debugFlag, "debug", false, "Print the disassembly and the machine state before every step")
	runCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the result as JSON on stdout")
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Don't print progress to stderr")
	runCmd.Flags().Uint64Var(&maxSteps, "max-steps", 0, "Abort after this many instructions (0 keeps the config value)")
	runCmd.Flags().DurationVar(&timeoutFlag, "timeout", 0, "Abort after this long (0 keeps the config value)")
	runCmd.Flags().StringSliceVar(&disableFlags, "disable", nil, "Builtin functions to hide from the program")
}

func runCommand(cmd *cobra.Command, args []string) {
	filename := args[0]
	cfg, err := loadConfig(filename)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't load run config")
	}
	if maxSteps > 0 {
		cfg.Run.MaxSteps = maxSteps
	}
	if timeoutFlag > 0 {
		cfg.Run.Timeout = runner.Duration{Duration: timeoutFlag}
	}
	cfg.Functions.Disabled = append(cfg.Functions.Disabled, disableFlags...)

	r := runner.New(cfg)
	if debugFlag {
		r.DebugWriter = os.Stderr
	}
	if !quietFlag && !jsonFlag {
		r.Reporter = &runner.ColorReporter{Writer: os.Stderr}
		r.ProgressEvery = 1_000_000
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var res *runner.Result
	if filepath.Ext(cfg.Run.File) == bytecodeExt {
		p, err := loadProgram(cfg.Run.File)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Run.File).Msg("Couldn't load bytecode")
		}
		res = r.RunProgram(ctx, p)
	} else {
		res, err = r.Run(ctx)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Run.File).Msg("Couldn't compile program")
		}
	}

	if jsonFlag {
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("can't serialize result")
		}
		fmt.Println(string(b))
		if res.Err != nil {
			os.Exit(1)
		}
		return
	}

	if res.Err != nil {
		fmt.Fprint(os.Stderr, runner.FormatError(res))
		os.Exit(1)
	}
	fmt.Print(runner.FormatResult(res))
	if !quietFlag {
		fmt.Fprintln(os.Stderr, color.Green.Sprint("✓ Program finished"))
	}
}
