// Command odinc checks Odin-like sources and emits LLVM assembly.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"odinc/internal/driver"
	"odinc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "odinc",
	Short:         "Type checker and LLVM code generator for an Odin-like language",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup
		return startProfiling(cmd)
	},
}

var traceCleanup func()

func runTraceCleanup() {
	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(emitIRCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	pf.String("diag-format", "pretty", "diagnostic layout (short|pretty|json)")
	pf.String("path-mode", "auto", "paths in diagnostics (auto|absolute|basename)")
	pf.String("cpu-profile", "", "write a CPU profile to this file")
	pf.String("mem-profile", "", "write a heap profile to this file on exit")
	pf.String("runtime-trace", "", "write a Go runtime execution trace to this file")
	pf.String("config", "", "path to "+driver.ConfigFileName+" (default: search upwards from the sources)")
	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.Int("trace-ring-size", 4096, "events kept by the ring tracer")

	err := rootCmd.Execute()
	runTraceCleanup()
	if perr := stopProfiling(); perr != nil {
		fmt.Fprintf(os.Stderr, "odinc: %v\n", perr)
	}
	if err != nil {
		if !errors.Is(err, driver.ErrDiagnostics) {
			fmt.Fprintf(os.Stderr, "odinc: %v\n", err)
			if verboseErrors() {
				fmt.Fprintf(os.Stderr, "%+v\n", err)
			}
		}
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// verboseErrors prints stacks of internal errors when tracing is on.
func verboseErrors() bool {
	level, err := rootCmd.PersistentFlags().GetString("trace-level")
	return err == nil && level != "off"
}
