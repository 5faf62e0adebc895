package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"odinc/internal/diag"
	"odinc/internal/diagfmt"
	"odinc/internal/driver"
	"odinc/internal/observ"
)

// useColor resolves --color against stdout. It also toggles fatih/color,
// which the version banner relies on.
func useColor(cmd *cobra.Command) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	var on bool
	switch strings.ToLower(mode) {
	case "", "auto":
		on = isTerminal(os.Stdout)
	case "on":
		on = true
	case "off":
		on = false
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	color.NoColor = !on
	return on, nil
}

func quiet(cmd *cobra.Command) bool {
	q, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	return q
}

// printDiagnostics writes the diagnostics of res, if any, to stderr in
// the --diag-format layout. JSON goes to stdout.
func printDiagnostics(cmd *cobra.Command, res *driver.CheckResult) error {
	if res == nil || res.Bag == nil {
		return nil
	}
	pf := cmd.Root().PersistentFlags()
	format, err := pf.GetString("diag-format")
	if err != nil {
		return err
	}
	pathValue, err := pf.GetString("path-mode")
	if err != nil {
		return err
	}
	pathMode, err := diagfmt.ParsePathMode(pathValue)
	if err != nil {
		return err
	}
	colored, err := useColor(cmd)
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "short":
		return diag.WriteShort(cmd.ErrOrStderr(), res.Bag, res.Files, diag.ShortOpts{Color: colored, IncludeNotes: true})
	case "", "pretty":
		return diagfmt.Pretty(cmd.ErrOrStderr(), res.Bag, res.Files, diagfmt.PrettyOpts{
			Color:     colored,
			PathMode:  pathMode,
			ShowNotes: true,
		})
	case "json":
		return diagfmt.JSON(cmd.OutOrStdout(), res.Bag, res.Files, diagfmt.JSONOpts{
			IncludePositions: true,
			IncludeNotes:     true,
			PathMode:         pathMode,
		})
	}
	return fmt.Errorf("invalid --diag-format value %q (expected short|pretty|json)", format)
}

func printTimings(out io.Writer, timer *observ.Timer) {
	if timer == nil {
		return
	}
	fmt.Fprint(out, timer.Summary())
}
