package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"odinc/internal/buildpipeline"
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Parse and type check a package",
	Long:  "Parse and type check the .odin files under the given files or directories (default: the current directory).",
	RunE:  runCheck,
}

func init() {
	addBuildFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	paths := sourceArgs(args)
	cfg, err := resolveConfig(cmd, paths)
	if err != nil {
		return err
	}
	res, err := buildpipeline.Compile(cmd.Context(), &buildpipeline.CompileRequest{Paths: paths, Config: cfg})
	if res != nil {
		if perr := printDiagnostics(cmd, res.Check); perr != nil {
			return perr
		}
	}
	printTimings(cmd.ErrOrStderr(), cfg.Timer)
	if err != nil {
		crashed = !isSourceError(err)
		return err
	}
	if !quiet(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "checked %d file(s)\n", len(res.Check.Paths))
	}
	return nil
}
