package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"odinc/internal/buildpipeline"
	"odinc/internal/driver"
)

var buildCmd = &cobra.Command{
	Use:   "build [paths...]",
	Short: "Generate .ll files and the runtime shim into the output directory",
	RunE:  runBuild,
}

func init() {
	addBuildFlags(buildCmd)
	buildCmd.Flags().StringP("output-dir", "o", "", "output directory (default: [output] dir of "+driver.ConfigFileName+" or ./build)")
	buildCmd.Flags().Bool("no-runtime", false, "do not write the C runtime shim")
	buildCmd.Flags().String("ui", "auto", "progress display (auto|on|off)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	paths := sourceArgs(args)
	cfg, err := resolveConfig(cmd, paths)
	if err != nil {
		return err
	}
	outDir, err := cmd.Flags().GetString("output-dir")
	if err != nil {
		return err
	}
	noRuntime, err := cmd.Flags().GetBool("no-runtime")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	req := &buildpipeline.BuildRequest{
		CompileRequest: buildpipeline.CompileRequest{Paths: paths, Config: cfg},
		OutputDir:      outDir,
		NoRuntime:      noRuntime,
	}
	var res *buildpipeline.BuildResult
	if shouldUseTUI(mode) && !quiet(cmd) {
		res, err = runBuildWithUI(cmd.Context(), "odinc build", req)
	} else {
		res, err = buildpipeline.Build(cmd.Context(), req)
	}
	if res != nil && res.CompileResult != nil {
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
		cached := ""
		if res.Emit.Cached {
			cached = " (cached)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d module(s) to %s%s\n", len(res.Modules), res.OutputDir, cached)
	}
	return nil
}

// isSourceError reports whether err only means the sources had errors or
// the configuration was rejected.
func isSourceError(err error) bool {
	return errors.Is(err, driver.ErrDiagnostics) || errors.Is(err, driver.ErrBadConfig)
}
