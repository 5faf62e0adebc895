package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"odinc/internal/buildpipeline"
	"odinc/internal/driver"
)

var emitIRCmd = &cobra.Command{
	Use:   "emit-ir [paths...]",
	Short: "Print the LLVM assembly of a package",
	Long: `Print the LLVM assembly of a package to stdout, or to -o.
With several modules, -o names a directory that receives one .ll file per module.`,
	RunE: runEmitIR,
}

func init() {
	addBuildFlags(emitIRCmd)
	emitIRCmd.Flags().StringP("output", "o", "", "output file or directory (default: stdout)")
}

func runEmitIR(cmd *cobra.Command, args []string) error {
	paths := sourceArgs(args)
	cfg, err := resolveConfig(cmd, paths)
	if err != nil {
		return err
	}
	res, err := buildpipeline.Compile(cmd.Context(), &buildpipeline.CompileRequest{Paths: paths, Config: cfg, Emit: true})
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
	out, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	return writeModules(cmd.OutOrStdout(), out, res.Emit.Modules)
}

// writeModules prints a single module to w or path, and several modules
// into the directory path. Without a path every module goes to w.
func writeModules(w io.Writer, path string, mods []driver.Module) error {
	if path == "" || path == "-" {
		for _, m := range mods {
			if len(mods) > 1 {
				fmt.Fprintf(w, "; module %s\n", m.Name)
			}
			if _, err := io.WriteString(w, m.Text); err != nil {
				return err
			}
		}
		return nil
	}
	if len(mods) == 1 {
		if st, err := os.Stat(path); err != nil || !st.IsDir() {
			return os.WriteFile(path, []byte(mods[0].Text), 0o600)
		}
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return err
	}
	for _, m := range mods {
		if err := os.WriteFile(filepath.Join(path, m.Name+".ll"), []byte(m.Text), 0o600); err != nil {
			return err
		}
	}
	return nil
}
