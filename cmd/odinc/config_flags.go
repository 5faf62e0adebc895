package main

import (
	"github.com/spf13/cobra"

	"odinc/internal/driver"
	"odinc/internal/observ"
)

// addBuildFlags registers the flags that override odin.toml.
func addBuildFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("target", "", "target triple (x86_64-linux-gnu|i386-linux-gnu|aarch64-linux-gnu|wasm32-unknown-unknown)")
	f.String("backend", "", "code generator (llvm|ir)")
	f.Bool("module-per-file", false, "emit one module per source file")
	f.Int("jobs", 0, "parallel workers (0 = GOMAXPROCS)")
	f.Bool("no-bounds-check", false, "omit index and slice bounds checks")
	f.Bool("debug-info", false, "add debug info module flags")
	f.Bool("no-entry", false, "do not emit the C main wrapper")
	f.Bool("no-cache", false, "bypass the disk cache")
}

// resolveConfig loads odin.toml (from --config or found next to the
// sources) and applies the flags the user set.
func resolveConfig(cmd *cobra.Command, paths []string) (driver.Config, error) {
	cfg := driver.DefaultConfig()
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return cfg, err
	}
	if path == "" && len(paths) > 0 {
		path, _ = driver.FindConfig(paths[0])
	}
	if path != "" {
		if cfg, err = driver.LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	if f := cmd.Flags(); f.Lookup("target") != nil {
		if err := overrideString(cmd, "target", &cfg.Target); err != nil {
			return cfg, err
		}
		if err := overrideString(cmd, "backend", &cfg.Backend); err != nil {
			return cfg, err
		}
		if err := overrideBool(cmd, "module-per-file", &cfg.ModulePerFile); err != nil {
			return cfg, err
		}
		if err := overrideBool(cmd, "no-bounds-check", &cfg.NoBoundsCheck); err != nil {
			return cfg, err
		}
		if err := overrideBool(cmd, "debug-info", &cfg.DebugInfo); err != nil {
			return cfg, err
		}
		if err := overrideBool(cmd, "no-entry", &cfg.NoEntry); err != nil {
			return cfg, err
		}
		if f.Changed("jobs") {
			if cfg.Jobs, err = f.GetInt("jobs"); err != nil {
				return cfg, err
			}
		}
		if f.Changed("no-cache") {
			noCache, err := f.GetBool("no-cache")
			if err != nil {
				return cfg, err
			}
			cfg.Cache = !noCache
		}
	}
	if cfg.MaxDiagnostics, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return cfg, err
	}
	if timings, _ := cmd.Root().PersistentFlags().GetBool("timings"); timings {
		cfg.Timer = observ.NewTimer()
	}
	return cfg, cfg.Validate()
}

func overrideString(cmd *cobra.Command, name string, dst *string) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err == nil {
		*dst = v
	}
	return err
}

func overrideBool(cmd *cobra.Command, name string, dst *bool) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err == nil {
		*dst = v
	}
	return err
}

func sourceArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}
