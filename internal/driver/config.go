package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"odinc/internal/layout"
	"odinc/internal/observ"
)

// ConfigFileName is the build configuration looked up from the source
// directory upwards.
const ConfigFileName = "odin.toml"

// Backend names.
const (
	BackendLLVM = "llvm"
	BackendIR   = "ir"
)

// Config is the resolved build configuration.
type Config struct {
	Target         string
	Backend        string
	ModulePerFile  bool
	Jobs           int
	NoBoundsCheck  bool
	DebugInfo      bool
	NoEntry        bool
	Cache          bool
	OutputDir      string
	MaxDiagnostics int

	// CacheDir overrides the XDG cache location.
	CacheDir string
	// Path is the file the configuration was read from, if any.
	Path string

	Observer PhaseObserver
	Timer    *observ.Timer
}

// fileConfig mirrors odin.toml.
type fileConfig struct {
	Build struct {
		Target        string `toml:"target"`
		Backend       string `toml:"backend"`
		ModulePerFile bool   `toml:"module_per_file"`
		Jobs          int    `toml:"jobs"`
		NoBoundsCheck bool   `toml:"no_bounds_check"`
		DebugInfo     bool   `toml:"debug_info"`
		Cache         bool   `toml:"cache"`
	} `toml:"build"`
	Output struct {
		Dir string `toml:"dir"`
	} `toml:"output"`
}

// DefaultConfig is the configuration used without odin.toml.
func DefaultConfig() Config {
	return Config{
		Target:         layout.X86_64LinuxGNU().Triple,
		Backend:        BackendLLVM,
		Cache:          true,
		OutputDir:      "build",
		MaxDiagnostics: 100,
	}
}

// LoadConfig reads path over the defaults. Keys absent from the file keep
// their default; unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	var fc fileConfig
	meta, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	b := fc.Build
	if meta.IsDefined("build", "target") {
		cfg.Target = b.Target
	}
	if meta.IsDefined("build", "backend") {
		cfg.Backend = b.Backend
	}
	if meta.IsDefined("build", "module_per_file") {
		cfg.ModulePerFile = b.ModulePerFile
	}
	if meta.IsDefined("build", "jobs") {
		cfg.Jobs = b.Jobs
	}
	if meta.IsDefined("build", "no_bounds_check") {
		cfg.NoBoundsCheck = b.NoBoundsCheck
	}
	if meta.IsDefined("build", "debug_info") {
		cfg.DebugInfo = b.DebugInfo
	}
	if meta.IsDefined("build", "cache") {
		cfg.Cache = b.Cache
	}
	if meta.IsDefined("output", "dir") {
		dir := fc.Output.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(filepath.Dir(path), dir)
		}
		cfg.OutputDir = dir
	}
	return cfg, cfg.Validate()
}

// FindConfig walks from start up to the filesystem root looking for
// odin.toml.
func FindConfig(start string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	if st, err := os.Stat(dir); err == nil && !st.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		p := filepath.Join(dir, ConfigFileName)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// ErrBadConfig wraps every validation failure.
var ErrBadConfig = errors.New("invalid configuration")

// Validate checks the values that LoadConfig and flags cannot type check.
func (c Config) Validate() error {
	if _, err := layout.TargetByTriple(c.Target); err != nil {
		return fmt.Errorf("%w: %w", ErrBadConfig, err)
	}
	switch c.Backend {
	case BackendLLVM:
	case BackendIR:
		if c.ModulePerFile {
			return fmt.Errorf("%w: module_per_file needs the %s backend", ErrBadConfig, BackendLLVM)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q (want %s|%s)", ErrBadConfig, c.Backend, BackendLLVM, BackendIR)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("%w: jobs must not be negative", ErrBadConfig)
	}
	return nil
}

// TargetInfo returns the layout target of c.Target.
func (c Config) TargetInfo() layout.Target {
	t, err := layout.TargetByTriple(c.Target)
	if err != nil {
		panic(fmt.Sprintf("internal compiler error: unvalidated target %q", c.Target))
	}
	return t
}

func (c Config) jobs() int {
	if c.Jobs <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Jobs
}
