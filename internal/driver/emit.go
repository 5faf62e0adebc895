package driver

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"odinc/internal/backend/llvm"
	"odinc/internal/irgen"
	"odinc/internal/lower"
	"odinc/internal/trace"
)

// Module is one generated LLVM assembly module.
type Module struct {
	Name string
	Text string
}

// EmitResult holds the modules of a package in a deterministic order.
type EmitResult struct {
	Modules []Module
	Cached  bool
}

// Emit generates the modules of a checked package with the configured
// backend, consulting the disk cache first when enabled.
func Emit(ctx context.Context, cfg Config, res *CheckResult) (*EmitResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if res == nil || res.Info == nil || res.HasErrors() {
		return nil, ErrDiagnostics
	}
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "emit")
	defer span.End(cfg.Backend)

	var cache *DiskCache
	var key Digest
	if cfg.Cache {
		c, err := OpenDiskCache("odinc", cfg.CacheDir)
		if err != nil {
			trace.Point(trace.FromContext(ctx), trace.ScopePass, "cache", "disabled: "+err.Error(), trace.CurrentSpan(ctx).SpanID)
		} else {
			cache = c
			key = cacheKey(&cfg, res.Digest)
			if out, ok := cachedModules(ctx, &cfg, cache, key); ok {
				return out, nil
			}
		}
	}

	var out *EmitResult
	var err error
	switch cfg.Backend {
	case BackendIR:
		out, err = emitIR(ctx, &cfg, res)
	default:
		out, err = emitLLVM(ctx, &cfg, res)
	}
	if err != nil {
		return nil, err
	}
	if cache != nil {
		ph := cfg.begin("cache", "store")
		perr := cache.Put(key, payloadOf(&cfg, out))
		ph.end(perr, key.String()[:12])
	}
	return out, nil
}

func cachedModules(ctx context.Context, cfg *Config, cache *DiskCache, key Digest) (*EmitResult, bool) {
	_, span := trace.Start(ctx, trace.ScopePass, "cache")
	ph := cfg.begin("cache", "load")
	var p DiskPayload
	ok, err := cache.Get(key, &p)
	ph.end(err, key.String()[:12])
	span.End(fmt.Sprintf("hit=%v", ok))
	if err != nil || !ok || p.Backend != cfg.Backend || p.Target != cfg.Target {
		return nil, false
	}
	out := &EmitResult{Cached: true, Modules: make([]Module, len(p.Names))}
	for i := range p.Names {
		out.Modules[i] = Module{Name: p.Names[i], Text: p.Texts[i]}
	}
	return out, true
}

func payloadOf(cfg *Config, out *EmitResult) *DiskPayload {
	p := &DiskPayload{Backend: cfg.Backend, Target: cfg.Target}
	for _, m := range out.Modules {
		p.Names = append(p.Names, m.Name)
		p.Texts = append(p.Texts, m.Text)
	}
	return p
}

// packageName names the single module of a package after the directory
// of its first file.
func packageName(res *CheckResult) string {
	if len(res.Paths) == 0 {
		return "main"
	}
	dir, err := filepath.Abs(filepath.Dir(res.Paths[0]))
	if err != nil {
		return "main"
	}
	name := filepath.Base(dir)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "main"
	}
	return strings.ReplaceAll(name, " ", "_")
}

func emitIR(ctx context.Context, cfg *Config, res *CheckResult) (*EmitResult, error) {
	name := packageName(res)
	ph := cfg.begin("emit", name)
	var text string
	err := guard("irgen "+name, func() error {
		mod, err := irgen.Generate(ctx, res.Info, irgen.Options{
			Name:      name,
			Files:     res.Files,
			DebugInfo: cfg.DebugInfo,
			NoEntry:   cfg.NoEntry,
		})
		if err != nil {
			return err
		}
		text = mod.String()
		return nil
	})
	ph.end(err, "")
	if err != nil {
		return nil, err
	}
	return &EmitResult{Modules: []Module{{Name: name, Text: text}}}, nil
}

// emitLLVM partitions the package into builder modules and generates
// them concurrently. The session tables are shared and guarded; each
// module writes only its own slot of the result.
func emitLLVM(ctx context.Context, cfg *Config, res *CheckResult) (*EmitResult, error) {
	s, err := llvm.NewSession(res.Info, llvm.Options{
		Name:          packageName(res),
		Files:         res.Files,
		Lowerer:       lower.New(res.Info.Layout),
		ModulePerFile: cfg.ModulePerFile,
		NoEntry:       cfg.NoEntry,
		DebugInfo:     cfg.DebugInfo,
		Tracer:        trace.FromContext(ctx),
	})
	if err != nil {
		return nil, err
	}
	mods := s.Modules()
	out := &EmitResult{Modules: make([]Module, len(mods))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(cfg.jobs(), max(len(mods), 1)))
	for i, m := range mods {
		g.Go(func() error {
			return guard("llvm "+m.Name(), func() error {
				ph := cfg.begin("emit", m.Name())
				err := m.Generate(gctx)
				if err == nil {
					out.Modules[i] = Module{Name: m.Name(), Text: m.String()}
				}
				ph.end(err, "")
				return err
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
