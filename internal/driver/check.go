// Package driver runs the compilation pipeline: configuration, parallel
// parsing, checking, per-module code generation and the disk cache.
package driver

import (
	"context"
	"errors"
	"fmt"

	"odinc/internal/ast"
	"odinc/internal/check"
	"odinc/internal/diag"
	"odinc/internal/layout"
	"odinc/internal/source"
	"odinc/internal/trace"
)

// errSourceErrors marks a phase that reported errors in the source.
var errSourceErrors = errors.New("source has errors")

// ErrDiagnostics is returned by Emit for a package with errors.
var ErrDiagnostics = errors.New("diagnostics reported errors")

// CheckResult is a parsed and checked package.
type CheckResult struct {
	Paths  []string
	Files  *source.FileSet
	ASTs   []*ast.File
	Bag    *diag.Bag
	Info   *check.Info
	Target layout.Target
	// Digest covers the path and content of every source file.
	Digest Digest
}

// HasErrors reports whether any phase reported an error.
func (r *CheckResult) HasErrors() bool { return r.Bag.HasErrors() }

// Check loads, parses and checks the package made of paths. Source errors
// end up in the result's Bag; the returned error is for failures of the
// pipeline itself.
func Check(ctx context.Context, cfg Config, paths []string) (*CheckResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "check")
	defer span.End("")

	files, err := CollectSources(paths)
	if err != nil {
		return nil, err
	}
	res := &CheckResult{
		Paths:  files,
		Bag:    diag.NewBag(cfg.MaxDiagnostics),
		Target: cfg.TargetInfo(),
	}
	var ids []source.FileID
	res.Files, ids = loadFiles(files, res.Bag)
	res.Digest = sourceDigest(res.Files, ids)

	res.ASTs, err = parseFiles(ctx, &cfg, res.Files, ids, res.Bag)
	if err != nil {
		return res, err
	}
	if res.Bag.HasErrors() {
		res.Bag.Sort()
		return res, nil
	}

	ph := cfg.begin("check", "")
	err = guard("check", func() error {
		rep := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})
		res.Info = check.Check(ctx, res.ASTs, check.Options{
			Reporter:      rep,
			Target:        res.Target,
			NoBoundsCheck: cfg.NoBoundsCheck,
		})
		return nil
	})
	if err == nil && res.Bag.HasErrors() {
		ph.end(errSourceErrors, "")
	} else {
		ph.end(err, fmt.Sprintf("%d procs", procCount(res.Info)))
	}
	res.Bag.Sort()
	res.Bag.Dedup()
	return res, err
}

func procCount(info *check.Info) int {
	if info == nil {
		return 0
	}
	return len(info.Procs)
}
