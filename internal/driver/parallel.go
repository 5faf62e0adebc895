package driver

import (
	"context"
	"fmt"

	"fortio.org/safecast"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"odinc/internal/ast"
	"odinc/internal/diag"
	"odinc/internal/parser"
	"odinc/internal/source"
	"odinc/internal/trace"
)

// loadFiles reads every path into a new file set. Unreadable files are
// reported as diagnostics and left out.
func loadFiles(paths []string, bag *diag.Bag) (*source.FileSet, []source.FileID) {
	fs := source.NewFileSet()
	ids := make([]source.FileID, 0, len(paths))
	for _, p := range paths {
		id, err := fs.Load(p)
		if err != nil {
			bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, fmt.Sprintf("%s: %v", p, err)))
			continue
		}
		ids = append(ids, id)
	}
	return fs, ids
}

// parseFiles parses the files in parallel. Each file reports into its own
// bag; the bags are merged in file order so diagnostics stay stable.
func parseFiles(ctx context.Context, cfg *Config, fs *source.FileSet, ids []source.FileID, bag *diag.Bag) ([]*ast.File, error) {
	ctx, span := trace.Start(ctx, trace.ScopePass, "parse")
	defer span.End(fmt.Sprintf("%d files", len(ids)))

	maxErrs, err := safecast.Conv[uint](cfg.MaxDiagnostics)
	if err != nil {
		maxErrs = 0
	}
	files := make([]*ast.File, len(ids))
	bags := make([]*diag.Bag, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(cfg.jobs(), max(len(ids), 1)))
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := fs.Get(id).Path
			return guard("parse "+path, func() error {
				ph := cfg.begin("parse", path)
				fileBag := diag.NewBag(cfg.MaxDiagnostics)
				files[i] = parser.ParseFile(fs, id, parser.Options{
					MaxErrors: maxErrs,
					Reporter:  diag.BagReporter{Bag: fileBag},
				})
				bags[i] = fileBag
				var err error
				if fileBag.HasErrors() {
					err = errSourceErrors
				}
				ph.end(err, "")
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, b := range bags {
		bag.Merge(b)
	}
	return files, nil
}

// guard turns a panic inside fn into an error carrying the stack of the
// recover site.
func guard(what string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("internal compiler error: %s: %v", what, r)
		}
	}()
	return fn()
}
