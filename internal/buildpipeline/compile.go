package buildpipeline

import (
	"context"
	"errors"
	"path/filepath"

	"odinc/internal/driver"
)

// CompileRequest names the sources and settings of one compilation.
type CompileRequest struct {
	Paths    []string
	Config   driver.Config
	Progress ProgressSink
	// Emit stops after checking when false.
	Emit bool
}

// CompileResult is the outcome of Compile. Check is set whenever the
// sources were read, even if they had errors.
type CompileResult struct {
	Check   *driver.CheckResult
	Emit    *driver.EmitResult
	Timings *Timings
}

// Compile checks the sources and, when asked and error free, generates
// their modules. Progress events are derived from driver phases.
func Compile(ctx context.Context, req *CompileRequest) (*CompileResult, error) {
	if req == nil {
		return nil, errors.New("missing compile request")
	}
	res := &CompileResult{Timings: &Timings{}}
	cfg := req.Config
	prev := cfg.Observer
	cfg.Observer = func(ev driver.PhaseEvent) {
		if prev != nil {
			prev(ev)
		}
		res.observe(req.Progress, ev)
	}

	cr, err := driver.Check(ctx, cfg, req.Paths)
	res.Check = cr
	if err != nil {
		return res, err
	}
	if cr.HasErrors() {
		return res, driver.ErrDiagnostics
	}
	if !req.Emit {
		return res, nil
	}
	er, err := driver.Emit(ctx, cfg, cr)
	res.Emit = er
	if err == nil && er.Cached && req.Progress != nil {
		for _, m := range er.Modules {
			req.Progress.OnEvent(Event{Module: m.Name, Stage: StageEmit, Status: StatusDone})
		}
	}
	return res, err
}

func (res *CompileResult) observe(sink ProgressSink, ev driver.PhaseEvent) {
	stage := Stage(ev.Name)
	if ev.Status != driver.PhaseStart {
		res.Timings.Add(stage, ev.Elapsed)
	}
	if sink == nil {
		return
	}
	out := Event{Module: displayName(ev.Module), Stage: stage, Elapsed: ev.Elapsed, Err: ev.Err}
	switch ev.Status {
	case driver.PhaseStart:
		out.Status = StatusWorking
	case driver.PhaseEnd:
		out.Status = StatusDone
	default:
		out.Status = StatusError
	}
	sink.OnEvent(out)
}

// displayName shortens file paths to their base name; module names pass
// through.
func displayName(module string) string {
	if filepath.Ext(module) == driver.SourceExt {
		return filepath.Base(module)
	}
	return module
}
