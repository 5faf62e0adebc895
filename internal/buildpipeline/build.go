// Package buildpipeline sequences a compilation for the CLI: checking,
// generation, writing artefacts, and the progress events in between.
package buildpipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	runtimeembed "odinc/runtime"
)

// BuildRequest adds the output location to a compilation.
type BuildRequest struct {
	CompileRequest
	// OutputDir overrides Config.OutputDir.
	OutputDir string
	// NoRuntime skips copying the C runtime shim.
	NoRuntime bool
}

// BuildResult lists the files written.
type BuildResult struct {
	*CompileResult
	OutputDir string
	Modules   []string
	Runtime   []string
}

// Build compiles the request and writes one .ll file per module, plus the
// runtime shim under runtime/. Linking is left to the user's toolchain.
func Build(ctx context.Context, req *BuildRequest) (*BuildResult, error) {
	if req == nil {
		return nil, fmt.Errorf("missing build request")
	}
	creq := req.CompileRequest
	creq.Emit = true
	cres, err := Compile(ctx, &creq)
	res := &BuildResult{CompileResult: cres}
	if err != nil {
		return res, err
	}

	dir := req.OutputDir
	if dir == "" {
		dir = creq.Config.OutputDir
	}
	res.OutputDir = dir
	start := time.Now()
	emit(req.Progress, Event{Stage: StageWrite, Status: StatusWorking})
	if err := os.MkdirAll(dir, 0o750); err != nil {
		err = fmt.Errorf("create output dir: %w", err)
		emit(req.Progress, Event{Stage: StageWrite, Status: StatusError, Err: err})
		return res, err
	}
	names := make(map[string]int)
	for _, m := range cres.Emit.Modules {
		name := m.Name
		if n := names[name]; n > 0 {
			name = fmt.Sprintf("%s.%d", name, n)
		}
		names[m.Name]++
		p := filepath.Join(dir, name+".ll")
		if err := os.WriteFile(p, []byte(m.Text), 0o600); err != nil {
			err = fmt.Errorf("write %s: %w", p, err)
			emit(req.Progress, Event{Module: m.Name, Stage: StageWrite, Status: StatusError, Err: err})
			return res, err
		}
		res.Modules = append(res.Modules, p)
	}
	if !req.NoRuntime {
		rt, err := runtimeembed.WriteTo(filepath.Join(dir, "runtime"))
		if err != nil {
			emit(req.Progress, Event{Stage: StageWrite, Status: StatusError, Err: err})
			return res, err
		}
		res.Runtime = rt
	}
	elapsed := time.Since(start)
	cres.Timings.Add(StageWrite, elapsed)
	emit(req.Progress, Event{Stage: StageWrite, Status: StatusDone, Elapsed: elapsed})
	return res, nil
}

func emit(sink ProgressSink, ev Event) {
	if sink != nil {
		sink.OnEvent(ev)
	}
}
