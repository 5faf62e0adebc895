package buildpipeline

import (
	"sync"
	"time"
)

// Stage is a pipeline phase as shown to the user.
type Stage string

const (
	StageParse Stage = "parse"
	StageCheck Stage = "check"
	StageCache Stage = "cache"
	StageEmit  Stage = "emit"
	StageWrite Stage = "write"
)

// Status is the progress of one item within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress of a module or file; Module is empty for events
// about the whole package.
type Event struct {
	Module  string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes events. OnEvent is called from worker goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings accumulates the duration of each stage.
type Timings struct {
	mu     sync.Mutex
	stages map[Stage]time.Duration
}

// Add adds dur to stage.
func (t *Timings) Add(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] += dur
}

// Duration returns the recorded duration of stage.
func (t *Timings) Duration(stage Stage) time.Duration {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stages[stage]
}

// Sum returns the total over stages.
func (t *Timings) Sum(stages ...Stage) time.Duration {
	var total time.Duration
	for _, s := range stages {
		total += t.Duration(s)
	}
	return total
}
