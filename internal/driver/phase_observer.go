package driver

import "time"

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	PhaseStart PhaseStatus = iota
	PhaseEnd
	PhaseFailed
)

// PhaseEvent is a phase boundary. Module names the file being parsed or
// the module being generated; it is empty for package-wide phases.
type PhaseEvent struct {
	Name    string
	Module  string
	Status  PhaseStatus
	Elapsed time.Duration
	Err     error
}

// PhaseObserver receives phase events. It is called from worker
// goroutines and must be safe for concurrent use.
type PhaseObserver func(PhaseEvent)

// phase times one phase for the observer, the timer and the tracer.
type phase struct {
	cfg    *Config
	name   string
	module string
	start  time.Time
	timer  int
}

func (c *Config) begin(name, module string) *phase {
	p := &phase{cfg: c, name: name, module: module, start: time.Now(), timer: -1}
	if c.Timer != nil {
		label := name
		if module != "" {
			label += " " + module
		}
		p.timer = c.Timer.Begin(label)
	}
	if c.Observer != nil {
		c.Observer(PhaseEvent{Name: name, Module: module, Status: PhaseStart})
	}
	return p
}

func (p *phase) end(err error, note string) {
	if p.cfg.Timer != nil {
		p.cfg.Timer.End(p.timer, note)
	}
	if p.cfg.Observer == nil {
		return
	}
	ev := PhaseEvent{Name: p.name, Module: p.module, Status: PhaseEnd, Elapsed: time.Since(p.start), Err: err}
	if err != nil {
		ev.Status = PhaseFailed
	}
	p.cfg.Observer(ev)
}
