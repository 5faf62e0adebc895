package ui

import (
	"strings"
	"testing"

	"odinc/internal/buildpipeline"
)

func TestTruncateCountsCellWidth(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	got := truncate("very/long/module/path.odin", 12)
	if !strings.HasSuffix(got, "...") || len([]rune(got)) > 12 {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("日本語のファイル", 6); got != "日..." {
		t.Fatalf("wide truncate = %q", got)
	}
}

func TestApplyAddsRowsAndTracksProgress(t *testing.T) {
	m := NewProgressModel("build", nil).(*progressModel)
	m.apply(buildpipeline.Event{Module: "a.odin", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusWorking})
	m.apply(buildpipeline.Event{Module: "a.odin", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusDone})
	m.apply(buildpipeline.Event{Module: "a", Stage: buildpipeline.StageEmit, Status: buildpipeline.StatusDone})
	m.apply(buildpipeline.Event{Stage: buildpipeline.StageCheck, Status: buildpipeline.StatusWorking})

	if len(m.items) != 2 {
		t.Fatalf("rows = %+v", m.items)
	}
	if p := m.percent(); p <= 0.6 || p > 1 {
		t.Fatalf("percent = %v", p)
	}
	view := m.View()
	for _, want := range []string{"build (checking)", "parsed", "a.odin"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}
