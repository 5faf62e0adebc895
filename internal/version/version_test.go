package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestBannerPlain(t *testing.T) {
	origV, origC, origD := Version, GitCommit, BuildDate
	t.Cleanup(func() { Version, GitCommit, BuildDate = origV, origC, origD })

	Version, GitCommit, BuildDate = "1.2.3", "abc123def4567890", "2026-01-15"
	got := Banner(false)
	if !strings.HasPrefix(got, "odinc 1.2.3 (abc123def456) built 2026-01-15 ") {
		t.Fatalf("Banner = %q", got)
	}

	GitCommit, BuildDate = "", ""
	if got := Banner(false); strings.Contains(got, "(") || strings.Contains(got, "built") {
		t.Fatalf("Banner without metadata = %q", got)
	}
}

func TestColorizeKeepsSuffix(t *testing.T) {
	orig := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = orig })

	got := colorize("0.1.0-dev")
	if !strings.HasSuffix(got, "-dev") || !strings.Contains(got, "\x1b[") {
		t.Fatalf("colorize = %q", got)
	}
	color.NoColor = true
	if got := colorize("0.1.0-dev"); got != "0.1.0-dev" {
		t.Fatalf("colorize without colour = %q", got)
	}
}
