package cli

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/daedalus-s/threat-gdg-adk/internal/metrics"
	"github.com/daedalus-s/threat-gdg-adk/internal/models"
)

func TestRenderRuntime(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordTiming(metrics.OpUpsert, 20*time.Millisecond)
	c.RecordTiming(metrics.OpUpsert, 40*time.Millisecond)
	c.RecordFailure(metrics.OpEmbedding)

	lines := renderRuntime(c.Snapshot())

	if len(lines) != 3 {
		t.Fatalf("expected uptime plus 2 op lines, got %d: %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "Uptime:") {
		t.Errorf("first line = %q, want uptime", lines[0])
	}

	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "upsert") || !strings.Contains(joined, "count=2") {
		t.Errorf("missing upsert timings in %q", joined)
	}
	if !strings.Contains(joined, "embedding") || !strings.Contains(joined, "failures=1") {
		t.Errorf("missing embedding failures in %q", joined)
	}
	if strings.Contains(joined, "semantic") || strings.Contains(joined, "time_range") {
		t.Errorf("unused operations should be omitted: %q", joined)
	}
}

func TestRenderRuntimeEmpty(t *testing.T) {
	lines := renderRuntime(metrics.NewCollector().Snapshot())
	if len(lines) != 1 {
		t.Errorf("expected only the uptime line, got %v", lines)
	}
}

func TestFormatEvent(t *testing.T) {
	score := 0.875
	e := models.EventRecord{
		CameraID:       2,
		Timestamp:      16.0,
		ThreatLevel:    models.ThreatHigh,
		WeaponType:     "knife",
		RelevanceScore: &score,
		Description:    "person at the door",
	}

	line := formatEvent(e)
	for _, want := range []string{"cam 2", "16.0s", "high", "weapon=knife", "score=0.875", "person at the door"} {
		if !strings.Contains(line, want) {
			t.Errorf("formatEvent() = %q, missing %q", line, want)
		}
	}
}

func TestFormatEventTruncatesAtRuneBoundary(t *testing.T) {
	e := models.EventRecord{
		CameraID:    1,
		Timestamp:   5.0,
		ThreatLevel: models.ThreatNone,
		WeaponType:  "none",
		Description: strings.Repeat("é", 120),
	}

	line := formatEvent(e)
	if !utf8.ValidString(line) {
		t.Errorf("formatEvent() produced invalid UTF-8: %q", line)
	}
	if !strings.HasSuffix(line, "é...") {
		t.Errorf("expected rune-boundary cut with ellipsis, got %q", line[len(line)-8:])
	}
}
