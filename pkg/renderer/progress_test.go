package renderer

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressReporter_Interactive(t *testing.T) {
	tests := []struct {
		name      string
		perSecond float64
	}{
		{"tiny rate", 1e-9},
		{"realistic rate", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			// Only the first and final rows get through in a fast loop
			p := NewProgressReporter(&out, true, tt.perSecond)

			for done := 1; done <= 10; done++ {
				p.Report(done, 10)
			}

			got := out.String()
			if n := strings.Count(got, "\r"); n != 2 {
				t.Errorf("Expected 2 progress lines, got %d in %q", n, got)
			}
			if !strings.Contains(got, "Rendering 1/10 rows (10%)") {
				t.Errorf("Missing first update in %q", got)
			}
			if !strings.Contains(got, "Rendering 10/10 rows (100%)") {
				t.Errorf("Missing final update in %q", got)
			}
			if !strings.HasSuffix(got, "\n") {
				t.Errorf("Expected the final update to end the line, got %q", got)
			}
		})
	}
}

func TestProgressReporter_DropsStaleRows(t *testing.T) {
	var out bytes.Buffer
	p := NewProgressReporter(&out, true, 1e6)

	// Rows finishing out of order must not redraw after the final line
	p.Report(2, 10)
	p.Report(10, 10)
	p.Report(9, 10)
	p.Report(1, 10)

	got := out.String()
	if strings.Count(got, "\r") != 2 {
		t.Errorf("Expected 2 progress lines, got %q", got)
	}
	lines := strings.Split(got, "\r")
	if last := lines[len(lines)-1]; !strings.HasPrefix(last, "Rendering 10/10") || !strings.HasSuffix(last, "\n") {
		t.Errorf("Expected the final update to be last, got %q", got)
	}
	if strings.Contains(got, "9/10") || strings.Contains(got, "1/10") {
		t.Errorf("Stale update written in %q", got)
	}
}
