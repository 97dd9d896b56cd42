package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]struct {
		level string
		debug bool
		want  slog.Level
	}{
		"default":         {level: "", want: slog.LevelInfo},
		"debug flag":      {level: "error", debug: true, want: slog.LevelDebug},
		"warning alias":   {level: "WARNING", want: slog.LevelWarn},
		"error":           {level: " error ", want: slog.LevelError},
		"unknown is info": {level: "loud", want: slog.LevelInfo},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := ParseLevel(tc.level, tc.debug); got != tc.want {
				t.Errorf("ParseLevel(%q, %v) = %v, want %v", tc.level, tc.debug, got, tc.want)
			}
		})
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn)
	defer slog.SetDefault(Discard())

	l.Info("hidden")
	l.Warn("shown", "feed", "http://x")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "feed=http://x") {
		t.Errorf("warn line missing: %q", out)
	}
}
