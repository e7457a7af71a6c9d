package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestColorHandler(t *testing.T) {
	tests := []struct {
		name     string
		level    slog.Level
		message  string
		wantCode string
	}{
		{
			name:     "error message has red color",
			level:    slog.LevelError,
			message:  "metadata service query failed",
			wantCode: colorRed,
		},
		{
			name:     "warning message has yellow color",
			level:    slog.LevelWarn,
			message:  "unparseable extraction reply, using defaults",
			wantCode: colorYellow,
		},
		{
			name:     "info message has no color",
			level:    slog.LevelInfo,
			message:  "server listening",
			wantCode: "",
		},
		{
			name:     "cache hit message has green color",
			level:    slog.LevelInfo,
			message:  "response cache hit",
			wantCode: colorGreen,
		},
		{
			name:     "debug message has no color",
			level:    slog.LevelDebug,
			message:  "extraction prompt built",
			wantCode: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, slog.LevelDebug)

			switch tt.level {
			case slog.LevelError:
				logger.Error(tt.message)
			case slog.LevelWarn:
				logger.Warn(tt.message)
			case slog.LevelInfo:
				logger.Info(tt.message)
			case slog.LevelDebug:
				logger.Debug(tt.message)
			}

			output := buf.String()
			if !strings.Contains(output, tt.message) {
				t.Errorf("output %q does not contain message %q", output, tt.message)
			}

			if tt.wantCode == "" {
				if strings.Contains(output, colorRed) || strings.Contains(output, colorYellow) || strings.Contains(output, colorGreen) {
					t.Errorf("output %q should not be colored", output)
				}
				return
			}
			if !strings.Contains(output, tt.wantCode) {
				t.Errorf("output %q missing color code %q", output, tt.wantCode)
			}
			if !strings.Contains(output, colorReset) {
				t.Errorf("output %q missing reset code", output)
			}
		})
	}
}

func TestColorHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Info("should be dropped")
	logger.Warn("should be written")

	output := buf.String()
	if strings.Contains(output, "should be dropped") {
		t.Errorf("info line written below handler level: %q", output)
	}
	if !strings.Contains(output, "should be written") {
		t.Errorf("warn line missing: %q", output)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
