package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  bolt.Level
	}{
		{"trace", bolt.TRACE},
		{"debug", bolt.DEBUG},
		{"info", bolt.INFO},
		{"warn", bolt.WARN},
		{"error", bolt.ERROR},
		{"unknown", bolt.INFO},
		{"", bolt.INFO},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.Level != "info" {
		t.Errorf("Level = %q, want %q", config.Level, "info")
	}
	if config.Format != "console" {
		t.Errorf("Format = %q, want %q", config.Format, "console")
	}
}

func TestProductionConfig(t *testing.T) {
	config := ProductionConfig()
	if config.Format != "json" {
		t.Errorf("Format = %q, want %q", config.Format, "json")
	}
}

func TestGetInitializes(t *testing.T) {
	logger := Get()
	if logger == nil {
		t.Fatal("Get() returned nil")
	}
}

func TestLogEventChaining(t *testing.T) {
	// Verify field chaining does not panic.
	Info().
		Add(SessionID("sess-1")).
		Add(ProjectID("proj-1")).
		Add(ActionID("draft_chapter")).
		Add(Target("2")).
		Add(Cycle(3)).
		Add(BatchSize(2)).
		Add(StepKind("batch")).
		Add(Goal("complete_draft")).
		Add(Duration(150 * time.Millisecond)).
		Msg("chaining test")

	Error().
		Add(ErrorField(errors.New("invocation failed"))).
		Add(Reason("max cycles exceeded")).
		Add(Component("dispatcher")).
		Msg("error test")
}
