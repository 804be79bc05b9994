package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInit_JSON(t *testing.T) {
	prev := log.Logger
	defer func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}()

	var buf bytes.Buffer
	Init(Options{JSON: true, Out: &buf})

	logger := ForJob(WithComponent("pipeline"), "job-9")
	logger.Info().Int("attempt", 1).Msg("attempt judged")
	logger.Debug().Msg("hidden at info level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if entry["component"] != "pipeline" || entry["job_id"] != "job-9" || entry["attempt"] != 1.0 {
		t.Errorf("missing fields: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestInit_VerboseConsole(t *testing.T) {
	prev := log.Logger
	defer func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}()

	var buf bytes.Buffer
	Init(Options{Verbose: true, Out: &buf})
	logger := WithComponent("watch")
	logger.Debug().Msg("scanning inbox")

	out := buf.String()
	if !strings.Contains(out, "scanning inbox") || !strings.Contains(out, "component=watch") {
		t.Errorf("unexpected console output %q", out)
	}
}

func TestNewLogger(t *testing.T) {
	var a, b bytes.Buffer
	logger := NewLogger(&a, &b)
	logger.Info().Msg("twice")
	if !strings.Contains(a.String(), "twice") || !strings.Contains(b.String(), "twice") {
		t.Error("multi writer logger should write to every writer")
	}
}
