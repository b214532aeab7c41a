package main

import (
	"bytes"
	"strings"
	"testing"

	mocks "github.com/rdelgatto/spindle/internal/testing"
)

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(RunnerOpts{})

	if r.config == nil {
		t.Error("config must default")
	}
	if r.logger == nil {
		t.Error("logger must default")
	}
	if r.output == nil {
		t.Error("output must default")
	}
}

func TestWriteJSON(t *testing.T) {
	t.Run("compact", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerOpts{Output: &buf})

		if err := r.writeJSON(map[string]int{"count": 3}, false); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}
		if got := buf.String(); got != "{\"count\":3}\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("pretty", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerOpts{Output: &buf})

		if err := r.writeJSON(map[string]int{"count": 3}, true); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"count\": 3\n") {
			t.Errorf("expected indented output, got %q", buf.String())
		}
	})

	t.Run("unmarshalable value errors", func(t *testing.T) {
		var buf bytes.Buffer
		r := NewRunner(RunnerOpts{Output: &buf})

		if err := r.writeJSON(func() {}, false); err == nil {
			t.Error("expected a marshal error")
		}
	})

	t.Run("write failure surfaces", func(t *testing.T) {
		r := NewRunner(RunnerOpts{Output: &mocks.FWriter{}})

		if err := r.writeJSON(map[string]int{"count": 3}, false); err == nil {
			t.Error("expected a write error")
		}
	})
}

func TestWritePlain(t *testing.T) {
	var buf bytes.Buffer
	r := NewRunner(RunnerOpts{Output: &buf})

	r.writePlain("count %d\n", 3)
	r.writePlainln("done")

	if got := buf.String(); got != "count 3\n\ndone\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestRunnerAddr(t *testing.T) {
	r := NewRunner(RunnerOpts{})
	r.config.Server.Host = "0.0.0.0"
	r.config.Server.Port = 9090

	if got := r.addr(); got != "0.0.0.0:9090" {
		t.Errorf("addr() = %q", got)
	}
}
