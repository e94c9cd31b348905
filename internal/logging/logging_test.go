package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestJSONLoggerEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.Info(context.Background(), "run finished",
		String("strategy", "uniform"),
		Int("iterations", 12),
		Bool("converged", true),
		Float64("max_change", 0.0005),
		Duration("elapsed", 250*time.Millisecond),
	)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if line["msg"] != "run finished" {
		t.Errorf("msg = %v, want %q", line["msg"], "run finished")
	}
	if line["strategy"] != "uniform" {
		t.Errorf("strategy = %v, want uniform", line["strategy"])
	}
	if line["iterations"] != float64(12) {
		t.Errorf("iterations = %v, want 12", line["iterations"])
	}
	if line["converged"] != true {
		t.Errorf("converged = %v, want true", line["converged"])
	}
}

func TestLevelFiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info(context.Background(), "quiet-info")
	log.Warn(context.Background(), "loud-warn")

	out := buf.String()
	if strings.Contains(out, "quiet-info") {
		t.Errorf("info line leaked through warn level: %q", out)
	}
	if !strings.Contains(out, "loud-warn") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestWithCarriesFieldsForward(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "json", Output: &buf}).With(String("component", "solver"))

	log.Info(context.Background(), "hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if line["component"] != "solver" {
		t.Errorf("component = %v, want solver", line["component"])
	}
}

func TestEnsureRequestIDIsSticky(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	if id == "" {
		t.Fatal("EnsureRequestID returned an empty ID")
	}
	if got := RequestIDFromContext(ctx); got != id {
		t.Fatalf("RequestIDFromContext = %q, want %q", got, id)
	}

	_, again := EnsureRequestID(ctx)
	if again != id {
		t.Fatalf("EnsureRequestID minted %q on a context that already carried %q", again, id)
	}
}

func TestLoggerFromContextNeverNil(t *testing.T) {
	if LoggerFromContext(context.Background()) == nil {
		t.Fatal("LoggerFromContext returned nil for a bare context")
	}

	marked := ContextWithLogger(context.Background(), Noop())
	if LoggerFromContext(marked) == nil {
		t.Fatal("LoggerFromContext returned nil for a context with a stored logger")
	}
}

func TestErrField(t *testing.T) {
	if f := Err(errors.New("boom")); f.Key != "error" || f.Value != "boom" {
		t.Errorf("Err(boom) = %+v", f)
	}
	if f := Err(nil); f.Value != nil {
		t.Errorf("Err(nil) carries value %v, want nil", f.Value)
	}
}
