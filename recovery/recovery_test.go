package recovery_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/wudi/rtfsig/observability"
	"github.com/wudi/rtfsig/recovery"
)

type countingLogger struct {
	observability.NopLogger
	debug int
}

func (c *countingLogger) Debug(string, ...observability.Field) { c.debug++ }

func TestLenientStrategy(t *testing.T) {
	log := &countingLogger{}
	rec := recovery.NewLenientStrategy(log)
	rec.OnError(recovery.ErrUnmatchedClose, recovery.Location{ByteOffset: 12, Component: "group"})
	rec.OnError(recovery.ErrTruncatedBinary, recovery.Location{ByteOffset: 40, Component: "scanner"})
	rec.OnError(recovery.ErrUnmatchedClose, recovery.Location{ByteOffset: 50, Component: "group"})

	if len(rec.Errors) != 3 || log.debug != 3 {
		t.Fatalf("expected 3 recorded and logged anomalies, got %d/%d", len(rec.Errors), log.debug)
	}
	if !errors.Is(rec.Errors[1], recovery.ErrTruncatedBinary) {
		t.Fatalf("recorded error lost its cause: %v", rec.Errors[1])
	}
	if !strings.Contains(rec.Errors[0].Error(), "[group] offset 12") {
		t.Fatalf("location missing from %q", rec.Errors[0])
	}
	if rec.Count(recovery.ErrUnmatchedClose) != 2 || rec.Count(recovery.ErrDanglingGroups) != 0 {
		t.Fatalf("unexpected counts")
	}
}

func TestLenientStrategy_NilLogger(t *testing.T) {
	rec := recovery.NewLenientStrategy(nil)
	rec.OnError(recovery.ErrParamRange, recovery.Location{})
	if len(rec.Errors) != 1 {
		t.Fatalf("expected one error")
	}
}
