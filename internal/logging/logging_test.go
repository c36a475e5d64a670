package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerWritesFormattedMessagesWithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := New(zap.New(core)).WithField("session", "s-1")

	logger.Warn("command %s rejected: %s", "GUESS", "NOT_YOUR_TURN")
	logger.WithFields(map[string]interface{}{"player": "p2"}).Debug("applied")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "command GUESS rejected: NOT_YOUR_TURN" || entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
	ctx := entries[1].ContextMap()
	if ctx["session"] != "s-1" || ctx["player"] != "p2" {
		t.Fatalf("fields not carried: %v", ctx)
	}
}

func TestFieldsAreCopied(t *testing.T) {
	base := Nop().WithField("a", 1)
	child := base.WithField("b", 2)
	if len(base.Fields()) != 1 || len(child.Fields()) != 2 {
		t.Fatalf("fields leaked between loggers: %v / %v", base.Fields(), child.Fields())
	}
	f := child.Fields()
	f["c"] = 3
	if _, ok := child.Fields()["c"]; ok {
		t.Fatal("Fields returned the internal map")
	}
}

func TestNewNilIsSafe(t *testing.T) {
	New(nil).Error("nothing happens %d", 1)
}
