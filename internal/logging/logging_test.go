package logging

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	fallback := zap.NewNop()
	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Error("expected fallback logger for bare context")
	}

	core, logs := observer.New(zapcore.DebugLevel)
	scoped := zap.New(core).With(zap.String("request_id", "r-1"))
	ctx := WithContext(context.Background(), scoped)

	FromContext(ctx, fallback).Info("priced")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["request_id"] != "r-1" {
		t.Errorf("request_id field missing: %v", entries[0].ContextMap())
	}
}

func TestInitializeFileOutput(t *testing.T) {
	prev := Logger
	defer SetLogger(prev)

	path := filepath.Join(t.TempDir(), "pricing.log")
	if err := Initialize(Config{Level: "debug", Format: "json", Output: path}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !Logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level not enabled")
	}
}

func TestInitializeBadLevelFallsBack(t *testing.T) {
	prev := Logger
	defer SetLogger(prev)

	if err := Initialize(Config{Level: "loud", Output: "stderr"}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if Logger.Core().Enabled(zapcore.DebugLevel) || !Logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("expected info level fallback")
	}
}
