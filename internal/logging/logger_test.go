package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestInitLoggerDebugLevel(t *testing.T) {
	InitLogger(true)
	logger := GetLogger()
	if logger == nil {
		t.Fatalf("GetLogger returned nil after init")
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug init should admit debug records")
	}
	if !logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("debug init should still admit info records")
	}
}
