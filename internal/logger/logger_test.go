package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		env, level string
		wantErr    bool
	}{
		{"prod", "", false},
		{"local", "warn", false},
		{"test", "", false},
		{"staging", "", true},
		{"dev", "loud", true},
	}
	for _, tt := range tests {
		l, err := NewLogger(tt.env, "docsearch-worker", tt.level)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewLogger(%q, %q) error = %v, wantErr %v", tt.env, tt.level, err, tt.wantErr)
		}
		if err == nil && l == nil {
			t.Errorf("NewLogger(%q) returned nil logger", tt.env)
		}
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext returned nil without a logger")
	}

	core, logs := observer.New(zap.InfoLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))
	ctx = WithFields(ctx, zap.String("task", "purge_index"))
	FromContext(ctx).Info("done")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	if got := entries[0].ContextMap()["task"]; got != "purge_index" {
		t.Errorf("task field = %v", got)
	}
}
