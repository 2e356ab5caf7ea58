package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestNew_DefaultsApplied(t *testing.T) {
	t.Parallel()

	log, err := New(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log == nil {
		t.Fatal("expected logger")
	}
}

func TestNew_ConsoleEncoding(t *testing.T) {
	t.Parallel()

	log, err := New(Config{Level: "debug", Encoding: "console", Development: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Must not panic.
	log.Debug("dev message", "key", "value")
}

func TestGetLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"debug", "debug"},
		{"INFO", "info"},
		{"Warn", "warn"},
		{"error", "error"},
		{"nonsense", "info"}, // unknown levels fall back to info
		{"", "info"},
	}

	for _, tt := range tests {
		if got := getLogLevel(tt.input).String(); got != tt.want {
			t.Errorf("getLogLevel(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestToZapFields(t *testing.T) {
	t.Parallel()

	fields := toZapFields([]any{"a", 1, "b", "two"})

	want := []zap.Field{zap.Any("a", 1), zap.Any("b", "two")}

	if len(fields) != len(want) {
		t.Fatalf("got %d fields, want %d", len(fields), len(want))
	}
	for i := range want {
		if !fields[i].Equals(want[i]) {
			t.Errorf("field[%d] = %+v, want %+v", i, fields[i], want[i])
		}
	}
}

func TestToZapFields_DanglingKey(t *testing.T) {
	t.Parallel()

	fields := toZapFields([]any{"a", 1, "orphan"})

	if len(fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(fields))
	}
	if fields[1].Key != "dangling_key" {
		t.Errorf("dangling field key = %q", fields[1].Key)
	}
}

func TestToZapFields_NonStringKey(t *testing.T) {
	t.Parallel()

	fields := toZapFields([]any{42, "value"})

	if len(fields) != 1 {
		t.Fatalf("got %d fields, want 1", len(fields))
	}
	if fields[0].Key != "42" {
		t.Errorf("key = %q, want stringified 42", fields[0].Key)
	}
}

func TestNoOpLogger(t *testing.T) {
	t.Parallel()

	log := NewNoOp()

	// Every method must be safe to call, including Fatal.
	log.Debug("d")
	log.Info("i", "k", "v")
	log.Warn("w")
	log.Error("e")
	log.Fatal("f")

	if log.With("k", "v") != log {
		t.Error("With should return the same no-op instance")
	}
	if log.WithComponent("x") != log {
		t.Error("WithComponent should return the same no-op instance")
	}
}
