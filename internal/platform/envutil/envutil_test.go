package envutil

import (
	"testing"
	"time"
)

func TestTypedGetters(t *testing.T) {
	t.Setenv("ENVUTIL_INT", "42")
	t.Setenv("ENVUTIL_BAD_INT", "x")
	t.Setenv("ENVUTIL_FLOAT", "0.5")
	t.Setenv("ENVUTIL_BOOL", "yes")
	t.Setenv("ENVUTIL_DUR", "1500ms")
	t.Setenv("ENVUTIL_SECS", "20")
	t.Setenv("ENVUTIL_B", "second")

	if got := Int("ENVUTIL_INT", 1); got != 42 {
		t.Fatalf("Int: expected 42, got=%d", got)
	}
	if got := Int("ENVUTIL_BAD_INT", 7); got != 7 {
		t.Fatalf("Int: expected default 7, got=%d", got)
	}
	if got := Float("ENVUTIL_FLOAT", 0); got != 0.5 {
		t.Fatalf("Float: expected 0.5, got=%v", got)
	}
	if !Bool("ENVUTIL_BOOL", false) {
		t.Fatalf("Bool: expected true")
	}
	if got := Duration("ENVUTIL_DUR", 0); got != 1500*time.Millisecond {
		t.Fatalf("Duration: expected 1.5s, got=%v", got)
	}
	if got := Duration("ENVUTIL_SECS", 0); got != 20*time.Second {
		t.Fatalf("Duration: expected 20s, got=%v", got)
	}
	if got := String("ENVUTIL_MISSING", "def"); got != "def" {
		t.Fatalf("String: expected default, got=%q", got)
	}
	if got := First("def", "ENVUTIL_A", "ENVUTIL_B"); got != "second" {
		t.Fatalf("First: expected second, got=%q", got)
	}
}
