package envutil

import (
	"testing"
	"time"
)

func TestReaders(t *testing.T) {
	t.Setenv("EU_INT", " 42 ")
	t.Setenv("EU_BAD_INT", "x")
	t.Setenv("EU_BOOL", "on")
	t.Setenv("EU_SECS", "0")
	t.Setenv("EU_MS", "250")
	t.Setenv("EU_CSV", "a, ,b,")

	if got := Int("EU_INT", 1); got != 42 {
		t.Fatalf("Int=%d", got)
	}
	if got := Int("EU_BAD_INT", 7); got != 7 {
		t.Fatalf("Int fallback=%d", got)
	}
	if !Bool("EU_BOOL", false) {
		t.Fatalf("Bool should be true")
	}
	if Bool("EU_MISSING", false) {
		t.Fatalf("Bool default should be false")
	}
	if got := Seconds("EU_SECS", 3*time.Second); got != 3*time.Second {
		t.Fatalf("Seconds fallback=%s", got)
	}
	if got := Millis("EU_MS", time.Second); got != 250*time.Millisecond {
		t.Fatalf("Millis=%s", got)
	}
	got := CSV("EU_CSV", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("CSV=%v", got)
	}
	if got := String("EU_MISSING", "def"); got != "def" {
		t.Fatalf("String=%q", got)
	}
}
