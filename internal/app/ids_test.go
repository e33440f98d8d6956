package app

import (
	"strings"
	"testing"
)

func TestRandomCode(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		code, err := randomCode(5)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(code) != 5 {
			t.Fatalf("expected 5 characters, got %q", code)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("character %q outside the alphabet in %q", c, code)
			}
		}
	}
}

func TestNewOrderCode(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := newOrderCode()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if code == "" {
			t.Fatalf("expected a non-empty code")
		}
		seen[code] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("expected distinct codes, got %d unique out of 50", len(seen))
	}
}
