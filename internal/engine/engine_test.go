package engine

import (
	"os"
	"path/filepath"
	"testing"

	"luax/internal/value"
)

func mustLookupInt(t *testing.T, eng *Engine, name string) int64 {
	t.Helper()
	v, ok := eng.VM.Lookup(name)
	if !ok {
		t.Fatalf("global %q not found", name)
	}
	if v.Kind != value.Int {
		t.Fatalf("global %q is %s, want Int", name, v.Kind)
	}
	return v.Int()
}

func TestRunSourceDeclaresGlobals(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("failed to construct engine: %v", err)
	}

	if _, err := eng.RunSource("", "let x = 1 + 2 * 3;"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustLookupInt(t, eng, "x"); got != 7 {
		t.Errorf("got x = %d, want 7", got)
	}
}

func TestRunSourceFunctionCall(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("failed to construct engine: %v", err)
	}

	src := `
fn add(a, b) {
	return a + b;
}
let r = add(2, 3);
`
	if _, err := eng.RunSource("", src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustLookupInt(t, eng, "r"); got != 5 {
		t.Errorf("got r = %d, want 5", got)
	}
}

func TestRunSourcePersistsAcrossCalls(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("failed to construct engine: %v", err)
	}

	if _, err := eng.RunSource("<line1>", "let x = 10;"); err != nil {
		t.Fatalf("line 1: unexpected error: %v", err)
	}
	if _, err := eng.RunSource("<line2>", "x = x + 5;"); err != nil {
		t.Fatalf("line 2: unexpected error: %v", err)
	}
	if got := mustLookupInt(t, eng, "x"); got != 15 {
		t.Errorf("got x = %d, want 15 (second line should see the first line's binding)", got)
	}
}

func TestNewPreloadsStdlib(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("failed to construct engine: %v", err)
	}
	v, ok := eng.VM.Lookup("println")
	if !ok {
		t.Fatal("expected println to be preloaded")
	}
	if v.Kind != value.Function {
		t.Errorf("expected println to be a Function, got %s", v.Kind)
	}
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.lx")
	if err := os.WriteFile(path, []byte("let answer = 40 + 2;"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	eng, err := New()
	if err != nil {
		t.Fatalf("failed to construct engine: %v", err)
	}
	if _, err := eng.RunFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustLookupInt(t, eng, "answer"); got != 42 {
		t.Errorf("got answer = %d, want 42", got)
	}
}

func TestCompileErrorSurfaces(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("failed to construct engine: %v", err)
	}
	if _, err := eng.RunSource("", "let x = ;"); err == nil {
		t.Fatal("expected a compile error for malformed source")
	}
}

func TestEachEngineGetsAUniqueRunID(t *testing.T) {
	a, err := New()
	if err != nil {
		t.Fatalf("failed to construct engine: %v", err)
	}
	b, err := New()
	if err != nil {
		t.Fatalf("failed to construct engine: %v", err)
	}
	if a.RunID == b.RunID {
		t.Error("expected distinct run IDs across engines")
	}
}
