package refresolve

import (
	"context"
	"testing"

	"github.com/dgouders/lsp/internal/gref"
)

func TestParseAllFourForms(t *testing.T) {
	cases := []struct {
		in          string
		name, sect  string
	}{
		{"printf(3)", "printf", "3"},
		{"printf.3", "printf", "3"},
		{"3 printf", "printf", "3"},
		{"printf", "printf", ""},
		{"lsp(1)", "lsp", "1"},
		{"foo(3posix)", "foo", "3posix"},
	}
	for _, c := range cases {
		name, sect := Parse(c.in)
		if name != c.name || sect != c.sect {
			t.Errorf("Parse(%q) = (%q,%q), want (%q,%q)", c.in, name, sect, c.name, c.sect)
		}
	}
}

func TestResolveMemoizesValidation(t *testing.T) {
	cache := gref.NewCache()
	calls := 0
	r := &Resolver{
		Cache: cache,
		Verify: func(ctx context.Context, name, section string) bool {
			calls++
			return name == "lsp"
		},
	}

	g1 := r.Resolve("lsp(1)")
	if g1.State != gref.Valid {
		t.Fatalf("State = %v, want Valid", g1.State)
	}
	g2 := r.Resolve("lsp(1)")
	if g2 != g1 {
		t.Fatalf("Resolve returned distinct GRefs for the same spelling")
	}
	if calls != 1 {
		t.Fatalf("Verify called %d times, want 1 (memoized)", calls)
	}
}

func TestResolveInvalid(t *testing.T) {
	cache := gref.NewCache()
	r := &Resolver{
		Cache:  cache,
		Verify: func(ctx context.Context, name, section string) bool { return false },
	}
	g := r.Resolve("printf(3)")
	if g.State != gref.Invalid {
		t.Fatalf("State = %v, want Invalid", g.State)
	}
}

func TestResolveAproposOnlyTrustsSnapshot(t *testing.T) {
	cache := gref.NewCache()
	cache.MarkValid("lsp", "1", false)
	r := &Resolver{Cache: cache, UseApropos: true}

	if g := r.Resolve("lsp(1)"); g.State != gref.Valid {
		t.Fatalf("pre-populated entry should stay Valid, got %v", g.State)
	}
	if g := r.Resolve("printf(3)"); g.State != gref.Invalid {
		t.Fatalf("unlisted entry should be Invalid under apropos mode, got %v", g.State)
	}
}

func TestExpandTemplateCollapsesEmptySection(t *testing.T) {
	got := expandTemplate("man %n%s", "printf", "")
	if got != "man printf" {
		t.Fatalf("expandTemplate = %q", got)
	}
}
