// Package refresolve implements the ReferenceResolver of §4.6: parsing a
// reference spelling into (name, section), canonicalizing it through the
// gref cache, and validating it either against an apropos snapshot or by
// shelling out to a configurable verify command.
package refresolve

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/dgouders/lsp/internal/gref"
)

// Regex recognizes the four accepted spellings, tried in order:
//  1. name(section)
//  2. name.section
//  3. section name   (e.g. "3 printf")
//  4. name            (section left empty)
var (
	reParen = regexp.MustCompile(`^([A-Za-z0-9_.:+-]+)\(([^)]+)\)$`)
	reDot   = regexp.MustCompile(`^([A-Za-z0-9_:+-]+)\.([A-Za-z0-9]+)$`)
	reSecFirst = regexp.MustCompile(`^([0-9][A-Za-z0-9]*)\s+(\S+)$`)
)

// Parse splits a reference spelling into (name, section). An unrecognized
// shape is returned whole as the name with an empty section, per form 4.
func Parse(s string) (name, section string) {
	s = strings.TrimSpace(s)
	if m := reParen.FindStringSubmatch(s); m != nil {
		return m[1], m[2]
	}
	if m := reDot.FindStringSubmatch(s); m != nil {
		return m[1], m[2]
	}
	if m := reSecFirst.FindStringSubmatch(s); m != nil {
		return m[2], m[1]
	}
	return s, ""
}

// VerifyFunc runs the configured verify command for (name, section) and
// reports whether it exited 0. DefaultVerify implements the documented
// default; tests substitute a stub.
type VerifyFunc func(ctx context.Context, name, section string) bool

// DefaultVerify shells out to the default verify command,
// "man -w %s %n > /dev/null 2>&1" with %n/%s substituted.
func DefaultVerify(ctx context.Context, name, section string) bool {
	return RunTemplate(ctx, "man -w %s %n > /dev/null 2>&1", name, section)
}

// RunTemplate substitutes %n (name) and %s (section) into a shell command
// template and reports whether it exits 0. An empty section collapses an
// adjacent "." or "(" left by naive templating, matching the reload
// command's documented %n/%s collapsing rule in §4.8.
func RunTemplate(ctx context.Context, template, name, section string) bool {
	cmd := expandTemplate(template, name, section)
	c := exec.CommandContext(ctx, "sh", "-c", cmd)
	return c.Run() == nil
}

func expandTemplate(template, name, section string) string {
	if section == "" {
		template = strings.ReplaceAll(template, ".%s", "")
	}
	out := strings.ReplaceAll(template, "%n", name)
	out = strings.ReplaceAll(out, "%s", section)
	if section == "" {
		out = strings.ReplaceAll(out, "().", "")
		out = strings.ReplaceAll(out, "()", "")
		out = strings.ReplaceAll(out, ".()", "")
	}
	return out
}

// Resolver ties together reference parsing, canonicalization, and
// validation against a shared gref.Cache.
type Resolver struct {
	Cache   *gref.Cache
	ManCase bool

	// UseApropos, when true, validates purely by apropos-snapshot
	// membership (populated ahead of time via gref.Cache.MarkValid) and
	// never shells out.
	UseApropos bool

	// Verify is consulted when UseApropos is false; defaults to
	// DefaultVerify if left nil.
	Verify VerifyFunc

	Timeout time.Duration // 0 means no timeout
}

// NewResolver returns a Resolver with the documented default verify
// command and no timeout.
func NewResolver(cache *gref.Cache) *Resolver {
	return &Resolver{Cache: cache, Verify: DefaultVerify}
}

// Resolve parses s, interns its canonical GRef, validates it if its state
// is still Unknown, and returns the GRef (memoized on subsequent calls
// per the gref.Cache contract).
func (r *Resolver) Resolve(s string) *gref.GRef {
	name, section := Parse(s)
	g := r.Cache.Search(name, section, r.ManCase)
	if g.State == gref.Unknown {
		r.validate(g)
	}
	return g
}

func (r *Resolver) validate(g *gref.GRef) {
	if r.UseApropos {
		// The apropos snapshot is loaded ahead of time via MarkValid;
		// anything still Unknown at this point was never listed.
		g.State = gref.Invalid
		return
	}

	verify := r.Verify
	if verify == nil {
		verify = DefaultVerify
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if r.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	if verify(ctx, g.Name, g.Section) {
		g.State = gref.Valid
	} else {
		g.State = gref.Invalid
	}
}
