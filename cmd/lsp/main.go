// Command lsp is a terminal pager specialized for rendering Unix manual
// pages: regex search, cross-reference navigation between man pages, a
// folding table of contents, and reflow on resize.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/dgouders/lsp/internal/blockring"
	"github.com/dgouders/lsp/internal/docring"
	"github.com/dgouders/lsp/internal/gref"
	"github.com/dgouders/lsp/internal/options"
	"github.com/dgouders/lsp/internal/refresolve"
	"github.com/dgouders/lsp/internal/reload"
	"github.com/dgouders/lsp/internal/term"
	"github.com/dgouders/lsp/internal/workhorse"
)

const version = "lsp 1.0"

func main() {
	os.Exit(run())
}

// run contains everything main defers to, so every exit path -- help,
// version, the cat-degrade path, and the interactive pager -- funnels
// through one guaranteed-cleanup point instead of scattering os.Exit
// calls the way the exceptions-for-fatal-errors pattern would.
func run() int {
	cfg, err := options.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if cfg.Help {
		fmt.Print(options.Usage())
		return 0
	}
	if cfg.Version {
		fmt.Println(version)
		return 0
	}

	log := newLogger(cfg.LogFile)

	// §1 Non-goals / §6: the pager only activates when stdout is a
	// terminal; otherwise degrade to a straight copy, like `cat`.
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return catDegrade(cfg)
	}

	ring, ferr := openDocuments(cfg, log)
	if ferr != nil {
		fmt.Fprintln(os.Stderr, ferr)
		return 1
	}
	if ring.Len() == 0 {
		fmt.Fprintln(os.Stderr, "lsp: no input")
		return 1
	}

	screen, ferr := term.Open()
	if ferr != nil {
		fmt.Fprintln(os.Stderr, ferr)
		return 1
	}
	defer screen.End()

	refs := gref.NewCache()
	resolver := refresolve.NewResolver(refs)
	resolver.ManCase = cfg.ManCase
	resolver.UseApropos = cfg.VerifyWithApropos
	if cfg.NoVerify {
		resolver.Verify = func(context.Context, string, string) bool { return true }
	} else if cfg.VerifyCommand != "" {
		resolver.Verify = func(ctx context.Context, name, section string) bool {
			return refresolve.RunTemplate(ctx, cfg.VerifyCommand, name, section)
		}
	}

	loader := &reload.Loader{Template: cfg.ReloadCommand}

	wh := workhorse.New(ring, screen, refs, resolver, loader, log)
	wh.ChopLines = cfg.ChopLines
	wh.LineNumbers = cfg.LineNumbers
	wh.NoColor = cfg.NoColor
	wh.KeepCR = cfg.KeepCR
	wh.ICase = cfg.NoCase
	wh.ManCase = cfg.ManCase

	if cfg.LoadApropos {
		preloadApropos(ring, refs, cfg.ManCase, log)
	}
	if cfg.SearchString != "" {
		wh.InitialSearch(cfg.SearchString)
	}

	if ferr := wh.Run(context.Background()); ferr != nil {
		fmt.Fprintln(os.Stderr, ferr)
		return 1
	}
	return 0
}

// catDegrade implements the non-TTY-stdout fallback: copy every named
// input (or stdin) straight to stdout, exactly like cat(1).
func catDegrade(cfg *options.Config) int {
	if len(cfg.Files) == 0 {
		if _, err := io.Copy(os.Stdout, os.Stdin); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	for _, name := range cfg.Files {
		f, err := os.Open(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		_, err = io.Copy(os.Stdout, f)
		f.Close()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	return 0
}

// openDocuments builds the initial DocumentRing from the command line:
// named files, or standard input when none are given.
func openDocuments(cfg *options.Config, log *slog.Logger) (*docring.Ring, error) {
	ring := docring.NewRing()
	env := options.ReadEnvironment()

	if len(cfg.Files) == 0 {
		r := blockring.New(os.Stdin, os.Stdin, 4096, blockring.Unknown, outputTee(cfg))
		name := "stdin"
		if env.ManPN != "" {
			name = env.ManPN
		}
		ring.Add(docring.New(name, r, docring.FTypeStdin, log))
		return ring, nil
	}

	for _, path := range cfg.Files {
		r, name, err := openInput(path, env, cfg)
		if err != nil {
			return nil, fmt.Errorf("lsp: %w", err)
		}
		ring.Add(docring.New(name, r, docring.FTypeRegular, log))
	}
	return ring, nil
}

// openInput resolves one command-line file through the LSP_OPEN/LESSOPEN
// preprocessor convention (§6): when Open is set and prefixed "|" (pipe
// mode), the preprocessor's stdout becomes the document's content outright;
// otherwise, the preprocessor's first output line, if non-empty, names a
// replacement file opened in path's place, following the classic LESSOPEN
// "print an alternate filename, or nothing to leave the file alone" rule.
func openInput(path string, env options.Environment, cfg *options.Config) (*blockring.Ring, string, error) {
	if env.Open != "" {
		if env.OpenIsPipe {
			out, err := runOpenPreprocessor(env.Open, path)
			if err != nil {
				return nil, "", fmt.Errorf("LSP_OPEN %q: %w", path, err)
			}
			return blockring.New(bytes.NewReader(out), nil, 4096, int64(len(out)), outputTee(cfg)), path, nil
		}
		if out, err := runOpenPreprocessor(env.Open, path); err == nil {
			if replacement := strings.TrimSpace(firstLine(out)); replacement != "" {
				path = replacement
			}
		}
	}
	return openFileRing(path, cfg)
}

func openFileRing(path string, cfg *options.Config) (*blockring.Ring, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	info, err := f.Stat()
	if err != nil {
		return nil, "", err
	}
	knownSize := blockring.Unknown
	if info.Mode().IsRegular() {
		knownSize = info.Size()
	}
	return blockring.New(f, f, 4096, knownSize, outputTee(cfg)), path, nil
}

// runOpenPreprocessor runs template (LSP_OPEN/LESSOPEN) with its one "%s"
// replaced by path, shell-quoted.
func runOpenPreprocessor(template, path string) ([]byte, error) {
	cmd := exec.Command("sh", "-c", expandOpenCommand(template, path))
	return cmd.Output()
}

func expandOpenCommand(template, path string) string {
	return strings.ReplaceAll(template, "%s", shQuote(path))
}

func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func firstLine(b []byte) string {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

func outputTee(cfg *options.Config) io.Writer {
	if cfg.OutputFile == "" {
		return nil
	}
	f, err := os.Create(cfg.OutputFile)
	if err != nil {
		return nil
	}
	return f
}

// preloadApropos runs the apropos enumerator, adds its listing as a
// pseudo-document, and marks every name(section) it names Valid in refs --
// without this, UseApropos's "anything still Unknown is Invalid" rule would
// reject every real reference, since nothing else ever populates the cache
// from the apropos database.
func preloadApropos(ring *docring.Ring, refs *gref.Cache, manCase bool, log *slog.Logger) {
	out, err := aproposOutput()
	if err != nil {
		log.Warn("aproposFailed", "err", err)
		return
	}
	for _, line := range strings.Split(string(out), "\n") {
		markAproposLine(refs, manCase, line)
	}
	r := blockring.New(bytes.NewReader(out), nil, 4096, blockring.Unknown, nil)
	ring.Add(docring.New("*apropos*", r, docring.FTypeRegular, log))
}

// aproposEntryRe matches an apropos(1) listing line's leading
// "name[, name...] (section)" -- the part before the " - description".
var aproposEntryRe = regexp.MustCompile(`^(.+?)\s+\(([^)]+)\)`)

// markAproposLine parses one apropos(1) output line and marks every comma-
// separated name it lists Valid for the section in parentheses.
func markAproposLine(refs *gref.Cache, manCase bool, line string) {
	m := aproposEntryRe.FindStringSubmatch(line)
	if m == nil {
		return
	}
	section := strings.TrimSpace(m[2])
	for _, name := range strings.Split(m[1], ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		refs.MarkValid(name, section, manCase)
	}
}

// aproposOutput runs "apropos ." piped through "sort", per the glossary's
// definition of the apropos pseudo-document.
func aproposOutput() ([]byte, error) {
	cmd := exec.Command("sh", "-c", "apropos . | sort")
	return cmd.Output()
}

func newLogger(path string) *slog.Logger {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(f, nil))
}
