// Package options parses the command line and the LSP_OPTIONS environment
// variable into a single Config, per §6's flag table. It uses
// github.com/spf13/pflag for GNU-style long/short flags (the flag table
// already implies that grammar) and github.com/mattn/go-shellwords to
// tokenize LSP_OPTIONS, matching the teacher's practice of reaching for a
// small, well-scoped library rather than hand-rolling a tokenizer.
package options

import (
	"fmt"
	"os"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/spf13/pflag"
)

// Config holds every flag from §6, after merging argv with LSP_OPTIONS.
type Config struct {
	LoadApropos      bool
	ChopLines        bool
	Help             bool
	NoCase           bool
	ManCase          bool
	KeepCR           bool
	LogFile          string
	LineNumbers      bool
	NoColor          bool
	OutputFile       string
	ReloadCommand    string
	SearchString     string
	NoVerify         bool
	VerifyCommand    string
	VerifyWithApropos bool
	Version          bool

	Files []string
}

// DefaultReloadCommand and DefaultVerifyCommand match the templates the
// teacher's man(1)-adjacent tooling assumes when the user supplies neither
// flag.
const (
	DefaultReloadCommand = "man %s %n"
	DefaultVerifyCommand = "man -w %s %n"
)

func newFlagSet(name string) (*pflag.FlagSet, *Config) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	cfg := &Config{
		ReloadCommand: DefaultReloadCommand,
		VerifyCommand: DefaultVerifyCommand,
	}

	fs.BoolVarP(&cfg.LoadApropos, "load-apropos", "a", false, "preload the apropos pseudo-document at startup")
	fs.BoolVarP(&cfg.ChopLines, "chop-lines", "c", false, "truncate long lines instead of wrapping")
	fs.BoolVarP(&cfg.Help, "help", "h", false, "print usage and exit")
	fs.BoolVarP(&cfg.NoCase, "no-case", "i", false, "case-insensitive search")
	fs.BoolVarP(&cfg.ManCase, "man-case", "I", false, "case-sensitive man-page names")
	fs.BoolVar(&cfg.KeepCR, "keep-cr", false, "do not translate \\r to ^M")
	fs.StringVarP(&cfg.LogFile, "log-file", "l", "", "debug log path")
	fs.BoolVarP(&cfg.LineNumbers, "line-numbers", "n", false, "show the line-number gutter")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "disable all color output")
	fs.StringVarP(&cfg.OutputFile, "output-file", "o", "", "tee all read input to this path")
	fs.StringVar(&cfg.ReloadCommand, "reload-command", cfg.ReloadCommand, "man loader template, containing one %n and one %s")
	fs.StringVarP(&cfg.SearchString, "search-string", "s", "", "initial forward search pattern")
	fs.BoolVarP(&cfg.NoVerify, "no-verify", "V", false, "disable reference validation")
	fs.StringVar(&cfg.VerifyCommand, "verify-command", cfg.VerifyCommand, "reference validator template, containing one %n and one %s")
	fs.BoolVar(&cfg.VerifyWithApropos, "verify-with-apropos", false, "validate references against the apropos snapshot")
	fs.BoolVarP(&cfg.Version, "version", "v", false, "print version and exit")

	return fs, cfg
}

// Parse merges argv (args[0] is the program's own first positional
// argument, not argv[0]) with LSP_OPTIONS, argv taking precedence since it
// is parsed last. LSP_OPTIONS is tokenized with shell-word rules so that
// quoted templates containing spaces (e.g. a --reload-command with an
// embedded "man %s %n" string) survive intact.
func Parse(args []string) (*Config, error) {
	fs, cfg := newFlagSet("lsp")

	if env := os.Getenv("LSP_OPTIONS"); env != "" {
		tokens, err := shellwords.Parse(strings.TrimLeft(env, " \t"))
		if err != nil {
			return nil, fmt.Errorf("options: parsing LSP_OPTIONS: %w", err)
		}
		if err := fs.Parse(tokens); err != nil {
			return nil, fmt.Errorf("options: LSP_OPTIONS: %w", err)
		}
	}

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}

	if err := validateTemplate(cfg.ReloadCommand); err != nil {
		return nil, fmt.Errorf("options: --reload-command: %w", err)
	}
	if err := validateTemplate(cfg.VerifyCommand); err != nil {
		return nil, fmt.Errorf("options: --verify-command: %w", err)
	}

	cfg.Files = fs.Args()
	return cfg, nil
}

// validateTemplate enforces §6's "must contain exactly one %n and one %s"
// constraint on the reload/verify command templates.
func validateTemplate(t string) error {
	if n := strings.Count(t, "%n"); n != 1 {
		return fmt.Errorf("must contain exactly one %%n, found %d", n)
	}
	if n := strings.Count(t, "%s"); n != 1 {
		return fmt.Errorf("must contain exactly one %%s, found %d", n)
	}
	return nil
}

// Environment groups the preprocessor/pager/layout environment variables
// §6 says are consulted outside the flag table.
type Environment struct {
	Open         string // LSP_OPEN, falling back to LESSOPEN
	OpenIsPipe   bool   // Open was prefixed with "|"
	ManPN        string
	ManPager     string
	Pager        string
	GitPager     string
}

// ReadEnvironment captures the environment variables §6 names, and unsets
// COLUMNS per "unset at startup to prevent external influence on layout" --
// the Workhorse derives width from the terminal itself, never from COLUMNS.
func ReadEnvironment() Environment {
	open := os.Getenv("LSP_OPEN")
	if open == "" {
		open = os.Getenv("LESSOPEN")
	}
	isPipe := strings.HasPrefix(open, "|")
	if isPipe {
		open = strings.TrimPrefix(open, "|")
	}

	env := Environment{
		Open:       open,
		OpenIsPipe: isPipe,
		ManPN:      os.Getenv("MAN_PN"),
		ManPager:   os.Getenv("MANPAGER"),
		Pager:      os.Getenv("PAGER"),
		GitPager:   os.Getenv("GIT_PAGER"),
	}

	os.Unsetenv("COLUMNS")
	return env
}

// Usage renders the help text for --help.
func Usage() string {
	fs, _ := newFlagSet("lsp")
	return "usage: lsp [options] [files...]\n\n" + fs.FlagUsages()
}
