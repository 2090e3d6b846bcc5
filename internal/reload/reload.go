// Package reload implements the ReloadController of §4.8: resize-driven
// reflow decisions, the forkpty-equivalent man-page loader, section-aware
// repositioning across a reload, and the plain regular-file reload path.
package reload

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"

	"github.com/dgouders/lsp/internal/blockring"
	"github.com/dgouders/lsp/internal/docring"
	"github.com/dgouders/lsp/internal/fatal"
)

// sentinelRE recognizes the line lsp_cat emits ahead of the real payload.
var sentinelRE = regexp.MustCompile(`^<lsp-man-pn>(.*)</lsp-man-pn>$`)

// headingRE is the fallback page-name detector when the sentinel line is
// absent: a NAME(section) ... NAME(section) heading line. Go's regexp has
// no backreferences, so consumeSentinel checks that both ends name the same
// page.
var headingRE = regexp.MustCompile(`^(\S+)\(([^)]+)\)\s(?:.*\s)?(\S+)\(([^)]+)\)\s*$`)

// LoadResult is the outcome of a man-page (re)load.
type LoadResult struct {
	Ring     *blockring.Ring
	PageName string
}

// Loader runs exec_man: forkpty a child with PAGER/MANPAGER overridden to
// lsp_cat, execute the templated load command, and consume the sentinel
// line it's expected to emit.
type Loader struct {
	// Template is the load-command format, containing exactly one %n
	// (page name) and one %s (section); an empty section collapses an
	// adjacent "." or "(" left behind by naive substitution.
	Template string
	BlkSize  int
}

// ExpandTemplate substitutes %n/%s into t, collapsing the empty-section
// artifacts the same way refresolve.expandTemplate does for the verify
// command, per §4.8's identical substitution rule.
func ExpandTemplate(t, name, section string) string {
	if section == "" {
		t = strings.ReplaceAll(t, ".%s", "")
	}
	out := strings.ReplaceAll(t, "%n", name)
	out = strings.ReplaceAll(out, "%s", section)
	if section == "" {
		out = strings.ReplaceAll(out, "().", "")
		out = strings.ReplaceAll(out, "()", "")
	}
	return out
}

// Load runs the man-page loader for (name, section) via a pty sized rows by
// cols (so child formatters like man(1) wrap to the pager's own window
// instead of whatever the controlling terminal happens to be), parses or
// injects the sentinel line, and returns a Ring over the remaining output.
func (l *Loader) Load(ctx context.Context, name, section string, rows, cols int) (*LoadResult, *fatal.Error) {
	cmdline := ExpandTemplate(l.Template, name, section)
	cmd := exec.CommandContext(ctx, "sh", "-c", cmdline)

	env := os.Environ()
	if v := os.Getenv("MANPAGER"); v != "" {
		env = appendEnv(env, "MANPAGER", "lsp_cat")
	} else {
		env = appendEnv(env, "PAGER", "lsp_cat")
	}
	cmd.Env = env

	f, err := pty.Start(cmd)
	if err != nil {
		return nil, fatal.Wrap("reload.Load", err)
	}
	if rows > 0 && cols > 0 {
		// best-effort: a formatter that doesn't care about winsize
		// (or a platform where the ioctl fails) still produces usable
		// output, just not reflowed to the pager's width.
		_ = setWinsize(f, rows, cols)
	}

	pageName, rest, err := consumeSentinel(f, name)
	if err != nil && err != io.EOF {
		if isEIO(err) {
			err = nil
		} else {
			_ = cmd.Wait()
			return nil, fatal.Wrap("reload.Load", err)
		}
	}

	reader := io.MultiReader(bytes.NewReader(rest), f)
	ring := blockring.New(reader, closerFunc(func() error {
		_ = f.Close()
		return cmd.Wait()
	}), l.blkSize(), blockring.Unknown, nil)

	return &LoadResult{Ring: ring, PageName: pageName}, nil
}

// setWinsize propagates the pager's current window size to the pty so a
// child formatter reflows to the pager's width rather than the controlling
// terminal's, via the TIOCSWINSZ ioctl (golang.org/x/sys/unix, the same
// low-level-syscalls dependency the teacher's go.mod carries for its own
// platform-specific internals).
func setWinsize(f *os.File, rows, cols int) error {
	ws := &unix.Winsize{Row: uint16(rows), Col: uint16(cols)}
	return unix.IoctlSetWinsize(int(f.Fd()), unix.TIOCSWINSZ, ws)
}

func (l *Loader) blkSize() int {
	if l.BlkSize > 0 {
		return l.BlkSize
	}
	return 4096
}

// consumeSentinel reads the first line from r. If it matches the sentinel
// pattern, its captured name is authoritative and the line is dropped
// from the stream. If not, the sentinel is "injected back" by returning
// the default name and re-prepending the line to rest, per §4.8.
func consumeSentinel(r io.Reader, defaultName string) (pageName string, rest []byte, err error) {
	br := bufio.NewReader(r)
	line, rerr := br.ReadString('\n')
	if rerr != nil && rerr != io.EOF {
		return defaultName, nil, rerr
	}
	trimmed := strings.TrimRight(line, "\n")
	if m := sentinelRE.FindStringSubmatch(trimmed); m != nil {
		remaining, _ := io.ReadAll(br)
		return m[1], remaining, rerr
	}
	if m := headingRE.FindStringSubmatch(trimmed); m != nil && m[1] == m[3] && m[2] == m[4] {
		remaining, _ := io.ReadAll(br)
		return m[1] + "(" + m[2] + ")", append([]byte(line), remaining...), rerr
	}
	remaining, _ := io.ReadAll(br)
	return defaultName, append([]byte(line), remaining...), rerr
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func appendEnv(env []string, key, val string) []string {
	prefix := key + "="
	for i, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			env[i] = prefix + val
			return env
		}
	}
	return append(env, prefix+val)
}

func isEIO(err error) bool {
	return errors.Is(err, syscall.EIO)
}

// NeedsReload implements cmd_resize's "width unchanged needs nothing"
// check; the auto-reloadable classification is AutoReloadable.
func NeedsReload(oldWidth, newWidth int) bool { return oldWidth != newWidth }

// AutoReloadable reports whether doc is a candidate for the synchronous
// (current document) or deferred (do_reload flag) resize reload path:
// any stdin document, or a man page. The parent process of a stdin
// document is not inspected.
func AutoReloadable(doc *docring.Document) bool {
	return doc.FType&(docring.FTypeStdin|docring.FTypeManpage|docring.FTypeLSPLoadedManpage) != 0
}

// SectionPosition captures the section-aware bookmark taken before a
// reload: the header line's start, a word count within the section up to
// the first empty line, and the count of empty lines from there to the
// header.
type SectionPosition struct {
	Header     string // the section header text, "" for _start_of_manual_page_
	EmptyLines int
	Words      int
}

// CaptureSection walks backward from pageFirst to find the enclosing
// section header (a line whose first byte is non-space, or offset 0) and
// counts words/empty-lines the way §4.8 describes, so the same spot can
// be relocated after the document reloads.
func CaptureSection(doc *docring.Document, pageFirst int64) (SectionPosition, *fatal.Error) {
	headerPos, ferr := findHeaderBackward(doc, pageFirst)
	if ferr != nil {
		return SectionPosition{}, ferr
	}

	var header string
	if headerPos >= 0 {
		line, err := doc.GetLine(headerPos)
		if err != nil {
			return SectionPosition{}, fatal.Wrap("reload.CaptureSection", err)
		}
		header = strings.TrimRight(string(line.Normalized), "\n")
	}

	emptyLines, words, ferr := countToPos(doc, headerPos, pageFirst)
	if ferr != nil {
		return SectionPosition{}, ferr
	}
	return SectionPosition{Header: header, EmptyLines: emptyLines, Words: words}, nil
}

// findHeaderBackward returns the start offset of the nearest line at or
// before pos whose first byte is non-space, or -1 for
// _start_of_manual_page_ (offset 0 itself, when no such line exists).
func findHeaderBackward(doc *docring.Document, pos int64) (int64, *fatal.Error) {
	cur := pos
	for {
		lineStart, ferr := doc.LineStart(cur)
		if ferr != nil {
			return -1, ferr
		}
		line, err := doc.GetLine(lineStart)
		if err != nil && err != io.EOF {
			return -1, fatal.Wrap("reload.findHeaderBackward", err)
		}
		if err == nil && len(line.Normalized) > 0 {
			c := line.Normalized[0]
			if c != ' ' && c != '\t' {
				return lineStart, nil
			}
		}
		if lineStart == 0 {
			return -1, nil
		}
		cur = lineStart - 1
	}
}

// countToPos counts empty lines and words from just after headerPos
// (exclusive) to pos, stopping the word count at the first empty line as
// the design specifies.
func countToPos(doc *docring.Document, headerPos, pos int64) (emptyLines, words int, ferr *fatal.Error) {
	start := headerPos
	if start < 0 {
		start = 0
	} else {
		line, err := doc.GetLine(start)
		if err != nil {
			return 0, 0, fatal.Wrap("reload.countToPos", err)
		}
		start += int64(len(line.Raw))
	}

	pastFirstEmpty := false
	cur := start
	for cur < pos {
		line, err := doc.GetLine(cur)
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, 0, fatal.Wrap("reload.countToPos", err)
		}
		if cur+int64(len(line.Raw)) > pos {
			// pos falls inside this line; it isn't fully passed yet.
			break
		}
		text := strings.TrimRight(string(line.Normalized), "\n")
		if strings.TrimSpace(text) == "" {
			if !pastFirstEmpty {
				pastFirstEmpty = true
			} else {
				emptyLines++
			}
		} else if !pastFirstEmpty {
			words += len(strings.Fields(text))
		}
		cur += int64(len(line.Raw))
	}
	return emptyLines, words, nil
}

// Relocate finds the position after a reload corresponding to a captured
// SectionPosition: the header line, forward by EmptyLines empty lines,
// then forward by Words until the running word sum exceeds the target.
func Relocate(doc *docring.Document, sp SectionPosition) (int64, *fatal.Error) {
	headerPos, ferr := findHeaderByText(doc, sp.Header)
	if ferr != nil {
		return 0, ferr
	}
	if headerPos < 0 {
		return 0, nil
	}

	line, err := doc.GetLine(headerPos)
	if err != nil {
		return 0, fatal.Wrap("reload.Relocate", err)
	}
	pos := headerPos + int64(len(line.Raw))

	seenEmpty := 0
	for seenEmpty < sp.EmptyLines {
		line, err := doc.GetLine(pos)
		if err == io.EOF {
			return pos, nil
		}
		if err != nil {
			return 0, fatal.Wrap("reload.Relocate", err)
		}
		if strings.TrimSpace(strings.TrimRight(string(line.Normalized), "\n")) == "" {
			seenEmpty++
		}
		pos += int64(len(line.Raw))
	}

	wordSum := 0
	for wordSum <= sp.Words {
		lineStart := pos
		line, err := doc.GetLine(pos)
		if err == io.EOF {
			return pos, nil
		}
		if err != nil {
			return 0, fatal.Wrap("reload.Relocate", err)
		}
		text := strings.TrimRight(string(line.Normalized), "\n")
		n := len(strings.Fields(text))
		if wordSum+n > sp.Words {
			return lineStart, nil
		}
		wordSum += n
		pos += int64(len(line.Raw))
	}
	return pos, nil
}

func findHeaderByText(doc *docring.Document, header string) (int64, *fatal.Error) {
	if header == "" {
		return 0, nil
	}
	var pos int64
	for {
		line, err := doc.GetLine(pos)
		if err == io.EOF {
			return -1, nil
		}
		if err != nil {
			return -1, fatal.Wrap("reload.findHeaderByText", err)
		}
		if strings.TrimRight(string(line.Normalized), "\n") == header {
			return pos, nil
		}
		pos += int64(len(line.Raw))
	}
}

// ReloadRegularFile reopens path from scratch and indexes it up to the
// previously-shown pageFirst. It sets no position on the returned document:
// a file that shrank below pageFirst is not moved to its end or back a page.
func ReloadRegularFile(path string, blksize int, pageFirst int64) (*docring.Document, *fatal.Error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fatal.Wrap("reload.ReloadRegularFile", err)
	}
	ring := blockring.New(f, f, blksize, blockring.Unknown, nil)
	doc := docring.New(path, ring, docring.FTypeRegular, nil)

	if ferr := doc.EnsureIndexThrough(pageFirst); ferr != nil {
		return nil, ferr
	}
	return doc, nil
}
