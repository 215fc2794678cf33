package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/benz9527/rbstore/lib/infra"
	"github.com/benz9527/rbstore/lib/tree"
	"github.com/benz9527/rbstore/observability"
	"github.com/benz9527/rbstore/xlog"
)

// maxLineSize bounds a single command line, long insert lines included.
const maxLineSize = 4 << 20

// Shell is the line oriented command loop driving a tree.
// It is not safe for concurrent use, same as the tree.
type Shell struct {
	tree        tree.RBTree[int64]
	parseKey    infra.ParseOrderedKey[int64]
	logger      xlog.XLogger
	stats       *observability.TreeStats
	in          io.Reader
	out         io.Writer
	prompt      string
	interactive bool
	validate    bool
	red         *color.Color
	black       *color.Color
	commands    []*command
	lookup      map[string]*command
}

type ShellOption func(*Shell)

func WithInput(r io.Reader) ShellOption {
	return func(sh *Shell) {
		sh.in = r
	}
}

func WithOutput(w io.Writer) ShellOption {
	return func(sh *Shell) {
		sh.out = w
	}
}

func WithPrompt(prompt string) ShellOption {
	return func(sh *Shell) {
		sh.prompt = prompt
	}
}

// WithInteractive prints the prompt before every command.
func WithInteractive(interactive bool) ShellOption {
	return func(sh *Shell) {
		sh.interactive = interactive
	}
}

// WithColor disables the key colors when false. When true, colors still
// follow color.NoColor (no tty, NO_COLOR env).
func WithColor(enabled bool) ShellOption {
	return func(sh *Shell) {
		if enabled {
			return
		}
		sh.red.DisableColor()
		sh.black.DisableColor()
	}
}

// WithValidate runs every validator after each mutation.
func WithValidate(validate bool) ShellOption {
	return func(sh *Shell) {
		sh.validate = validate
	}
}

func WithLogger(logger xlog.XLogger) ShellOption {
	return func(sh *Shell) {
		if logger != nil {
			sh.logger = logger.Named("shell")
		}
	}
}

func WithTreeStats(stats *observability.TreeStats) ShellOption {
	return func(sh *Shell) {
		sh.stats = stats
	}
}

func WithKeyParser(parse infra.ParseOrderedKey[int64]) ShellOption {
	return func(sh *Shell) {
		if parse != nil {
			sh.parseKey = parse
		}
	}
}

func parseInt64Key(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func New(t tree.RBTree[int64], opts ...ShellOption) *Shell {
	sh := &Shell{
		tree:     t,
		parseKey: parseInt64Key,
		in:       os.Stdin,
		out:      os.Stdout,
		red:      color.New(color.FgRed),
		black:    color.New(color.Bold),
	}
	for _, o := range opts {
		if o != nil {
			o(sh)
		}
	}
	if sh.logger == nil {
		sh.logger = xlog.NewXLogger(xlog.WithXLoggerWriter(io.Discard))
	}
	sh.register()
	return sh
}

// Run executes the commands line by line until exit, EOF or ctx is done.
// A cancelled ctx ends Run even while a line is being read.
func (sh *Shell) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go sh.readLines(ctx, lines, readErr)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if sh.interactive {
			_, _ = fmt.Fprint(sh.out, sh.prompt)
		}
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}
			if stop := sh.Exec(ctx, line); stop {
				return nil
			}
		}
	}
}

// readLines blocks in Read, so it is left behind on cancel until the
// input is closed or yields another line.
func (sh *Shell) readLines(ctx context.Context, lines chan<- string, readErr chan<- error) {
	defer close(lines)
	scanner := bufio.NewScanner(sh.in)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			readErr <- nil
			return
		}
	}
	if err := scanner.Err(); err != nil {
		readErr <- infra.WrapErrorStackWithMessage(err, "read command")
		return
	}
	readErr <- nil
}

// Exec executes a single command line and reports whether the loop
// has to stop.
func (sh *Shell) Exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, ok := sh.lookup[strings.ToLower(fields[0])]
	if !ok {
		sh.println("Invalid choice.")
		sh.logger.Debug("invalid command", zap.String("cmd", fields[0]))
		return false
	}
	return cmd.run(ctx, fields[1:])
}

func (sh *Shell) println(args ...any) {
	_, _ = fmt.Fprintln(sh.out, args...)
}

func (sh *Shell) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(sh.out, format, args...)
}
