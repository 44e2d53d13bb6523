package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	errEnd = errors.New("end")
)

// InteractiveCLI contains the terminal plumbing shared by interactive sessions
type InteractiveCLI struct {
	stdinReader  *bufio.Reader
	stdoutWriter io.Writer
	now          func() time.Time
	bold         *color.Color
	italic       *color.Color
	success      *color.Color
	warning      *color.Color
}

func newInteractiveCLI(stdin io.Reader, stdout io.Writer, now func() time.Time) *InteractiveCLI {
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if now == nil {
		now = time.Now
	}
	return &InteractiveCLI{
		stdinReader:  bufio.NewReader(stdin),
		stdoutWriter: stdout,
		now:          now,
		bold:         color.New(color.Bold),
		italic:       color.New(color.Italic),
		success:      color.New(color.FgGreen, color.Bold),
		warning:      color.New(color.FgYellow),
	}
}

//go:generate mockgen -source=interactive_cli.go -destination=../mocks/cli/mock_step.go -package=mock_cli

// Step is one prompt of an interactive session. It returns errEnd when the
// session is over.
type Step interface {
	Step(ctx context.Context) error
}

func (cli *InteractiveCLI) Run(ctx context.Context, step Step) error {
	ctx, cancel := signal.NotifyContext(
		ctx,
		os.Interrupt,
	)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := step.Step(ctx); err != nil {
				if !errors.Is(err, errEnd) {
					errCh <- err
				}
				return
			}
		}
	}()
	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(cli.stdoutWriter, "Received interrupt signal, exiting...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error: %w", err)
		}
	}
	return nil
}

// readLine returns the next input line without its line ending. A final line
// without a newline is still returned; io.EOF is reported once input is
// exhausted.
func (cli *InteractiveCLI) readLine() (string, error) {
	line, err := cli.stdinReader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (cli *InteractiveCLI) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(cli.stdoutWriter, format, args...)
}
