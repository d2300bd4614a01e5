package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// UI is the line-oriented text sink commands write to. Quiet suppresses
// informational lines; Verbose enables VerboseLog lines.
type UI struct {
	Verbose bool
	Quiet   bool
	Out     io.Writer
	ErrOut  io.Writer
}

// New creates a UI with default stdout/stderr writers.
func New() *UI {
	return &UI{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

// Discard returns a UI that drops everything written to it.
func Discard() *UI {
	return &UI{Out: io.Discard, ErrOut: io.Discard}
}

// Child returns a UI writing both streams to w with the same verbosity as u.
func (u *UI) Child(w io.Writer) *UI {
	return &UI{
		Verbose: u.Verbose,
		Quiet:   u.Quiet,
		Out:     w,
		ErrOut:  w,
	}
}

// NewFile opens path for appending, creating it if needed, and returns a UI
// writing to it. The caller closes the returned file.
func NewFile(path string) (*UI, *os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open output file: %w", err)
	}
	return &UI{Out: f, ErrOut: f}, f, nil
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	verbosePrefix = color.New(color.FgHiBlue).Sprint("  →")
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
)

// Red returns a red-colored string.
func Red(s string) string { return red(s) }

// StateColor colors a process state label.
func StateColor(state string) string {
	switch state {
	case "running":
		return green(state)
	case "stale":
		return yellow(state)
	case "stopped", "not running":
		return red(state)
	default:
		return state
	}
}

func (u *UI) Info(format string, a ...any) {
	if u.Quiet {
		return
	}
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	if u.Quiet {
		return
	}
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

// Println writes a plain line with no prefix. Suppressed in quiet mode.
func (u *UI) Println(format string, a ...any) {
	if u.Quiet {
		return
	}
	fmt.Fprintf(u.Out, "%s\n", fmt.Sprintf(format, a...))
}

func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose && !u.Quiet {
		fmt.Fprintf(u.Out, "%s %s\n", verbosePrefix, fmt.Sprintf(format, a...))
	}
}

// Table creates a new tablewriter configured with consistent styling.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}
