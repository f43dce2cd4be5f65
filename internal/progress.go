package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 100 * time.Millisecond

// ShowProgress runs fn while drawing a spinner on stderr. Without a TTY the
// message is logged and fn runs plainly.
func ShowProgress(ctx context.Context, message string, fn func() error) error {
	if !isTerminal(os.Stderr) {
		LogInfo(message)
		return fn()
	}
	return showSpinner(ctx, os.Stderr, message, fn)
}

// showSpinner redraws the frame on w until fn returns or ctx ends. When ctx
// ends first, fn keeps running in the background and its result is dropped.
func showSpinner(ctx context.Context, w io.Writer, message string, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case err := <-done:
			if err != nil {
				fmt.Fprintf(w, "\r%s %s\n", errorStyle.Render("✗"), message)
				return err
			}
			fmt.Fprintf(w, "\r%s %s\n", successStyle.Render("✓"), message)
			return nil
		case <-ctx.Done():
			fmt.Fprintf(w, "\r%s %s\n", warningStyle.Render("…"), message)
			return ctx.Err()
		case <-ticker.C:
			fmt.Fprintf(w, "\r%s %s", progressStyle.Render(spinnerFrames[frame%len(spinnerFrames)]), message)
		}
	}
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}

// status is the marker a one-line notice is printed with: a styled symbol
// on a terminal, a plain prefix otherwise.
type status struct {
	style  lipgloss.Style
	symbol string
	plain  string
}

var (
	statusSuccess = status{style: successStyle, symbol: "✓"}
	statusWarning = status{style: warningStyle, symbol: "⚠", plain: "WARNING: "}
	statusError   = status{style: errorStyle, symbol: "✗", plain: "Error: "}
)

func printStatus(w io.Writer, s status, message string) {
	if isTerminal(w) {
		fmt.Fprintf(w, "%s %s\n", s.style.Render(s.symbol), message)
		return
	}
	fmt.Fprintf(w, "%s%s\n", s.plain, message)
}

// PrintSuccess reports a finished step on stderr.
func PrintSuccess(message string) {
	printStatus(os.Stderr, statusSuccess, message)
}

// PrintWarning reports a degraded but non-fatal condition on stderr.
func PrintWarning(message string) {
	printStatus(os.Stderr, statusWarning, message)
}

// PrintError reports a failure on stderr.
func PrintError(message string) {
	printStatus(os.Stderr, statusError, message)
}
