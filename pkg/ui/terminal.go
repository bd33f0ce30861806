package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Banner printed before a download run
const Banner = `boorudl :: booru tag downloader`

var (
	mu       sync.Mutex
	out      io.Writer = os.Stdout
	renderer           = lipgloss.NewRenderer(os.Stdout)
	quiet    bool
)

// Configure sets the output writer and whether colors are allowed. Colors are also
// disabled when w is a file that is not a terminal.
func Configure(w io.Writer, noColor bool) {
	mu.Lock()
	defer mu.Unlock()

	out = w
	renderer = lipgloss.NewRenderer(w)
	if noColor || !IsTerminal(w) {
		renderer.SetColorProfile(termenv.Ascii)
	}
}

// IsTerminal reports whether w is a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(q bool) {
	mu.Lock()
	quiet = q
	mu.Unlock()
}

// IsQuietMode returns whether quiet mode is enabled
func IsQuietMode() bool {
	mu.Lock()
	defer mu.Unlock()
	return quiet
}

func style(color string, bold bool) lipgloss.Style {
	return renderer.NewStyle().Foreground(lipgloss.Color(color)).Bold(bold)
}

func emit(s string, always bool) {
	mu.Lock()
	defer mu.Unlock()
	if quiet && !always {
		return
	}
	fmt.Fprintln(out, s)
}

// PrintBanner prints the banner
func PrintBanner() {
	emit(style("6", true).Render(Banner), false)
}

// PrintError prints an error message in red, with an optional detail
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	emit(style("1", true).Render(msg), true)
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	emit(style("2", false).Render(msg), false)
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	emit(style("6", false).Render(label+":")+" "+style("3", false).Render(value), false)
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	emit(style("3", false).Render(msg), false)
}
