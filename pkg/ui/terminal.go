package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Banner printed at the top of interactive commands
const Banner = `
  ┌─┐┌─┐┬─┐┌─┐┬ ┬┬┬  ┬┌─┐
  ├┴┐├─┤├┬┘│  ├─┤│└┐┌┘├┤   broadcastify archive retriever
  └─┘┴ ┴┴└─└─┘┴ ┴┴ └┘ └─┘
`

// Output receives everything the printers write. color.Output strips
// escape codes when stdout is not a terminal.
var Output io.Writer = color.Output

// Color functions for terminal output
var (
	Cyan    = color.New(color.FgCyan).SprintFunc()
	Yellow  = color.New(color.FgYellow).SprintFunc()
	Red     = color.New(color.FgRed).SprintFunc()
	Green   = color.New(color.FgGreen).SprintFunc()
	Magenta = color.New(color.FgMagenta).SprintFunc()
	Dim     = color.New(color.Faint).SprintFunc()
	Bold    = color.New(color.Bold).SprintFunc()
)

// SetColors forces colors on or off, overriding terminal detection
func SetColors(enabled bool) {
	color.NoColor = !enabled
}

// PrintBanner prints the banner
func PrintBanner() {
	fmt.Fprint(Output, Cyan(Banner))
}

// PrintError prints an error message in red, followed by the error if given
func PrintError(msg string, err error) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	fmt.Fprintln(Output, Red("✗ "+msg))
}

// PrintSuccess prints a success message in green
func PrintSuccess(format string, args ...any) {
	fmt.Fprintln(Output, Green("✓ "+fmt.Sprintf(format, args...)))
}

// PrintInfo prints a labeled value
func PrintInfo(label string, value string) {
	fmt.Fprintf(Output, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(format string, args ...any) {
	fmt.Fprintln(Output, Yellow("⚠ "+fmt.Sprintf(format, args...)))
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(Output, Magenta(msg))
}
