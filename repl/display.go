package repl

import (
	"fmt"
	"io"

	"sharpbox/session"
	"sharpbox/shared"
)

// DisplayManager manages visual indicators and formatting for the console
type DisplayManager struct {
	out       io.Writer
	useColors bool
	verbose   bool
}

// NewDisplayManager creates a new display manager writing to out
func NewDisplayManager(out io.Writer, useColors, verbose bool) *DisplayManager {
	return &DisplayManager{
		out:       out,
		useColors: useColors,
		verbose:   verbose,
	}
}

// ANSI color codes
var promptColors = map[string]string{
	"primary":      "\033[36m", // Cyan
	"continuation": "\033[90m", // Dark gray
	"input":        "\033[33m", // Yellow
	"reset":        "\033[0m",
	"success":      "\033[32m", // Green
	"error":        "\033[31m", // Red
	"warning":      "\033[33m", // Yellow
	"info":         "\033[34m", // Blue
}

// formatPrompt formats a prompt with optional colors
func (dm *DisplayManager) formatPrompt(text, promptType string) string {
	if !dm.useColors {
		return text
	}

	color, ok := promptColors[promptType]
	if !ok {
		color = promptColors["primary"]
	}

	return fmt.Sprintf("%s%s%s", color, text, promptColors["reset"])
}

// ShowMessage prints one console message of a run
func (dm *DisplayManager) ShowMessage(msg shared.Message) {
	if dm.verbose {
		fmt.Fprintln(dm.out, shared.FormatMessageLine(msg))
		return
	}
	fmt.Fprintln(dm.out, shared.FormatMessageForDisplay(msg, dm.useColors))
}

// ShowBufferContent displays the program buffer with line numbers
func (dm *DisplayManager) ShowBufferContent(buffer *MultiLineBuffer) {
	if buffer.IsEmpty() {
		fmt.Fprintln(dm.out, dm.formatPrompt("The buffer is empty", "info"))
		return
	}

	for i, line := range buffer.GetLines() {
		fmt.Fprintf(dm.out, "%s %s\n", dm.formatPrompt(fmt.Sprintf("%3d:", i+1), "continuation"), line)
	}
}

// ShowRuns lists the runs of the session
func (dm *DisplayManager) ShowRuns(runs []*session.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(dm.out, dm.formatPrompt("No runs yet", "info"))
		return
	}
	for _, run := range runs {
		fmt.Fprintln(dm.out, run.String())
	}
}

// ShowHelp displays the command reference
func (dm *DisplayManager) ShowHelp() {
	fmt.Fprintln(dm.out, dm.formatPrompt("Commands:", "primary"))
	fmt.Fprintln(dm.out, "  :run, :r             - build and run the buffer")
	fmt.Fprintln(dm.out, "  :load <path>         - load a .cs file, project directory or .zip into the buffer")
	fmt.Fprintln(dm.out, "  :list, :l            - show the buffer")
	fmt.Fprintln(dm.out, "  :undo                - remove the last buffer line")
	fmt.Fprintln(dm.out, "  :reset               - clear the buffer")
	fmt.Fprintln(dm.out, "  :save <file>         - write the last run's messages (.json or .yaml)")
	fmt.Fprintln(dm.out, "  :export <dir>        - export the buffer as a project archive")
	fmt.Fprintln(dm.out, "  :runs                - list runs")
	fmt.Fprintln(dm.out, "  :clean [age]         - forget finished runs older than age")
	fmt.Fprintln(dm.out, "  :stop                - abandon the current run")
	fmt.Fprintln(dm.out, "  :clear, :c           - clear the screen")
	fmt.Fprintln(dm.out, "  :help, :h            - show this help")
	fmt.Fprintln(dm.out, "  :quit, :q, :exit     - leave the console")
	fmt.Fprintln(dm.out)
	fmt.Fprintln(dm.out, "Any other line is appended to the program buffer. While a program")
	fmt.Fprintln(dm.out, "waits for Console.ReadLine the next line is sent to it as input.")
}

// ShowWelcome displays the welcome message
func (dm *DisplayManager) ShowWelcome() {
	fmt.Fprintln(dm.out, dm.formatPrompt("sharpbox - C# sandbox console", "success"))
	fmt.Fprintln(dm.out, "Type program lines, then :run. :help lists the commands.")
	fmt.Fprintln(dm.out)
}

// ShowError displays an error message
func (dm *DisplayManager) ShowError(message string) {
	fmt.Fprintln(dm.out, dm.formatPrompt("Error: "+message, "error"))
}

// ShowWarning displays a warning message
func (dm *DisplayManager) ShowWarning(message string) {
	fmt.Fprintln(dm.out, dm.formatPrompt("Warning: "+message, "warning"))
}

// ShowInfo displays an info message
func (dm *DisplayManager) ShowInfo(message string) {
	fmt.Fprintln(dm.out, dm.formatPrompt(message, "info"))
}

// ShowSuccess displays a success message
func (dm *DisplayManager) ShowSuccess(message string) {
	fmt.Fprintln(dm.out, dm.formatPrompt("✓ "+message, "success"))
}

// ClearScreen clears the terminal screen
func (dm *DisplayManager) ClearScreen() {
	fmt.Fprint(dm.out, "\033[H\033[2J")
}

// IsColorEnabled returns whether color output is enabled
func (dm *DisplayManager) IsColorEnabled() bool {
	return dm.useColors
}
