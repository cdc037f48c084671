package shared

import (
	"fmt"
	"strings"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
)

// kindColors maps every message kind to its terminal colour. Info output is
// program text and stays uncoloured.
var kindColors = map[MessageKind]string{
	KindError:   colorRed,
	KindWarning: colorYellow,
	KindSuccess: colorGreen,
	KindSystem:  colorGray,
}

// FormatMessageForDisplay renders a message for a terminal. Suggestions are
// printed on their own line below the message.
func FormatMessageForDisplay(msg Message, useColors bool) string {
	var builder strings.Builder

	color := ""
	if useColors {
		color = kindColors[msg.Kind]
	}

	builder.WriteString(color)
	builder.WriteString(msg.Content)
	if color != "" {
		builder.WriteString(colorReset)
	}

	if msg.Suggestion != "" {
		builder.WriteString("\n")
		if useColors {
			builder.WriteString(colorCyan)
		}
		builder.WriteString("  Suggestion: ")
		builder.WriteString(msg.Suggestion)
		if useColors {
			builder.WriteString(colorReset)
		}
	}

	return builder.String()
}

// FormatMessageLine renders a message as a single log-style line, used by the
// transcript printer in verbose mode.
func FormatMessageLine(msg Message) string {
	prefix := fmt.Sprintf("%s [%s]", msg.Timestamp.Format("15:04:05.000"), msg.Kind)
	if msg.HasLine() {
		prefix += fmt.Sprintf(" (line %d)", msg.Line)
	}
	line := prefix + " " + msg.Content
	if msg.Suggestion != "" {
		line += " | suggestion: " + msg.Suggestion
	}
	return line
}

// Dim wraps text in the secondary colour when colours are enabled
func Dim(text string, useColors bool) string {
	if !useColors {
		return text
	}
	return colorGray + text + colorReset
}
