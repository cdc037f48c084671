package engine

import (
	"regexp"
	"strings"
)

// outputBuffer collects Console.Write text. Completed lines leave as
// messages right away; the trailing partial line waits for WriteLine, a
// flush before input or the end of the run.
type outputBuffer struct {
	pending strings.Builder
	emit    func(text string)
}

func newOutputBuffer(emit func(text string)) *outputBuffer {
	return &outputBuffer{emit: emit}
}

// write appends text; isLine terminates the current line afterwards
func (o *outputBuffer) write(text string, isLine bool) {
	// A literal backslash-n pair is treated as a line break too
	text = strings.ReplaceAll(text, `\n`, "\n")

	parts := strings.Split(text, "\n")
	for _, part := range parts[:len(parts)-1] {
		o.pending.WriteString(part)
		o.emitPending()
	}
	o.pending.WriteString(parts[len(parts)-1])

	if isLine {
		o.emitPending()
	}
}

// flush emits the partial line, if any
func (o *outputBuffer) flush() {
	if o.pending.Len() > 0 {
		o.emitPending()
	}
}

func (o *outputBuffer) emitPending() {
	text := o.pending.String()
	o.pending.Reset()
	o.emit(text)
}

var consoleWritePattern = regexp.MustCompile(`^Console\.Write(Line)?\s*\((.*)\)\s*;$`)

// executeConsoleWrite handles Console.Write(...) and Console.WriteLine(...).
// More than one argument means composite formatting.
func (x *execution) executeConsoleWrite(match []string) error {
	isLine := match[1] == "Line"
	args := strings.TrimSpace(match[2])

	text := ""
	if args != "" {
		parts := splitTopLevel(args, ',')
		if len(parts) == 1 {
			display, err := x.resolveDisplay(args, 0)
			if err != nil {
				return err
			}
			text = display
		} else {
			values := make([]Value, len(parts))
			for i, part := range parts {
				v, err := x.resolveValue(part, 0)
				if err != nil {
					return err
				}
				values[i] = v
			}
			formatted, err := formatComposite(values[0].String(), values[1:])
			if err != nil {
				return err
			}
			text = formatted
		}
	}

	x.out.write(text, isLine)
	return x.pause(x.limits.OutputYield)
}
