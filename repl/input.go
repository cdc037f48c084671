package repl

import (
	"bufio"
	"io"
	"os"

	"github.com/chzyer/readline"
)

// LineReader supplies console lines. Interactive terminals use readline;
// pipes use a plain scanner.
type LineReader interface {
	// ReadLine returns the next line without its terminator. It returns
	// readline.ErrInterrupt on Ctrl+C and io.EOF at end of input.
	ReadLine() (string, error)
	SetPrompt(prompt string)
	// Stdout is the writer that keeps output and the prompt from mixing
	Stdout() io.Writer
	Close() error
}

// InputReader reads lines from a terminal with history and completion
type InputReader struct {
	rl *readline.Instance
}

// NewInputReader creates a readline backed reader
func NewInputReader(prompt, historyFile string, historySize int, completer readline.AutoCompleter) (*InputReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		HistoryLimit:    historySize,
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
		AutoComplete:    completer,
	})
	if err != nil {
		return nil, err
	}

	return &InputReader{rl: rl}, nil
}

// ReadLine reads a single line
func (ir *InputReader) ReadLine() (string, error) {
	return ir.rl.Readline()
}

// SetPrompt changes the prompt shown for the next line
func (ir *InputReader) SetPrompt(prompt string) {
	ir.rl.SetPrompt(prompt)
}

// Stdout returns the readline aware output writer
func (ir *InputReader) Stdout() io.Writer {
	return ir.rl.Stdout()
}

// Close closes the reader
func (ir *InputReader) Close() error {
	return ir.rl.Close()
}

// SimpleInputReader reads lines from a non-interactive source
type SimpleInputReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewSimpleInputReader creates a reader over in that writes to out
func NewSimpleInputReader(in io.Reader, out io.Writer) *SimpleInputReader {
	if out == nil {
		out = os.Stdout
	}
	return &SimpleInputReader{scanner: bufio.NewScanner(in), out: out}
}

// ReadLine reads a single line
func (sir *SimpleInputReader) ReadLine() (string, error) {
	if !sir.scanner.Scan() {
		if err := sir.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return sir.scanner.Text(), nil
}

// SetPrompt is a no-op; piped sessions show no prompt
func (sir *SimpleInputReader) SetPrompt(prompt string) {}

// Stdout returns the output writer
func (sir *SimpleInputReader) Stdout() io.Writer {
	return sir.out
}

// Close is a no-op
func (sir *SimpleInputReader) Close() error {
	return nil
}
