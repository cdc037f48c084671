package repl

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"sharpbox/errors"
	"sharpbox/logging"
	"sharpbox/project"
	"sharpbox/serialization"
	"sharpbox/session"
)

// REPLConfig contains configuration for the console
type REPLConfig struct {
	Session     *session.Session
	Serializers *serialization.SerializerRegistry
	Logger      logging.Logger

	Verbose      bool
	EnableColors bool
	// PromptSymbol ends every prompt (default ">")
	PromptSymbol string
	HistoryFile  string // default: "/tmp/sharpbox_history"
	HistorySize  int    // default: 1000
	ShowWelcome  bool
}

// REPL is the interactive console. Typed lines build a program in the
// buffer; while a run waits for input the next line goes to the program.
type REPL struct {
	session     *session.Session
	serializers *serialization.SerializerRegistry
	logger      logging.Logger

	promptSymbol string
	historyFile  string
	historySize  int
	showWelcome  bool
	running      bool

	buffer         *MultiLineBuffer
	displayManager *DisplayManager
	commands       map[string]CommandHandler
	project        *project.Project

	// awaiting is the run waiting for a line of input, zero when none
	awaiting session.RunID
	lastRun  session.RunID
}

// NewREPLWithConfig creates a new console
func NewREPLWithConfig(config REPLConfig) *REPL {
	promptSymbol := config.PromptSymbol
	if promptSymbol == "" {
		promptSymbol = ">"
	}

	historyFile := config.HistoryFile
	if historyFile == "" {
		historyFile = "/tmp/sharpbox_history"
	}
	historySize := config.HistorySize
	if historySize == 0 {
		historySize = 1000
	}

	serializers := config.Serializers
	if serializers == nil {
		serializers = serialization.NewDefaultSerializerRegistry()
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	r := &REPL{
		session:        config.Session,
		serializers:    serializers,
		logger:         logger.WithComponent("repl"),
		promptSymbol:   promptSymbol,
		historyFile:    historyFile,
		historySize:    historySize,
		showWelcome:    config.ShowWelcome,
		buffer:         NewMultiLineBuffer(),
		displayManager: NewDisplayManager(os.Stdout, config.EnableColors, config.Verbose),
	}
	r.registerCommands()
	return r
}

// isInteractive checks if the input is interactive (terminal) or piped
func isInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// Run starts the console on stdin
func (r *REPL) Run() error {
	if !isInteractive() {
		return r.RunWith(NewSimpleInputReader(os.Stdin, os.Stdout))
	}

	reader, err := NewInputReader(r.prompt(), r.historyFile, r.historySize, NewCompleter())
	if err != nil {
		return errors.NewSystemError("READLINE_INIT_FAILED", fmt.Sprintf("failed to initialize readline: %v", err))
	}
	return r.RunWith(reader)
}

// RunWith runs the console loop over reader until :quit or end of input
func (r *REPL) RunWith(reader LineReader) error {
	defer func() {
		if err := reader.Close(); err != nil {
			r.logger.Warn("failed to close reader", logging.ErrorField("error", err))
		}
	}()

	r.displayManager.out = reader.Stdout()
	r.running = true
	if r.showWelcome {
		r.displayManager.ShowWelcome()
	}

	for r.running {
		reader.SetPrompt(r.prompt())

		line, err := reader.ReadLine()
		if err != nil {
			if err == readline.ErrInterrupt {
				if r.awaiting != 0 {
					r.stopRun()
					continue
				}
				if len(line) == 0 {
					fmt.Fprintln(r.displayManager.out, "Goodbye!")
					break
				}
				continue
			}
			if err == io.EOF {
				break
			}
			return errors.NewSystemError("READ_ERROR", fmt.Sprintf("read error: %v", err))
		}

		r.HandleLine(line)
	}

	r.abandonPending()
	return nil
}

// prompt returns the prompt for the next line
func (r *REPL) prompt() string {
	if r.awaiting != 0 {
		return r.displayManager.formatPrompt(r.promptSymbol+" ", "input")
	}
	text := fmt.Sprintf("%3d%s ", r.buffer.GetLineCount()+1, r.promptSymbol)
	if r.buffer.IsEmpty() {
		return r.displayManager.formatPrompt(text, "primary")
	}
	return r.displayManager.formatPrompt(text, "continuation")
}

// HandleLine processes one line typed at the console
func (r *REPL) HandleLine(line string) {
	trimmed := strings.TrimSpace(line)

	if r.awaiting != 0 {
		if trimmed == ":stop" {
			r.stopRun()
			return
		}
		id := r.awaiting
		r.awaiting = 0
		if !r.session.SubmitInput(id, line) {
			r.displayManager.ShowWarning("the program is no longer waiting for input")
			return
		}
		r.follow(id)
		return
	}

	if strings.HasPrefix(trimmed, ":") {
		if err := r.handleCommand(trimmed); err != nil {
			r.displayError(err)
		}
		return
	}

	if trimmed == "" && r.buffer.IsEmpty() {
		return
	}
	r.buffer.AddLine(line)
}

// follow prints the events of run id until it finishes or asks for input
func (r *REPL) follow(id session.RunID) {
	for event := range r.session.Events() {
		if event.RunID != id {
			continue
		}
		switch event.Kind {
		case session.EventMessage:
			r.displayManager.ShowMessage(event.Message)
		case session.EventInputRequested:
			r.awaiting = id
			return
		case session.EventFinished:
			r.logger.Debug("run finished", logging.Int64Field("run_id", int64(id)),
				logging.StringField("status", string(event.Status)))
			return
		}
	}
}

// startRun runs source and follows its output
func (r *REPL) startRun(source string) error {
	r.abandonPending()

	id, err := r.session.Start(source)
	if err != nil {
		return err
	}
	r.lastRun = id
	r.follow(id)
	return nil
}

// stopRun abandons the current run
func (r *REPL) stopRun() {
	current := r.session.Current()
	r.awaiting = 0
	if current == nil || current.Status().IsFinal() {
		r.displayManager.ShowInfo("No program is running")
		return
	}
	if err := r.session.Cancel(current.ID); err != nil {
		r.displayError(err)
		return
	}
	r.follow(current.ID)
	r.displayManager.ShowWarning("program stopped")
}

// abandonPending cancels a run that is still waiting for input
func (r *REPL) abandonPending() {
	if r.awaiting == 0 {
		return
	}
	id := r.awaiting
	r.awaiting = 0
	if err := r.session.Cancel(id); err == nil {
		r.follow(id)
	}
}

// displayError displays an error, preferring the console form of
// execution errors
func (r *REPL) displayError(err error) {
	if execErr, ok := errors.AsExecutionError(err); ok {
		if execErr.Cause != nil {
			r.displayManager.ShowError(fmt.Sprintf("%s: %v", execErr.Message, execErr.Cause))
			return
		}
		r.displayManager.ShowError(execErr.Message)
		return
	}
	r.displayManager.ShowError(err.Error())
}

// GetBuffer returns the program buffer
func (r *REPL) GetBuffer() *MultiLineBuffer {
	return r.buffer
}

// IsRunning reports whether the loop continues
func (r *REPL) IsRunning() bool {
	return r.running
}

// IsAwaitingInput reports whether the next line goes to the program
func (r *REPL) IsAwaitingInput() bool {
	return r.awaiting != 0
}
