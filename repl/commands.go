package repl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sharpbox/errors"
	"sharpbox/project"
)

// CommandHandler handles one console command
type CommandHandler func(args []string) error

// registerCommands registers all console commands
func (r *REPL) registerCommands() {
	r.commands = map[string]CommandHandler{
		":run":    r.handleRun,
		":r":      r.handleRun,
		":load":   r.handleLoad,
		":list":   r.handleList,
		":l":      r.handleList,
		":undo":   r.handleUndo,
		":reset":  r.handleReset,
		":save":   r.handleSave,
		":export": r.handleExport,
		":runs":   r.handleRuns,
		":clean":  r.handleClean,
		":stop":   r.handleStop,
		":clear":  r.handleClear,
		":c":      r.handleClear,
		":help":   r.handleHelp,
		":h":      r.handleHelp,
		":quit":   r.handleQuit,
		":q":      r.handleQuit,
		":exit":   r.handleQuit,
	}
}

// handleCommand dispatches a ":" command line
func (r *REPL) handleCommand(line string) error {
	fields := strings.Fields(line)
	handler, ok := r.commands[fields[0]]
	if !ok {
		return errors.NewUserError("UNKNOWN_COMMAND", fmt.Sprintf("unknown command %s (try :help)", fields[0]))
	}
	return handler(fields[1:])
}

func (r *REPL) handleRun(args []string) error {
	if r.buffer.IsEmpty() {
		return errors.NewUserError("EMPTY_BUFFER", "the buffer is empty, type a program first")
	}
	return r.startRun(r.buffer.GetContent())
}

// handleLoad replaces the buffer with a source file, a project directory
// or a project archive.
func (r *REPL) handleLoad(args []string) error {
	if len(args) != 1 {
		return errors.NewUserError("USAGE", "usage: :load <file.cs|dir|archive.zip>")
	}
	target := args[0]

	info, err := os.Stat(target)
	if err != nil {
		return errors.WrapError(err, "LOAD_FAILED", fmt.Sprintf("cannot load %s", target))
	}

	var p *project.Project
	switch {
	case info.IsDir():
		p, err = project.LoadDir(target)
	case strings.EqualFold(filepath.Ext(target), ".zip"):
		p, err = project.LoadZip(target)
	default:
		data, readErr := os.ReadFile(target)
		if readErr != nil {
			return errors.WrapError(readErr, "LOAD_FAILED", fmt.Sprintf("cannot read %s", target))
		}
		r.project = nil
		r.buffer.SetContent(string(data))
		r.displayManager.ShowSuccess(fmt.Sprintf("Loaded %s (%d lines)", target, r.buffer.GetLineCount()))
		return nil
	}
	if err != nil {
		return err
	}

	source, err := p.ActiveSource()
	if err != nil {
		return err
	}
	active, _ := p.ActiveFile()
	r.project = p
	r.buffer.SetContent(source)
	r.displayManager.ShowSuccess(fmt.Sprintf("Loaded project %s, active file %s (%d lines)",
		p.Name, p.Path(active), r.buffer.GetLineCount()))
	return nil
}

func (r *REPL) handleList(args []string) error {
	r.displayManager.ShowBufferContent(r.buffer)
	return nil
}

func (r *REPL) handleUndo(args []string) error {
	if r.buffer.IsEmpty() {
		return errors.NewUserError("EMPTY_BUFFER", "nothing to undo")
	}
	line := r.buffer.RemoveLastLine()
	r.displayManager.ShowInfo(fmt.Sprintf("Removed: %s", line))
	return nil
}

func (r *REPL) handleReset(args []string) error {
	r.buffer.Clear()
	r.project = nil
	r.displayManager.ShowInfo("Buffer cleared")
	return nil
}

// handleSave writes the transcript of the last run
func (r *REPL) handleSave(args []string) error {
	if len(args) != 1 {
		return errors.NewUserError("USAGE", "usage: :save <file.json|file.yaml>")
	}
	if r.lastRun == 0 {
		return errors.NewUserError("NO_RUN", "nothing to save, run a program first")
	}
	run, err := r.session.Get(r.lastRun)
	if err != nil {
		return err
	}
	if err := r.serializers.WriteTranscript(args[0], run.Transcript()); err != nil {
		return err
	}
	r.displayManager.ShowSuccess(fmt.Sprintf("Saved run %d to %s", run.ID, args[0]))
	return nil
}

// handleExport writes the buffer as a project archive into a directory
func (r *REPL) handleExport(args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	p := r.project
	if p == nil {
		p = project.New("Program", r.buffer.GetContent())
	} else if err := p.SetActiveSource(r.buffer.GetContent()); err != nil {
		return err
	}

	archive, err := project.ExportZipFile(p, dir)
	if err != nil {
		return err
	}
	r.displayManager.ShowSuccess(fmt.Sprintf("Exported %s", archive))
	return nil
}

func (r *REPL) handleRuns(args []string) error {
	r.displayManager.ShowRuns(r.session.List())
	return nil
}

// handleClean forgets finished runs older than the given duration
func (r *REPL) handleClean(args []string) error {
	olderThan := time.Duration(0)
	if len(args) > 0 {
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return errors.NewUserError("USAGE", "usage: :clean [duration, e.g. 5m]")
		}
		olderThan = d
	}
	removed := r.session.Clean(olderThan)
	r.displayManager.ShowInfo(fmt.Sprintf("Removed %d runs", removed))
	return nil
}

func (r *REPL) handleStop(args []string) error {
	r.stopRun()
	return nil
}

func (r *REPL) handleClear(args []string) error {
	r.displayManager.ClearScreen()
	return nil
}

func (r *REPL) handleHelp(args []string) error {
	r.displayManager.ShowHelp()
	return nil
}

func (r *REPL) handleQuit(args []string) error {
	fmt.Fprintln(r.displayManager.out, "Goodbye!")
	r.running = false
	return nil
}
