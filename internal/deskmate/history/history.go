// Package history maintains the executed/undone stacks of action records and
// implements best-effort undo/redo. Stack bookkeeping always proceeds, even
// for non-reversible actions, so undo/redo counts stay consistent with what
// the user perceives as steps.
package history

import (
	"context"
	"log/slog"

	"github.com/deskmate-ai/deskmate/internal/deskmate/catalog"
	"github.com/deskmate-ai/deskmate/internal/deskmate/store"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// EventLog is the slice of the persistence layer receiving history events.
// Append failures never fail a stack operation.
type EventLog interface {
	AppendHistory(ctx context.Context, command, actionKey, kind string) error
}

// Invoker resolves action keys to callables for inverse and redo invocation.
type Invoker interface {
	Resolve(actionKey string) (catalog.Descriptor, bool)
}

// ActionRecord is the in-memory record of one successfully executed action.
type ActionRecord struct {
	Command    string
	ActionKey  string
	Args       []string
	Kwargs     map[string]string
	Reversible bool
	Inverse    string
}

// Result is the soft outcome of an undo/redo request.
type Result struct {
	Status           string
	Message          string
	FunctionExecuted string
}

// Engine owns the two stacks. It is not safe for concurrent mutation; the
// caller serializes Record/UndoLast/RedoLast.
type Engine struct {
	executed []ActionRecord
	undone   []ActionRecord
	log      EventLog
	catalog  Invoker
	logger   *slog.Logger
}

// New creates an Engine. log may be nil (no persistent history events).
func New(log EventLog, cat Invoker, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{log: log, catalog: cat, logger: logger}
}

// appendEvent writes a history event, tolerating log failures.
func (e *Engine) appendEvent(ctx context.Context, rec ActionRecord, kind string) {
	if e.log == nil {
		return
	}
	command := rec.Command
	if command == "" {
		command = rec.ActionKey
	}
	if err := e.log.AppendHistory(ctx, command, rec.ActionKey, kind); err != nil {
		e.logger.Debug("failed to append history event", "kind", kind, "error", err)
	}
}

// Record pushes a successfully executed action onto the executed stack and
// invalidates the redo history. It must only be called after the action
// itself completed without error.
func (e *Engine) Record(ctx context.Context, rec ActionRecord) {
	e.executed = append(e.executed, rec)
	e.undone = e.undone[:0]
	e.appendEvent(ctx, rec, store.EventExecute)
}

// UndoLast moves the most recent executed action to the undone stack and,
// when it is reversible, invokes its inverse with the original arguments.
// The stack transition happens regardless of reversibility or invocation
// outcome.
func (e *Engine) UndoLast(ctx context.Context) *Result {
	if len(e.executed) == 0 {
		return &Result{Status: StatusError, Message: "nothing to undo"}
	}

	rec := e.executed[len(e.executed)-1]
	e.executed = e.executed[:len(e.executed)-1]
	e.undone = append(e.undone, rec)
	e.appendEvent(ctx, rec, store.EventUndo)

	if !rec.Reversible || rec.Inverse == "" {
		e.logger.Info("undo requested for non-reversible action", "action", rec.ActionKey)
		return &Result{Status: StatusError, Message: "action is not reversible"}
	}

	desc, ok := e.catalog.Resolve(rec.Inverse)
	if !ok {
		return &Result{Status: StatusError, Message: "undo function not found: " + rec.Inverse}
	}

	res, err := desc.Call(ctx, rec.Args, rec.Kwargs)
	if err != nil {
		e.logger.Error("undo execution failed", "action", rec.Inverse, "error", err)
		return &Result{Status: StatusError, Message: err.Error()}
	}
	if res != nil && res.Status != StatusSuccess {
		return &Result{Status: StatusError, Message: res.Message}
	}

	e.logger.Info("undid action", "action", rec.Inverse)
	return &Result{Status: StatusSuccess, Message: "undo executed", FunctionExecuted: rec.Inverse}
}

// RedoLast moves the most recent undone action back to the executed stack
// and re-invokes the original function with the original arguments.
func (e *Engine) RedoLast(ctx context.Context) *Result {
	if len(e.undone) == 0 {
		return &Result{Status: StatusError, Message: "nothing to redo"}
	}

	rec := e.undone[len(e.undone)-1]
	e.undone = e.undone[:len(e.undone)-1]
	e.executed = append(e.executed, rec)
	e.appendEvent(ctx, rec, store.EventRedo)

	desc, ok := e.catalog.Resolve(rec.ActionKey)
	if !ok {
		return &Result{Status: StatusError, Message: "function not found for redo: " + rec.ActionKey}
	}

	res, err := desc.Call(ctx, rec.Args, rec.Kwargs)
	if err != nil {
		e.logger.Error("redo execution failed", "action", rec.ActionKey, "error", err)
		return &Result{Status: StatusError, Message: err.Error()}
	}
	if res != nil && res.Status != StatusSuccess {
		return &Result{Status: StatusError, Message: res.Message}
	}

	e.logger.Info("redid action", "action", rec.ActionKey)
	return &Result{Status: StatusSuccess, Message: "redo executed", FunctionExecuted: rec.ActionKey}
}

// ExecutedDepth returns the executed-stack depth.
func (e *Engine) ExecutedDepth() int { return len(e.executed) }

// UndoneDepth returns the undone-stack depth.
func (e *Engine) UndoneDepth() int { return len(e.undone) }
