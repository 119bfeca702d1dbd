// Package handler orchestrates a single command round-trip: resolve the
// text, enforce permissions, execute the action, and record it in the
// history engine. Every outcome is a structured response; errors never
// propagate past this boundary as raw failures.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/deskmate-ai/deskmate/common/trace"
	"github.com/deskmate-ai/deskmate/internal/deskmate/automation"
	"github.com/deskmate-ai/deskmate/internal/deskmate/catalog"
	"github.com/deskmate-ai/deskmate/internal/deskmate/history"
	"github.com/deskmate-ai/deskmate/internal/deskmate/learner"
	"github.com/deskmate-ai/deskmate/internal/deskmate/permissions"
	"github.com/deskmate-ai/deskmate/internal/deskmate/resolver"
	"github.com/deskmate-ai/deskmate/internal/deskmate/store"
)

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the structured outcome of every top-level operation.
type Response struct {
	Status           string
	Message          string
	FunctionExecuted string
	TraceID          string
}

// Resolver resolves free text into a mapping.
type Resolver interface {
	Resolve(ctx context.Context, text string) (*store.Mapping, error)
}

// Catalog resolves action keys to callables.
type Catalog interface {
	Resolve(actionKey string) (catalog.Descriptor, bool)
}

// Gate is consulted before any action executes.
type Gate interface {
	Enforce(userID, actionKey string) error
}

// History is the undo/redo engine.
type History interface {
	Record(ctx context.Context, rec history.ActionRecord)
	UndoLast(ctx context.Context) *history.Result
	RedoLast(ctx context.Context) *history.Result
}

// Mappings is the slice of the store the handler touches directly.
type Mappings interface {
	DeleteMapping(ctx context.Context, commandText string) (bool, error)
	ListHistory(ctx context.Context, limit int) ([]store.HistoryEvent, error)
}

// Handler executes text commands for one user.
type Handler struct {
	resolver Resolver
	catalog  Catalog
	gate     Gate
	history  History
	mappings Mappings
	userID   string
	logger   *slog.Logger
}

// New creates a Handler. userID defaults to "guest" when empty.
func New(r Resolver, c Catalog, g Gate, h History, m Mappings, userID string, logger *slog.Logger) *Handler {
	if userID == "" {
		userID = "guest"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{resolver: r, catalog: c, gate: g, history: h, mappings: m, userID: userID, logger: logger}
}

// Execute resolves and runs one text command. Denied or failed actions are
// never recorded in history.
func (h *Handler) Execute(ctx context.Context, text string) *Response {
	traceID := trace.GenerateID()
	ctx = trace.WithTraceID(ctx, traceID)
	h.logger.Info("received command", "command", text, "trace_id", traceID)

	mapping, err := h.resolver.Resolve(ctx, text)
	if err != nil {
		h.logger.Warn("failed to resolve command", "command", text, "error", err, "trace_id", traceID)
		return &Response{
			Status:  StatusError,
			Message: resolutionMessage(err),
			TraceID: traceID,
		}
	}

	if err := learner.Validate(mapping); err != nil {
		return &Response{Status: StatusError, Message: err.Error(), TraceID: traceID}
	}

	actionKey := mapping.ActionKey()
	desc, ok := h.catalog.Resolve(actionKey)
	if !ok {
		return &Response{
			Status:  StatusError,
			Message: fmt.Sprintf("function %q not found in module %q", mapping.Function, mapping.Module),
			TraceID: traceID,
		}
	}

	if err := h.gate.Enforce(h.userID, actionKey); err != nil {
		if errors.Is(err, permissions.ErrDenied) {
			h.logger.Warn("permission denied", "user", h.userID, "action", actionKey, "trace_id", traceID)
			return &Response{Status: StatusError, Message: "Permission denied", TraceID: traceID}
		}
		h.logger.Error("permission check failed", "user", h.userID, "action", actionKey, "error", err, "trace_id", traceID)
		return &Response{Status: StatusError, Message: "Failed to verify permissions", TraceID: traceID}
	}

	h.logger.Debug("executing action", "action", actionKey, "args", mapping.Args, "trace_id", traceID)
	result, err := desc.Call(ctx, mapping.Args, mapping.Kwargs)
	if err != nil {
		h.logger.Error("action execution failed", "action", actionKey, "error", err, "trace_id", traceID)
		return &Response{Status: StatusError, Message: err.Error(), TraceID: traceID}
	}
	if result != nil && result.Status != automation.StatusSuccess {
		return &Response{Status: StatusError, Message: result.Message, TraceID: traceID}
	}

	h.history.Record(ctx, history.ActionRecord{
		Command:    text,
		ActionKey:  actionKey,
		Args:       mapping.Args,
		Kwargs:     mapping.Kwargs,
		Reversible: desc.Reversible,
		Inverse:    desc.Inverse,
	})

	message := "Command executed successfully"
	if result != nil && result.Message != "" {
		message = result.Message
	}
	h.logger.Info("command executed", "action", actionKey, "trace_id", traceID)
	return &Response{
		Status:           StatusSuccess,
		Message:          message,
		FunctionExecuted: actionKey,
		TraceID:          traceID,
	}
}

// resolutionMessage maps resolver/learner errors to user-facing text without
// leaking internals.
func resolutionMessage(err error) string {
	var verr *learner.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, resolver.ErrResolutionFailed):
		return "Failed to resolve command: " + err.Error()
	default:
		return "Failed to resolve command"
	}
}

// Undo undoes the last executed action.
func (h *Handler) Undo(ctx context.Context) *Response {
	traceID := trace.GenerateID()
	res := h.history.UndoLast(trace.WithTraceID(ctx, traceID))
	return &Response{
		Status:           res.Status,
		Message:          res.Message,
		FunctionExecuted: res.FunctionExecuted,
		TraceID:          traceID,
	}
}

// Redo re-executes the last undone action.
func (h *Handler) Redo(ctx context.Context) *Response {
	traceID := trace.GenerateID()
	res := h.history.RedoLast(trace.WithTraceID(ctx, traceID))
	return &Response{
		Status:           res.Status,
		Message:          res.Message,
		FunctionExecuted: res.FunctionExecuted,
		TraceID:          traceID,
	}
}

// ClearMapping deletes the stored mapping for a command text. It never
// fails outward; the response reports whether a row existed.
func (h *Handler) ClearMapping(ctx context.Context, text string) *Response {
	traceID := trace.GenerateID()
	existed, err := h.mappings.DeleteMapping(ctx, text)
	if err != nil {
		h.logger.Debug("failed to clear mapping", "command", text, "error", err)
		return &Response{Status: StatusError, Message: "Failed to clear mapping", TraceID: traceID}
	}
	if !existed {
		return &Response{Status: StatusSuccess, Message: fmt.Sprintf("no existing mapping for %q", text), TraceID: traceID}
	}
	h.logger.Info("cleared mapping", "command", text)
	return &Response{Status: StatusSuccess, Message: fmt.Sprintf("mapping for %q cleared", text), TraceID: traceID}
}

// History returns up to limit history events, most recent first.
func (h *Handler) History(ctx context.Context, limit int) ([]store.HistoryEvent, error) {
	return h.mappings.ListHistory(ctx, limit)
}
