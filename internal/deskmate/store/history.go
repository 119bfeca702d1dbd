package store

import (
	"context"
	"fmt"
	"time"
)

// History event kinds. The history table constrains rows to these values.
const (
	EventExecute = "EXECUTE"
	EventUndo    = "UNDO"
	EventRedo    = "REDO"
)

// HistoryEvent is one row of the append-only execution history log.
type HistoryEvent struct {
	ID        int64
	Command   string
	ActionKey string
	Kind      string
	Timestamp time.Time
}

// AppendHistory appends one event to the history log.
func (s *Store) AppendHistory(ctx context.Context, command, actionKey, kind string) error {
	switch kind {
	case EventExecute, EventUndo, EventRedo:
	default:
		return fmt.Errorf("invalid history event kind %q", kind)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (command, action_key, kind, ts)
		VALUES (?, ?, ?, ?)
	`, command, actionKey, kind, time.Now())
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}

	return nil
}

// ListHistory returns up to limit events, most recent first. A non-positive
// limit is clamped to 1.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]HistoryEvent, error) {
	if limit < 1 {
		limit = 1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, command, action_key, kind, ts
		FROM history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var events []HistoryEvent
	for rows.Next() {
		var e HistoryEvent
		if err := rows.Scan(&e.ID, &e.Command, &e.ActionKey, &e.Kind, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return events, nil
}
