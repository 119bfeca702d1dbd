package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no mapping exists for a command text.
var ErrNotFound = errors.New("mapping not found")

// Mapping associates a literal command text with a concrete action and its
// argument template.
type Mapping struct {
	CommandText string
	Module      string
	Function    string
	Args        []string
	Kwargs      map[string]string
}

// ActionKey returns the "<module>:<function>" identity of the mapped action.
func (m *Mapping) ActionKey() string {
	return m.Module + ":" + m.Function
}

// UpsertMapping writes a mapping, replacing any prior row for the same
// command text. The replace is atomic: a reader never observes a partially
// written mapping.
func (s *Store) UpsertMapping(ctx context.Context, m *Mapping) error {
	argsJSON, err := json.Marshal(m.Args)
	if err != nil {
		return fmt.Errorf("failed to encode args: %w", err)
	}
	kwargsJSON, err := json.Marshal(m.Kwargs)
	if err != nil {
		return fmt.Errorf("failed to encode kwargs: %w", err)
	}

	now := time.Now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO mappings (command_text, module, function, args_json, kwargs_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(command_text) DO UPDATE SET
			module = excluded.module,
			function = excluded.function,
			args_json = excluded.args_json,
			kwargs_json = excluded.kwargs_json,
			updated_at = excluded.updated_at
	`, m.CommandText, m.Module, m.Function, string(argsJSON), string(kwargsJSON), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert mapping: %w", err)
	}

	return nil
}

// GetMapping retrieves the mapping for an exact command text. Returns
// ErrNotFound when no row exists.
func (s *Store) GetMapping(ctx context.Context, commandText string) (*Mapping, error) {
	m := &Mapping{CommandText: commandText}
	var argsJSON, kwargsJSON string

	err := s.db.QueryRowContext(ctx, `
		SELECT module, function, args_json, kwargs_json
		FROM mappings
		WHERE command_text = ?
	`, commandText).Scan(&m.Module, &m.Function, &argsJSON, &kwargsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mapping: %w", err)
	}

	if err := json.Unmarshal([]byte(argsJSON), &m.Args); err != nil {
		return nil, fmt.Errorf("failed to decode args for %q: %w", commandText, err)
	}
	if err := json.Unmarshal([]byte(kwargsJSON), &m.Kwargs); err != nil {
		return nil, fmt.Errorf("failed to decode kwargs for %q: %w", commandText, err)
	}

	return m, nil
}

// ListCommandTexts returns every stored command text in lexical order.
func (s *Store) ListCommandTexts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT command_text FROM mappings ORDER BY command_text ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list command texts: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan command text: %w", err)
		}
		texts = append(texts, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating command texts: %w", err)
	}

	return texts, nil
}

// DeleteMapping removes the mapping for a command text if present and
// reports whether a row existed. History is untouched.
func (s *Store) DeleteMapping(ctx context.Context, commandText string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM mappings WHERE command_text = ?", commandText)
	if err != nil {
		return false, fmt.Errorf("failed to delete mapping: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows > 0, nil
}
