package ponder

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/astql/postgres"
	"github.com/zoobzio/soy"
)

// SoyMemory implements SessionMemory on PostgreSQL using soy.
type SoyMemory struct {
	entries *soy.Soy[ContextEntry]
	db      *sqlx.DB
}

// NewSoyMemory creates a soy-backed SessionMemory over the context_entries table.
func NewSoyMemory(db *sqlx.DB) (*SoyMemory, error) {
	entries, err := soy.New[ContextEntry](db, "context_entries", postgres.New())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize context_entries table: %w", err)
	}
	return &SoyMemory{entries: entries, db: db}, nil
}

// Load returns the session's working memory in its saved order.
func (m *SoyMemory) Load(ctx context.Context, sessionID string) (*ContextStore, error) {
	rows, err := m.entries.Query().
		Where("session_id", "=", "session_id").
		OrderBy("position", "asc").
		Exec(ctx, map[string]any{"session_id": sessionID})
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	entries := make([]ContextEntry, len(rows))
	for i, r := range rows {
		entries[i] = *r
	}
	return storeFromEntries(entries), nil
}

// Save replaces the session's entries with the content of store.
func (m *SoyMemory) Save(ctx context.Context, sessionID string, store *ContextStore) error {
	if err := m.Delete(ctx, sessionID); err != nil {
		return err
	}
	for _, e := range entriesFromStore(sessionID, store) {
		if _, err := m.entries.Insert().Exec(ctx, &e); err != nil {
			return fmt.Errorf("failed to insert entry %q: %w", e.Key, err)
		}
	}
	return nil
}

// Delete removes all entries of the session.
func (m *SoyMemory) Delete(ctx context.Context, sessionID string) error {
	_, err := m.entries.Remove().
		Where("session_id", "=", "session_id").
		Exec(ctx, map[string]any{"session_id": sessionID})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (m *SoyMemory) Close() error {
	return m.db.Close()
}

var _ SessionMemory = (*SoyMemory)(nil)
