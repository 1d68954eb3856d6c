package ponder

import "context"

// SessionMemory persists working memory between runs so a conversation can
// continue across calls or processes.
type SessionMemory interface {
	// Load returns the session's working memory. An unknown session yields
	// an empty store, not an error.
	Load(ctx context.Context, sessionID string) (*ContextStore, error)

	// Save replaces the session's stored working memory with store.
	Save(ctx context.Context, sessionID string, store *ContextStore) error

	// Delete removes the session. Deleting an unknown session is a no-op.
	Delete(ctx context.Context, sessionID string) error
}

// ContextEntry is the persisted form of one working-memory entry.
type ContextEntry struct {
	ID        string    `db:"id" type:"uuid" constraints:"primarykey" default:"gen_random_uuid()"`
	SessionID string    `db:"session_id" type:"text" constraints:"notnull"`
	Key       string    `db:"key" type:"text" constraints:"notnull"`
	Value     JSONValue `db:"value" type:"jsonb" constraints:"notnull"`
	Position  int       `db:"position" type:"integer" constraints:"notnull"`
}

// entriesFromStore converts a store to persisted entries in order.
func entriesFromStore(sessionID string, store *ContextStore) []ContextEntry {
	src := store.Entries()
	entries := make([]ContextEntry, len(src))
	for i, e := range src {
		entries[i] = ContextEntry{
			SessionID: sessionID,
			Key:       e.Key,
			Value:     JSONValue{Data: e.Value},
			Position:  i,
		}
	}
	return entries
}

// storeFromEntries rebuilds a store from entries already sorted by position.
func storeFromEntries(entries []ContextEntry) *ContextStore {
	store := NewContextStore()
	for _, e := range entries {
		store.Set(e.Key, e.Value.Data)
	}
	return store
}
