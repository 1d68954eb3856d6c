package ponder

import (
	"context"
	"time"
)

// Record is one ranked result from a retrieval service. Records carry at
// least a "text" field holding the passage; other fields pass through.
type Record map[string]any

// TextField is the record field holding passage text.
const TextField = "text"

// Text returns the record's passage text.
func (r Record) Text() (string, bool) {
	v, ok := r[TextField]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// RetrievalService runs a query over a document index and returns up to
// resultCount records, best match first.
type RetrievalService interface {
	Query(ctx context.Context, text string, resultCount int) ([]Record, error)
}

// RetrievalFunc adapts a plain function to RetrievalService.
type RetrievalFunc func(ctx context.Context, text string, resultCount int) ([]Record, error)

// Query implements RetrievalService.
func (f RetrievalFunc) Query(ctx context.Context, text string, resultCount int) ([]Record, error) {
	return f(ctx, text, resultCount)
}

// Passage is an ingested text chunk addressable by id.
type Passage struct {
	ID       string            `db:"id" type:"uuid" constraints:"primarykey" default:"gen_random_uuid()"`
	Document string            `db:"document" type:"text" constraints:"notnull"`
	Position int               `db:"position" type:"integer" constraints:"notnull"`
	Text     string            `db:"text" type:"text" constraints:"notnull"`
	Metadata map[string]string `db:"metadata" type:"jsonb" default:"'{}'"`
	Created  time.Time         `db:"created" type:"timestamp" constraints:"notnull"`
	// Embedding is excluded from records returned to callers.
	Embedding Vector `db:"embedding" type:"vector(1536)"`
}

// Record projects the passage into a retrieval record.
func (p Passage) Record() Record {
	r := Record{
		"id":       p.ID,
		"document": p.Document,
		"position": p.Position,
		TextField:  p.Text,
	}
	if len(p.Metadata) > 0 {
		r["metadata"] = p.Metadata
	}
	return r
}

// DocumentStore resolves passages by id.
type DocumentStore interface {
	Passage(ctx context.Context, id string) (*Passage, error)
}
