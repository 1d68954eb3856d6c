package ponder

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/astql/postgres"
	"github.com/zoobzio/soy"
)

// SoyIndex is a PostgreSQL/pgvector passage index. It serves as the
// RetrievalService behind PEEK and as a DocumentStore. Passages are expected
// to arrive already chunked.
type SoyIndex struct {
	passages *soy.Soy[Passage]
	embedder Embedder
	db       *sqlx.DB
}

// NewSoyIndex creates an index over the passages table. A nil embedder is
// resolved from the context or the global default on each call.
func NewSoyIndex(db *sqlx.DB, embedder Embedder) (*SoyIndex, error) {
	passages, err := soy.New[Passage](db, "passages", postgres.New())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize passages table: %w", err)
	}
	return &SoyIndex{passages: passages, embedder: embedder, db: db}, nil
}

// Query embeds text and returns the resultCount nearest passages, closest
// first. Passages without embeddings are never returned.
func (x *SoyIndex) Query(ctx context.Context, text string, resultCount int) ([]Record, error) {
	embedder, err := ResolveEmbedder(ctx, x.embedder)
	if err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}
	embedding, err := embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("index query: failed to embed query: %w", err)
	}

	rows, err := x.passages.Query().
		WhereNotNull("embedding").
		OrderByExpr("embedding", "<->", "query_embedding", "asc").
		Limit(resultCount).
		Exec(ctx, map[string]any{"query_embedding": Vector(embedding)})
	if err != nil {
		return nil, fmt.Errorf("index query: search failed: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for rank, p := range rows {
		r := p.Record()
		r["rank"] = rank + 1
		records = append(records, r)
	}
	return records, nil
}

// AddPassage stores an already-chunked passage, embedding it when an
// embedder resolves. Embedding failure stores the passage without a vector.
func (x *SoyIndex) AddPassage(ctx context.Context, p Passage) (*Passage, error) {
	if p.Created.IsZero() {
		p.Created = time.Now()
	}
	if p.Metadata == nil {
		p.Metadata = make(map[string]string)
	}
	if p.Embedding == nil {
		if embedder, err := ResolveEmbedder(ctx, x.embedder); err == nil {
			if v, err := embedder.Embed(ctx, p.Text); err == nil {
				p.Embedding = Vector(v)
			}
		}
	}

	inserted, err := x.passages.Insert().Exec(ctx, &p)
	if err != nil {
		return nil, fmt.Errorf("failed to insert passage: %w", err)
	}
	return inserted, nil
}

// Passage returns the passage with the given id.
func (x *SoyIndex) Passage(ctx context.Context, id string) (*Passage, error) {
	p, err := x.passages.Select().
		Where("id", "=", "id").
		Exec(ctx, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get passage: %w", err)
	}
	return p, nil
}

// Document returns all passages of a document in position order.
func (x *SoyIndex) Document(ctx context.Context, document string) ([]*Passage, error) {
	rows, err := x.passages.Query().
		Where("document", "=", "document").
		OrderBy("position", "asc").
		Exec(ctx, map[string]any{"document": document})
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return rows, nil
}

// Close closes the underlying database connection.
func (x *SoyIndex) Close() error {
	return x.db.Close()
}

var (
	_ RetrievalService = (*SoyIndex)(nil)
	_ DocumentStore    = (*SoyIndex)(nil)
)
