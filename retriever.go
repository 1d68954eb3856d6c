package ponder

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/capitan"
)

// Retriever turns a query into an ordered list of passage texts using a
// RetrievalService.
type Retriever struct {
	service     RetrievalService
	resultCount int
}

// NewRetriever creates a retriever over service requesting DefaultPeekCount
// results per query.
func NewRetriever(service RetrievalService) *Retriever {
	return &Retriever{
		service:     service,
		resultCount: DefaultPeekCount,
	}
}

// WithResultCount overrides the number of results requested per query.
func (r *Retriever) WithResultCount(n int) *Retriever {
	if n > 0 {
		r.resultCount = n
	}
	return r
}

// ResultCount returns the number of results requested per query.
func (r *Retriever) ResultCount() int {
	return r.resultCount
}

// Peek queries the service and returns the text of each record in ranking
// order. Records without text are dropped and reported through RecordDropped;
// they never fail the call. A service error is returned.
func (r *Retriever) Peek(ctx context.Context, query string) ([]string, error) {
	if r.service == nil {
		return nil, fmt.Errorf("peek: no retrieval service configured")
	}

	start := time.Now()
	records, err := r.service.Query(ctx, query, r.resultCount)
	if err != nil {
		return nil, fmt.Errorf("peek: query failed: %w", err)
	}

	passages := make([]string, 0, len(records))
	for i, rec := range records {
		text, ok := rec.Text()
		if !ok {
			capitan.Emit(ctx, RecordDropped,
				FieldQuery.Field(query),
				FieldRecordIndex.Field(i),
				FieldError.Field(&MissingFieldError{Field: TextField, Index: i}),
			)
			continue
		}
		passages = append(passages, text)
	}

	capitan.Emit(ctx, PeekCompleted,
		FieldQuery.Field(query),
		FieldResultCount.Field(len(passages)),
		FieldDuration.Field(time.Since(start)),
	)

	return passages, nil
}
