// Package vectorindex queries nearest-neighbour collections whose rows carry
// a JSON metadata document.
package vectorindex

import (
	"context"
	"encoding/json"
)

// Match is one nearest-neighbour hit.
type Match struct {
	ID       string
	Score    float32
	Metadata json.RawMessage
}

// Index returns the topK nearest rows to vector, best first.
type Index interface {
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
}

// Record is one row to write.
type Record struct {
	ID       string
	Metadata json.RawMessage
	Vector   []float32
}

// Writer inserts or replaces rows by ID.
type Writer interface {
	Upsert(ctx context.Context, records []Record) error
}
