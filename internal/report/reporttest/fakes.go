// Package reporttest provides in-memory backends for exercising the report
// service without network access.
package reporttest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/joelkehle/patentmate/internal/llm"
	"github.com/joelkehle/patentmate/internal/vectorindex"
)

// Reply is a canned completion.
type Reply struct {
	Body string
	Err  error
	// Block waits for ctx to end before replying.
	Block bool
}

// Caller answers completions by system prompt. Unknown prompts get Default.
type Caller struct {
	mu       sync.Mutex
	Replies  map[string]Reply
	Default  Reply
	Requests []llm.ChatRequest
}

func NewCaller() *Caller {
	return &Caller{Replies: map[string]Reply{}}
}

// On sets the reply for a system prompt and returns the caller.
func (c *Caller) On(system string, r Reply) *Caller {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Replies[system] = r
	return c
}

func (c *Caller) Complete(ctx context.Context, req llm.ChatRequest) (string, error) {
	c.mu.Lock()
	c.Requests = append(c.Requests, req)
	r, ok := c.Replies[req.System]
	if !ok {
		r = c.Default
	}
	c.mu.Unlock()

	if r.Block {
		<-ctx.Done()
	}
	return r.Body, r.Err
}

// Calls returns how many completions were requested.
func (c *Caller) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Requests)
}

// Embedder returns a fixed vector.
type Embedder struct {
	Vector []float32
	Err    error

	mu    sync.Mutex
	Texts []string
}

func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.Texts = append(e.Texts, text)
	e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	if e.Vector == nil {
		return []float32{0.1, 0.2, 0.3}, nil
	}
	return e.Vector, nil
}

// Index returns fixed matches, truncated to topK.
type Index struct {
	Matches []vectorindex.Match
	Err     error

	mu       sync.Mutex
	LastTopK int
}

func (i *Index) Query(_ context.Context, _ []float32, topK int) ([]vectorindex.Match, error) {
	i.mu.Lock()
	i.LastTopK = topK
	i.mu.Unlock()
	if i.Err != nil {
		return nil, i.Err
	}
	if len(i.Matches) > topK {
		return i.Matches[:topK], nil
	}
	return i.Matches, nil
}

// Match builds a match whose metadata is v encoded as JSON.
func Match(id string, score float32, v any) vectorindex.Match {
	blob, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return vectorindex.Match{ID: id, Score: score, Metadata: blob}
}
