// Package idgen generates identifiers for links and click logs.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator generates unique identifiers.
// Implementations should be safe for concurrent use.
type Generator interface {
	Generate() (uuid.UUID, error)
}

// v7Gen produces UUID v7 values. The timestamp prefix keeps primary keys
// roughly insertion-ordered, which suits append-heavy tables like click logs.
type v7Gen struct {
	maxRetries int
}

// Option configures a Generator.
type Option func(*v7Gen)

// WithRetries sets how many times to retry uuid.NewV7() after the initial
// attempt. Defaults to 1. Set to 0 to disable retries.
func WithRetries(n int) Option {
	return func(g *v7Gen) {
		if n >= 0 {
			g.maxRetries = n
		}
	}
}

// NewV7 returns a Generator that produces UUID v7 values.
func NewV7(opts ...Option) Generator {
	g := &v7Gen{maxRetries: 1}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *v7Gen) Generate() (uuid.UUID, error) {
	var last error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		id, err := uuid.NewV7()
		if err == nil {
			return id, nil
		}
		last = err
	}
	return uuid.Nil, fmt.Errorf("uuid v7 generation failed after %d attempts: %w", g.maxRetries+1, last)
}
