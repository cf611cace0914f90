// Package uuid generates request identifiers.
package uuid

import (
	"github.com/google/uuid"
)

// Generator creates time-ordered UUIDv7 strings, falling back to UUIDv4 when
// the v7 clock source fails.
type Generator struct{}

// New creates a new Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a fresh request id.
func (Generator) NewID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
