// Package session holds per-conversation state and the machinery that keeps
// each conversation's events in order.
package session

import (
	"context"
	"maps"
	"time"
)

// State is the accumulated answers of one conversation plus its current step.
type State struct {
	Step      Step              `json:"step"`
	Fields    map[string]string `json:"fields,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Field returns the stored value for name, or "".
func (s State) Field(name string) string {
	if s.Fields == nil {
		return ""
	}
	return s.Fields[name]
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	if s.Fields != nil {
		out.Fields = maps.Clone(s.Fields)
	}
	return out
}

// Store is the conversation state contract. Implementations must isolate
// keys completely; callers serialize access per key (see Sequencer).
type Store interface {
	// Get returns the state for key, or the idle zero state if none exists.
	Get(ctx context.Context, key string) (State, error)
	// Merge adds or overwrites the given fields, keeping the current step.
	Merge(ctx context.Context, key string, fields map[string]string) error
	// SetStep moves the conversation to step, keeping the fields.
	SetStep(ctx context.Context, key string, step Step) error
	// Clear wipes the fields and returns the conversation to idle.
	Clear(ctx context.Context, key string) error
}
