package session

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/wolfman30/rental-intake-bot/pkg/logging"
)

// ErrSequencerClosed is returned by Submit after Close.
var ErrSequencerClosed = errors.New("session: sequencer closed")

// Task is one unit of work for a conversation.
type Task func(ctx context.Context)

// Sequencer runs tasks for the same key strictly in submission order while
// tasks for different keys run in parallel. A goroutine exists per key only
// while that key has pending work.
type Sequencer struct {
	mu     sync.Mutex
	queues map[string][]Task
	closed bool

	slots  chan struct{}
	logger *logging.Logger
	wg     sync.WaitGroup
}

// SequencerOption customizes a Sequencer.
type SequencerOption func(*Sequencer)

// WithMaxSessions bounds how many conversations are processed at once.
func WithMaxSessions(n int) SequencerOption {
	return func(s *Sequencer) {
		if n > 0 {
			s.slots = make(chan struct{}, n)
		}
	}
}

// NewSequencer creates a Sequencer.
func NewSequencer(logger *logging.Logger, opts ...SequencerOption) *Sequencer {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Sequencer{
		queues: make(map[string][]Task),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit appends task to key's queue, starting a drainer if none is running.
func (s *Sequencer) Submit(ctx context.Context, key string, task Task) error {
	if task == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSequencerClosed
	}
	pending, running := s.queues[key]
	s.queues[key] = append(pending, task)
	if !running {
		s.wg.Add(1)
		go s.drain(ctx, key)
	}
	return nil
}

func (s *Sequencer) drain(ctx context.Context, key string) {
	defer s.wg.Done()

	if s.slots != nil {
		select {
		case s.slots <- struct{}{}:
			defer func() { <-s.slots }()
		case <-ctx.Done():
			s.mu.Lock()
			dropped := len(s.queues[key])
			delete(s.queues, key)
			s.mu.Unlock()
			s.logger.Warn("dropping queued events on shutdown", "session_key", key, "count", dropped)
			return
		}
	}

	for {
		s.mu.Lock()
		pending := s.queues[key]
		if len(pending) == 0 {
			delete(s.queues, key)
			s.mu.Unlock()
			return
		}
		task := pending[0]
		s.queues[key] = pending[1:]
		s.mu.Unlock()

		s.run(ctx, key, task)
	}
}

func (s *Sequencer) run(ctx context.Context, key string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("session task panicked",
				"session_key", key,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	task(ctx)
}

// Pending reports the number of keys with queued or running work.
func (s *Sequencer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues)
}

// Close stops accepting new tasks. Already queued tasks still run.
func (s *Sequencer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Wait blocks until all drainers exit.
func (s *Sequencer) Wait() {
	s.wg.Wait()
}
