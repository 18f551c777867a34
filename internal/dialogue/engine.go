// Package dialogue is the conversation state machine: it reads a session's
// step, accepts or ignores the inbound event, moves the step forward and
// returns the prompts to send back.
package dialogue

import (
	"context"
	"strings"
	"time"

	"github.com/wolfman30/rental-intake-bot/internal/listings"
	"github.com/wolfman30/rental-intake-bot/internal/notify"
	"github.com/wolfman30/rental-intake-bot/internal/session"
	"github.com/wolfman30/rental-intake-bot/pkg/logging"
)

// Event outcomes reported to metrics.
const (
	OutcomeHandled      = "handled"
	OutcomeIgnored      = "ignored"
	OutcomeUnauthorized = "unauthorized"
	OutcomeFailed       = "failed"
)

// ListingCatalog is the listing query facade used by the engine.
type ListingCatalog interface {
	FindRecent(ctx context.Context, cityCode string, dealType listings.DealType, rooms listings.Rooms, limit int) ([]*listings.Listing, error)
	FindActive(ctx context.Context, limit int) ([]*listings.Listing, error)
	Lookup(ctx context.Context, id string) (*listings.Listing, bool)
	Create(ctx context.Context, req *listings.CreateListingRequest) (*listings.Listing, error)
	Deactivate(ctx context.Context, id string) error
}

// Notifier delivers completed applications.
type Notifier interface {
	Dispatch(ctx context.Context, app notify.Application) []notify.Outcome
}

// Broadcaster publishes new listings to the listings channel.
type Broadcaster interface {
	Broadcast(ctx context.Context, chatID int64, html string) error
}

// Metrics receives engine counters.
type Metrics interface {
	ObserveEvent(kind, outcome string)
	ObserveEventLatency(kind string, seconds float64)
	ObserveApplication()
	ObserveListingCreated(status string)
}

// Config carries the static identities the engine needs.
type Config struct {
	// AdminID is the only user allowed to run admin triggers.
	AdminID int64
	// ChannelID receives new listings; 0 disables the broadcast.
	ChannelID int64
}

// Engine runs both conversation flows over a shared state store.
// Callers must serialize Handle per session key.
type Engine struct {
	cfg         Config
	store       session.Store
	catalog     ListingCatalog
	notifier    Notifier
	broadcaster Broadcaster
	metrics     Metrics
	logger      *logging.Logger
	now         func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithBroadcaster sets the listings channel publisher.
func WithBroadcaster(b Broadcaster) Option {
	return func(e *Engine) { e.broadcaster = b }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine wires the engine to its collaborators.
func NewEngine(cfg Config, store session.Store, catalog ListingCatalog, notifier Notifier, opts ...Option) *Engine {
	if store == nil || catalog == nil || notifier == nil {
		panic("dialogue: store, catalog and notifier are required")
	}
	e := &Engine{
		cfg:      cfg,
		store:    store,
		catalog:  catalog,
		notifier: notifier,
		metrics:  noopMetrics{},
		logger:   logging.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle processes one event and returns the replies to send.
func (e *Engine) Handle(ctx context.Context, ev Event) []Reply {
	start := e.now()
	logger := e.logger.ForSession(ev.Key())

	replies, outcome, err := e.route(ctx, ev)
	if err != nil {
		logger.Error("dialogue: event failed", "error", err, "kind", ev.Kind)
		outcome = OutcomeFailed
		replies = []Reply{{Text: msgSomethingWrong, RemoveKeyboard: true}}
	}

	logger.Debug("dialogue: event processed", "kind", ev.Kind, "outcome", outcome, "replies", len(replies))
	e.metrics.ObserveEvent(string(ev.Kind), outcome)
	e.metrics.ObserveEventLatency(string(ev.Kind), e.now().Sub(start).Seconds())
	return replies
}

func (e *Engine) route(ctx context.Context, ev Event) ([]Reply, string, error) {
	key := ev.Key()

	switch ev.Kind {
	case KindCommand:
		switch ev.Text {
		case CommandStart, CommandRestart:
			return handled(e.start(ctx, key))
		case CommandAdmin:
			if !e.isAdmin(ev) {
				return nil, OutcomeUnauthorized, nil
			}
			return []Reply{adminMenu()}, OutcomeHandled, nil
		}
		return nil, OutcomeIgnored, nil

	case KindText:
		if strings.TrimSpace(ev.Text) == RestartLabel {
			return handled(e.start(ctx, key))
		}
	case KindChoice:
		if prefix, value := ev.choice(); prefix == prefixAdmin {
			return e.handleAdminAction(ctx, ev, value)
		}
	case KindContact:
	default:
		return nil, OutcomeIgnored, nil
	}

	st, err := e.store.Get(ctx, key)
	if err != nil {
		return nil, "", err
	}

	switch {
	case st.Step.IsIdle() || st.Step.In(session.FlowBrowse):
		return e.handleBrowse(ctx, ev, st)
	case st.Step.In(session.FlowApplying):
		return e.handleApplying(ctx, ev, st)
	case st.Step.In(session.FlowAdminAdd):
		if !e.isAdmin(ev) {
			return nil, OutcomeUnauthorized, nil
		}
		return e.handleAdminAdd(ctx, ev, st)
	}
	return nil, OutcomeIgnored, nil
}

// start resets the session and presents the city menu.
func (e *Engine) start(ctx context.Context, key string) ([]Reply, error) {
	if err := e.store.Clear(ctx, key); err != nil {
		return nil, err
	}
	if err := e.store.SetStep(ctx, key, session.StepAwaitCity); err != nil {
		return nil, err
	}
	return []Reply{{Text: msgWelcome, Keyboard: cityKeyboard()}}, nil
}

func (e *Engine) isAdmin(ev Event) bool {
	return e.cfg.AdminID != 0 && ev.UserID == e.cfg.AdminID
}

// advance stores fields and moves the session to next.
func (e *Engine) advance(ctx context.Context, key string, fields map[string]string, next session.Step) error {
	if len(fields) > 0 {
		if err := e.store.Merge(ctx, key, fields); err != nil {
			return err
		}
	}
	return e.store.SetStep(ctx, key, next)
}

func handled(replies []Reply, err error) ([]Reply, string, error) {
	if err != nil {
		return nil, "", err
	}
	return replies, OutcomeHandled, nil
}

type noopMetrics struct{}

func (noopMetrics) ObserveEvent(string, string)         {}
func (noopMetrics) ObserveEventLatency(string, float64) {}
func (noopMetrics) ObserveApplication()                 {}
func (noopMetrics) ObserveListingCreated(string)        {}
