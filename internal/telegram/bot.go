// Package telegram adapts the Bot API long-polling client to the dialogue
// engine and provides the outbound senders used by notifications.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wolfman30/rental-intake-bot/internal/dialogue"
	"github.com/wolfman30/rental-intake-bot/internal/session"
	"github.com/wolfman30/rental-intake-bot/pkg/logging"
)

// botAPI is the subset of *tgbotapi.BotAPI used here.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Handler turns one event into replies.
type Handler interface {
	Handle(ctx context.Context, ev dialogue.Event) []dialogue.Reply
}

// Bot feeds updates into the handler, one ordered queue per user.
type Bot struct {
	api         botAPI
	handler     Handler
	seq         *session.Sequencer
	logger      *logging.Logger
	pollTimeout int
}

// Option configures a Bot.
type Option func(*Bot)

// WithPollTimeout sets the long-poll timeout in seconds.
func WithPollTimeout(seconds int) Option {
	return func(b *Bot) {
		if seconds > 0 {
			b.pollTimeout = seconds
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(b *Bot) {
		if l != nil {
			b.logger = l
		}
	}
}

// Connect authorizes against the Bot API.
func Connect(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	api.Debug = debug
	return api, nil
}

// New creates a Bot. handler may be nil when the Bot is only used to send.
func New(api botAPI, handler Handler, seq *session.Sequencer, opts ...Option) *Bot {
	if api == nil {
		panic("telegram: api required")
	}
	b := &Bot{
		api:         api,
		handler:     handler,
		seq:         seq,
		logger:      logging.Default(),
		pollTimeout: 60,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetHandler attaches the event handler. The engine depends on the bot as a
// sender, so the handler is usually attached after construction.
func (b *Bot) SetHandler(h Handler) {
	b.handler = h
}

// Run long-polls updates until ctx is cancelled or the update channel closes.
// Queued events keep running; call Sequencer.Wait to drain them.
func (b *Bot) Run(ctx context.Context) error {
	if b.handler == nil || b.seq == nil {
		return fmt.Errorf("telegram: handler and sequencer required to run")
	}
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(cfg)
	b.logger.Info("telegram: polling for updates", "timeout", b.pollTimeout)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	ev, ok := ToEvent(update)
	if !ok {
		b.logger.Debug("telegram: update skipped", "update_id", update.UpdateID)
		return
	}
	var callbackID string
	if update.CallbackQuery != nil {
		callbackID = update.CallbackQuery.ID
	}

	// replies for an accepted update must go out even while shutting down
	taskCtx := context.WithoutCancel(ctx)
	err := b.seq.Submit(taskCtx, ev.Key(), func(ctx context.Context) {
		if callbackID != "" {
			if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
				b.logger.Warn("telegram: answer callback failed", "error", err, "user_id", ev.UserID)
			}
		}
		for _, reply := range b.handler.Handle(ctx, ev) {
			b.send(ev, reply)
		}
	})
	if err != nil {
		b.logger.Warn("telegram: event dropped", "error", err, "user_id", ev.UserID)
	}
}

func (b *Bot) send(ev dialogue.Event, reply dialogue.Reply) {
	c := Render(ev.ChatID, reply)
	var err error
	if reply.EditMessageID != 0 {
		_, err = b.api.Request(c)
	} else {
		_, err = b.api.Send(c)
	}
	if err != nil {
		b.logger.Error("telegram: send reply failed", "error", err, "chat_id", ev.ChatID, "user_id", ev.UserID)
	}
}

// SendText posts plain text to chatID.
func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram: send to %d: %w", chatID, err)
	}
	return nil
}

// Broadcast posts an HTML message to a channel.
func (b *Bot) Broadcast(ctx context.Context, chatID int64, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, html)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: broadcast to %d: %w", chatID, err)
	}
	return nil
}
