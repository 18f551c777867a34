package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Recipient is one destination for a compiled application.
type Recipient interface {
	Name() string
	Deliver(ctx context.Context, app Application) error
}

// TextSender posts plain text into a chat on the messaging channel.
type TextSender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// ChatRecipient delivers applications as chat messages.
type ChatRecipient struct {
	name   string
	chatID int64
	sender TextSender
}

// NewChatRecipient creates a chat recipient.
func NewChatRecipient(name string, chatID int64, sender TextSender) *ChatRecipient {
	if sender == nil {
		panic("notify: text sender required")
	}
	if strings.TrimSpace(name) == "" {
		name = "chat:" + strconv.FormatInt(chatID, 10)
	}
	return &ChatRecipient{name: name, chatID: chatID, sender: sender}
}

// Name implements Recipient.
func (r *ChatRecipient) Name() string { return r.name }

// Deliver implements Recipient.
func (r *ChatRecipient) Deliver(ctx context.Context, app Application) error {
	if err := r.sender.SendText(ctx, r.chatID, app.Text()); err != nil {
		return fmt.Errorf("notify: send to chat %d: %w", r.chatID, err)
	}
	return nil
}

// EmailRecipient delivers applications by email.
type EmailRecipient struct {
	to     string
	sender EmailSender
}

// NewEmailRecipient creates an email recipient.
func NewEmailRecipient(to string, sender EmailSender) *EmailRecipient {
	if sender == nil {
		panic("notify: email sender required")
	}
	return &EmailRecipient{to: strings.TrimSpace(to), sender: sender}
}

// Name implements Recipient.
func (r *EmailRecipient) Name() string { return "email" }

// Deliver implements Recipient.
func (r *EmailRecipient) Deliver(ctx context.Context, app Application) error {
	return r.sender.Send(ctx, EmailMessage{
		To:      r.to,
		Subject: app.Subject(),
		Body:    app.Text(),
	})
}

// RecipientsConfig describes the static recipient list.
type RecipientsConfig struct {
	AdminChatID int64
	// WorkChatID is optional; 0 leaves it out.
	WorkChatID int64
	// EmailTo is optional; it is used only when Email is set as well.
	EmailTo string
	Email   EmailSender
}

// NewRecipients builds the recipient list: the administrator first, then the
// work chat and email when configured.
func NewRecipients(sender TextSender, cfg RecipientsConfig) []Recipient {
	recipients := []Recipient{NewChatRecipient("admin", cfg.AdminChatID, sender)}
	if cfg.WorkChatID != 0 && cfg.WorkChatID != cfg.AdminChatID {
		recipients = append(recipients, NewChatRecipient("work_chat", cfg.WorkChatID, sender))
	}
	if cfg.Email != nil && strings.TrimSpace(cfg.EmailTo) != "" {
		recipients = append(recipients, NewEmailRecipient(cfg.EmailTo, cfg.Email))
	}
	return recipients
}
