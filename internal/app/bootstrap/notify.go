package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/rental-intake-bot/internal/config"
	"github.com/wolfman30/rental-intake-bot/internal/notify"
	"github.com/wolfman30/rental-intake-bot/pkg/logging"
)

// SESClientFactory builds an SES client on demand so AWS configuration is only
// loaded when the SES provider is selected.
type SESClientFactory func(ctx context.Context) (*sesv2.Client, error)

// BuildEmailSender returns the email sender for application copies, or nil
// when NOTIFY_EMAIL is not configured.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, ses SESClientFactory, logger *logging.Logger) (notify.EmailSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if cfg.NotifyEmail == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.EmailProvider {
	case appconfig.EmailProviderSES:
		if ses == nil {
			return nil, fmt.Errorf("bootstrap: ses provider selected without a client factory")
		}
		client, err := ses(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: build ses client: %w", err)
		}
		logger.Info("email notifications via SES", "to", cfg.NotifyEmail, "region", cfg.AWSRegion)
		return notify.NewSESSender(client, notify.SESConfig{
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger), nil
	case appconfig.EmailProviderSendGrid, "":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			logger.Warn("SENDGRID_API_KEY missing; email notifications are logged only")
			return notify.NewStubEmailSender(logger), nil
		}
		logger.Info("email notifications via SendGrid", "to", cfg.NotifyEmail)
		return sender, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown email provider %q", cfg.EmailProvider)
	}
}

// BuildDispatcher assembles the recipient list and the notification dispatcher.
func BuildDispatcher(cfg *appconfig.Config, chat notify.TextSender, email notify.EmailSender, opts []notify.DispatcherOption, logger *logging.Logger) (*notify.Dispatcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if chat == nil {
		return nil, fmt.Errorf("bootstrap: chat sender is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	recipients := notify.NewRecipients(chat, notify.RecipientsConfig{
		AdminChatID: cfg.AdminUserID,
		WorkChatID:  cfg.WorkChatID,
		EmailTo:     cfg.NotifyEmail,
		Email:       email,
	})
	opts = append([]notify.DispatcherOption{notify.WithDeliveryTimeout(cfg.NotifyTimeout)}, opts...)
	dispatcher := notify.NewDispatcher(recipients, logger, opts...)
	logger.Info("notification recipients configured", "recipients", dispatcher.Recipients())
	return dispatcher, nil
}
