// internal/notify/telegram.go
package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// DefaultTelegramTimeout bounds one alert delivery
const DefaultTelegramTimeout = 10 * time.Second

// Sender is the part of the bot API used to deliver messages
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramConfig configures the Telegram notifier
type TelegramConfig struct {
	Token    string
	ChatID   int64
	Timeout  time.Duration
	Endpoint string // bot API endpoint format, tgbotapi.APIEndpoint when empty
}

// Telegram posts alerts into a single chat
type Telegram struct {
	sender  Sender
	chatID  int64
	timeout time.Duration
	logger  *zap.Logger
}

// NewTelegram connects to the bot API. Every API call, including the initial
// getMe, is bounded by cfg.Timeout.
func NewTelegram(cfg TelegramConfig, logger *zap.Logger) (*Telegram, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram bot token not set")
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram chat id not set")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTelegramTimeout
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = tgbotapi.APIEndpoint
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, cfg.Endpoint, &http.Client{Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("🤖 Telegram notifier initialized", zap.String("username", api.Self.UserName))
	return NewTelegramWithSender(api, cfg.ChatID, cfg.Timeout, logger), nil
}

// NewTelegramWithSender builds a notifier over an existing sender
func NewTelegramWithSender(sender Sender, chatID int64, timeout time.Duration, logger *zap.Logger) *Telegram {
	if timeout <= 0 {
		timeout = DefaultTelegramTimeout
	}
	return &Telegram{
		sender:  sender,
		chatID:  chatID,
		timeout: timeout,
		logger:  logger.Named("telegram"),
	}
}

// Notify implements Notifier. It returns once the message is sent, the
// timeout elapses or ctx is done, whichever comes first.
func (t *Telegram) Notify(ctx context.Context, alert Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, Format(alert))
	msg.DisableWebPagePreview = true

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	// Send takes no context; a call still running after the deadline
	// finishes in the background, bounded by the client timeout.
	done := make(chan error, 1)
	go func() {
		_, err := t.sender.Send(msg)
		done <- err
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		t.logger.Warn("Failed to send alert",
			zap.String("kind", string(alert.Kind)),
			zap.String("address", alert.Address),
			zap.Error(err))
		return fmt.Errorf("send telegram message: %w", err)
	}

	t.logger.Debug("Alert sent", zap.String("kind", string(alert.Kind)), zap.String("address", alert.Address))
	return nil
}
