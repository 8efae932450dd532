// Package notify delivers prediction summaries to chat.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sender is the part of the bot API used for delivery
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends plain-text messages to one chat
type Telegram struct {
	sender Sender
	chatID int64
	logger zerolog.Logger
}

// NewTelegram creates a notifier over an authorized bot
func NewTelegram(sender Sender, chatID int64) *Telegram {
	return &Telegram{
		sender: sender,
		chatID: chatID,
		logger: log.With().Str("component", "telegram_notifier").Logger(),
	}
}

// Dial authorizes token and returns a notifier for chatID
func Dial(token string, chatID int64) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat id is not set")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorizing telegram bot: %w", err)
	}
	return NewTelegram(bot, chatID), nil
}

// Send delivers text to the configured chat
func (t *Telegram) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.sender.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	t.logger.Debug().Int64("chat_id", t.chatID).Msg("Notification sent")
	return nil
}
