package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// Notifier delivers Markdown messages to the configured destination chat.
// It is the delivery half of the Telegram surface: tasks send signal
// reports and digests through it without knowing about the command bot.
type Notifier struct {
	bot    *bot.Bot
	chatID string
	logger *slog.Logger
}

// NewNotifier creates a notifier bound to one destination chat. The chat ID
// is passed through as supplied (numeric ID or @channelname).
func NewNotifier(b *bot.Bot, chatID string, logger *slog.Logger) (*Notifier, error) {
	if b == nil {
		return nil, fmt.Errorf("bot instance cannot be nil")
	}
	if chatID == "" {
		return nil, fmt.Errorf("destination chat ID cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		bot:    b,
		chatID: chatID,
		logger: logger.With("component", "notifier"),
	}, nil
}

// SendMarkdown sends one Markdown-formatted message to the destination chat.
func (n *Notifier) SendMarkdown(ctx context.Context, text string) error {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeMarkdown,
	})
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to send message", "chat_id", n.chatID, "error", err)
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	n.logger.DebugContext(ctx, "Message delivered", "chat_id", n.chatID, "length", len(text))
	return nil
}
