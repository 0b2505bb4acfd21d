package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/candlebot/candlebot/internal/database"
)

// NewRunHandler returns a handler for the /run command: exactly one
// synchronous execution of the named job, with the outcome reported back.
func NewRunHandler(deps HandlerDeps) bot.HandlerFunc {
	return runHandler{deps}.Handle
}

type runHandler struct {
	deps HandlerDeps
}

func (h runHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "run")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Run handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	fields := strings.Fields(update.Message.Text)
	if len(fields) < 2 {
		h.reply(ctx, b, chatID, "Usage: /run <job>")
		return
	}
	jobName := fields[1]

	log.InfoContext(ctx, "Handling /run command",
		"chat_id", chatID, "user_id", update.Message.From.ID, "job_name", jobName)

	h.reply(ctx, b, chatID, fmt.Sprintf("Running job %q...", jobName))

	if err := h.deps.Dispatcher.RunOnce(ctx, jobName, database.TriggerChat); err != nil {
		log.ErrorContext(ctx, "Manual job run failed", "job_name", jobName, "error", err)
		h.reply(ctx, b, chatID, fmt.Sprintf("Job %q failed: %v", jobName, err))
		return
	}

	h.reply(ctx, b, chatID, fmt.Sprintf("Job %q finished successfully.", jobName))
}

func (h runHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send run reply", "error", err, "chat_id", chatID)
	}
}
