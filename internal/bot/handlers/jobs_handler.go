package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewJobsHandler returns a handler for the /jobs command. It lists the
// configured jobs with their literal schedules and computed next runs.
func NewJobsHandler(deps HandlerDeps) bot.HandlerFunc {
	return jobsHandler{deps}.Handle
}

type jobsHandler struct {
	deps HandlerDeps
}

func (h jobsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "jobs")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Jobs handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	log.InfoContext(ctx, "Handling /jobs command", "chat_id", chatID, "user_id", update.Message.From.ID)

	jobs := h.deps.Dispatcher.Jobs()
	if len(jobs) == 0 {
		h.reply(ctx, b, chatID, "No jobs configured.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Configured jobs:\n")
	for _, j := range jobs {
		state := "enabled"
		if !j.Enabled {
			state = "disabled"
		}
		sb.WriteString(fmt.Sprintf("  %s (%s, %s): \"%s\"", j.Name, j.Kind, state, j.Schedule))
		if !j.NextRun.IsZero() {
			sb.WriteString(fmt.Sprintf(", next run %s", j.NextRun.UTC().Format("01-02 15:04:05 MST")))
		}
		sb.WriteString("\n")
	}

	h.reply(ctx, b, chatID, sb.String())
}

func (h jobsHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send jobs reply", "error", err, "chat_id", chatID)
	}
}
