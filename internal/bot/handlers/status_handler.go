package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const statusListLimit = 10

// NewStatusHandler returns a handler for the /status command. It reports
// the most recent task runs and signals from the run history.
func NewStatusHandler(deps HandlerDeps) bot.HandlerFunc {
	return statusHandler{deps}.Handle
}

type statusHandler struct {
	deps HandlerDeps
}

func (h statusHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "status")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Status handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	log.InfoContext(ctx, "Handling /status command", "chat_id", chatID, "user_id", update.Message.From.ID)

	runs, err := h.deps.Store.GetRecentTaskRuns(ctx, statusListLimit)
	if err != nil {
		log.ErrorContext(ctx, "Failed to fetch recent task runs", "error", err)
		h.reply(ctx, b, chatID, "Failed to fetch run history.")
		return
	}

	signals, err := h.deps.Store.GetRecentSignals(ctx, statusListLimit)
	if err != nil {
		log.ErrorContext(ctx, "Failed to fetch recent signals", "error", err)
		h.reply(ctx, b, chatID, "Failed to fetch signal history.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Recent runs:\n")
	if len(runs) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, r := range runs {
		sb.WriteString(fmt.Sprintf("  %s %s [%s] %s (%dms)\n",
			r.StartedAt.UTC().Format("01-02 15:04"), r.JobName, r.Trigger, r.Status, r.DurationMS))
	}

	sb.WriteString("\nRecent signals:\n")
	if len(signals) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, s := range signals {
		note := ""
		if s.LowVolume {
			note = " low-vol"
		}
		sb.WriteString(fmt.Sprintf("  %s %s %s%s @ %.5f\n",
			s.CreatedAt.UTC().Format("01-02 15:04"), s.Symbol, strings.ToUpper(s.Direction), note, s.Price))
	}

	h.reply(ctx, b, chatID, sb.String())
}

func (h statusHandler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to send status reply", "error", err, "chat_id", chatID)
	}
}
