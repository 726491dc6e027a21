package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const resetTimeout = 30 * time.Second

// NewResetRatingsHandler returns a handler for the /reset_ratings command,
// which wipes the rating ledger. Dev mode only.
func NewResetRatingsHandler(deps HandlerDeps) bot.HandlerFunc {
	h := resetHandler{deps: deps, name: "reset_ratings"}
	h.reset = deps.Engine.ResetRatings
	return h.Handle
}

// NewResetAllHandler returns a handler for the /reset_all command, which
// wipes users, messages, and ratings. Dev mode only.
func NewResetAllHandler(deps HandlerDeps) bot.HandlerFunc {
	h := resetHandler{deps: deps, name: "reset_all"}
	h.reset = deps.Engine.ResetAll
	return h.Handle
}

type resetHandler struct {
	deps  HandlerDeps
	name  string
	reset func(ctx context.Context) error
}

func (h resetHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", h.name)

	if update.Message == nil || update.Message.From == nil {
		log.ErrorContext(ctx, "Reset handler called with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Admin requested data reset", "chat_id", chatID, "command", h.name)

	timeoutCtx, cancel := context.WithTimeout(ctx, resetTimeout)
	defer cancel()

	if err := h.reset(timeoutCtx); err != nil {
		log.ErrorContext(ctx, "Failed to reset data", "error", err, "chat_id", chatID, "command", h.name)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	h.confirm(ctx, b, log, chatID)
}

func (h resetHandler) confirm(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64) {
	log.InfoContext(ctx, "Reset completed", "chat_id", chatID, "command", h.name)
	sendText(ctx, b, log, chatID, h.deps.Config.Messages.ResetDone)
}
