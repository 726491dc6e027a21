package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewNextHandler returns the callback handler for the "listen" button, which
// requests the next unheard published message.
func NewNextHandler(deps HandlerDeps) bot.HandlerFunc {
	return nextHandler{deps}.Handle
}

type nextHandler struct {
	deps HandlerDeps
}

func (h nextHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "next")

	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	answerCallback(ctx, b, log, cq)

	chatID := callbackChatID(cq)
	log.DebugContext(ctx, "Next candidate requested", "chat_id", chatID)
	sendNextCandidate(ctx, b, h.deps, log, chatID)
}
