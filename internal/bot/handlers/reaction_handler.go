package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/unisonobot/unisono/internal/engine"
)

// NewReactionStartHandler returns the callback handler for the "voice reply"
// button. It arms a reaction session so the sender's next voice message goes
// directly to the liked message's owner.
func NewReactionStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return reactionStartHandler{deps}.Handle
}

type reactionStartHandler struct {
	deps HandlerDeps
}

func (h reactionStartHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "reaction_start")

	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	answerCallback(ctx, b, log, cq)

	chatID := callbackChatID(cq)
	likedMessageID := strings.TrimPrefix(cq.Data, cbReaction)

	err := h.deps.Engine.StartReaction(ctx, chatID, likedMessageID)
	if errors.Is(err, engine.ErrInvalidMessage) {
		log.WarnContext(ctx, "Reaction requested for unresolvable message",
			"chat_id", chatID, "liked_message_id", likedMessageID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if err != nil {
		log.ErrorContext(ctx, "Failed to start reaction session",
			"error", err, "chat_id", chatID, "liked_message_id", likedMessageID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendText(ctx, b, log, chatID, h.deps.Config.Messages.ReactionPrompt)
}
