package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/unisonobot/unisono/internal/engine"
)

// NewStagingHandler returns the callback handler for the publish and discard
// buttons attached to a freshly staged voice message.
func NewStagingHandler(deps HandlerDeps) bot.HandlerFunc {
	return stagingHandler{deps}.Handle
}

type stagingHandler struct {
	deps HandlerDeps
}

func (h stagingHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "staging")

	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	answerCallback(ctx, b, log, cq)

	chatID := callbackChatID(cq)
	data := cq.Data

	switch {
	case strings.HasPrefix(data, cbPublish):
		h.publish(ctx, b, log, chatID, strings.TrimPrefix(data, cbPublish))
	case strings.HasPrefix(data, cbDiscard):
		h.discard(ctx, b, log, chatID, strings.TrimPrefix(data, cbDiscard))
	default:
		log.WarnContext(ctx, "Staging handler received unexpected callback data", "data", data, "chat_id", chatID)
	}
}

func (h stagingHandler) publish(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, messageID string) {
	err := h.deps.Engine.ConfirmPublish(ctx, messageID, chatID)
	if errors.Is(err, engine.ErrInvalidMessage) {
		log.WarnContext(ctx, "Publish requested for unknown staged message", "chat_id", chatID, "message_id", messageID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if err != nil {
		log.ErrorContext(ctx, "Failed to publish message", "error", err, "chat_id", chatID, "message_id", messageID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendText(ctx, b, log, chatID, h.deps.Config.Messages.Published)
	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        h.deps.Config.Messages.StartListening,
		ReplyMarkup: listenKeyboard(),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send listening invitation", "error", err, "chat_id", chatID)
	}
}

func (h stagingHandler) discard(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, messageID string) {
	err := h.deps.Engine.Discard(ctx, messageID, chatID)
	if errors.Is(err, engine.ErrInvalidMessage) {
		log.WarnContext(ctx, "Discard requested for unknown staged message", "chat_id", chatID, "message_id", messageID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if err != nil {
		log.ErrorContext(ctx, "Failed to discard message", "error", err, "chat_id", chatID, "message_id", messageID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendText(ctx, b, log, chatID, h.deps.Config.Messages.Discarded)
}
