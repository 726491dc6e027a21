package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler processes the /start command using injected dependencies.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID, "user_id", update.Message.From.ID)

	if err := h.deps.Engine.RegisterUser(ctx, chatID); err != nil {
		log.ErrorContext(ctx, "Failed to register user", "error", err, "chat_id", chatID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendText(ctx, b, log, chatID, h.deps.Config.Messages.Welcome)

	if voice := h.deps.Config.Messages.WelcomeVoice; voice != "" {
		_, err := b.SendVoice(ctx, &bot.SendVoiceParams{
			ChatID: chatID,
			Voice:  &models.InputFileString{Data: voice},
		})
		if err != nil {
			log.ErrorContext(ctx, "Failed to send welcome voice note", "error", err, "chat_id", chatID)
		}
	}

	sendText(ctx, b, log, chatID, h.deps.Config.Messages.PromptIntro+"\n\n"+h.deps.Prompts.Random())
}
