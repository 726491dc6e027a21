package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/unisonobot/unisono/internal/engine"
)

// NewInboxHandler returns the default handler for updates no command or
// callback matched. It receives every voice message: either a new
// introduction to stage, or a direct reply when the sender has a pending
// reaction target. Plain text gets a nudge to record instead.
func NewInboxHandler(deps HandlerDeps) bot.HandlerFunc {
	return inboxHandler{deps}.Handle
}

type inboxHandler struct {
	deps HandlerDeps
}

func (h inboxHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "inbox")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	if update.Message.Chat.Type != models.ChatTypePrivate {
		return
	}

	chatID := update.Message.Chat.ID

	if update.Message.Voice != nil {
		if _, pending := h.deps.Engine.PendingReaction(chatID); pending {
			h.handleReactionVoice(ctx, b, log, update)
			return
		}
		h.handleIntroductionVoice(ctx, b, log, update)
		return
	}

	if update.Message.Text != "" {
		log.DebugContext(ctx, "Received plain text, nudging toward voice", "chat_id", chatID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.TextTeaser)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.PromptIntro+"\n\n"+h.deps.Prompts.Random())
	}
}

// handleIntroductionVoice stages a new voice message and offers publish or
// discard buttons.
func (h inboxHandler) handleIntroductionVoice(ctx context.Context, b *bot.Bot, log *slog.Logger, update *models.Update) {
	chatID := update.Message.Chat.ID
	voice := update.Message.Voice
	duration := time.Duration(voice.Duration) * time.Second

	msg, err := h.deps.Engine.SubmitVoice(ctx, chatID, voice.FileID, displayName(update.Message.From), duration)
	if errors.Is(err, engine.ErrVoiceTooShort) {
		log.InfoContext(ctx, "Voice message below minimum duration", "chat_id", chatID, "duration", duration)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.VoiceTooShort)
		return
	}
	if err != nil {
		log.ErrorContext(ctx, "Failed to stage voice message", "error", err, "chat_id", chatID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        h.deps.Config.Messages.Staged,
		ReplyMarkup: stagingKeyboard(msg.MessageID),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send staging confirmation", "error", err, "chat_id", chatID)
	}
}

// handleReactionVoice consumes the pending reaction target and forwards the
// recording straight to the liked message's owner.
func (h inboxHandler) handleReactionVoice(ctx context.Context, b *bot.Bot, log *slog.Logger, update *models.Update) {
	chatID := update.Message.Chat.ID
	voice := update.Message.Voice

	delivery, err := h.deps.Engine.SubmitReaction(ctx, chatID, voice.FileID, displayName(update.Message.From))
	if err != nil {
		log.ErrorContext(ctx, "Failed to submit reaction", "error", err, "chat_id", chatID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if !delivery.Delivered {
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendText(ctx, b, log, delivery.OwnerChatID, h.deps.Config.Messages.ReactionIncoming)
	_, err = b.SendVoice(ctx, &bot.SendVoiceParams{
		ChatID: delivery.OwnerChatID,
		Voice:  &models.InputFileString{Data: delivery.Message.Data},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to forward reaction voice",
			"error", err, "owner_chat_id", delivery.OwnerChatID, "chat_id", chatID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendText(ctx, b, log, chatID, h.deps.Config.Messages.ReactionDelivered)
}
