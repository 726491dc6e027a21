package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/unisonobot/unisono/internal/engine"
)

// NewVerdictHandler returns the callback handler for the like and skip
// buttons under a delivered candidate message.
func NewVerdictHandler(deps HandlerDeps) bot.HandlerFunc {
	return verdictHandler{deps}.Handle
}

type verdictHandler struct {
	deps HandlerDeps
}

func (h verdictHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "verdict")

	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	answerCallback(ctx, b, log, cq)

	chatID := callbackChatID(cq)
	data := cq.Data

	var verdict engine.Verdict
	var messageID string
	switch {
	case strings.HasPrefix(data, cbLike):
		verdict = engine.VerdictLike
		messageID = strings.TrimPrefix(data, cbLike)
	case strings.HasPrefix(data, cbSkip):
		verdict = engine.VerdictSkip
		messageID = strings.TrimPrefix(data, cbSkip)
	default:
		log.WarnContext(ctx, "Verdict handler received unexpected callback data", "data", data, "chat_id", chatID)
		return
	}

	outcome, err := h.deps.Engine.Rate(ctx, chatID, messageID, verdict)
	if errors.Is(err, engine.ErrInvalidMessage) || errors.Is(err, engine.ErrInvalidUser) {
		log.WarnContext(ctx, "Verdict referenced unresolvable message or owner",
			"error", err, "chat_id", chatID, "message_id", messageID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if err != nil {
		log.ErrorContext(ctx, "Failed to record verdict", "error", err, "chat_id", chatID, "message_id", messageID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	if verdict == engine.VerdictSkip {
		sendNextCandidate(ctx, b, h.deps, log, chatID)
		return
	}

	if outcome.Matched {
		h.announceMatch(ctx, b, log, chatID, cq.From, outcome)
		return
	}

	// One-sided like: tell the owner someone liked them, and let the rater
	// reply directly or keep listening.
	sendText(ctx, b, log, outcome.OwnerChatID, h.deps.Config.Messages.OwnerLiked)
	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        h.deps.Config.Messages.RaterLiked,
		ReplyMarkup: likeFollowupKeyboard(messageID),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send like followup", "error", err, "chat_id", chatID)
	}
}

// announceMatch notifies both sides of a mutual like. The owner additionally
// gets the rater's recordings they liked earlier, replayed for recall.
func (h verdictHandler) announceMatch(ctx context.Context, b *bot.Bot, log *slog.Logger, raterChatID int64, rater models.User, outcome *engine.Outcome) {
	log.InfoContext(ctx, "Mutual like detected",
		"rater_chat_id", raterChatID, "owner_chat_id", outcome.OwnerChatID, "recordings", len(outcome.Recordings))

	sendText(ctx, b, log, raterChatID, fmt.Sprintf(h.deps.Config.Messages.Match, outcome.OwnerOrigin))
	sendText(ctx, b, log, outcome.OwnerChatID, fmt.Sprintf(h.deps.Config.Messages.Match, displayName(&rater)))

	if len(outcome.Recordings) > 0 {
		sendText(ctx, b, log, outcome.OwnerChatID, h.deps.Config.Messages.MatchRecall)
		for _, rec := range outcome.Recordings {
			_, err := b.SendVoice(ctx, &bot.SendVoiceParams{
				ChatID: outcome.OwnerChatID,
				Voice:  &models.InputFileString{Data: rec.Data},
			})
			if err != nil {
				log.ErrorContext(ctx, "Failed to replay matched recording",
					"error", err, "owner_chat_id", outcome.OwnerChatID, "message_id", rec.MessageID)
			}
		}
	}

	sendText(ctx, b, log, raterChatID, h.deps.Config.Messages.Epilogue)
	sendText(ctx, b, log, outcome.OwnerChatID, h.deps.Config.Messages.Epilogue)
}
