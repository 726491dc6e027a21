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

// displayName builds the human-readable name attached to published messages
// and match notifications.
func displayName(u *models.User) string {
	if u == nil {
		return "anonymous"
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	if name == "" {
		return "anonymous"
	}
	return name
}

// callbackChatID extracts the originating chat of a callback query. For
// private chats this equals the user id, which is also how the engine keys
// its users.
func callbackChatID(cq *models.CallbackQuery) int64 {
	if cq.Message.Message != nil {
		return cq.Message.Message.Chat.ID
	}
	if cq.Message.InaccessibleMessage != nil {
		return cq.Message.InaccessibleMessage.Chat.ID
	}
	return cq.From.ID
}

// answerCallback acknowledges a callback query so the client stops showing
// the loading state.
func answerCallback(ctx context.Context, b *bot.Bot, log *slog.Logger, cq *models.CallbackQuery) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID})
	if err != nil {
		log.WarnContext(ctx, "Failed to answer callback query", "error", err, "callback_query_id", cq.ID)
	}
}

// sendText sends a plain text message and logs delivery failures.
func sendText(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}

func stagingKeyboard(messageID string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: "Publish", CallbackData: cbPublish + messageID},
			{Text: "Discard", CallbackData: cbDiscard + messageID},
		}},
	}
}

func listenKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: "Listen", CallbackData: cbNext},
		}},
	}
}

func checkAgainKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: "Check again", CallbackData: cbNext},
		}},
	}
}

func verdictKeyboard(messageID string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: "Like", CallbackData: cbLike + messageID},
			{Text: "Skip", CallbackData: cbSkip + messageID},
		}},
	}
}

func likeFollowupKeyboard(messageID string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: "Voice reply", CallbackData: cbReaction + messageID},
			{Text: "Keep listening", CallbackData: cbNext},
		}},
	}
}

// sendNextCandidate picks the next unseen published message for chatID and
// delivers it with like/skip buttons. Running out of candidates is a normal
// outcome handled with its own copy.
func sendNextCandidate(ctx context.Context, b *bot.Bot, deps HandlerDeps, log *slog.Logger, chatID int64) {
	candidate, err := deps.Engine.RequestNext(ctx, chatID)
	if errors.Is(err, engine.ErrNoCandidates) {
		_, sendErr := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        deps.Config.Messages.NoCandidates,
			ReplyMarkup: checkAgainKeyboard(),
		})
		if sendErr != nil {
			log.ErrorContext(ctx, "Failed to send no-candidates message", "error", sendErr, "chat_id", chatID)
		}
		return
	}
	if errors.Is(err, engine.ErrUnknownUser) {
		sendText(ctx, b, log, chatID, deps.Config.Messages.Welcome)
		return
	}
	if err != nil {
		log.ErrorContext(ctx, "Failed to select next candidate", "error", err, "chat_id", chatID)
		sendText(ctx, b, log, chatID, deps.Config.Messages.GeneralError)
		return
	}

	_, err = b.SendVoice(ctx, &bot.SendVoiceParams{
		ChatID:      chatID,
		Voice:       &models.InputFileString{Data: candidate.Data},
		ReplyMarkup: verdictKeyboard(candidate.MessageID),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send candidate voice message",
			"error", err, "chat_id", chatID, "message_id", candidate.MessageID)
		sendText(ctx, b, log, chatID, deps.Config.Messages.GeneralError)
	}
}
