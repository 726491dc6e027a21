// Package engine implements the matching and message-distribution core:
// recording ratings, detecting mutual likes, selecting the next candidate
// message for a user, and routing direct reaction threads.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/unisonobot/unisono/internal/database"
)

// Engine is the facade the transport layer talks to. Inbound events arrive
// serialized per chat; different chats may be processed concurrently, which
// the store supports with a single-writer connection.
type Engine struct {
	store            database.Store
	logger           *slog.Logger
	ledger           *RatingLedger
	selector         *Selector
	resolver         *MatchResolver
	sessions         *ReactionSessions
	minVoiceDuration time.Duration
}

// ReactionDelivery is the result of submitting a reaction recording.
// Delivered is false when the referenced liked message no longer resolves;
// that case is dropped silently (logged) because it is a presentation-layer
// edge with no data at risk.
type ReactionDelivery struct {
	Delivered   bool
	OwnerChatID int64
	Message     *database.Message
}

// New creates the engine with all core components wired to the given store.
func New(store database.Store, logger *slog.Logger, minVoiceDuration time.Duration) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	ledger := NewRatingLedger(store, logger)
	return &Engine{
		store:            store,
		logger:           logger.With("component", "engine"),
		ledger:           ledger,
		selector:         NewSelector(store, logger),
		resolver:         NewMatchResolver(store, ledger, logger),
		sessions:         NewReactionSessions(),
		minVoiceDuration: minVoiceDuration,
	}
}

// SubmitVoice stages a new voice message for chatID. Recordings shorter than
// the configured minimum yield ErrVoiceTooShort and create no row. The
// staged message is unpublished until the owner confirms it.
func (e *Engine) SubmitVoice(ctx context.Context, chatID int64, payloadRef, origin string, duration time.Duration) (*database.Message, error) {
	if duration < e.minVoiceDuration {
		e.logger.DebugContext(ctx, "Voice submission below minimum duration",
			"chat_id", chatID, "duration", duration, "minimum", e.minVoiceDuration)
		return nil, fmt.Errorf("%w: %s below minimum %s", ErrVoiceTooShort, duration, e.minVoiceDuration)
	}

	if err := e.store.UpsertUser(ctx, chatID); err != nil {
		return nil, fmt.Errorf("failed to upsert submitting user: %w", err)
	}

	msg := &database.Message{
		MessageID: uuid.New().String(),
		ChatID:    chatID,
		Data:      payloadRef,
		Topic:     database.TopicGeneral,
		Origin:    origin,
		Published: false,
		Timestamp: time.Now().UTC(),
	}
	if err := e.store.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "Voice message staged", "chat_id", chatID, "message_id", msg.MessageID)
	return msg, nil
}

// ConfirmPublish makes a staged message visible to candidate selection.
// Publishing a second message to the same topic supersedes the earlier one
// as that topic's representative; the old row is kept.
func (e *Engine) ConfirmPublish(ctx context.Context, messageID string, chatID int64) error {
	updated, err := e.store.SetMessagePublished(ctx, messageID, chatID, true)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("%w: message %s for chat %d", ErrInvalidMessage, messageID, chatID)
	}

	e.logger.InfoContext(ctx, "Message published", "chat_id", chatID, "message_id", messageID)
	return nil
}

// Discard removes a staged, never-published message.
func (e *Engine) Discard(ctx context.Context, messageID string, chatID int64) error {
	deleted, err := e.store.DeleteStagedMessage(ctx, messageID, chatID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: staged message %s for chat %d", ErrInvalidMessage, messageID, chatID)
	}

	e.logger.InfoContext(ctx, "Staged message discarded", "chat_id", chatID, "message_id", messageID)
	return nil
}

// RequestNext returns the next candidate message for chatID.
// See Selector.Next for the eligibility rules.
func (e *Engine) RequestNext(ctx context.Context, chatID int64) (*database.Message, error) {
	return e.selector.Next(ctx, chatID)
}

// Rate records a verdict from chatID about messageID. Likes check for a
// mutual like; skips never do.
func (e *Engine) Rate(ctx context.Context, chatID int64, messageID string, verdict Verdict) (*Outcome, error) {
	switch verdict {
	case VerdictLike:
		return e.resolver.Like(ctx, chatID, messageID)
	case VerdictSkip:
		return e.resolver.Skip(ctx, chatID, messageID)
	default:
		return nil, fmt.Errorf("unsupported verdict %d", verdict)
	}
}

// StartReaction marks likedMessageID as chatID's pending reaction target:
// the user's next voice submission becomes a direct, private reply to the
// liked message's owner instead of entering the discovery flow.
func (e *Engine) StartReaction(ctx context.Context, chatID int64, likedMessageID string) error {
	msg, err := e.store.FindMessage(ctx, likedMessageID)
	if err != nil {
		return fmt.Errorf("failed to resolve reaction target: %w", err)
	}
	if msg == nil {
		return fmt.Errorf("%w: message %s", ErrInvalidMessage, likedMessageID)
	}

	e.sessions.Set(chatID, likedMessageID)
	e.logger.InfoContext(ctx, "Reaction target set", "chat_id", chatID, "liked_message_id", likedMessageID)
	return nil
}

// PendingReaction reports whether chatID has a pending reaction target.
func (e *Engine) PendingReaction(chatID int64) (string, bool) {
	return e.sessions.Get(chatID)
}

// SubmitReaction consumes chatID's pending reaction target and records the
// reply: a message whose topic is the liked message's id, never published,
// bypassing candidate selection entirely. The caller delivers the returned
// message directly to the owner. A stale target (liked message no longer
// resolving) is dropped silently and the session returns to idle either way.
func (e *Engine) SubmitReaction(ctx context.Context, chatID int64, payloadRef, origin string) (*ReactionDelivery, error) {
	target, ok := e.sessions.Get(chatID)
	if !ok {
		return nil, fmt.Errorf("%w: no pending reaction target for chat %d", ErrInvalidMessage, chatID)
	}
	e.sessions.Clear(chatID)

	liked, err := e.store.FindMessage(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve liked message: %w", err)
	}
	if liked == nil {
		e.logger.WarnContext(ctx, "Dropping reaction: liked message no longer resolves",
			"chat_id", chatID, "liked_message_id", target)
		return &ReactionDelivery{Delivered: false}, nil
	}

	if err := e.store.UpsertUser(ctx, chatID); err != nil {
		return nil, fmt.Errorf("failed to upsert reacting user: %w", err)
	}

	msg := &database.Message{
		MessageID: uuid.New().String(),
		ChatID:    chatID,
		Data:      payloadRef,
		Topic:     liked.MessageID,
		Origin:    origin,
		Published: false,
		Timestamp: time.Now().UTC(),
	}
	if err := e.store.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "Reaction recorded for direct delivery",
		"chat_id", chatID, "owner_chat_id", liked.ChatID, "liked_message_id", liked.MessageID)
	return &ReactionDelivery{
		Delivered:   true,
		OwnerChatID: liked.ChatID,
		Message:     msg,
	}, nil
}

// RegisterUser creates a user row for chatID if none exists.
func (e *Engine) RegisterUser(ctx context.Context, chatID int64) error {
	return e.store.UpsertUser(ctx, chatID)
}

// GetStats returns user, message, and rating counts.
func (e *Engine) GetStats(ctx context.Context) (*database.Stats, error) {
	return e.store.GetStats(ctx)
}

// ResetRatings deletes all ratings. Dev-mode only; gated by the caller.
func (e *Engine) ResetRatings(ctx context.Context) error {
	return e.store.DeleteAllRatings(ctx)
}

// ResetAll deletes users, messages, and ratings. Dev-mode only; gated by the caller.
func (e *Engine) ResetAll(ctx context.Context) error {
	return e.store.DeleteAllData(ctx)
}
