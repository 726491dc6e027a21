package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/unisonobot/unisono/internal/database"
)

// RatingLedger records directional rating events and derives mutual-like
// state from them. It owns no state of its own; everything is read from and
// written to the store.
type RatingLedger struct {
	store  database.Store
	logger *slog.Logger
}

// NewRatingLedger creates a ledger backed by the given store.
func NewRatingLedger(store database.Store, logger *slog.Logger) *RatingLedger {
	return &RatingLedger{
		store:  store,
		logger: logger.With("component", "rating_ledger"),
	}
}

// Record appends a rating from fromID about msg. The message owner becomes
// the rating's to_id. Repeated ratings of the same message by the same user
// are all stored; they count as additional votes, not errors.
func (l *RatingLedger) Record(ctx context.Context, fromID int64, msg *database.Message, value int) error {
	owner, err := l.store.GetUser(ctx, msg.ChatID)
	if err != nil {
		return fmt.Errorf("failed to resolve message owner: %w", err)
	}
	if owner == nil {
		l.logger.WarnContext(ctx, "Rating rejected: message owner unknown",
			"from_id", fromID, "message_id", msg.MessageID, "owner_chat_id", msg.ChatID)
		return fmt.Errorf("%w: owner %d of message %s", ErrInvalidReference, msg.ChatID, msg.MessageID)
	}

	rating := &database.Rating{
		FromID:    fromID,
		ToID:      owner.ChatID,
		MessageID: msg.MessageID,
		Rating:    value,
	}
	if err := l.store.InsertRating(ctx, rating); err != nil {
		return fmt.Errorf("failed to record rating: %w", err)
	}

	l.logger.DebugContext(ctx, "Rating recorded",
		"from_id", fromID, "to_id", owner.ChatID, "message_id", msg.MessageID, "rating", value)
	return nil
}

// MutualLike reports whether ownerID has already recorded a positive rating
// toward raterID, and if so returns every message those ratings reference.
// The referenced messages are owned by the rater; on a match they are
// re-delivered to the owner so both sides end up with each other's
// recordings. All liked messages are returned, not just the first found.
func (l *RatingLedger) MutualLike(ctx context.Context, raterID, ownerID int64) (bool, []database.Message, error) {
	ratings, err := l.store.PositiveRatings(ctx, ownerID, raterID)
	if err != nil {
		return false, nil, fmt.Errorf("failed to check mutual like: %w", err)
	}
	if len(ratings) == 0 {
		return false, nil, nil
	}

	seen := make(map[string]bool, len(ratings))
	recordings := make([]database.Message, 0, len(ratings))
	for _, r := range ratings {
		if seen[r.MessageID] {
			continue
		}
		seen[r.MessageID] = true

		msg, err := l.store.FindMessage(ctx, r.MessageID)
		if err != nil {
			return false, nil, fmt.Errorf("failed to resolve liked message %s: %w", r.MessageID, err)
		}
		if msg == nil {
			// Ratings are append-only and messages are never deleted in the
			// normal flow, so this only happens after a partial admin reset.
			l.logger.WarnContext(ctx, "Positive rating references missing message, skipping",
				"message_id", r.MessageID, "from_id", r.FromID)
			continue
		}
		recordings = append(recordings, *msg)
	}

	return true, recordings, nil
}
