package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/unisonobot/unisono/internal/database"
)

// Verdict is a user's reaction to a presented message.
type Verdict int

// Verdict values map onto the stored rating values.
const (
	VerdictLike Verdict = database.RatingLike
	VerdictSkip Verdict = database.RatingSkip
)

// Outcome describes the result of rating a message.
//
// On a match, Recordings holds every message owned by the rater that the
// owner had previously liked; the transport re-delivers those to the owner
// ("hear their voice again") while the rater has just heard the owner's
// message, completing the symmetric exchange. A match may involve a message
// that has since been superseded: ratings key on immutable message ids, not
// on "current" status, and that is intentional.
type Outcome struct {
	Verdict     Verdict
	Matched     bool
	OwnerChatID int64
	OwnerOrigin string
	Recordings  []database.Message
}

// MatchResolver records verdicts and detects reciprocity.
type MatchResolver struct {
	store  database.Store
	ledger *RatingLedger
	logger *slog.Logger
}

// NewMatchResolver creates a resolver using the given ledger for rating
// bookkeeping.
func NewMatchResolver(store database.Store, ledger *RatingLedger, logger *slog.Logger) *MatchResolver {
	return &MatchResolver{
		store:  store,
		ledger: ledger,
		logger: logger.With("component", "match_resolver"),
	}
}

// Like records a positive rating from raterID about messageID and checks for
// a mutual like with the message owner. The rating insert commits before the
// mutual-like read, so two users racing to like each other observe a
// consistent rating table and at least one of them reports the match.
func (r *MatchResolver) Like(ctx context.Context, raterID int64, messageID string) (*Outcome, error) {
	msg, err := r.store.FindMessage(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rated message: %w", err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: message %s", ErrInvalidMessage, messageID)
	}

	owner, err := r.store.GetUser(ctx, msg.ChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve message owner: %w", err)
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: chat %d owning message %s", ErrInvalidUser, msg.ChatID, messageID)
	}

	if err := r.ledger.Record(ctx, raterID, msg, database.RatingLike); err != nil {
		return nil, err
	}

	mutual, recordings, err := r.ledger.MutualLike(ctx, raterID, owner.ChatID)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Verdict:     VerdictLike,
		Matched:     mutual,
		OwnerChatID: owner.ChatID,
		OwnerOrigin: msg.Origin,
	}
	if mutual {
		outcome.Recordings = recordings
		r.logger.InfoContext(ctx, "Mutual like detected",
			"rater_id", raterID, "owner_id", owner.ChatID, "recordings", len(recordings))
	} else {
		r.logger.DebugContext(ctx, "Like recorded, no match yet",
			"rater_id", raterID, "owner_id", owner.ChatID, "message_id", messageID)
	}
	return outcome, nil
}

// Skip records a negative rating from raterID about messageID. Skips never
// trigger match logic, regardless of reciprocal state.
func (r *MatchResolver) Skip(ctx context.Context, raterID int64, messageID string) (*Outcome, error) {
	msg, err := r.store.FindMessage(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rated message: %w", err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: message %s", ErrInvalidMessage, messageID)
	}

	if err := r.ledger.Record(ctx, raterID, msg, database.RatingSkip); err != nil {
		return nil, err
	}

	return &Outcome{
		Verdict:     VerdictSkip,
		OwnerChatID: msg.ChatID,
		OwnerOrigin: msg.Origin,
	}, nil
}
