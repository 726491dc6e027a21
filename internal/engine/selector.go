package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/unisonobot/unisono/internal/database"
)

// Selector picks the next message to present to a requesting user. Selection
// is uniformly random over the eligible set: no weighting, no recency bias.
// Randomness avoids popularity bias without any ranking infrastructure.
type Selector struct {
	store  database.Store
	logger *slog.Logger
}

// NewSelector creates a candidate selector backed by the given store.
func NewSelector(store database.Store, logger *slog.Logger) *Selector {
	return &Selector{
		store:  store,
		logger: logger.With("component", "candidate_selector"),
	}
}

// Next returns a message chatID has not rated yet, chosen uniformly at
// random among the latest published message per (owner, topic) for every
// other owner. Returns ErrUnknownUser if chatID has no user row and
// ErrNoCandidates when everything on offer has already been seen.
//
// Every invocation re-reads current state; there is no caching layer, so
// concurrent publishes elsewhere are immediately visible.
func (s *Selector) Next(ctx context.Context, chatID int64) (*database.Message, error) {
	user, err := s.store.GetUser(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve requesting user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: chat %d", ErrUnknownUser, chatID)
	}

	candidates, err := s.store.LatestPublishedPerTopic(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate set: %w", err)
	}

	ratedIDs, err := s.store.RatedMessageIDs(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rated message ids: %w", err)
	}
	rated := make(map[string]bool, len(ratedIDs))
	for _, id := range ratedIDs {
		rated[id] = true
	}

	// A user is never shown the same message twice, regardless of verdict.
	eligible := candidates[:0]
	for _, c := range candidates {
		if !rated[c.MessageID] {
			eligible = append(eligible, c)
		}
	}

	if len(eligible) == 0 {
		s.logger.DebugContext(ctx, "No unseen candidates", "chat_id", chatID, "rated_count", len(ratedIDs))
		return nil, fmt.Errorf("%w: chat %d", ErrNoCandidates, chatID)
	}

	pick := eligible[rand.IntN(len(eligible))]
	s.logger.DebugContext(ctx, "Selected next candidate",
		"chat_id", chatID, "message_id", pick.MessageID, "eligible_count", len(eligible))
	return &pick, nil
}
