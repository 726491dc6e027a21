package engine

import "sync"

// ReactionSessions tracks, per chat, the pending "reaction target": the liked
// message a user has chosen to reply to directly. The state machine per user
// is small: idle (no target), awaiting recording (target set), and back to
// idle once the reaction is delivered or dropped.
//
// Targets are transient session state, not persisted: there is no timeout,
// and an abandoned flow simply leaves the target in place until it is
// consumed or overwritten by choosing a new one.
type ReactionSessions struct {
	mu      sync.Mutex
	pending map[int64]string
}

// NewReactionSessions creates an empty session table.
func NewReactionSessions() *ReactionSessions {
	return &ReactionSessions{pending: make(map[int64]string)}
}

// Set records likedMessageID as the pending reaction target for chatID,
// overwriting any previous target.
func (s *ReactionSessions) Set(chatID int64, likedMessageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[chatID] = likedMessageID
}

// Get returns the pending reaction target for chatID, if any.
func (s *ReactionSessions) Get(chatID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.pending[chatID]
	return id, ok
}

// Clear removes the pending reaction target for chatID.
func (s *ReactionSessions) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, chatID)
}
