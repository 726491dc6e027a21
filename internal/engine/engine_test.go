package engine_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/unisonobot/unisono/internal/database"
	"github.com/unisonobot/unisono/internal/engine"
)

const (
	chatAlice int64 = 100
	chatBob   int64 = 200
	chatCarol int64 = 300
)

func newTestEngine(t *testing.T, minVoiceDuration time.Duration) *engine.Engine {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewStore(db, log)
	return engine.New(store, log, minVoiceDuration)
}

// publishVoice stages and publishes a recording in one step.
func publishVoice(t *testing.T, e *engine.Engine, chatID int64, origin string) *database.Message {
	t.Helper()

	ctx := context.Background()
	msg, err := e.SubmitVoice(ctx, chatID, "file-"+origin, origin, 10*time.Second)
	if err != nil {
		t.Fatalf("SubmitVoice failed: %v", err)
	}
	if err := e.ConfirmPublish(ctx, msg.MessageID, chatID); err != nil {
		t.Fatalf("ConfirmPublish failed: %v", err)
	}
	return msg
}

func TestSubmitVoice_TooShort(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 5*time.Second)
	ctx := context.Background()

	_, err := e.SubmitVoice(ctx, chatAlice, "file-1", "Alice", 3*time.Second)
	if !errors.Is(err, engine.ErrVoiceTooShort) {
		t.Fatalf("expected ErrVoiceTooShort, got %v", err)
	}

	// Nothing was recorded, so the user has no message to publish.
	stats, err := e.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.Messages != 0 {
		t.Errorf("expected no messages after rejected submission, got %d", stats.Messages)
	}
}

func TestSubmitVoice_StagedInvisibleUntilPublished(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 0)
	ctx := context.Background()

	if _, err := e.SubmitVoice(ctx, chatAlice, "file-1", "Alice", 10*time.Second); err != nil {
		t.Fatalf("SubmitVoice failed: %v", err)
	}
	if err := e.RegisterUser(ctx, chatBob); err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}

	_, err := e.RequestNext(ctx, chatBob)
	if !errors.Is(err, engine.ErrNoCandidates) {
		t.Fatalf("staged message must not be selectable, got %v", err)
	}
}

func TestConfirmPublish(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 0)
	ctx := context.Background()

	publishVoice(t, e, chatAlice, "Alice")
	if err := e.RegisterUser(ctx, chatBob); err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}

	candidate, err := e.RequestNext(ctx, chatBob)
	if err != nil {
		t.Fatalf("RequestNext failed: %v", err)
	}
	if candidate.ChatID != chatAlice {
		t.Errorf("expected Alice's message, got owner %d", candidate.ChatID)
	}
}

func TestConfirmPublish_UnknownMessage(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 0)

	err := e.ConfirmPublish(context.Background(), "no-such-id", chatAlice)
	if !errors.Is(err, engine.ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 0)
	ctx := context.Background()

	msg, err := e.SubmitVoice(ctx, chatAlice, "file-1", "Alice", 10*time.Second)
	if err != nil {
		t.Fatalf("SubmitVoice failed: %v", err)
	}
	if err := e.Discard(ctx, msg.MessageID, chatAlice); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}

	// A published message is no longer staged and cannot be discarded.
	published := publishVoice(t, e, chatAlice, "Alice")
	err = e.Discard(ctx, published.MessageID, chatAlice)
	if !errors.Is(err, engine.ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage for published message, got %v", err)
	}
}

func TestPublishSupersedesEarlierMessage(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 0)
	ctx := context.Background()

	publishVoice(t, e, chatAlice, "Alice")
	second := publishVoice(t, e, chatAlice, "Alice")
	if err := e.RegisterUser(ctx, chatBob); err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}

	// Bob keeps seeing only the newest of Alice's recordings.
	for i := 0; i < 5; i++ {
		candidate, err := e.RequestNext(ctx, chatBob)
		if err != nil {
			t.Fatalf("RequestNext failed: %v", err)
		}
		if candidate.MessageID != second.MessageID {
			t.Fatalf("expected latest published message %s, got %s", second.MessageID, candidate.MessageID)
		}
	}
}

func TestRequestNext_UnknownUser(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 0)

	_, err := e.RequestNext(context.Background(), chatCarol)
	if !errors.Is(err, engine.ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
}

func TestRequestNext_ExcludesOwnMessages(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 0)
	ctx := context.Background()

	publishVoice(t, e, chatAlice, "Alice")

	_, err := e.RequestNext(ctx, chatAlice)
	if !errors.Is(err, engine.ErrNoCandidates) {
		t.Fatalf("own message must not be offered back, got %v", err)
	}
}

func TestRequestNext_ExcludesRatedMessages(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 0)
	ctx := context.Background()

	msgA := publishVoice(t, e, chatAlice, "Alice")
	if err := e.RegisterUser(ctx, chatBob); err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}

	if _, err := e.Rate(ctx, chatBob, msgA.MessageID, engine.VerdictSkip); err != nil {
		t.Fatalf("Rate failed: %v", err)
	}

	_, err := e.RequestNext(ctx, chatBob)
	if !errors.Is(err, engine.ErrNoCandidates) {
		t.Fatalf("rated message must not be offered again, got %v", err)
	}
}

func TestRate_UnknownMessage(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 0)

	_, err := e.Rate(context.Background(), chatBob, "no-such-id", engine.VerdictLike)
	if !errors.Is(err, engine.ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestRate_OneSidedLikeDoesNotMatch(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 0)
	ctx := context.Background()

	msgA := publishVoice(t, e, chatAlice, "Alice")
	publishVoice(t, e, chatBob, "Bob")

	outcome, err := e.Rate(ctx, chatBob, msgA.MessageID, engine.VerdictLike)
	if err != nil {
		t.Fatalf("Rate failed: %v", err)
	}
	if outcome.Matched {
		t.Error("one-sided like must not produce a match")
	}
	if outcome.OwnerChatID != chatAlice {
		t.Errorf("expected owner %d, got %d", chatAlice, outcome.OwnerChatID)
	}
}

func TestRate_SkipNeverMatches(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 0)
	ctx := context.Background()

	msgA := publishVoice(t, e, chatAlice, "Alice")
	msgB := publishVoice(t, e, chatBob, "Bob")

	if _, err := e.Rate(ctx, chatAlice, msgB.MessageID, engine.VerdictLike); err != nil {
		t.Fatalf("Rate failed: %v", err)
	}

	// Bob skips even though Alice already liked him.
	outcome, err := e.Rate(ctx, chatBob, msgA.MessageID, engine.VerdictSkip)
	if err != nil {
		t.Fatalf("Rate failed: %v", err)
	}
	if outcome.Matched {
		t.Error("a skip must never produce a match")
	}
}

func TestRate_MutualLikeMatches(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 0)
	ctx := context.Background()

	msgA := publishVoice(t, e, chatAlice, "Alice")
	msgB := publishVoice(t, e, chatBob, "Bob")

	outcome, err := e.Rate(ctx, chatAlice, msgB.MessageID, engine.VerdictLike)
	if err != nil {
		t.Fatalf("first like failed: %v", err)
	}
	if outcome.Matched {
		t.Fatal("first like must not match yet")
	}

	outcome, err = e.Rate(ctx, chatBob, msgA.MessageID, engine.VerdictLike)
	if err != nil {
		t.Fatalf("second like failed: %v", err)
	}
	if !outcome.Matched {
		t.Fatal("mutual like must produce a match")
	}
	if outcome.OwnerChatID != chatAlice {
		t.Errorf("expected match owner %d, got %d", chatAlice, outcome.OwnerChatID)
	}
	if outcome.OwnerOrigin != "Alice" {
		t.Errorf("expected owner origin Alice, got %q", outcome.OwnerOrigin)
	}
	if len(outcome.Recordings) != 1 {
		t.Fatalf("expected one recording to replay, got %d", len(outcome.Recordings))
	}
	if outcome.Recordings[0].MessageID != msgB.MessageID {
		t.Errorf("expected Bob's liked recording %s, got %s", msgB.MessageID, outcome.Recordings[0].MessageID)
	}
}

func TestRate_MatchExchangesAllLikedRecordings(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 0)
	ctx := context.Background()

	msgA := publishVoice(t, e, chatAlice, "Alice")

	// Alice likes two of Bob's recordings, published in succession.
	firstB := publishVoice(t, e, chatBob, "Bob")
	if _, err := e.Rate(ctx, chatAlice, firstB.MessageID, engine.VerdictLike); err != nil {
		t.Fatalf("like of first recording failed: %v", err)
	}
	secondB := publishVoice(t, e, chatBob, "Bob")
	if _, err := e.Rate(ctx, chatAlice, secondB.MessageID, engine.VerdictLike); err != nil {
		t.Fatalf("like of second recording failed: %v", err)
	}

	outcome, err := e.Rate(ctx, chatBob, msgA.MessageID, engine.VerdictLike)
	if err != nil {
		t.Fatalf("reciprocal like failed: %v", err)
	}
	if !outcome.Matched {
		t.Fatal("mutual like must produce a match")
	}

	// Every recording Alice liked comes back, not just the first found.
	if len(outcome.Recordings) != 2 {
		t.Fatalf("expected both liked recordings, got %d", len(outcome.Recordings))
	}
	got := make(map[string]bool, len(outcome.Recordings))
	for _, rec := range outcome.Recordings {
		got[rec.MessageID] = true
	}
	if !got[firstB.MessageID] || !got[secondB.MessageID] {
		t.Errorf("expected recordings %s and %s, got %v", firstB.MessageID, secondB.MessageID, got)
	}
}

func TestReactionFlow(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 0)
	ctx := context.Background()

	msgA := publishVoice(t, e, chatAlice, "Alice")
	if err := e.RegisterUser(ctx, chatBob); err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}

	if err := e.StartReaction(ctx, chatBob, msgA.MessageID); err != nil {
		t.Fatalf("StartReaction failed: %v", err)
	}
	if _, pending := e.PendingReaction(chatBob); !pending {
		t.Fatal("expected a pending reaction target")
	}

	delivery, err := e.SubmitReaction(ctx, chatBob, "file-reply", "Bob")
	if err != nil {
		t.Fatalf("SubmitReaction failed: %v", err)
	}
	if !delivery.Delivered {
		t.Fatal("expected reaction to be delivered")
	}
	if delivery.OwnerChatID != chatAlice {
		t.Errorf("expected delivery to %d, got %d", chatAlice, delivery.OwnerChatID)
	}
	if delivery.Message.Topic != msgA.MessageID {
		t.Errorf("reaction topic must reference the liked message, got %q", delivery.Message.Topic)
	}
	if delivery.Message.Published {
		t.Error("reaction recordings are never published")
	}

	// The session returned to idle, so another reply needs a new target.
	if _, pending := e.PendingReaction(chatBob); pending {
		t.Error("reaction session should be cleared after delivery")
	}
	if _, err := e.SubmitReaction(ctx, chatBob, "file-reply-2", "Bob"); err == nil {
		t.Error("expected error when no reaction target is pending")
	}
}

func TestReactionFlow_InvisibleToSelection(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 0)
	ctx := context.Background()

	msgA := publishVoice(t, e, chatAlice, "Alice")
	if err := e.RegisterUser(ctx, chatBob); err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}
	if err := e.StartReaction(ctx, chatBob, msgA.MessageID); err != nil {
		t.Fatalf("StartReaction failed: %v", err)
	}
	if _, err := e.SubmitReaction(ctx, chatBob, "file-reply", "Bob"); err != nil {
		t.Fatalf("SubmitReaction failed: %v", err)
	}
	if err := e.RegisterUser(ctx, chatCarol); err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}

	// Carol only ever sees Alice's published introduction, never Bob's reply.
	candidate, err := e.RequestNext(ctx, chatCarol)
	if err != nil {
		t.Fatalf("RequestNext failed: %v", err)
	}
	if candidate.MessageID != msgA.MessageID {
		t.Errorf("expected Alice's introduction, got %s", candidate.MessageID)
	}
}

func TestReaction_StaleTargetDropped(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 0)
	ctx := context.Background()

	// Target a staged message, then discard it to make the target stale.
	staged, err := e.SubmitVoice(ctx, chatAlice, "file-1", "Alice", 10*time.Second)
	if err != nil {
		t.Fatalf("SubmitVoice failed: %v", err)
	}
	if err := e.StartReaction(ctx, chatBob, staged.MessageID); err != nil {
		t.Fatalf("StartReaction failed: %v", err)
	}
	if err := e.Discard(ctx, staged.MessageID, chatAlice); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}

	delivery, err := e.SubmitReaction(ctx, chatBob, "file-reply", "Bob")
	if err != nil {
		t.Fatalf("SubmitReaction failed: %v", err)
	}
	if delivery.Delivered {
		t.Error("stale reaction target must be dropped, not delivered")
	}
	if _, pending := e.PendingReaction(chatBob); pending {
		t.Error("reaction session should be cleared after a dropped reaction")
	}
}

func TestStartReaction_UnknownMessage(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, 0)

	err := e.StartReaction(context.Background(), chatBob, "no-such-id")
	if !errors.Is(err, engine.ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}
