package database_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/unisonobot/unisono/internal/database"
)

func newTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newMessage(chatID int64, topic string, published bool, ts time.Time) *database.Message {
	return &database.Message{
		MessageID: uuid.New().String(),
		ChatID:    chatID,
		Data:      "file-" + uuid.New().String(),
		Topic:     topic,
		Origin:    "Test User",
		Published: published,
		Timestamp: ts,
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestUpsertUser(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertUser(ctx, 100); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if err := store.UpsertUser(ctx, 100); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	user, err := store.GetUser(ctx, 100)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.ChatID != 100 {
		t.Errorf("expected chat_id 100, got %d", user.ChatID)
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.Users != 1 {
		t.Errorf("expected 1 user after duplicate upsert, got %d", stats.Users)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	user, err := store.GetUser(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil for unknown user, got %+v", user)
	}
}

func TestInsertAndFindMessage(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	msg := newMessage(100, database.TopicGeneral, false, time.Now().UTC())
	if err := store.InsertMessage(ctx, msg); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}

	found, err := store.FindMessage(ctx, msg.MessageID)
	if err != nil {
		t.Fatalf("FindMessage failed: %v", err)
	}
	if found == nil {
		t.Fatal("expected message, got nil")
	}
	if found.ChatID != 100 || found.Data != msg.Data || found.Topic != database.TopicGeneral {
		t.Errorf("message round trip mismatch: %+v", found)
	}
	if found.Published {
		t.Error("freshly inserted message should be unpublished")
	}

	missing, err := store.FindMessage(ctx, "no-such-id")
	if err != nil {
		t.Fatalf("FindMessage for missing id failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing message, got %+v", missing)
	}
}

func TestSetMessagePublished(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	msg := newMessage(100, database.TopicGeneral, false, time.Now().UTC())
	if err := store.InsertMessage(ctx, msg); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}

	updated, err := store.SetMessagePublished(ctx, msg.MessageID, 100, true)
	if err != nil {
		t.Fatalf("SetMessagePublished failed: %v", err)
	}
	if !updated {
		t.Fatal("expected update to report success")
	}

	found, err := store.FindMessage(ctx, msg.MessageID)
	if err != nil {
		t.Fatalf("FindMessage failed: %v", err)
	}
	if !found.Published {
		t.Error("message should be published after update")
	}

	// Wrong owner must not be able to publish.
	updated, err = store.SetMessagePublished(ctx, msg.MessageID, 200, true)
	if err != nil {
		t.Fatalf("SetMessagePublished with wrong owner failed: %v", err)
	}
	if updated {
		t.Error("update with wrong owner should not match any row")
	}
}

func TestDeleteStagedMessage(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	staged := newMessage(100, database.TopicGeneral, false, time.Now().UTC())
	published := newMessage(100, database.TopicGeneral, true, time.Now().UTC())
	for _, m := range []*database.Message{staged, published} {
		if err := store.InsertMessage(ctx, m); err != nil {
			t.Fatalf("InsertMessage failed: %v", err)
		}
	}

	deleted, err := store.DeleteStagedMessage(ctx, staged.MessageID, 100)
	if err != nil {
		t.Fatalf("DeleteStagedMessage failed: %v", err)
	}
	if !deleted {
		t.Fatal("expected staged message to be deleted")
	}

	deleted, err = store.DeleteStagedMessage(ctx, published.MessageID, 100)
	if err != nil {
		t.Fatalf("DeleteStagedMessage on published row failed: %v", err)
	}
	if deleted {
		t.Error("published message must not be deletable as staged")
	}
}

func TestLatestPublishedPerTopic(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	older := newMessage(100, database.TopicGeneral, true, base)
	newer := newMessage(100, database.TopicGeneral, true, base.Add(time.Hour))
	unpublished := newMessage(100, database.TopicGeneral, false, base.Add(2*time.Hour))
	other := newMessage(200, database.TopicGeneral, true, base)
	for _, m := range []*database.Message{older, newer, unpublished, other} {
		if err := store.InsertMessage(ctx, m); err != nil {
			t.Fatalf("InsertMessage failed: %v", err)
		}
	}

	candidates, err := store.LatestPublishedPerTopic(ctx, 300)
	if err != nil {
		t.Fatalf("LatestPublishedPerTopic failed: %v", err)
	}

	got := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		got[c.MessageID] = true
	}

	if !got[newer.MessageID] {
		t.Error("latest published message missing from candidates")
	}
	if got[older.MessageID] {
		t.Error("superseded message should not be a candidate")
	}
	if got[unpublished.MessageID] {
		t.Error("unpublished message should not be a candidate")
	}
	if !got[other.MessageID] {
		t.Error("other owner's message missing from candidates")
	}

	// The requesting user's own messages are excluded.
	candidates, err = store.LatestPublishedPerTopic(ctx, 100)
	if err != nil {
		t.Fatalf("LatestPublishedPerTopic with exclusion failed: %v", err)
	}
	for _, c := range candidates {
		if c.ChatID == 100 {
			t.Errorf("candidate %s belongs to the excluded owner", c.MessageID)
		}
	}
}

func TestLatestPublishedPerTopic_TieBreaksOnRowID(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	first := newMessage(100, database.TopicGeneral, true, ts)
	second := newMessage(100, database.TopicGeneral, true, ts)
	for _, m := range []*database.Message{first, second} {
		if err := store.InsertMessage(ctx, m); err != nil {
			t.Fatalf("InsertMessage failed: %v", err)
		}
	}

	candidates, err := store.LatestPublishedPerTopic(ctx, 0)
	if err != nil {
		t.Fatalf("LatestPublishedPerTopic failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected one candidate per owner and topic, got %d", len(candidates))
	}
	if candidates[0].MessageID != second.MessageID {
		t.Errorf("expected later insert to win timestamp tie, got %s", candidates[0].MessageID)
	}
}

func TestInsertRating(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	rating := &database.Rating{
		FromID:    100,
		ToID:      200,
		MessageID: "msg-1",
		Rating:    database.RatingLike,
		Timestamp: time.Now().UTC(),
	}
	if err := store.InsertRating(ctx, rating); err != nil {
		t.Fatalf("InsertRating failed: %v", err)
	}

	invalid := &database.Rating{FromID: 100, ToID: 200, MessageID: "msg-2", Rating: 0, Timestamp: time.Now().UTC()}
	if err := store.InsertRating(ctx, invalid); err == nil {
		t.Error("expected error for rating value outside {-1, 1}")
	}
}

func TestRatedMessageIDs(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	ratings := []*database.Rating{
		{FromID: 100, ToID: 200, MessageID: "msg-a", Rating: database.RatingLike, Timestamp: now},
		{FromID: 100, ToID: 200, MessageID: "msg-a", Rating: database.RatingSkip, Timestamp: now.Add(time.Minute)},
		{FromID: 100, ToID: 300, MessageID: "msg-b", Rating: database.RatingSkip, Timestamp: now},
		{FromID: 999, ToID: 200, MessageID: "msg-c", Rating: database.RatingLike, Timestamp: now},
	}
	for _, r := range ratings {
		if err := store.InsertRating(ctx, r); err != nil {
			t.Fatalf("InsertRating failed: %v", err)
		}
	}

	ids, err := store.RatedMessageIDs(ctx, 100)
	if err != nil {
		t.Fatalf("RatedMessageIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 distinct rated ids, got %d: %v", len(ids), ids)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen["msg-a"] || !seen["msg-b"] {
		t.Errorf("unexpected rated ids: %v", ids)
	}
}

func TestPositiveRatings(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	ratings := []*database.Rating{
		{FromID: 100, ToID: 200, MessageID: "msg-a", Rating: database.RatingLike, Timestamp: now},
		{FromID: 100, ToID: 200, MessageID: "msg-b", Rating: database.RatingSkip, Timestamp: now},
		{FromID: 100, ToID: 300, MessageID: "msg-c", Rating: database.RatingLike, Timestamp: now},
		{FromID: 200, ToID: 100, MessageID: "msg-d", Rating: database.RatingLike, Timestamp: now},
	}
	for _, r := range ratings {
		if err := store.InsertRating(ctx, r); err != nil {
			t.Fatalf("InsertRating failed: %v", err)
		}
	}

	likes, err := store.PositiveRatings(ctx, 100, 200)
	if err != nil {
		t.Fatalf("PositiveRatings failed: %v", err)
	}
	if len(likes) != 1 {
		t.Fatalf("expected exactly one positive rating from 100 to 200, got %d", len(likes))
	}
	if likes[0].MessageID != "msg-a" {
		t.Errorf("unexpected liked message: %s", likes[0].MessageID)
	}
}

func TestDeleteAllRatings(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	r := &database.Rating{FromID: 100, ToID: 200, MessageID: "msg-a", Rating: database.RatingLike, Timestamp: time.Now().UTC()}
	if err := store.InsertRating(ctx, r); err != nil {
		t.Fatalf("InsertRating failed: %v", err)
	}

	if err := store.DeleteAllRatings(ctx); err != nil {
		t.Fatalf("DeleteAllRatings failed: %v", err)
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.Ratings != 0 {
		t.Errorf("expected 0 ratings after reset, got %d", stats.Ratings)
	}
}

func TestDeleteAllData(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertUser(ctx, 100); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	if err := store.InsertMessage(ctx, newMessage(100, database.TopicGeneral, true, time.Now().UTC())); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}
	r := &database.Rating{FromID: 100, ToID: 200, MessageID: "msg-a", Rating: database.RatingLike, Timestamp: time.Now().UTC()}
	if err := store.InsertRating(ctx, r); err != nil {
		t.Fatalf("InsertRating failed: %v", err)
	}

	if err := store.DeleteAllData(ctx); err != nil {
		t.Fatalf("DeleteAllData failed: %v", err)
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.Users != 0 || stats.Messages != 0 || stats.Ratings != 0 {
		t.Errorf("expected empty tables after full reset, got %+v", stats)
	}
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.RunSQLMaintenance(context.Background()); err != nil {
		t.Fatalf("RunSQLMaintenance failed: %v", err)
	}
}
