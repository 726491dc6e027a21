package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts. No business
// rules live here; the engine layers its policy on top of these primitives.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertUser creates a user row for chatID if none exists. Idempotent.
	UpsertUser(ctx context.Context, chatID int64) error

	// GetUser retrieves a user by chat id. Returns nil, nil if not found.
	GetUser(ctx context.Context, chatID int64) (*User, error)

	// InsertMessage inserts a new message record.
	InsertMessage(ctx context.Context, msg *Message) error

	// FindMessage retrieves a message by its message id. Returns nil, nil if not found.
	FindMessage(ctx context.Context, messageID string) (*Message, error)

	// SetMessagePublished flips the publish state of a message owned by chatID.
	// Returns false if no such message exists.
	SetMessagePublished(ctx context.Context, messageID string, chatID int64, published bool) (bool, error)

	// DeleteStagedMessage removes an unpublished message owned by chatID.
	// Returns false if no such staged message exists. Published rows are
	// never deleted here; rating history must stay resolvable.
	DeleteStagedMessage(ctx context.Context, messageID string, chatID int64) (bool, error)

	// LatestPublishedPerTopic returns, for every (owner, topic) pair other
	// than excludeChatID's, the single most recent published message.
	LatestPublishedPerTopic(ctx context.Context, excludeChatID int64) ([]Message, error)

	// InsertRating appends a rating row. Ratings are never updated or
	// deleted except by the bulk admin resets.
	InsertRating(ctx context.Context, rating *Rating) error

	// RatedMessageIDs returns the ids of every message fromID has rated,
	// regardless of verdict.
	RatedMessageIDs(ctx context.Context, fromID int64) ([]string, error)

	// PositiveRatings returns all +1 ratings fromID has recorded about
	// messages owned by toID.
	PositiveRatings(ctx context.Context, fromID, toID int64) ([]Rating, error)

	// GetStats returns user, message, and rating row counts.
	GetStats(ctx context.Context) (*Stats, error)

	// DeleteAllRatings deletes all ratings (dev-mode reset).
	DeleteAllRatings(ctx context.Context) error

	// DeleteAllData deletes users, messages, and ratings in a single
	// transaction (dev-mode reset).
	DeleteAllData(ctx context.Context) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertUser creates a user row for chatID if none exists.
func (s *sqlxStore) UpsertUser(ctx context.Context, chatID int64) error {
	if chatID == 0 {
		return fmt.Errorf("chat_id cannot be zero")
	}

	query := `INSERT INTO users (chat_id, created_at) VALUES (?, ?)
	          ON CONFLICT (chat_id) DO NOTHING;`

	_, err := s.db.ExecContext(ctx, query, chatID, time.Now().UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error upserting user", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to upsert user %d: %w", chatID, err)
	}

	s.logger.DebugContext(ctx, "User upserted", "chat_id", chatID)
	return nil
}

// GetUser retrieves a user by chat id. Returns nil, nil if not found.
func (s *sqlxStore) GetUser(ctx context.Context, chatID int64) (*User, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}

	var user User
	query := `SELECT id, created_at, chat_id FROM users WHERE chat_id = ?`

	err := s.db.GetContext(ctx, &user, query, chatID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No user found", "chat_id", chatID)
		return nil, nil

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to get user %d: %w", chatID, err)
	}

	return &user, nil
}

// InsertMessage inserts a new message record.
func (s *sqlxStore) InsertMessage(ctx context.Context, msg *Message) error {
	if msg == nil {
		return fmt.Errorf("cannot insert nil message")
	}
	if msg.MessageID == "" {
		return fmt.Errorf("message must have a non-empty message_id")
	}
	if msg.ChatID == 0 {
		return fmt.Errorf("message must have a non-zero chat_id")
	}
	if msg.Topic == "" {
		return fmt.Errorf("message must have a non-empty topic")
	}
	if msg.Timestamp.IsZero() {
		return fmt.Errorf("message must have a non-zero timestamp")
	}

	msg.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO messages (created_at, message_id, chat_id, data, topic, origin, published, timestamp)
        VALUES (:created_at, :message_id, :chat_id, :data, :topic, :origin, :published, :timestamp);
    `

	result, err := s.db.NamedExecContext(ctx, query, msg)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error inserting message", "message_id", msg.MessageID, "chat_id", msg.ChatID, "error", err)
		return fmt.Errorf("failed to insert message %s (chat %d): %w", msg.MessageID, msg.ChatID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		msg.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after inserting message",
			"message_id", msg.MessageID, "error", err)
	}

	s.logger.DebugContext(ctx, "Message inserted successfully",
		"message_id", msg.MessageID, "chat_id", msg.ChatID, "topic", msg.Topic)
	return nil
}

// FindMessage retrieves a message by its message id. Returns nil, nil if not found.
func (s *sqlxStore) FindMessage(ctx context.Context, messageID string) (*Message, error) {
	if messageID == "" {
		return nil, fmt.Errorf("message_id cannot be empty")
	}

	var msg Message
	query := `SELECT id, created_at, message_id, chat_id, data, topic, origin, published, timestamp
	          FROM messages WHERE message_id = ?`

	err := s.db.GetContext(ctx, &msg, query, messageID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No message found", "message_id", messageID)
		return nil, nil

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting message", "message_id", messageID, "error", err)
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}

	return &msg, nil
}

// SetMessagePublished flips the publish state of a message owned by chatID.
func (s *sqlxStore) SetMessagePublished(ctx context.Context, messageID string, chatID int64, published bool) (bool, error) {
	if messageID == "" {
		return false, fmt.Errorf("message_id cannot be empty")
	}

	query := `UPDATE messages SET published = ? WHERE message_id = ? AND chat_id = ?`

	result, err := s.db.ExecContext(ctx, query, published, messageID, chatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating message publish state",
			"message_id", messageID, "chat_id", chatID, "error", err)
		return false, fmt.Errorf("failed to update publish state of message %s: %w", messageID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count when publishing message",
			"message_id", messageID, "error", err)
		return false, fmt.Errorf("failed to check publish result for message %s: %w", messageID, err)
	}

	s.logger.DebugContext(ctx, "Message publish state updated",
		"message_id", messageID, "chat_id", chatID, "published", published, "affected", affected)
	return affected > 0, nil
}

// DeleteStagedMessage removes an unpublished message owned by chatID.
func (s *sqlxStore) DeleteStagedMessage(ctx context.Context, messageID string, chatID int64) (bool, error) {
	if messageID == "" {
		return false, fmt.Errorf("message_id cannot be empty")
	}

	query := `DELETE FROM messages WHERE message_id = ? AND chat_id = ? AND published = 0`

	result, err := s.db.ExecContext(ctx, query, messageID, chatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting staged message",
			"message_id", messageID, "chat_id", chatID, "error", err)
		return false, fmt.Errorf("failed to delete staged message %s: %w", messageID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count when deleting staged message",
			"message_id", messageID, "error", err)
		return false, fmt.Errorf("failed to check delete result for message %s: %w", messageID, err)
	}

	s.logger.DebugContext(ctx, "Staged message delete attempted",
		"message_id", messageID, "chat_id", chatID, "affected", affected)
	return affected > 0, nil
}

// LatestPublishedPerTopic returns the newest published message per
// (owner, topic) pair, excluding the requesting owner. Ties on timestamp
// break by row id, so republishing within the same clock tick still
// supersedes deterministically.
func (s *sqlxStore) LatestPublishedPerTopic(ctx context.Context, excludeChatID int64) ([]Message, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var messages []Message
	query := `
        SELECT id, created_at, message_id, chat_id, data, topic, origin, published, timestamp
        FROM messages m
        WHERE m.published = 1
          AND m.chat_id != ?
          AND m.id = (
              SELECT m2.id FROM messages m2
              WHERE m2.chat_id = m.chat_id AND m2.topic = m.topic AND m2.published = 1
              ORDER BY m2.timestamp DESC, m2.id DESC
              LIMIT 1
          );
    `

	err := s.db.SelectContext(ctx, &messages, query, excludeChatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting latest published messages per topic",
			"exclude_chat_id", excludeChatID, "error", err)
		return nil, fmt.Errorf("failed to get latest published messages: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched latest published messages per topic",
		"exclude_chat_id", excludeChatID, "count", len(messages))
	return messages, nil
}

// InsertRating appends a rating row.
func (s *sqlxStore) InsertRating(ctx context.Context, rating *Rating) error {
	if rating == nil {
		return fmt.Errorf("cannot insert nil rating")
	}
	if rating.FromID == 0 || rating.ToID == 0 {
		return fmt.Errorf("rating must have non-zero from_id and to_id")
	}
	if rating.MessageID == "" {
		return fmt.Errorf("rating must reference a message_id")
	}
	if rating.Rating != RatingLike && rating.Rating != RatingSkip {
		return fmt.Errorf("rating value must be %d or %d, got %d", RatingLike, RatingSkip, rating.Rating)
	}
	if rating.Timestamp.IsZero() {
		rating.Timestamp = time.Now().UTC()
	}

	rating.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO ratings (created_at, from_id, to_id, message_id, rating, timestamp)
        VALUES (:created_at, :from_id, :to_id, :message_id, :rating, :timestamp);
    `

	result, err := s.db.NamedExecContext(ctx, query, rating)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error inserting rating",
			"from_id", rating.FromID, "message_id", rating.MessageID, "error", err)
		return fmt.Errorf("failed to insert rating (from %d, message %s): %w", rating.FromID, rating.MessageID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		rating.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Rating inserted successfully",
		"from_id", rating.FromID, "to_id", rating.ToID, "message_id", rating.MessageID, "rating", rating.Rating)
	return nil
}

// RatedMessageIDs returns every message id fromID has rated, any verdict.
func (s *sqlxStore) RatedMessageIDs(ctx context.Context, fromID int64) ([]string, error) {
	if fromID == 0 {
		return nil, fmt.Errorf("from_id cannot be zero")
	}

	var ids []string
	query := `SELECT DISTINCT message_id FROM ratings WHERE from_id = ?`

	err := s.db.SelectContext(ctx, &ids, query, fromID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting rated message ids", "from_id", fromID, "error", err)
		return nil, fmt.Errorf("failed to get rated message ids for %d: %w", fromID, err)
	}

	return ids, nil
}

// PositiveRatings returns all +1 ratings fromID recorded about messages owned by toID.
func (s *sqlxStore) PositiveRatings(ctx context.Context, fromID, toID int64) ([]Rating, error) {
	if fromID == 0 || toID == 0 {
		return nil, fmt.Errorf("from_id and to_id cannot be zero")
	}

	var ratings []Rating
	query := `SELECT id, created_at, from_id, to_id, message_id, rating, timestamp
	          FROM ratings
	          WHERE from_id = ? AND to_id = ? AND rating = ?
	          ORDER BY timestamp ASC, id ASC`

	err := s.db.SelectContext(ctx, &ratings, query, fromID, toID, RatingLike)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting positive ratings",
			"from_id", fromID, "to_id", toID, "error", err)
		return nil, fmt.Errorf("failed to get positive ratings from %d to %d: %w", fromID, toID, err)
	}

	return ratings, nil
}

// GetStats returns user, message, and rating row counts.
func (s *sqlxStore) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats

	if err := s.db.GetContext(ctx, &stats.Users, `SELECT COUNT(*) FROM users`); err != nil {
		s.logger.ErrorContext(ctx, "Error counting users", "error", err)
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := s.db.GetContext(ctx, &stats.Messages, `SELECT COUNT(*) FROM messages`); err != nil {
		s.logger.ErrorContext(ctx, "Error counting messages", "error", err)
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}
	if err := s.db.GetContext(ctx, &stats.Ratings, `SELECT COUNT(*) FROM ratings`); err != nil {
		s.logger.ErrorContext(ctx, "Error counting ratings", "error", err)
		return nil, fmt.Errorf("failed to count ratings: %w", err)
	}

	return &stats, nil
}

// DeleteAllRatings deletes all ratings (dev-mode reset).
func (s *sqlxStore) DeleteAllRatings(ctx context.Context) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM ratings`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting all ratings", "error", err)
		return fmt.Errorf("failed to delete all ratings: %w", err)
	}

	count, _ := result.RowsAffected()
	s.logger.InfoContext(ctx, "Deleted all ratings", "count", count)
	return nil
}

// DeleteAllData deletes users, messages, and ratings in a single transaction.
// This ensures that either all data is deleted or none is (atomicity).
func (s *sqlxStore) DeleteAllData(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for data reset", "error", err)
		return fmt.Errorf("failed to begin transaction for data reset: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	var counts [3]int64
	for i, table := range []string{"ratings", "messages", "users"} {
		result, err := tx.ExecContext(ctx, `DELETE FROM `+table)
		if err != nil {
			s.logger.ErrorContext(ctx, "Error deleting rows during reset", "table", table, "error", err)
			return fmt.Errorf("failed to delete %s during reset: %w", table, err)
		}
		counts[i], _ = result.RowsAffected()
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction for data reset", "error", err)
		return fmt.Errorf("failed to commit data reset transaction: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Successfully reset all data",
		"ratings_deleted", counts[0],
		"messages_deleted", counts[1],
		"users_deleted", counts[2])
	return nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
