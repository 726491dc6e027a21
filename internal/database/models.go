package database

import "time"

// TopicGeneral is the default topic for regular voice submissions.
// A reaction message carries the liked message's id as its topic instead,
// which keys it to that thread and keeps it out of the discovery flow.
const TopicGeneral = "general"

// Rating values. Ratings are directional: FromID rated a message owned by ToID.
const (
	RatingLike = 1
	RatingSkip = -1
)

// User represents a chat participant. Created on first interaction and only
// removed by an explicit admin reset.
type User struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	ChatID int64 `db:"chat_id"`
}

// Message represents one voice submission. Data is an opaque reference to the
// recorded payload (a Telegram file id), never the audio bytes. A message is
// invisible to candidate selection until Published is set; a newer published
// message to the same (ChatID, Topic) supersedes the older one as that
// topic's representative, but superseded rows are kept so rating history
// stays resolvable by MessageID.
type Message struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	MessageID string    `db:"message_id"`
	ChatID    int64     `db:"chat_id"`
	Data      string    `db:"data"`
	Topic     string    `db:"topic"`
	Origin    string    `db:"origin"`
	Published bool      `db:"published"`
	Timestamp time.Time `db:"timestamp"`
}

// Rating records one verdict from FromID about a message owned by ToID.
// ToID is denormalized from the message at rating time for fast mutual-like
// lookups. Rows are append-only; duplicates count as additional votes.
type Rating struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	FromID    int64     `db:"from_id"`
	ToID      int64     `db:"to_id"`
	MessageID string    `db:"message_id"`
	Rating    int       `db:"rating"`
	Timestamp time.Time `db:"timestamp"`
}

// Stats holds the row counts reported by the admin stats command.
type Stats struct {
	Users    int64
	Messages int64
	Ratings  int64
}
