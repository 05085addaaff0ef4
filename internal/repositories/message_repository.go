package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"learnhub-chat/internal/models"
)

// ErrNotParticipant is returned when an append is attempted by a sender who
// is not (or no longer) one of the room's two participants, or the room does
// not exist.
var ErrNotParticipant = errors.New("sender is not a room participant")

// MessageRepository is the durable, ordered message log for rooms.
type MessageRepository interface {
	Append(ctx context.Context, roomID int64, senderID int64, body string) (models.Message, error)
	ListRoomMessages(ctx context.Context, roomID int64) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Append stores one message. Membership is re-validated inside the insert:
// the row is only written when the sender is currently a participant of an
// existing room, so a membership change after connect cannot slip a message
// through.
func (r *MessageRepo) Append(ctx context.Context, roomID int64, senderID int64, body string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (room_id, sender_id, body)
         SELECT $1, $2, $3
         WHERE EXISTS (SELECT 1 FROM rooms WHERE id=$1 AND (user1_id=$2 OR user2_id=$2))
         RETURNING id, room_id, sender_id, body, created_at`,
		roomID, senderID, body).
		Scan(&msg.ID, &msg.RoomID, &msg.SenderID, &msg.Body, &msg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrNotParticipant
	}
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListRoomMessages returns the room's messages in total order: timestamp
// ascending, ties broken by insertion order.
func (r *MessageRepo) ListRoomMessages(ctx context.Context, roomID int64) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, room_id, sender_id, body, created_at FROM messages
         WHERE room_id=$1
         ORDER BY created_at ASC, id ASC`, roomID)
	return msgs, err
}
