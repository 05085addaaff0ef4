package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"learnhub-chat/internal/models"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomRepository abstracts room persistence and membership lookups.
type RoomRepository interface {
	CreateOrGetRoom(ctx context.Context, userID int64, friendID int64) (models.Room, error)
	IsMember(ctx context.Context, roomID int64, userID int64) (bool, error)
	GetRoom(ctx context.Context, roomID int64) (models.Room, error)
	ListRoomsForUser(ctx context.Context, userID int64) ([]models.RoomSummary, error)
}

// RoomRepo is a sqlx implementation of RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// canonicalPair orders two user ids ascending. Rooms always store and look
// up the pair in this order so an unordered pair maps to a single row.
func canonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// CreateOrGetRoom returns the room between two users, creating it on first
// chat initiation.
func (r *RoomRepo) CreateOrGetRoom(ctx context.Context, userID int64, friendID int64) (models.Room, error) {
	if userID == friendID {
		return models.Room{}, errors.New("cannot create room with self")
	}
	user1, user2 := canonicalPair(userID, friendID)

	var room models.Room
	query := `SELECT id, user1_id, user2_id, created_at FROM rooms WHERE user1_id=$1 AND user2_id=$2`
	err := r.db.GetContext(ctx, &room, query, user1, user2)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, err
	}

	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO rooms (user1_id, user2_id) VALUES ($1, $2)
         ON CONFLICT (user1_id, user2_id) DO UPDATE SET user1_id = EXCLUDED.user1_id
         RETURNING id, user1_id, user2_id, created_at`, user1, user2).
		Scan(&room.ID, &room.User1ID, &room.User2ID, &room.CreatedAt)
	if err != nil {
		return models.Room{}, err
	}
	return room, nil
}

// IsMember checks whether a user is one of the room's two participants.
func (r *RoomRepo) IsMember(ctx context.Context, roomID int64, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM rooms WHERE id=$1 AND (user1_id=$2 OR user2_id=$2))`,
		roomID, userID)
	return exists, err
}

// GetRoom fetches a room by id.
func (r *RoomRepo) GetRoom(ctx context.Context, roomID int64) (models.Room, error) {
	var room models.Room
	err := r.db.GetContext(ctx, &room,
		`SELECT id, user1_id, user2_id, created_at FROM rooms WHERE id=$1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}

// ListRoomsForUser returns the rooms the user participates in, newest first.
func (r *RoomRepo) ListRoomsForUser(ctx context.Context, userID int64) ([]models.RoomSummary, error) {
	query := `SELECT id, user1_id, user2_id, created_at FROM rooms
        WHERE user1_id=$1 OR user2_id=$1
        ORDER BY created_at DESC`
	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.RoomSummary
	for rows.Next() {
		var room models.Room
		if err := rows.StructScan(&room); err != nil {
			return nil, err
		}
		friendID := room.User1ID
		if friendID == userID {
			friendID = room.User2ID
		}
		result = append(result, models.RoomSummary{RoomID: room.ID, FriendID: friendID, CreatedAt: room.CreatedAt})
	}
	return result, rows.Err()
}
