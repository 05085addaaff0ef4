package models

import "time"

// Room is a private chat room between exactly two users. The participant
// pair is stored in ascending user-id order so the unordered pair maps to
// exactly one row.
type Room struct {
	ID        int64     `db:"id" json:"id"`
	User1ID   int64     `db:"user1_id" json:"user1_id"`
	User2ID   int64     `db:"user2_id" json:"user2_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HasParticipant reports whether the user is one of the room's two members.
func (r Room) HasParticipant(userID int64) bool {
	return r.User1ID == userID || r.User2ID == userID
}

// RoomSummary is the API-facing view of a room for one user.
type RoomSummary struct {
	RoomID    int64     `db:"id" json:"room_id"`
	FriendID  int64     `json:"friend_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
