package models

import "time"

// Message is one durable chat message. Messages within a room are ordered by
// CreatedAt, with the serial ID breaking ties in insertion order.
type Message struct {
	ID        int64     `db:"id" json:"id"`
	RoomID    int64     `db:"room_id" json:"room_id"`
	SenderID  int64     `db:"sender_id" json:"sender_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// InboundFrame is the client-to-server websocket payload. Only the message
// field is significant; unknown fields are ignored and a missing field is
// treated as an empty message.
type InboundFrame struct {
	Message string `json:"message"`
}

// OutboundFrame is broadcast to every session in a room, including the
// sender's own.
type OutboundFrame struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}
