package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"learnhub-chat/internal/repositories"
	"learnhub-chat/internal/telemetry"
)

// ChatHandler manages the REST surface around chat rooms: listing, starting
// a chat with another user, and reading history after (re)connect.
type ChatHandler struct {
	roomRepo    repositories.RoomRepository
	messageRepo repositories.MessageRepository
	audit       *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(roomRepo repositories.RoomRepository, messageRepo repositories.MessageRepository, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{roomRepo: roomRepo, messageRepo: messageRepo, audit: audit}
}

// ListRooms returns the rooms the authenticated user participates in.
func (h *ChatHandler) ListRooms(c *gin.Context) {
	userID := c.GetInt64("userID")

	rooms, err := h.roomRepo.ListRoomsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load rooms"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// StartRoom creates or returns the existing room between the caller and
// another user.
func (h *ChatHandler) StartRoom(c *gin.Context) {
	var req struct {
		FriendID int64 `json:"friend_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt64("userID")
	if userID == req.FriendID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
		return
	}

	room, err := h.roomRepo.CreateOrGetRoom(c.Request.Context(), userID, req.FriendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("chat started room_id=%d friend_id=%d", room.ID, req.FriendID),
		requestIDFromContext(c), userIDFromContext(c))

	c.JSON(http.StatusOK, gin.H{"room_id": room.ID})
}

// GetRoomMessages returns a room's ordered history. Clients call this after
// connecting (or reconnecting) since the broadcast layer only carries live
// traffic.
func (h *ChatHandler) GetRoomMessages(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	userID := c.GetInt64("userID")
	member, err := h.roomRepo.IsMember(c.Request.Context(), roomID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room member"})
		return
	}

	msgs, err := h.messageRepo.ListRoomMessages(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
