package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"learnhub-chat/internal/auth"
	"learnhub-chat/internal/models"
	"learnhub-chat/internal/observability"
	"learnhub-chat/internal/repositories"
)

const wsEventsRoutingKey = "ws_events.rooms"

// RoomWebSocketHandler owns the websocket lifecycle for chat rooms: the
// connect/authorize/register handshake, the per-connection receive loop, and
// deregistration on every exit path.
type RoomWebSocketHandler struct {
	hub         *Hub
	roomRepo    repositories.RoomRepository
	messageRepo repositories.MessageRepository
	verifier    *auth.Verifier
}

// NewRoomWebSocketHandler constructs a RoomWebSocketHandler.
func NewRoomWebSocketHandler(hub *Hub, roomRepo repositories.RoomRepository, messageRepo repositories.MessageRepository, verifier *auth.Verifier) *RoomWebSocketHandler {
	return &RoomWebSocketHandler{hub: hub, roomRepo: roomRepo, messageRepo: messageRepo, verifier: verifier}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle runs the handshake. Every rejection, whatever its cause, is the
// same bodyless 403 so a client cannot probe which rooms exist or who is in
// them.
func (h *RoomWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("learnhub-chat/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		reject(c)
		return
	}

	identity, err := h.verifier.Verify(bearerToken(c))
	if err != nil {
		reject(c)
		return
	}

	member, err := h.roomRepo.IsMember(ctx, roomID, identity.UserID)
	if err != nil || !member {
		reject(c)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	sess := NewSession(conn, roomID, identity)
	sess.DeviceID = observability.DeviceIDFromRequest(c.Request)
	sess.IP = observability.IPFromRequest(c.Request)
	sess.RequestID = observability.RequestIDFromRequest(c.Request)
	sess.TraceID = span.SpanContext().TraceID().String()

	go sess.WritePump()
	h.hub.Join(roomID, sess)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.publishWSEvent(ctx, sess, "ws_connect", "")

	go h.receiveLoop(sess)
}

// receiveLoop reads frames until the transport breaks, processing one frame
// to completion before reading the next so per-connection order survives
// through persistence and fan-out. Deregistration runs on every exit path.
func (h *RoomWebSocketHandler) receiveLoop(sess *Session) {
	var closeReason string
	defer func() {
		h.hub.Leave(sess.RoomID, sess)
		sess.Close()
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		h.publishWSEvent(context.Background(), sess, "ws_disconnect", closeReason)
	}()

	// The upgrade request's context dies with the handshake handler; the
	// loop outlives it.
	ctx := context.Background()

	for {
		msgType, data, err := sess.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}

		// The chat protocol is text-only; binary frames are dropped like any
		// other malformed payload.
		if msgType != websocket.TextMessage {
			observability.IncWSMessage("malformed")
			continue
		}

		var frame models.InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			observability.IncWSMessage("malformed")
			continue
		}

		text := strings.TrimSpace(frame.Message)
		if text == "" {
			observability.IncWSMessage("empty")
			continue
		}

		if _, err := h.messageRepo.Append(ctx, sess.RoomID, sess.UserID, text); err != nil {
			observability.IncWSMessage("persist_failed")
			continue
		}

		observability.IncWSMessage("delivered")
		h.hub.Broadcast(sess.RoomID, models.OutboundFrame{Message: text, Username: sess.Username})
	}
}

func (h *RoomWebSocketHandler) publishWSEvent(ctx context.Context, sess *Session, event, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"room_id":     sess.RoomID,
			"event":       event,
			"conn_id":     sess.ConnID,
			"duration_ms": time.Since(sess.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   sess.UserID,
			"device_id": sess.DeviceID,
			"ip":        sess.IP,
		},
	}

	headers := observability.BuildHeaders(sess.RequestID, sess.TraceID)
	_ = observability.PublishEvent(ctx, wsEventsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, headers)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}

func reject(c *gin.Context) {
	c.AbortWithStatus(http.StatusForbidden)
}
