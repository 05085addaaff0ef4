package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"learnhub-chat/internal/mocks"
	"learnhub-chat/internal/models"
	"learnhub-chat/internal/telemetry"
)

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", int64(1))
		c.Set("username", "alice")
		c.Next()
	})
	r.GET("/rooms", handler.ListRooms)
	r.POST("/rooms/start", handler.StartRoom)
	r.GET("/rooms/:room_id/messages", handler.GetRoomMessages)
	return r
}

func TestListRoomsSuccess(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	handler := NewChatHandler(roomRepo, nil, nil)
	router := setupChatRouter(handler)

	roomRepo.On("ListRoomsForUser", mock.Anything, int64(1)).
		Return([]models.RoomSummary{{RoomID: 3, FriendID: 2}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string][]models.RoomSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp["rooms"], 1)
	assert.Equal(t, int64(3), resp["rooms"][0].RoomID)
	roomRepo.AssertExpectations(t)
}

func TestListRoomsRepoError(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	handler := NewChatHandler(roomRepo, nil, nil)
	router := setupChatRouter(handler)

	roomRepo.On("ListRoomsForUser", mock.Anything, int64(1)).
		Return(([]models.RoomSummary)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	roomRepo.AssertExpectations(t)
}

func TestStartRoomSuccessEmitsAudit(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit.chat", "learnhub-chat", "test")
	handler := NewChatHandler(roomRepo, nil, emitter)
	router := setupChatRouter(handler)

	roomRepo.On("CreateOrGetRoom", mock.Anything, int64(1), int64(2)).
		Return(models.Room{ID: 10, User1ID: 1, User2ID: 2, CreatedAt: time.Now()}, nil).Once()
	publisher.On("Publish", mock.Anything, "audit.chat", mock.Anything, mock.Anything).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/rooms/start", bytes.NewBufferString(`{"friend_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]int64
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(10), resp["room_id"])
	roomRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestStartRoomWithSelf(t *testing.T) {
	handler := NewChatHandler(new(mocks.RoomRepositoryMock), nil, nil)
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/rooms/start", bytes.NewBufferString(`{"friend_id":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartRoomBadBody(t *testing.T) {
	handler := NewChatHandler(new(mocks.RoomRepositoryMock), nil, nil)
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/rooms/start", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRoomMessagesSuccess(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewChatHandler(roomRepo, messageRepo, nil)
	router := setupChatRouter(handler)

	roomRepo.On("IsMember", mock.Anything, int64(5), int64(1)).Return(true, nil).Once()
	messageRepo.On("ListRoomMessages", mock.Anything, int64(5)).
		Return([]models.Message{
			{ID: 1, RoomID: 5, SenderID: 1, Body: "hi"},
			{ID: 2, RoomID: 5, SenderID: 2, Body: "hello"},
		}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms/5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string][]models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp["messages"], 2)
	assert.Equal(t, "hi", resp["messages"][0].Body)
	roomRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestGetRoomMessagesForbidden(t *testing.T) {
	roomRepo := new(mocks.RoomRepositoryMock)
	handler := NewChatHandler(roomRepo, new(mocks.MessageRepositoryMock), nil)
	router := setupChatRouter(handler)

	roomRepo.On("IsMember", mock.Anything, int64(5), int64(1)).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms/5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	roomRepo.AssertExpectations(t)
}

func TestGetRoomMessagesInvalidID(t *testing.T) {
	handler := NewChatHandler(new(mocks.RoomRepositoryMock), new(mocks.MessageRepositoryMock), nil)
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/rooms/abc/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
