package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"medichat/infrastructure/ws"
	"medichat/internal/usecase"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebsocketHandler struct {
	hub       ws.IHub
	authUc    usecase.AuthUsecase
	userUc    usecase.UserUsecase
	chatUc    usecase.ChatUsecase
	messageUc usecase.MessageUsecase
}

func NewWebsocketHandler(
	hub ws.IHub,
	authUc usecase.AuthUsecase,
	userUc usecase.UserUsecase,
	chatUc usecase.ChatUsecase,
	messageUc usecase.MessageUsecase,
) *WebsocketHandler {
	return &WebsocketHandler{
		hub:       hub,
		authUc:    authUc,
		userUc:    userUc,
		chatUc:    chatUc,
		messageUc: messageUc,
	}
}

// HandleWebSocket authenticates the bearer credential, upgrades the
// connection, registers presence and joins the user's chat rooms.
// Authentication failures reject before any event handling begins.
func (h *WebsocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := bearerToken(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authUc.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	user, err := h.userUc.Get(ctx, claims.UserId)
	if err != nil {
		http.Error(w, "user not found", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Upgrade error: %v", err)
		return
	}

	client := ws.NewClient(user.Id, h.hub, conn)
	h.hub.RegisterClient(client)

	// Room subscriptions. A failure here is degraded but non-fatal:
	// the connection stays alive without chat broadcasts until the
	// next reconnect.
	chatIds, err := h.chatUc.ChatIdsFor(ctx, user.Id)
	if err != nil {
		log.Printf("room setup failed for %s: %v", user.Id, err)
	} else {
		for _, chatId := range chatIds {
			h.hub.JoinRoom(chatId, client)
		}
	}

	go client.WritePump()
	client.ReadPump(func(data []byte) {
		h.handleEvent(context.Background(), client, data)
	})
}

func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	authHeader := r.Header.Get("Authorization")
	if parts := strings.Split(authHeader, " "); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

func (h *WebsocketHandler) handleEvent(ctx context.Context, client *ws.UserClient, data []byte) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		client.Send(errorEvent("malformed event"))
		return
	}

	switch envelope.Event {
	case EventSendMessage:
		h.handleSendMessage(ctx, client, envelope.Data)
	case EventTyping:
		h.handleTyping(client, envelope.Data)
	case EventCheckOnlineStatus:
		h.handleCheckOnlineStatus(client, envelope.Data)
	default:
		client.Send(errorEvent("unknown event: " + envelope.Event))
	}
}

// handleSendMessage persists and fans out a message. The broadcast
// includes the sender for echo. The unread notification to the other
// participant is best effort and never affects the write.
func (h *WebsocketHandler) handleSendMessage(ctx context.Context, client *ws.UserClient, data json.RawMessage) {
	var payload SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		client.Send(errorEvent("malformed send_message payload"))
		return
	}

	message, recipientId, err := h.messageUc.Send(ctx, client.UserId, usecase.SendMessageInput{
		ChatId:   payload.ChatId,
		SenderId: payload.SenderId,
		Type:     payload.Type,
		Content:  payload.Content,
		URL:      payload.URL,
	})
	if err != nil {
		client.Send(errorEvent(sendErrorText(err)))
		return
	}

	h.hub.BroadcastToRoom(message.ChatId, newMessageEvent(message))

	if recipientId != "" && h.hub.IsOnline(recipientId) {
		h.hub.SendToUser(recipientId, unreadMessageEvent(message.ChatId))
	}
}

func sendErrorText(err error) string {
	switch {
	case errors.Is(err, usecase.ErrUnauthorized):
		return "Unauthorized senderId"
	case errors.Is(err, usecase.ErrNotParticipant):
		return "You are not a participant of this chat"
	case errors.Is(err, usecase.ErrChatNotFound):
		return "Chat not found"
	case errors.Is(err, usecase.ErrValidation):
		return err.Error()
	default:
		log.Printf("send message error: %v", err)
		return "Failed to send message"
	}
}

func (h *WebsocketHandler) handleTyping(client *ws.UserClient, data json.RawMessage) {
	var payload TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ChatId == "" {
		client.Send(errorEvent("malformed typing payload"))
		return
	}

	h.hub.BroadcastToRoom(payload.ChatId, typingEvent(client.UserId), client.UserId)
}

func (h *WebsocketHandler) handleCheckOnlineStatus(client *ws.UserClient, data json.RawMessage) {
	var payload CheckOnlineStatusPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.UserIdToCheck == "" {
		client.Send(errorEvent("malformed check_online_status payload"))
		return
	}

	isOnline := h.hub.IsOnline(payload.UserIdToCheck)
	client.Send(onlineStatusEvent(payload.UserIdToCheck, isOnline))
}
