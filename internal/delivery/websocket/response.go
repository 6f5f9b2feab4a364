package websocket

import (
	"encoding/json"

	"medichat/internal/entity"
)

const (
	EventNewMessage    = "new_message"
	EventUnreadMessage = "unread_message"
	EventOnlineStatus  = "online_status"
	EventError         = "error"
)

type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func marshalEvent(event string, data any) []byte {
	payload, err := json.Marshal(outEnvelope{Event: event, Data: data})
	if err != nil {
		return nil
	}
	return payload
}

func newMessageEvent(message entity.Message) []byte {
	return marshalEvent(EventNewMessage, message)
}

func unreadMessageEvent(chatId string) []byte {
	return marshalEvent(EventUnreadMessage, map[string]string{"chatId": chatId})
}

func typingEvent(userId string) []byte {
	return marshalEvent(EventTyping, map[string]string{"userId": userId})
}

func onlineStatusEvent(userId string, isOnline bool) []byte {
	return marshalEvent(EventOnlineStatus, map[string]any{
		"userId":   userId,
		"isOnline": isOnline,
	})
}

func errorEvent(message string) []byte {
	return marshalEvent(EventError, message)
}
