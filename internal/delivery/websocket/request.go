package websocket

import "encoding/json"

const (
	EventSendMessage       = "send_message"
	EventTyping            = "typing"
	EventCheckOnlineStatus = "check_online_status"
)

// Envelope is the wire format for every inbound event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type SendMessagePayload struct {
	ChatId   string `json:"chatId"`
	SenderId string `json:"senderId"`
	Type     string `json:"type"`
	Content  string `json:"content,omitempty"`
	URL      string `json:"url,omitempty"`
}

type TypingPayload struct {
	ChatId string `json:"chatId"`
}

type CheckOnlineStatusPayload struct {
	UserIdToCheck string `json:"userIdToCheck"`
}
