package entity

import "time"

// ReadState records when a participant last opened the chat. Absence
// means never opened, which unread derivation treats as the epoch.
type ReadState struct {
	UserId   string    `bson:"userId" json:"userId"`
	OpenedAt time.Time `bson:"openedAt" json:"openedAt"`
}

// Chat is a two-party conversation attached to a consultation. The
// participant set is fixed at creation.
type Chat struct {
	Id             string      `bson:"_id" json:"id"`
	ConsultationId string      `bson:"consultationId" json:"consultationId"`
	Participants   []string    `bson:"participants" json:"participants"`
	LastOpenedAt   []ReadState `bson:"lastOpenedAt" json:"lastOpenedAt"`
	CreatedAt      time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time   `bson:"updatedAt" json:"updatedAt"`
}

func (c Chat) HasParticipant(userId string) bool {
	for _, p := range c.Participants {
		if p == userId {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userId.
func (c Chat) OtherParticipant(userId string) (string, bool) {
	for _, p := range c.Participants {
		if p != userId {
			return p, true
		}
	}
	return "", false
}

// LastOpenedBy returns the user's read-state timestamp, or the zero
// time if the user never opened the chat.
func (c Chat) LastOpenedBy(userId string) time.Time {
	for _, rs := range c.LastOpenedAt {
		if rs.UserId == userId {
			return rs.OpenedAt
		}
	}
	return time.Time{}
}

// ChatSummary is the listing view of a chat for one user.
type ChatSummary struct {
	ChatId                string   `json:"chatId"`
	ConsultationTitle     string   `json:"consultationTitle,omitempty"`
	ConsultationSpecialty string   `json:"consultationSpecialty,omitempty"`
	OtherUserId           string   `json:"otherUserId"`
	OtherUserName         string   `json:"otherUserName"`
	OtherUserRole         string   `json:"otherUserRole"`
	LastMessage           *Message `json:"lastMessage,omitempty"`
	UnreadCount           int64    `json:"unreadCount"`
}

// ReadWindow pairs a chat with the lower bound for its unread
// computation (zero time when the user has no read-state entry).
type ReadWindow struct {
	ChatId string
	Since  time.Time
}
