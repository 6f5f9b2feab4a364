package entity

import "time"

const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeVideo = "video"
	MessageTypeFile  = "file"
	MessageTypeAudio = "audio"
)

// ValidMessageType reports whether t is one of the supported message types.
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeFile, MessageTypeAudio:
		return true
	}
	return false
}

// Message belongs to one chat. DeletedFor holds the ids of users who
// soft-deleted it for themselves; it only ever grows. Once it covers
// the chat's whole participant set the record is physically removed.
type Message struct {
	Id                 string    `bson:"_id" json:"id"`
	ChatId             string    `bson:"chatId" json:"chatId"`
	SenderId           string    `bson:"senderId" json:"senderId"`
	Type               string    `bson:"type" json:"type"`
	Content            string    `bson:"content,omitempty" json:"content,omitempty"`
	URL                string    `bson:"url,omitempty" json:"url,omitempty"`
	DeletedFor         []string  `bson:"deletedFor" json:"-"`
	DeletedForEveryone bool      `bson:"deletedForEveryone" json:"-"`
	CreatedAt          time.Time `bson:"createdAt" json:"createdAt"`
}

// VisibleTo reports whether the message is visible to userId, i.e. the
// user has not soft-deleted it.
func (m Message) VisibleTo(userId string) bool {
	if m.DeletedForEveryone {
		return false
	}
	for _, d := range m.DeletedFor {
		if d == userId {
			return false
		}
	}
	return true
}

// IsFullyDeleted reports whether deletedFor covers every participant,
// at which point the message can be purged.
func IsFullyDeleted(deletedFor, participants []string) bool {
	if len(participants) == 0 {
		return false
	}
	for _, p := range participants {
		found := false
		for _, d := range deletedFor {
			if d == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ChatStats aggregates media counts for one chat as seen by one user.
type ChatStats struct {
	Images int64 `json:"images"`
	Videos int64 `json:"videos"`
	Files  int64 `json:"files"`
	Links  int64 `json:"links"`
	Total  int64 `json:"total"`
}
