package models

import (
	"time"

	"github.com/google/uuid"
)

type Announcement struct {
	Base
	Title          string           `json:"title" gorm:"type:varchar(255);not null"`
	Body           string           `json:"body"`
	ImageStorageID string           `json:"image_storage_id"`
	Audience       []AudienceTarget `json:"audience" gorm:"type:jsonb;serializer:json"`
}

func (Announcement) TableName() string {
	return "announcements"
}

type Event struct {
	Base
	Title       string           `json:"title" gorm:"type:varchar(255);not null"`
	Description string           `json:"description"`
	Location    string           `json:"location"`
	StartsAt    time.Time        `json:"starts_at"`
	EndsAt      time.Time        `json:"ends_at"`
	Audience    []AudienceTarget `json:"audience" gorm:"type:jsonb;serializer:json"`
}

func (Event) TableName() string {
	return "events"
}

type Offer struct {
	Base
	Title       string           `json:"title" gorm:"type:varchar(255);not null"`
	Description string           `json:"description"`
	Provider    string           `json:"provider"`
	ValidUntil  *time.Time       `json:"valid_until,omitempty"`
	Audience    []AudienceTarget `json:"audience" gorm:"type:jsonb;serializer:json"`
}

func (Offer) TableName() string {
	return "offers"
}

// Chat is a conversation between one occupant and one staff member.
type Chat struct {
	Base
	OccupantUserID string `json:"occupant_user_id" gorm:"type:varchar(255);index"`
	StaffUserID    string `json:"staff_user_id" gorm:"type:varchar(255);index"`
	Subject        string `json:"subject"`
}

func (Chat) TableName() string {
	return "chats"
}

// Counterpart returns the participant that is not sender.
func (c *Chat) Counterpart(sender string) string {
	if sender == c.OccupantUserID {
		return c.StaffUserID
	}
	return c.OccupantUserID
}

type ChatMessage struct {
	Base
	ChatID   uuid.UUID `json:"chat_id" gorm:"type:uuid;index"`
	SenderID string    `json:"sender_id" gorm:"type:varchar(255)"`
	Body     string    `json:"body"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
