package models

import (
	"github.com/google/uuid"
)

// Activity is an append-only audit entry written after every mutation.
// CreatedAt is the event timestamp.
type Activity struct {
	Base
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Description string    `json:"description"`
	Type        string    `json:"type" gorm:"type:varchar(64);index"`
	EntityID    uuid.UUID `json:"entity_id" gorm:"type:uuid;index"`
	ActorID     string    `json:"actor_id" gorm:"type:varchar(255)"`
}

func (Activity) TableName() string {
	return "activities"
}

// DeviceToken is a push token registered by a user on one device.
type DeviceToken struct {
	Base
	UserID   string `json:"user_id" gorm:"type:varchar(255);index"`
	Token    string `json:"token" gorm:"type:varchar(512);not null"`
	Platform string `json:"platform" gorm:"type:varchar(32)"`
}

func (DeviceToken) TableName() string {
	return "device_tokens"
}

// All lists every persisted model for migrations.
func All() []interface{} {
	return []interface{}{
		&Building{}, &Space{}, &Occupant{},
		&Facility{}, &BookingType{}, &Booking{},
		&Ticket{}, &WorkOrder{}, &Parcel{},
		&Announcement{}, &Event{}, &Offer{}, &Chat{}, &ChatMessage{},
		&ParkingSpot{}, &Vehicle{}, &ParkingLog{},
		&Activity{}, &DeviceToken{},
	}
}
