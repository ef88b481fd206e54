package models

import (
	"time"

	"github.com/google/uuid"
)

type Facility struct {
	Base
	BuildingID     *uuid.UUID       `json:"building_id,omitempty" gorm:"type:uuid;index"`
	Name           string           `json:"name" gorm:"type:varchar(255);not null"`
	Description    string           `json:"description"`
	Bookable       bool             `json:"bookable"`
	ImageStorageID string           `json:"image_storage_id"`
	Audience       []AudienceTarget `json:"audience" gorm:"type:jsonb;serializer:json"`
}

func (Facility) TableName() string {
	return "facilities"
}

// BookingType describes how a facility is booked. OpensAt and ClosesAt are
// minutes from midnight.
type BookingType struct {
	Base
	FacilityID      uuid.UUID `json:"facility_id" gorm:"type:uuid;index"`
	Name            string    `json:"name" gorm:"type:varchar(255);not null"`
	IntervalMinutes int       `json:"interval_minutes"`
	OpensAt         int       `json:"opens_at"`
	ClosesAt        int       `json:"closes_at"`
	Price           float64   `json:"price"`
}

func (BookingType) TableName() string {
	return "booking_types"
}

// SlotCount is the number of whole intervals between opening and closing.
func (bt *BookingType) SlotCount() int {
	if bt.IntervalMinutes <= 0 || bt.ClosesAt <= bt.OpensAt {
		return 0
	}
	return (bt.ClosesAt - bt.OpensAt) / bt.IntervalMinutes
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}

type Booking struct {
	Base
	FacilityID    uuid.UUID     `json:"facility_id" gorm:"type:uuid;index"`
	BookingTypeID uuid.UUID     `json:"booking_type_id" gorm:"type:uuid;index"`
	OccupantID    uuid.UUID     `json:"occupant_id" gorm:"type:uuid;index"`
	StartsAt      time.Time     `json:"starts_at"`
	EndsAt        time.Time     `json:"ends_at"`
	Status        BookingStatus `json:"status" gorm:"type:varchar(32)"`
	Notes         string        `json:"notes"`
}

func (Booking) TableName() string {
	return "bookings"
}

// Overlaps reports whether the half-open intervals [StartsAt, EndsAt) and
// [start, end) intersect.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartsAt.Before(end) && start.Before(b.EndsAt)
}
