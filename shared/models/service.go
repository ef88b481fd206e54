package models

import (
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketCompleted  TicketStatus = "completed"
	TicketCancelled  TicketStatus = "cancelled"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketCompleted, TicketCancelled:
		return true
	}
	return false
}

type TicketType string

const (
	TicketRequest TicketType = "request"
	TicketIssue   TicketType = "issue"
)

func (t TicketType) Valid() bool {
	return t == TicketRequest || t == TicketIssue
}

// Ticket is a service request or reported issue raised by an occupant or
// staff member.
type Ticket struct {
	Base
	SpaceID     *uuid.UUID   `json:"space_id,omitempty" gorm:"type:uuid;index"`
	CreatedBy   string       `json:"created_by" gorm:"type:varchar(255);index"`
	OperatorID  string       `json:"operator_id" gorm:"type:varchar(255);index"`
	Type        TicketType   `json:"type" gorm:"type:varchar(32)"`
	Title       string       `json:"title" gorm:"type:varchar(255);not null"`
	Description string       `json:"description"`
	Status      TicketStatus `json:"status" gorm:"type:varchar(32);index"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

func (Ticket) TableName() string {
	return "tickets"
}

type WorkOrder struct {
	Base
	TicketID    *uuid.UUID   `json:"ticket_id,omitempty" gorm:"type:uuid;index"`
	AssigneeID  string       `json:"assignee_id" gorm:"type:varchar(255)"`
	Title       string       `json:"title" gorm:"type:varchar(255);not null"`
	Description string       `json:"description"`
	Status      TicketStatus `json:"status" gorm:"type:varchar(32)"`
	DueAt       *time.Time   `json:"due_at,omitempty"`
}

func (WorkOrder) TableName() string {
	return "work_orders"
}

type ParcelStatus string

const (
	ParcelReceived  ParcelStatus = "received"
	ParcelCollected ParcelStatus = "collected"
)

type Parcel struct {
	Base
	OccupantID     uuid.UUID    `json:"occupant_id" gorm:"type:uuid;index"`
	Carrier        string       `json:"carrier"`
	TrackingNumber string       `json:"tracking_number"`
	Status         ParcelStatus `json:"status" gorm:"type:varchar(32)"`
	CollectedAt    *time.Time   `json:"collected_at,omitempty"`
	ImageStorageID string       `json:"image_storage_id"`
}

func (Parcel) TableName() string {
	return "parcels"
}
