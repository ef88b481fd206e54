package models

import (
	"time"

	"github.com/google/uuid"
)

type ParkingSpot struct {
	Base
	BuildingID uuid.UUID  `json:"building_id" gorm:"type:uuid;index"`
	Label      string     `json:"label" gorm:"type:varchar(64);not null"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Occupied   bool       `json:"occupied"`
	VehicleID  *uuid.UUID `json:"vehicle_id,omitempty" gorm:"type:uuid"`
}

func (ParkingSpot) TableName() string {
	return "parking_spots"
}

type Vehicle struct {
	Base
	OccupantID *uuid.UUID `json:"occupant_id,omitempty" gorm:"type:uuid;index"`
	Plate      string     `json:"plate" gorm:"type:varchar(32);not null"`
	Make       string     `json:"make"`
	Color      string     `json:"color"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}

// ParkingLog records one stay of a vehicle in a spot. ExitedAt is nil while
// the vehicle is still parked.
type ParkingLog struct {
	Base
	VehicleID uuid.UUID  `json:"vehicle_id" gorm:"type:uuid;index"`
	SpotID    uuid.UUID  `json:"spot_id" gorm:"type:uuid;index"`
	EnteredAt time.Time  `json:"entered_at"`
	ExitedAt  *time.Time `json:"exited_at,omitempty"`
}

func (ParkingLog) TableName() string {
	return "parking_logs"
}
