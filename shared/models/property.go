package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Building struct {
	Base
	Name           string `json:"name" gorm:"type:varchar(255);not null"`
	Address        string `json:"address"`
	Floors         int    `json:"floors"`
	ImageStorageID string `json:"image_storage_id"`
}

func (Building) TableName() string {
	return "buildings"
}

type SpaceType string

const (
	SpaceApartment SpaceType = "apartment"
	SpaceOffice    SpaceType = "office"
	SpaceRetail    SpaceType = "retail"
	SpaceStorage   SpaceType = "storage"
)

func (t SpaceType) Valid() bool {
	switch t {
	case SpaceApartment, SpaceOffice, SpaceRetail, SpaceStorage:
		return true
	}
	return false
}

type Space struct {
	Base
	BuildingID uuid.UUID `json:"building_id" gorm:"type:uuid;index"`
	Name       string    `json:"name" gorm:"type:varchar(255);not null"`
	Floor      int       `json:"floor"`
	Type       SpaceType `json:"type" gorm:"type:varchar(32)"`
	Letting    Letting   `json:"letting" gorm:"type:jsonb;serializer:json"`
}

func (Space) TableName() string {
	return "spaces"
}

// FloorKey is the audience entity for the space's floor.
func (s *Space) FloorKey() string {
	return fmt.Sprintf("%s:%d", s.BuildingID, s.Floor)
}

var ErrLettingAgentRequired = errors.New("letting agent name and phone are required when letting is enabled")

// Letting is either disabled or enabled with an agent. The zero value is
// disabled.
type Letting struct {
	Agent *LettingAgent
}

type LettingAgent struct {
	Name  string `json:"agent_name"`
	Phone string `json:"agent_phone"`
	Email string `json:"agent_email,omitempty"`
}

func (l Letting) Enabled() bool {
	return l.Agent != nil
}

func (l Letting) Validate() error {
	if l.Agent != nil && (l.Agent.Name == "" || l.Agent.Phone == "") {
		return ErrLettingAgentRequired
	}
	return nil
}

type lettingWire struct {
	Enabled    bool   `json:"enabled"`
	AgentName  string `json:"agent_name,omitempty"`
	AgentPhone string `json:"agent_phone,omitempty"`
	AgentEmail string `json:"agent_email,omitempty"`
}

func (l Letting) MarshalJSON() ([]byte, error) {
	w := lettingWire{Enabled: l.Agent != nil}
	if l.Agent != nil {
		w.AgentName = l.Agent.Name
		w.AgentPhone = l.Agent.Phone
		w.AgentEmail = l.Agent.Email
	}
	return json.Marshal(w)
}

func (l *Letting) UnmarshalJSON(data []byte) error {
	var w lettingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if !w.Enabled {
		l.Agent = nil
		return nil
	}
	l.Agent = &LettingAgent{Name: w.AgentName, Phone: w.AgentPhone, Email: w.AgentEmail}
	return l.Validate()
}

type Occupant struct {
	Base
	UserID  string     `json:"user_id" gorm:"type:varchar(255);index"`
	Name    string     `json:"name" gorm:"type:varchar(255);not null"`
	Email   string     `json:"email"`
	Phone   string     `json:"phone"`
	SpaceID *uuid.UUID `json:"space_id,omitempty" gorm:"type:uuid;index"`
}

func (Occupant) TableName() string {
	return "occupants"
}
