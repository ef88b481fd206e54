package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is embedded by every tenant-scoped record.
type Base struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID      `json:"tenant_id" gorm:"type:uuid;not null;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (b *Base) GetID() uuid.UUID {
	return b.ID
}

func (b *Base) SetID(id uuid.UUID) {
	b.ID = id
}

func (b *Base) GetTenantID() uuid.UUID {
	return b.TenantID
}

func (b *Base) SetTenantID(id uuid.UUID) {
	b.TenantID = id
}

func (b *Base) GetCreatedAt() time.Time {
	return b.CreatedAt
}

// Stamp sets CreatedAt on first write and UpdatedAt on every write.
func (b *Base) Stamp(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

type AudienceType string

const (
	AudienceSpace    AudienceType = "space"
	AudienceFloor    AudienceType = "floor"
	AudienceBuilding AudienceType = "building"
)

// AudienceTarget names one group a piece of content is visible to. Floor
// entities are written as "<building id>:<floor>".
type AudienceTarget struct {
	Type   AudienceType `json:"type"`
	Entity string       `json:"entity"`
}

func (t AudienceTarget) Valid() bool {
	switch t.Type {
	case AudienceSpace, AudienceFloor, AudienceBuilding:
		return t.Entity != ""
	}
	return false
}
