package models

import (
	"github.com/google/uuid"
)

type UserRole string

const (
	RoleManager  UserRole = "manager"
	RoleStaff    UserRole = "staff"
	RoleOccupant UserRole = "occupant"
)

// Principal is the caller identity resolved from a verified token. It is
// never persisted.
type Principal struct {
	SubjectID   string    `json:"subject_id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Role        UserRole  `json:"role"`
}

func (p *Principal) IsManager() bool {
	return p.Role == RoleManager
}

func (p *Principal) IsStaff() bool {
	return p.Role == RoleManager || p.Role == RoleStaff
}

// Name returns the display name, falling back to email and then subject.
func (p *Principal) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if p.Email != "" {
		return p.Email
	}
	return p.SubjectID
}
