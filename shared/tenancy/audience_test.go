package tenancy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/stretchr/testify/assert"
)

func TestAudienceVisible(t *testing.T) {
	space := &models.Space{BuildingID: uuid.New(), Floor: 3}
	space.ID = uuid.New()
	groups := OccupantGroups(space)

	tests := []struct {
		name     string
		audience []models.AudienceTarget
		want     bool
	}{
		{"empty audience is public", nil, true},
		{"matching space", []models.AudienceTarget{{Type: models.AudienceSpace, Entity: space.ID.String()}}, true},
		{"matching floor", []models.AudienceTarget{{Type: models.AudienceFloor, Entity: space.BuildingID.String() + ":3"}}, true},
		{"other floor", []models.AudienceTarget{{Type: models.AudienceFloor, Entity: space.BuildingID.String() + ":4"}}, false},
		{"matching building", []models.AudienceTarget{{Type: models.AudienceBuilding, Entity: space.BuildingID.String()}}, true},
		{"type must match", []models.AudienceTarget{{Type: models.AudienceBuilding, Entity: space.ID.String()}}, false},
		{"any of several", []models.AudienceTarget{
			{Type: models.AudienceSpace, Entity: uuid.NewString()},
			{Type: models.AudienceBuilding, Entity: space.BuildingID.String()},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AudienceVisible(tt.audience, groups))
		})
	}
}

func TestOccupantWithoutSpaceSeesOnlyPublicContent(t *testing.T) {
	groups := OccupantGroups(nil)
	assert.True(t, AudienceVisible(nil, groups))
	assert.False(t, AudienceVisible([]models.AudienceTarget{{Type: models.AudienceBuilding, Entity: "b"}}, groups))
}

func TestValidateAudience(t *testing.T) {
	assert.NoError(t, ValidateAudience(nil))
	assert.NoError(t, ValidateAudience([]models.AudienceTarget{{Type: models.AudienceFloor, Entity: "b:1"}}))
	assert.ErrorIs(t, ValidateAudience([]models.AudienceTarget{{Type: models.AudienceFloor}}), ErrInvalidArgument)
	assert.ErrorIs(t, ValidateAudience([]models.AudienceTarget{{Type: "unit", Entity: "x"}}), ErrInvalidArgument)
}
