package tenancy

import (
	"github.com/pavitra93/go-facility-platform/shared/models"
)

// AudienceVisible reports whether content with the given audience is visible
// to a member of groups. An empty audience is visible to everyone.
func AudienceVisible(audience []models.AudienceTarget, groups []models.AudienceTarget) bool {
	if len(audience) == 0 {
		return true
	}
	for _, target := range audience {
		for _, g := range groups {
			if target.Type == g.Type && target.Entity == g.Entity {
				return true
			}
		}
	}
	return false
}

// OccupantGroups derives the audience groups of an occupant living in space.
// A nil space yields no groups.
func OccupantGroups(space *models.Space) []models.AudienceTarget {
	if space == nil {
		return nil
	}
	return []models.AudienceTarget{
		{Type: models.AudienceSpace, Entity: space.ID.String()},
		{Type: models.AudienceFloor, Entity: space.FloorKey()},
		{Type: models.AudienceBuilding, Entity: space.BuildingID.String()},
	}
}

// ValidateAudience rejects malformed targets.
func ValidateAudience(audience []models.AudienceTarget) error {
	for _, t := range audience {
		if !t.Valid() {
			return InvalidArgument("Invalid audience target %q:%q", t.Type, t.Entity)
		}
	}
	return nil
}
