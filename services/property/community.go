package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/pavitra93/go-facility-platform/shared/tenancy"
	"github.com/pavitra93/go-facility-platform/shared/utils"
)

var errParcelCollected = tenancy.InvalidArgument("Parcel already collected")

func (a *App) collectParcel(c *gin.Context) {
	id, ok := pathID(c, a.Parcels.Entity())
	if !ok {
		return
	}
	parcel, err := a.Parcels.Update(c.Request.Context(), principal(c), id, func(p *models.Parcel) error {
		if p.Status == models.ParcelCollected {
			return errParcelCollected
		}
		now := a.now().UTC()
		p.Status = models.ParcelCollected
		p.CollectedAt = &now
		return nil
	})
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	utils.OKResponse(c, "Parcel collected successfully", parcel)
}

func (a *App) listMessages(c *gin.Context) {
	id, ok := pathID(c, a.Chats.Entity())
	if !ok {
		return
	}
	ctx := c.Request.Context()
	p := principal(c)
	if _, err := a.Chats.Get(ctx, p, id); err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	messages, err := a.ChatMessages.List(ctx, p, tenancy.Where("chat_id", id))
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	utils.OKResponse(c, "Messages retrieved successfully", messages)
}

func (a *App) postMessage(c *gin.Context) {
	id, ok := pathID(c, a.Chats.Entity())
	if !ok {
		return
	}
	var in ChatMessageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.BadRequestResponse(c, "Invalid request format")
		return
	}
	in.ID = nil
	in.ChatID = id

	ctx := c.Request.Context()
	p := principal(c)
	// The chat must be visible before the message is even validated.
	if _, err := a.Chats.Get(ctx, p, id); err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	messageID, err := a.ChatMessages.Upsert(ctx, p, in)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, "Message sent successfully", gin.H{"id": messageID})
}

// occupantGroups resolves the audience groups for the occupant named by the
// occupant_id query parameter, or the caller's own occupant record.
func (a *App) occupantGroups(c *gin.Context) ([]models.AudienceTarget, error) {
	ctx := c.Request.Context()
	p := principal(c)

	var occupant *models.Occupant
	if raw := c.Query("occupant_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, tenancy.NotFound(a.Occupants.Entity())
		}
		if occupant, err = a.Occupants.Get(ctx, p, id); err != nil {
			return nil, err
		}
	} else {
		if p == nil {
			return nil, tenancy.ErrUnauthenticated
		}
		rows, err := a.Occupants.List(ctx, p, tenancy.Where("user_id", p.SubjectID))
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, tenancy.NotFound(a.Occupants.Entity())
		}
		occupant = &rows[0]
	}

	if occupant.SpaceID == nil {
		return nil, nil
	}
	space, err := a.Spaces.Get(ctx, p, *occupant.SpaceID)
	if err != nil {
		return nil, err
	}
	return tenancy.OccupantGroups(space), nil
}

// imageURL resolves a storage id, leaving it empty when it cannot be.
func (a *App) imageURL(ctx context.Context, p *models.Principal, storageID string) string {
	if storageID == "" || a.blobs == nil || p == nil {
		return ""
	}
	url, err := a.blobs.URL(ctx, p.TenantID, storageID)
	if err != nil {
		a.log.WithError(err).WithField("storage_id", storageID).Debug("Image URL unavailable")
		return ""
	}
	return url
}

type announcementView struct {
	models.Announcement
	ImageURL string `json:"image_url,omitempty"`
}

func (a *App) announcementFeed(c *gin.Context) {
	groups, err := a.occupantGroups(c)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	ctx := c.Request.Context()
	p := principal(c)
	rows, err := a.Announcements.ListVisible(ctx, p, groups)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	views := make([]announcementView, len(rows))
	for i := range rows {
		views[i] = announcementView{Announcement: rows[i], ImageURL: a.imageURL(ctx, p, rows[i].ImageStorageID)}
	}
	utils.OKResponse(c, "Announcements retrieved successfully", views)
}

func (a *App) eventFeed(c *gin.Context) {
	groups, err := a.occupantGroups(c)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	rows, err := a.Events.ListVisible(c.Request.Context(), principal(c), groups)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	utils.OKResponse(c, "Events retrieved successfully", rows)
}

// offerFeed hides offers whose validity has lapsed.
func (a *App) offerFeed(c *gin.Context) {
	groups, err := a.occupantGroups(c)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	rows, err := a.Offers.ListVisible(c.Request.Context(), principal(c), groups)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	now := a.now()
	live := rows[:0]
	for _, o := range rows {
		if o.ValidUntil == nil || o.ValidUntil.After(now) {
			live = append(live, o)
		}
	}
	utils.OKResponse(c, "Offers retrieved successfully", live)
}

type facilityView struct {
	models.Facility
	BuildingName string `json:"building_name"`
	ImageURL     string `json:"image_url,omitempty"`
}

func (a *App) listFacilities(c *gin.Context) {
	filters, err := queryFilters(c, []listFilter{byID("building_id")})
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	ctx := c.Request.Context()
	p := principal(c)
	rows, err := a.Facilities.List(ctx, p, filters...)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	var buildingIDs []uuid.UUID
	for _, f := range rows {
		if f.BuildingID != nil {
			buildingIDs = append(buildingIDs, *f.BuildingID)
		}
	}
	buildings := tenancy.ResolveLabels[models.Building](ctx, p, a.Buildings, buildingIDs, func(b *models.Building) string { return b.Name })

	views := make([]facilityView, len(rows))
	for i, f := range rows {
		views[i] = facilityView{Facility: f, ImageURL: a.imageURL(ctx, p, f.ImageStorageID)}
		if f.BuildingID != nil {
			views[i].BuildingName = tenancy.Label(buildings, *f.BuildingID)
		}
	}
	utils.OKResponse(c, "Facilities retrieved successfully", views)
}

// listDeviceTokens returns the caller's own device tokens.
func (a *App) listDeviceTokens(c *gin.Context) {
	p := principal(c)
	if p == nil {
		utils.DomainErrorResponse(c, tenancy.ErrUnauthenticated)
		return
	}
	tokens, err := a.DeviceTokens.List(c.Request.Context(), p, tenancy.Where("user_id", p.SubjectID))
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	utils.OKResponse(c, "Device tokens retrieved successfully", tokens)
}
