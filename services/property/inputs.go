package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/pavitra93/go-facility-platform/shared/tenancy"
)

// target carries the optional id that turns an upsert into a patch.
type target struct {
	ID *uuid.UUID `json:"id"`
}

func (t target) TargetID() *uuid.UUID { return t.ID }

func (target) Validate() error { return nil }

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

type BuildingInput struct {
	target
	Name           *string `json:"name"`
	Address        *string `json:"address"`
	Floors         *int    `json:"floors"`
	ImageStorageID *string `json:"image_storage_id"`
}

func (in BuildingInput) Validate() error {
	if in.Floors != nil && *in.Floors < 0 {
		return tenancy.InvalidArgument("Floors cannot be negative")
	}
	return nil
}

func (in BuildingInput) Apply(rec *models.Building) {
	setString(&rec.Name, in.Name)
	setString(&rec.Address, in.Address)
	setInt(&rec.Floors, in.Floors)
	setString(&rec.ImageStorageID, in.ImageStorageID)
}

type SpaceInput struct {
	target
	BuildingID *uuid.UUID        `json:"building_id"`
	Name       *string           `json:"name"`
	Floor      *int              `json:"floor"`
	Type       *models.SpaceType `json:"type"`
	Letting    *models.Letting   `json:"letting"`
}

func (in SpaceInput) Validate() error {
	if in.Type != nil && !in.Type.Valid() {
		return tenancy.InvalidArgument("Invalid space type")
	}
	if in.Letting != nil {
		if err := in.Letting.Validate(); err != nil {
			return tenancy.InvalidArgument("%s", err.Error())
		}
	}
	return nil
}

func (in SpaceInput) Apply(rec *models.Space) {
	if in.BuildingID != nil {
		rec.BuildingID = *in.BuildingID
	}
	setString(&rec.Name, in.Name)
	setInt(&rec.Floor, in.Floor)
	if in.Type != nil {
		rec.Type = *in.Type
	}
	if in.Letting != nil {
		rec.Letting = *in.Letting
	}
}

type OccupantInput struct {
	target
	UserID  *string    `json:"user_id"`
	Name    *string    `json:"name"`
	Email   *string    `json:"email"`
	Phone   *string    `json:"phone"`
	SpaceID *uuid.UUID `json:"space_id"`
}

func (in OccupantInput) Apply(rec *models.Occupant) {
	setString(&rec.UserID, in.UserID)
	setString(&rec.Name, in.Name)
	setString(&rec.Email, in.Email)
	setString(&rec.Phone, in.Phone)
	if in.SpaceID != nil {
		if *in.SpaceID == uuid.Nil {
			rec.SpaceID = nil
		} else {
			id := *in.SpaceID
			rec.SpaceID = &id
		}
	}
}

type FacilityInput struct {
	target
	BuildingID     *uuid.UUID              `json:"building_id"`
	Name           *string                 `json:"name"`
	Description    *string                 `json:"description"`
	Bookable       *bool                   `json:"bookable"`
	ImageStorageID *string                 `json:"image_storage_id"`
	Audience       []models.AudienceTarget `json:"audience"`
}

func (in FacilityInput) Validate() error {
	return tenancy.ValidateAudience(in.Audience)
}

func (in FacilityInput) Apply(rec *models.Facility) {
	if in.BuildingID != nil {
		id := *in.BuildingID
		rec.BuildingID = &id
	}
	setString(&rec.Name, in.Name)
	setString(&rec.Description, in.Description)
	if in.Bookable != nil {
		rec.Bookable = *in.Bookable
	}
	setString(&rec.ImageStorageID, in.ImageStorageID)
	if in.Audience != nil {
		rec.Audience = in.Audience
	}
}

type BookingTypeInput struct {
	target
	FacilityID      *uuid.UUID `json:"facility_id"`
	Name            *string    `json:"name"`
	IntervalMinutes *int       `json:"interval_minutes"`
	OpensAt         *int       `json:"opens_at"`
	ClosesAt        *int       `json:"closes_at"`
	Price           *float64   `json:"price"`
}

func (in BookingTypeInput) Validate() error {
	if in.IntervalMinutes != nil && *in.IntervalMinutes <= 0 {
		return tenancy.InvalidArgument("Interval must be positive")
	}
	if in.Price != nil && *in.Price < 0 {
		return tenancy.InvalidArgument("Price cannot be negative")
	}
	return nil
}

func (in BookingTypeInput) Apply(rec *models.BookingType) {
	if in.FacilityID != nil {
		rec.FacilityID = *in.FacilityID
	}
	setString(&rec.Name, in.Name)
	setInt(&rec.IntervalMinutes, in.IntervalMinutes)
	setInt(&rec.OpensAt, in.OpensAt)
	setInt(&rec.ClosesAt, in.ClosesAt)
	if in.Price != nil {
		rec.Price = *in.Price
	}
}

type BookingInput struct {
	target
	FacilityID    *uuid.UUID            `json:"facility_id"`
	BookingTypeID *uuid.UUID            `json:"booking_type_id"`
	OccupantID    *uuid.UUID            `json:"occupant_id"`
	StartsAt      *time.Time            `json:"starts_at"`
	EndsAt        *time.Time            `json:"ends_at"`
	Status        *models.BookingStatus `json:"status"`
	Notes         *string               `json:"notes"`
}

func (in BookingInput) Validate() error {
	if in.Status != nil && !in.Status.Valid() {
		return tenancy.InvalidArgument("Invalid status")
	}
	return nil
}

func (in BookingInput) Apply(rec *models.Booking) {
	if in.FacilityID != nil {
		rec.FacilityID = *in.FacilityID
	}
	if in.BookingTypeID != nil {
		rec.BookingTypeID = *in.BookingTypeID
	}
	if in.OccupantID != nil {
		rec.OccupantID = *in.OccupantID
	}
	if in.StartsAt != nil {
		rec.StartsAt = in.StartsAt.UTC()
	}
	if in.EndsAt != nil {
		rec.EndsAt = in.EndsAt.UTC()
	}
	if in.Status != nil {
		rec.Status = *in.Status
	}
	setString(&rec.Notes, in.Notes)
}

// TicketInput creates or edits a ticket. Status changes go through the
// status endpoint so completion is stamped consistently.
type TicketInput struct {
	target
	SpaceID     *uuid.UUID         `json:"space_id"`
	OperatorID  *string            `json:"operator_id"`
	Type        *models.TicketType `json:"type"`
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
}

func (in TicketInput) Validate() error {
	if in.Type != nil && !in.Type.Valid() {
		return tenancy.InvalidArgument("Invalid ticket type")
	}
	return nil
}

func (in TicketInput) Apply(rec *models.Ticket) {
	if in.SpaceID != nil {
		id := *in.SpaceID
		rec.SpaceID = &id
	}
	setString(&rec.OperatorID, in.OperatorID)
	if in.Type != nil {
		rec.Type = *in.Type
	}
	setString(&rec.Title, in.Title)
	setString(&rec.Description, in.Description)
}

type WorkOrderInput struct {
	target
	TicketID    *uuid.UUID           `json:"ticket_id"`
	AssigneeID  *string              `json:"assignee_id"`
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Status      *models.TicketStatus `json:"status"`
	DueAt       *time.Time           `json:"due_at"`
}

func (in WorkOrderInput) Validate() error {
	if in.Status != nil && !in.Status.Valid() {
		return tenancy.InvalidArgument("Invalid status")
	}
	return nil
}

func (in WorkOrderInput) Apply(rec *models.WorkOrder) {
	if in.TicketID != nil {
		id := *in.TicketID
		rec.TicketID = &id
	}
	setString(&rec.AssigneeID, in.AssigneeID)
	setString(&rec.Title, in.Title)
	setString(&rec.Description, in.Description)
	if in.Status != nil {
		rec.Status = *in.Status
	}
	if in.DueAt != nil {
		due := in.DueAt.UTC()
		rec.DueAt = &due
	}
}

type ParcelInput struct {
	target
	OccupantID     *uuid.UUID `json:"occupant_id"`
	Carrier        *string    `json:"carrier"`
	TrackingNumber *string    `json:"tracking_number"`
	ImageStorageID *string    `json:"image_storage_id"`
}

func (in ParcelInput) Apply(rec *models.Parcel) {
	if in.OccupantID != nil {
		rec.OccupantID = *in.OccupantID
	}
	setString(&rec.Carrier, in.Carrier)
	setString(&rec.TrackingNumber, in.TrackingNumber)
	setString(&rec.ImageStorageID, in.ImageStorageID)
}

type AnnouncementInput struct {
	target
	Title          *string                 `json:"title"`
	Body           *string                 `json:"body"`
	ImageStorageID *string                 `json:"image_storage_id"`
	Audience       []models.AudienceTarget `json:"audience"`
}

func (in AnnouncementInput) Validate() error {
	return tenancy.ValidateAudience(in.Audience)
}

func (in AnnouncementInput) Apply(rec *models.Announcement) {
	setString(&rec.Title, in.Title)
	setString(&rec.Body, in.Body)
	setString(&rec.ImageStorageID, in.ImageStorageID)
	if in.Audience != nil {
		rec.Audience = in.Audience
	}
}

type EventInput struct {
	target
	Title       *string                 `json:"title"`
	Description *string                 `json:"description"`
	Location    *string                 `json:"location"`
	StartsAt    *time.Time              `json:"starts_at"`
	EndsAt      *time.Time              `json:"ends_at"`
	Audience    []models.AudienceTarget `json:"audience"`
}

func (in EventInput) Validate() error {
	return tenancy.ValidateAudience(in.Audience)
}

func (in EventInput) Apply(rec *models.Event) {
	setString(&rec.Title, in.Title)
	setString(&rec.Description, in.Description)
	setString(&rec.Location, in.Location)
	if in.StartsAt != nil {
		rec.StartsAt = in.StartsAt.UTC()
	}
	if in.EndsAt != nil {
		rec.EndsAt = in.EndsAt.UTC()
	}
	if in.Audience != nil {
		rec.Audience = in.Audience
	}
}

type OfferInput struct {
	target
	Title       *string                 `json:"title"`
	Description *string                 `json:"description"`
	Provider    *string                 `json:"provider"`
	ValidUntil  *time.Time              `json:"valid_until"`
	Audience    []models.AudienceTarget `json:"audience"`
}

func (in OfferInput) Validate() error {
	return tenancy.ValidateAudience(in.Audience)
}

func (in OfferInput) Apply(rec *models.Offer) {
	setString(&rec.Title, in.Title)
	setString(&rec.Description, in.Description)
	setString(&rec.Provider, in.Provider)
	if in.ValidUntil != nil {
		until := in.ValidUntil.UTC()
		rec.ValidUntil = &until
	}
	if in.Audience != nil {
		rec.Audience = in.Audience
	}
}

type ChatInput struct {
	target
	OccupantUserID *string `json:"occupant_user_id"`
	StaffUserID    *string `json:"staff_user_id"`
	Subject        *string `json:"subject"`
}

func (in ChatInput) Apply(rec *models.Chat) {
	setString(&rec.OccupantUserID, in.OccupantUserID)
	setString(&rec.StaffUserID, in.StaffUserID)
	setString(&rec.Subject, in.Subject)
}

// ChatMessageInput is built by the messages endpoint; messages are never
// edited, so it has no target id.
type ChatMessageInput struct {
	target
	ChatID uuid.UUID `json:"-"`
	Body   string    `json:"body"`
}

func (in ChatMessageInput) Validate() error {
	if in.Body == "" {
		return tenancy.InvalidArgument("Message body is required")
	}
	return nil
}

func (in ChatMessageInput) Apply(rec *models.ChatMessage) {
	rec.ChatID = in.ChatID
	rec.Body = in.Body
}

type ParkingSpotInput struct {
	target
	BuildingID *uuid.UUID `json:"building_id"`
	Label      *string    `json:"label"`
	X          *float64   `json:"x"`
	Y          *float64   `json:"y"`
}

func (in ParkingSpotInput) Apply(rec *models.ParkingSpot) {
	if in.BuildingID != nil {
		rec.BuildingID = *in.BuildingID
	}
	setString(&rec.Label, in.Label)
	if in.X != nil {
		rec.X = *in.X
	}
	if in.Y != nil {
		rec.Y = *in.Y
	}
}

type VehicleInput struct {
	target
	OccupantID *uuid.UUID `json:"occupant_id"`
	Plate      *string    `json:"plate"`
	Make       *string    `json:"make"`
	Color      *string    `json:"color"`
}

func (in VehicleInput) Apply(rec *models.Vehicle) {
	if in.OccupantID != nil {
		id := *in.OccupantID
		rec.OccupantID = &id
	}
	setString(&rec.Plate, in.Plate)
	setString(&rec.Make, in.Make)
	setString(&rec.Color, in.Color)
}

// parkingLogInput is internal to the move saga.
type parkingLogInput struct {
	target
	VehicleID uuid.UUID
	SpotID    uuid.UUID
	EnteredAt time.Time
}

func (in parkingLogInput) Apply(rec *models.ParkingLog) {
	rec.VehicleID = in.VehicleID
	rec.SpotID = in.SpotID
	rec.EnteredAt = in.EnteredAt
}

type DeviceTokenInput struct {
	target
	Token    *string `json:"token"`
	Platform *string `json:"platform"`
}

func (in DeviceTokenInput) Apply(rec *models.DeviceToken) {
	setString(&rec.Token, in.Token)
	setString(&rec.Platform, in.Platform)
}
