package main

import (
	"context"
	"fmt"

	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/pavitra93/go-facility-platform/shared/notify"
	"github.com/pavitra93/go-facility-platform/shared/tenancy"
)

func (a *App) checkBuilding(_ context.Context, _ *models.Principal, b *models.Building) error {
	return requireField(b.Name, "Name")
}

func (a *App) checkSpace(ctx context.Context, p *models.Principal, s *models.Space) error {
	if err := requireField(s.Name, "Name"); err != nil {
		return err
	}
	building, err := a.Buildings.Get(ctx, p, s.BuildingID)
	if err != nil {
		return err
	}
	if s.Floor < 0 || (building.Floors > 0 && s.Floor > building.Floors) {
		return tenancy.InvalidArgument("Invalid floor")
	}
	return nil
}

func (a *App) checkOccupant(ctx context.Context, p *models.Principal, o *models.Occupant) error {
	if err := requireField(o.Name, "Name"); err != nil {
		return err
	}
	if o.SpaceID != nil {
		if _, err := a.Spaces.Get(ctx, p, *o.SpaceID); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) checkFacility(ctx context.Context, p *models.Principal, f *models.Facility) error {
	if err := requireField(f.Name, "Name"); err != nil {
		return err
	}
	if f.BuildingID != nil {
		if _, err := a.Buildings.Get(ctx, p, *f.BuildingID); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) checkBookingType(ctx context.Context, p *models.Principal, bt *models.BookingType) error {
	if err := requireField(bt.Name, "Name"); err != nil {
		return err
	}
	if _, err := a.Facilities.Get(ctx, p, bt.FacilityID); err != nil {
		return err
	}
	if bt.IntervalMinutes <= 0 {
		return tenancy.InvalidArgument("Interval must be positive")
	}
	if bt.OpensAt < 0 || bt.ClosesAt > minutesPerDay || bt.OpensAt >= bt.ClosesAt {
		return tenancy.InvalidArgument("Opening hours must satisfy 0 <= opens_at < closes_at <= %d", minutesPerDay)
	}
	return nil
}

// checkBooking verifies references and rejects overlaps with other live
// bookings of the same facility.
func (a *App) checkBooking(ctx context.Context, p *models.Principal, b *models.Booking) error {
	facility, err := a.Facilities.Get(ctx, p, b.FacilityID)
	if err != nil {
		return err
	}
	if !facility.Bookable {
		return tenancy.InvalidArgument("Facility is not bookable")
	}
	bt, err := a.BookingTypes.Get(ctx, p, b.BookingTypeID)
	if err != nil {
		return err
	}
	if bt.FacilityID != b.FacilityID {
		return tenancy.InvalidArgument("Booking type does not belong to facility")
	}
	if _, err := a.Occupants.Get(ctx, p, b.OccupantID); err != nil {
		return err
	}
	if !b.EndsAt.After(b.StartsAt) {
		return tenancy.InvalidArgument("Booking must end after it starts")
	}
	if b.Status == models.BookingCancelled {
		return nil
	}

	existing, err := a.Bookings.List(ctx, p, tenancy.Where("facility_id", b.FacilityID))
	if err != nil {
		return err
	}
	for i := range existing {
		other := &existing[i]
		if other.ID == b.ID || other.Status == models.BookingCancelled {
			continue
		}
		if other.Overlaps(b.StartsAt, b.EndsAt) {
			return tenancy.InvalidArgument("Booking overlaps an existing booking")
		}
	}
	return nil
}

func (a *App) checkTicket(ctx context.Context, p *models.Principal, t *models.Ticket) error {
	if err := requireField(t.Title, "Title"); err != nil {
		return err
	}
	if !t.Status.Valid() {
		return tenancy.InvalidArgument("Invalid status")
	}
	if t.SpaceID != nil {
		if _, err := a.Spaces.Get(ctx, p, *t.SpaceID); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) checkWorkOrder(ctx context.Context, p *models.Principal, w *models.WorkOrder) error {
	if err := requireField(w.Title, "Title"); err != nil {
		return err
	}
	if w.TicketID != nil {
		if _, err := a.Tickets.Get(ctx, p, *w.TicketID); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) checkParcel(ctx context.Context, p *models.Principal, parcel *models.Parcel) error {
	_, err := a.Occupants.Get(ctx, p, parcel.OccupantID)
	return err
}

func checkEvent(_ context.Context, _ *models.Principal, e *models.Event) error {
	if err := requireField(e.Title, "Title"); err != nil {
		return err
	}
	if !e.EndsAt.IsZero() && e.EndsAt.Before(e.StartsAt) {
		return tenancy.InvalidArgument("Event must end after it starts")
	}
	return nil
}

func checkChat(_ context.Context, p *models.Principal, c *models.Chat) error {
	if c.OccupantUserID == "" || c.StaffUserID == "" {
		return tenancy.InvalidArgument("Chat needs an occupant and a staff participant")
	}
	if !p.IsStaff() && c.OccupantUserID != p.SubjectID {
		return tenancy.InvalidArgument("Occupants can only open their own chats")
	}
	return nil
}

func (a *App) checkChatMessage(ctx context.Context, p *models.Principal, m *models.ChatMessage) error {
	_, err := a.Chats.Get(ctx, p, m.ChatID)
	return err
}

func (a *App) checkParkingSpot(ctx context.Context, p *models.Principal, s *models.ParkingSpot) error {
	if err := requireField(s.Label, "Label"); err != nil {
		return err
	}
	_, err := a.Buildings.Get(ctx, p, s.BuildingID)
	return err
}

func (a *App) checkVehicle(ctx context.Context, p *models.Principal, v *models.Vehicle) error {
	if err := requireField(v.Plate, "Plate"); err != nil {
		return err
	}
	if v.OccupantID != nil {
		if _, err := a.Occupants.Get(ctx, p, *v.OccupantID); err != nil {
			return err
		}
	}
	return nil
}

// notifyTicket tells the creator when their ticket is completed.
func (a *App) notifyTicket(_ context.Context, _ *models.Principal, op tenancy.Operation, prev, t *models.Ticket) []notify.Intent {
	if op != tenancy.OpUpdated || t.CreatedBy == "" {
		return nil
	}
	if prev.Status == models.TicketCompleted || t.Status != models.TicketCompleted {
		return nil
	}
	return []notify.Intent{{
		TargetUserID: t.CreatedBy,
		Title:        "Request completed",
		Body:         fmt.Sprintf("%q has been completed", t.Title),
	}}
}

// notifyParcel tells the occupant a new parcel is waiting.
func (a *App) notifyParcel(ctx context.Context, p *models.Principal, op tenancy.Operation, _, parcel *models.Parcel) []notify.Intent {
	if op != tenancy.OpCreated {
		return nil
	}
	occupant, err := a.Occupants.Get(ctx, p, parcel.OccupantID)
	if err != nil || occupant.UserID == "" {
		return nil
	}
	body := "A parcel is waiting for you at reception"
	if parcel.Carrier != "" {
		body = fmt.Sprintf("A parcel from %s is waiting for you at reception", parcel.Carrier)
	}
	return []notify.Intent{{
		TargetUserID: occupant.UserID,
		Title:        "Parcel arrived",
		Body:         body,
	}}
}

// notifyBooking tells the occupant when their booking is confirmed.
func (a *App) notifyBooking(ctx context.Context, p *models.Principal, op tenancy.Operation, prev, b *models.Booking) []notify.Intent {
	if b.Status != models.BookingConfirmed || (prev != nil && prev.Status == models.BookingConfirmed) || op == tenancy.OpDeleted {
		return nil
	}
	occupant, err := a.Occupants.Get(ctx, p, b.OccupantID)
	if err != nil || occupant.UserID == "" {
		return nil
	}
	return []notify.Intent{{
		TargetUserID: occupant.UserID,
		Title:        "Booking confirmed",
		Body:         fmt.Sprintf("Your booking on %s is confirmed", b.StartsAt.Format("2 Jan 15:04")),
	}}
}

// notifyChatMessage tells the participant who did not send the message.
func (a *App) notifyChatMessage(ctx context.Context, p *models.Principal, op tenancy.Operation, _, m *models.ChatMessage) []notify.Intent {
	if op != tenancy.OpCreated {
		return nil
	}
	chat, err := a.Chats.Get(ctx, p, m.ChatID)
	if err != nil {
		return nil
	}
	recipient := chat.Counterpart(m.SenderID)
	if recipient == "" || recipient == m.SenderID {
		return nil
	}
	return []notify.Intent{{
		TargetUserID: recipient,
		Title:        p.Name(),
		Body:         m.Body,
	}}
}
