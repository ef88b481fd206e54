package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/pavitra93/go-facility-platform/shared/tenancy"
	"github.com/pavitra93/go-facility-platform/shared/utils"
)

const dateLayout = "2006-01-02"

// Slot is one bookable interval of a booking type on a given day.
type Slot struct {
	Index    int       `json:"index"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Booked   bool      `json:"booked"`
}

// DaySlots lays out the slots of bt on day (UTC). Slot i covers
// [opens + i*interval, opens + (i+1)*interval).
func DaySlots(bt *models.BookingType, day time.Time) []Slot {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	n := bt.SlotCount()
	slots := make([]Slot, n)
	for i := 0; i < n; i++ {
		start := midnight.Add(time.Duration(bt.OpensAt+i*bt.IntervalMinutes) * time.Minute)
		slots[i] = Slot{
			Index:    i,
			StartsAt: start,
			EndsAt:   start.Add(time.Duration(bt.IntervalMinutes) * time.Minute),
		}
	}
	return slots
}

// BookedSlots returns the indexes of the slots of bt on day that overlap a
// live booking.
func BookedSlots(bt *models.BookingType, day time.Time, bookings []models.Booking) []int {
	booked := []int{}
	for _, slot := range DaySlots(bt, day) {
		for i := range bookings {
			if bookings[i].Status == models.BookingCancelled {
				continue
			}
			if bookings[i].Overlaps(slot.StartsAt, slot.EndsAt) {
				booked = append(booked, slot.Index)
				break
			}
		}
	}
	return booked
}

func (a *App) slots(c *gin.Context) {
	id, ok := pathID(c, a.BookingTypes.Entity())
	if !ok {
		return
	}
	day, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		utils.BadRequestResponse(c, "date must be YYYY-MM-DD")
		return
	}

	ctx := c.Request.Context()
	p := principal(c)
	bt, err := a.BookingTypes.Get(ctx, p, id)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	bookings, err := a.Bookings.List(ctx, p, tenancy.Where("facility_id", bt.FacilityID))
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	slots := DaySlots(bt, day)
	for _, i := range BookedSlots(bt, day, bookings) {
		slots[i].Booked = true
	}
	utils.OKResponse(c, "Slots retrieved successfully", slots)
}

type bookingView struct {
	models.Booking
	FacilityName    string `json:"facility_name"`
	BookingTypeName string `json:"booking_type_name"`
	OccupantName    string `json:"occupant_name"`
}

// bookingViews joins display labels onto bookings, fetching each referenced
// record once.
func (a *App) bookingViews(c *gin.Context, bookings []models.Booking) []bookingView {
	ctx := c.Request.Context()
	p := principal(c)

	var facilityIDs, typeIDs, occupantIDs []uuid.UUID
	for _, b := range bookings {
		facilityIDs = append(facilityIDs, b.FacilityID)
		typeIDs = append(typeIDs, b.BookingTypeID)
		occupantIDs = append(occupantIDs, b.OccupantID)
	}
	facilities := tenancy.ResolveLabels[models.Facility](ctx, p, a.Facilities, facilityIDs, func(f *models.Facility) string { return f.Name })
	types := tenancy.ResolveLabels[models.BookingType](ctx, p, a.BookingTypes, typeIDs, func(bt *models.BookingType) string { return bt.Name })
	occupants := tenancy.ResolveLabels[models.Occupant](ctx, p, a.Occupants, occupantIDs, func(o *models.Occupant) string { return o.Name })

	views := make([]bookingView, len(bookings))
	for i, b := range bookings {
		views[i] = bookingView{
			Booking:         b,
			FacilityName:    tenancy.Label(facilities, b.FacilityID),
			BookingTypeName: tenancy.Label(types, b.BookingTypeID),
			OccupantName:    tenancy.Label(occupants, b.OccupantID),
		}
	}
	return views
}

func (a *App) listBookings(c *gin.Context) {
	filters, err := queryFilters(c, []listFilter{byID("facility_id"), byID("occupant_id"), byID("booking_type_id"), byText("status")})
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	bookings, err := a.Bookings.List(c.Request.Context(), principal(c), filters...)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	utils.OKResponse(c, "Bookings retrieved successfully", a.bookingViews(c, bookings))
}
