package main

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildingLifecycleIsTenantScoped(t *testing.T) {
	s := newTestServer(t)
	tenantA, tenantB := uuid.New(), uuid.New()
	pa, pb := manager(tenantA), manager(tenantB)

	id := s.create(t, pa, "/v1/buildings", map[string]interface{}{"name": "North Tower", "floors": 12})

	code, env := s.do(t, pa, http.MethodGet, "/v1/buildings/"+id.String(), nil)
	require.Equal(t, http.StatusOK, code)
	building := decode[models.Building](t, env)
	assert.Equal(t, "North Tower", building.Name)
	assert.Equal(t, tenantA, building.TenantID)

	code, env = s.do(t, pb, http.MethodGet, "/v1/buildings/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Building not found or access denied", env.Error)

	code, env = s.do(t, pb, http.MethodGet, "/v1/buildings/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Building not found or access denied", env.Error)

	code, _ = s.do(t, pb, http.MethodGet, "/v1/buildings/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, code)

	// patch from another tenant cannot reach the record
	code, _ = s.do(t, pb, http.MethodPost, "/v1/buildings", map[string]interface{}{"id": id, "name": "Hijacked"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, pa, http.MethodPost, "/v1/buildings", map[string]interface{}{"id": id, "address": "1 Main St"})
	require.Equal(t, http.StatusOK, code)
	_, env = s.do(t, pa, http.MethodGet, "/v1/buildings/"+id.String(), nil)
	building = decode[models.Building](t, env)
	assert.Equal(t, "North Tower", building.Name)
	assert.Equal(t, "1 Main St", building.Address)

	code, env = s.do(t, pb, http.MethodGet, "/v1/buildings", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]models.Building](t, env))

	code, _ = s.do(t, pb, http.MethodDelete, "/v1/buildings/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(t, pa, http.MethodDelete, "/v1/buildings/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, code)

	_, env = s.do(t, pa, http.MethodGet, "/v1/activities", nil)
	var titles []string
	for _, a := range decode[[]models.Activity](t, env) {
		titles = append(titles, a.Title)
	}
	assert.ElementsMatch(t, []string{"Building Created", "Building Updated", "Building Deleted"}, titles)
}

func TestRequestsWithoutPrincipalAreUnauthenticated(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, nil, http.MethodGet, "/v1/bookings", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthenticated", env.Error)

	code, _ = s.do(t, nil, http.MethodPost, "/v1/tickets", map[string]string{"title": "Leak"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestOccupantsCannotManageProperty(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, occupantUser(uuid.New(), "occ-1"), http.MethodPost, "/v1/buildings", map[string]string{"name": "Mine"})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestSpaceValidation(t *testing.T) {
	s := newTestServer(t)
	p := manager(uuid.New())
	building := s.create(t, p, "/v1/buildings", map[string]interface{}{"name": "B", "floors": 3})

	code, env := s.do(t, p, http.MethodPost, "/v1/spaces", map[string]interface{}{
		"building_id": building, "name": "3A", "floor": 3, "type": "apartment",
		"letting": map[string]interface{}{"enabled": true},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, env.Error)

	code, _ = s.do(t, p, http.MethodPost, "/v1/spaces", map[string]interface{}{
		"building_id": building, "name": "9Z", "floor": 9,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, p, http.MethodPost, "/v1/spaces", map[string]interface{}{
		"building_id": uuid.New(), "name": "1A", "floor": 1,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Building not found or access denied", env.Error)

	id := s.create(t, p, "/v1/spaces", map[string]interface{}{
		"building_id": building, "name": "3A", "floor": 3, "type": "apartment",
		"letting": map[string]interface{}{"enabled": true, "agent_name": "Ada", "agent_phone": "555-0100"},
	})
	_, env = s.do(t, p, http.MethodGet, "/v1/spaces/"+id.String(), nil)
	space := decode[models.Space](t, env)
	assert.True(t, space.Letting.Enabled())

	code, env = s.do(t, p, http.MethodGet, "/v1/spaces?building_id=nope", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid building_id", env.Error)

	_, env = s.do(t, p, http.MethodGet, "/v1/spaces?building_id="+building.String(), nil)
	assert.Len(t, decode[[]models.Space](t, env), 1)
}

type bookingFixture struct {
	s           *testServer
	p           *models.Principal
	facility    uuid.UUID
	bookingType uuid.UUID
	occupant    uuid.UUID
	day         time.Time
}

func newBookingFixture(t *testing.T) *bookingFixture {
	s := newTestServer(t)
	p := manager(uuid.New())
	facility := s.create(t, p, "/v1/facilities", map[string]interface{}{"name": "Tennis court", "bookable": true})
	bookingType := s.create(t, p, "/v1/booking-types", map[string]interface{}{
		"facility_id": facility, "name": "Half hour", "interval_minutes": 30, "opens_at": 0, "closes_at": minutesPerDay,
	})
	occupant := s.create(t, p, "/v1/occupants", map[string]interface{}{"name": "Olu", "user_id": "occ-user"})
	return &bookingFixture{
		s: s, p: p, facility: facility, bookingType: bookingType, occupant: occupant,
		day: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
	}
}

func (f *bookingFixture) book(t *testing.T, startHour, endHour int, status string) (int, envelope) {
	return f.s.do(t, f.p, http.MethodPost, "/v1/bookings", map[string]interface{}{
		"facility_id":     f.facility,
		"booking_type_id": f.bookingType,
		"occupant_id":     f.occupant,
		"starts_at":       f.day.Add(time.Duration(startHour) * time.Hour),
		"ends_at":         f.day.Add(time.Duration(endHour) * time.Hour),
		"status":          status,
	})
}

func TestBookingFlow(t *testing.T) {
	f := newBookingFixture(t)

	code, env := f.book(t, 9, 10, "confirmed")
	require.Equal(t, http.StatusCreated, code, env.Error)

	intents := f.s.dispatcher.sent()
	require.Len(t, intents, 1)
	assert.Equal(t, "occ-user", intents[0].TargetUserID)
	assert.Equal(t, f.p.TenantID, intents[0].TenantID)
	assert.Equal(t, "booking", intents[0].EntityType)

	code, env = f.book(t, 9, 11, "pending")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Booking overlaps an existing booking", env.Error)

	code, env = f.book(t, 11, 10, "pending")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.book(t, 10, 11, "pending")
	assert.Equal(t, http.StatusCreated, code)

	code, env = f.s.do(t, f.p, http.MethodGet, "/v1/booking-types/"+f.bookingType.String()+"/slots?date=2024-06-03", nil)
	require.Equal(t, http.StatusOK, code)
	var booked []int
	for _, slot := range decode[[]Slot](t, env) {
		if slot.Booked {
			booked = append(booked, slot.Index)
		}
	}
	assert.Equal(t, []int{18, 19, 20, 21}, booked)

	code, _ = f.s.do(t, f.p, http.MethodGet, "/v1/booking-types/"+f.bookingType.String()+"/slots?date=June", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	_, env = f.s.do(t, f.p, http.MethodGet, "/v1/bookings", nil)
	views := decode[[]bookingView](t, env)
	require.Len(t, views, 2)
	assert.Equal(t, "Tennis court", views[0].FacilityName)
	assert.Equal(t, "Half hour", views[0].BookingTypeName)
	assert.Equal(t, "Olu", views[0].OccupantName)
}

func TestBookingRejectsInvalidStatusAndUnbookableFacility(t *testing.T) {
	f := newBookingFixture(t)

	code, env := f.book(t, 9, 10, "maybe")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid status", env.Error)

	code, _ = f.s.do(t, f.p, http.MethodPost, "/v1/facilities", map[string]interface{}{"id": f.facility, "bookable": false})
	require.Equal(t, http.StatusOK, code)
	code, env = f.book(t, 9, 10, "pending")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Facility is not bookable", env.Error)
}

func TestTicketStatusWorkflow(t *testing.T) {
	s := newTestServer(t)
	tenant := uuid.New()
	staff := manager(tenant)
	resident := occupantUser(tenant, "occ-7")

	id := s.create(t, resident, "/v1/tickets", map[string]string{"title": "Broken lift", "type": "issue"})

	code, _ := s.do(t, resident, http.MethodPost, "/v1/tickets/"+id.String()+"/status", map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(t, staff, http.MethodPost, "/v1/tickets/"+id.String()+"/status", map[string]string{"status": "done"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid status", env.Error)

	code, env = s.do(t, staff, http.MethodPost, "/v1/tickets/"+id.String()+"/status", map[string]string{"status": "completed", "operator_id": "tech-1"})
	require.Equal(t, http.StatusOK, code, env.Error)
	ticket := decode[models.Ticket](t, env)
	assert.Equal(t, models.TicketCompleted, ticket.Status)
	assert.Equal(t, "occ-7", ticket.CreatedBy)
	assert.Equal(t, "tech-1", ticket.OperatorID)
	require.NotNil(t, ticket.CompletedAt)

	intents := s.dispatcher.sent()
	require.Len(t, intents, 1)
	assert.Equal(t, "occ-7", intents[0].TargetUserID)
	assert.Equal(t, id, intents[0].EntityID)

	code, env = s.do(t, staff, http.MethodGet, "/v1/stats/tickets", nil)
	require.Equal(t, http.StatusOK, code)
	stats := decode[TicketStats](t, env)
	assert.Equal(t, map[string]int{"issue": 1}, stats.ByType)
	assert.Equal(t, map[string]int{"tech-1": 1}, stats.ByOperator)

	code, env = s.do(t, staff, http.MethodGet, "/v1/stats/tickets/service-time", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"average":"0:00"`)
}

func TestParcelArrivalAndCollection(t *testing.T) {
	s := newTestServer(t)
	p := manager(uuid.New())
	occupant := s.create(t, p, "/v1/occupants", map[string]interface{}{"name": "Olu", "user_id": "occ-user"})

	parcel := s.create(t, p, "/v1/parcels", map[string]interface{}{"occupant_id": occupant, "carrier": "DHL"})
	intents := s.dispatcher.sent()
	require.Len(t, intents, 1)
	assert.Equal(t, "occ-user", intents[0].TargetUserID)
	assert.Contains(t, intents[0].Body, "DHL")

	code, env := s.do(t, p, http.MethodPost, "/v1/parcels/"+parcel.String()+"/collect", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, models.ParcelCollected, decode[models.Parcel](t, env).Status)

	code, env = s.do(t, p, http.MethodPost, "/v1/parcels/"+parcel.String()+"/collect", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Parcel already collected", env.Error)
}

func TestChatMessagesNotifyTheOtherParticipant(t *testing.T) {
	s := newTestServer(t)
	tenant := uuid.New()
	staff := manager(tenant)
	resident := occupantUser(tenant, "occ-3")

	chat := s.create(t, resident, "/v1/chats", map[string]string{"staff_user_id": staff.SubjectID, "subject": "Noise"})

	s.create(t, resident, "/v1/chats/"+chat.String()+"/messages", map[string]string{"body": "It is loud"})
	s.create(t, staff, "/v1/chats/"+chat.String()+"/messages", map[string]string{"body": "On it"})

	intents := s.dispatcher.sent()
	require.Len(t, intents, 2)
	assert.Equal(t, staff.SubjectID, intents[0].TargetUserID)
	assert.Equal(t, "occ-3", intents[1].TargetUserID)

	code, env := s.do(t, staff, http.MethodGet, "/v1/chats/"+chat.String()+"/messages", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.ChatMessage](t, env), 2)

	code, env = s.do(t, staff, http.MethodPost, "/v1/chats/"+chat.String()+"/messages", map[string]string{"body": ""})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, manager(uuid.New()), http.MethodPost, "/v1/chats/"+chat.String()+"/messages", map[string]string{"body": "hi"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestFeedsApplyAudience(t *testing.T) {
	s := newTestServer(t)
	tenant := uuid.New()
	p := manager(tenant)

	building := s.create(t, p, "/v1/buildings", map[string]interface{}{"name": "B", "floors": 5})
	second := s.create(t, p, "/v1/spaces", map[string]interface{}{"building_id": building, "name": "2A", "floor": 2})
	fourth := s.create(t, p, "/v1/spaces", map[string]interface{}{"building_id": building, "name": "4A", "floor": 4})
	low := s.create(t, p, "/v1/occupants", map[string]interface{}{"name": "Low", "user_id": "occ-low", "space_id": second})
	s.create(t, p, "/v1/occupants", map[string]interface{}{"name": "High", "user_id": "occ-high", "space_id": fourth})

	s.create(t, p, "/v1/announcements", map[string]interface{}{"title": "Everyone"})
	s.create(t, p, "/v1/announcements", map[string]interface{}{
		"title":    "Floor two",
		"audience": []models.AudienceTarget{{Type: models.AudienceFloor, Entity: building.String() + ":2"}},
	})

	titles := func(path string, caller *models.Principal) []string {
		code, env := s.do(t, caller, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, code, env.Error)
		var out []string
		for _, a := range decode[[]models.Announcement](t, env) {
			out = append(out, a.Title)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"Everyone", "Floor two"}, titles("/v1/feed/announcements?occupant_id="+low.String(), p))
	assert.ElementsMatch(t, []string{"Everyone"}, titles("/v1/feed/announcements", occupantUser(tenant, "occ-high")))

	code, _ := s.do(t, occupantUser(tenant, "stranger"), http.MethodGet, "/v1/feed/announcements", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env := s.do(t, p, http.MethodGet, "/v1/stats/spaces", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, Occupancy{Total: 2, Occupied: 2}, decode[Occupancy](t, env))
}

func TestChatsAreVisibleToParticipantsAndStaffOnly(t *testing.T) {
	s := newTestServer(t)
	tenant := uuid.New()
	staff := manager(tenant)
	resident := occupantUser(tenant, "occ-4")
	neighbour := occupantUser(tenant, "occ-5")

	chat := s.create(t, resident, "/v1/chats", map[string]string{"staff_user_id": staff.SubjectID, "subject": "Leak"})
	s.create(t, resident, "/v1/chats/"+chat.String()+"/messages", map[string]string{"body": "Water in the hall"})
	messages := "/v1/chats/" + chat.String() + "/messages"

	code, _ := s.do(t, neighbour, http.MethodGet, messages, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(t, neighbour, http.MethodPost, messages, map[string]string{"body": "me too"})
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(t, neighbour, http.MethodGet, "/v1/chats/"+chat.String(), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env := s.do(t, neighbour, http.MethodGet, "/v1/chats", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]models.Chat](t, env))

	code, _ = s.do(t, neighbour, http.MethodPost, "/v1/chats",
		map[string]string{"occupant_user_id": resident.SubjectID, "staff_user_id": staff.SubjectID, "subject": "Spoof"})
	assert.Equal(t, http.StatusBadRequest, code)

	// any staff member of the tenant may step in
	colleague := &models.Principal{SubjectID: "staff-2", TenantID: tenant, Role: models.RoleStaff}
	code, env = s.do(t, colleague, http.MethodGet, messages, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.ChatMessage](t, env), 1)
}

func TestDeviceTokensBelongToTheirUser(t *testing.T) {
	s := newTestServer(t)
	tenant := uuid.New()
	owner := occupantUser(tenant, "occ-6")
	other := occupantUser(tenant, "occ-7")

	id := s.create(t, owner, "/v1/device-tokens", map[string]string{"token": "ExponentPushToken[owner]", "platform": "ios"})
	s.create(t, other, "/v1/device-tokens", map[string]string{"token": "ExponentPushToken[other]", "platform": "android"})

	code, _ := s.do(t, other, http.MethodPost, "/v1/device-tokens",
		map[string]interface{}{"id": id, "token": "ExponentPushToken[attacker]"})
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(t, other, http.MethodDelete, "/v1/device-tokens/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env := s.do(t, other, http.MethodGet, "/v1/device-tokens?user_id=occ-6", nil)
	require.Equal(t, http.StatusOK, code)
	listed := decode[[]models.DeviceToken](t, env)
	require.Len(t, listed, 1)
	assert.Equal(t, "ExponentPushToken[other]", listed[0].Token)

	code, env = s.do(t, owner, http.MethodGet, "/v1/device-tokens/"+id.String(), nil)
	require.Equal(t, http.StatusOK, code)
	stored := decode[models.DeviceToken](t, env)
	assert.Equal(t, "ExponentPushToken[owner]", stored.Token)
	assert.Equal(t, "occ-6", stored.UserID)
}

func TestConcurrentBookingsOfOneSlotAdmitOne(t *testing.T) {
	f := newBookingFixture(t)
	start := f.day.Add(9 * time.Hour)
	end := f.day.Add(10 * time.Hour)
	status := models.BookingConfirmed

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.s.app.Bookings.Upsert(context.Background(), f.p, BookingInput{
				FacilityID:    &f.facility,
				BookingTypeID: &f.bookingType,
				OccupantID:    &f.occupant,
				StartsAt:      &start,
				EndsAt:        &end,
				Status:        &status,
			})
			if err == nil {
				created.Add(1)
				return
			}
			assert.EqualError(t, err, "Booking overlaps an existing booking")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
}
