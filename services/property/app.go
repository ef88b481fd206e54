package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/pavitra93/go-facility-platform/shared/notify"
	"github.com/pavitra93/go-facility-platform/shared/realtime"
	"github.com/pavitra93/go-facility-platform/shared/storage"
	"github.com/pavitra93/go-facility-platform/shared/tenancy"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const minutesPerDay = 24 * 60

// deps are the external collaborators. A nil db selects in-memory stores.
type deps struct {
	db         *gorm.DB
	dispatcher notify.Dispatcher
	blobs      storage.BlobStore
	realtime   realtime.Publisher
}

// App holds one gateway per tenant-scoped entity.
type App struct {
	Buildings     *tenancy.Gateway[models.Building, *models.Building]
	Spaces        *tenancy.Gateway[models.Space, *models.Space]
	Occupants     *tenancy.Gateway[models.Occupant, *models.Occupant]
	Facilities    *tenancy.Gateway[models.Facility, *models.Facility]
	BookingTypes  *tenancy.Gateway[models.BookingType, *models.BookingType]
	Bookings      *tenancy.Gateway[models.Booking, *models.Booking]
	Tickets       *tenancy.Gateway[models.Ticket, *models.Ticket]
	WorkOrders    *tenancy.Gateway[models.WorkOrder, *models.WorkOrder]
	Parcels       *tenancy.Gateway[models.Parcel, *models.Parcel]
	Announcements *tenancy.Gateway[models.Announcement, *models.Announcement]
	Events        *tenancy.Gateway[models.Event, *models.Event]
	Offers        *tenancy.Gateway[models.Offer, *models.Offer]
	Chats         *tenancy.Gateway[models.Chat, *models.Chat]
	ChatMessages  *tenancy.Gateway[models.ChatMessage, *models.ChatMessage]
	ParkingSpots  *tenancy.Gateway[models.ParkingSpot, *models.ParkingSpot]
	Vehicles      *tenancy.Gateway[models.Vehicle, *models.Vehicle]
	ParkingLogs   *tenancy.Gateway[models.ParkingLog, *models.ParkingLog]
	DeviceTokens  *tenancy.Gateway[models.DeviceToken, *models.DeviceToken]
	Activities    *tenancy.Gateway[models.Activity, *models.Activity]

	blobs    storage.BlobStore
	realtime realtime.Publisher
	now      func() time.Time
	log      *logrus.Entry
}

func newStore[T any, P tenancy.RecordPtr[T]](db *gorm.DB) tenancy.Store[T] {
	if db == nil {
		return tenancy.NewMemoryStore[T, P]()
	}
	return tenancy.NewGormStore[T](db)
}

func entityConfig[T any, P tenancy.RecordPtr[T]](d deps, activity tenancy.ActivityRecorder, entity string) tenancy.Config[T] {
	return tenancy.Config[T]{
		Entity:     entity,
		Store:      newStore[T, P](d.db),
		Activity:   activity,
		Dispatcher: d.dispatcher,
	}
}

func newApp(d deps) *App {
	if d.dispatcher == nil {
		d.dispatcher = notify.Discard
	}
	if d.realtime == nil {
		d.realtime = realtime.Nop{}
	}

	a := &App{
		blobs:    d.blobs,
		realtime: d.realtime,
		now:      time.Now,
		log:      logrus.WithField("service", "property"),
	}

	activityStore := newStore[models.Activity, *models.Activity](d.db)
	activity := tenancy.NewActivityLog(activityStore)
	a.Activities = tenancy.NewGateway[models.Activity, *models.Activity](tenancy.Config[models.Activity]{
		Entity: "Activity",
		Store:  activityStore,
	})

	buildings := entityConfig[models.Building, *models.Building](d, activity, "Building")
	buildings.Check = a.checkBuilding
	buildings.Describe = func(b *models.Building) string { return b.Name }
	a.Buildings = tenancy.NewGateway[models.Building, *models.Building](buildings)

	spaces := entityConfig[models.Space, *models.Space](d, activity, "Space")
	spaces.Check = a.checkSpace
	spaces.Describe = func(s *models.Space) string { return s.Name }
	a.Spaces = tenancy.NewGateway[models.Space, *models.Space](spaces)

	occupants := entityConfig[models.Occupant, *models.Occupant](d, activity, "Occupant")
	occupants.Check = a.checkOccupant
	occupants.Describe = func(o *models.Occupant) string { return o.Name }
	a.Occupants = tenancy.NewGateway[models.Occupant, *models.Occupant](occupants)

	facilities := entityConfig[models.Facility, *models.Facility](d, activity, "Facility")
	facilities.Check = a.checkFacility
	facilities.Describe = func(f *models.Facility) string { return f.Name }
	facilities.Audience = func(f *models.Facility) []models.AudienceTarget { return f.Audience }
	a.Facilities = tenancy.NewGateway[models.Facility, *models.Facility](facilities)

	bookingTypes := entityConfig[models.BookingType, *models.BookingType](d, activity, "Booking Type")
	bookingTypes.Check = a.checkBookingType
	bookingTypes.Describe = func(bt *models.BookingType) string { return bt.Name }
	a.BookingTypes = tenancy.NewGateway[models.BookingType, *models.BookingType](bookingTypes)

	bookings := entityConfig[models.Booking, *models.Booking](d, activity, "Booking")
	bookings.OnCreate = func(_ *models.Principal, b *models.Booking) {
		if b.Status == "" {
			b.Status = models.BookingPending
		}
	}
	bookings.Check = a.checkBooking
	// overlap is checked against the other bookings of the facility
	bookings.Exclusive = true
	bookings.Notify = a.notifyBooking
	bookings.Describe = func(b *models.Booking) string {
		return fmt.Sprintf("%s to %s", b.StartsAt.Format(time.RFC3339), b.EndsAt.Format(time.RFC3339))
	}
	a.Bookings = tenancy.NewGateway[models.Booking, *models.Booking](bookings)

	tickets := entityConfig[models.Ticket, *models.Ticket](d, activity, "Ticket")
	tickets.OnCreate = func(p *models.Principal, t *models.Ticket) {
		t.CreatedBy = p.SubjectID
		t.Status = models.TicketOpen
		if t.Type == "" {
			t.Type = models.TicketRequest
		}
	}
	tickets.Check = a.checkTicket
	tickets.Notify = a.notifyTicket
	tickets.Describe = func(t *models.Ticket) string { return t.Title }
	a.Tickets = tenancy.NewGateway[models.Ticket, *models.Ticket](tickets)

	workOrders := entityConfig[models.WorkOrder, *models.WorkOrder](d, activity, "Work Order")
	workOrders.OnCreate = func(_ *models.Principal, w *models.WorkOrder) {
		if w.Status == "" {
			w.Status = models.TicketOpen
		}
	}
	workOrders.Check = a.checkWorkOrder
	workOrders.Describe = func(w *models.WorkOrder) string { return w.Title }
	a.WorkOrders = tenancy.NewGateway[models.WorkOrder, *models.WorkOrder](workOrders)

	parcels := entityConfig[models.Parcel, *models.Parcel](d, activity, "Parcel")
	parcels.OnCreate = func(_ *models.Principal, p *models.Parcel) {
		p.Status = models.ParcelReceived
	}
	parcels.Check = a.checkParcel
	parcels.Notify = a.notifyParcel
	parcels.Describe = func(p *models.Parcel) string { return p.Carrier + " " + p.TrackingNumber }
	a.Parcels = tenancy.NewGateway[models.Parcel, *models.Parcel](parcels)

	announcements := entityConfig[models.Announcement, *models.Announcement](d, activity, "Announcement")
	announcements.Check = func(_ context.Context, _ *models.Principal, an *models.Announcement) error {
		return requireField(an.Title, "Title")
	}
	announcements.Describe = func(an *models.Announcement) string { return an.Title }
	announcements.Audience = func(an *models.Announcement) []models.AudienceTarget { return an.Audience }
	a.Announcements = tenancy.NewGateway[models.Announcement, *models.Announcement](announcements)

	events := entityConfig[models.Event, *models.Event](d, activity, "Event")
	events.Check = checkEvent
	events.Describe = func(e *models.Event) string { return e.Title }
	events.Audience = func(e *models.Event) []models.AudienceTarget { return e.Audience }
	a.Events = tenancy.NewGateway[models.Event, *models.Event](events)

	offers := entityConfig[models.Offer, *models.Offer](d, activity, "Offer")
	offers.Check = func(_ context.Context, _ *models.Principal, o *models.Offer) error {
		return requireField(o.Title, "Title")
	}
	offers.Describe = func(o *models.Offer) string { return o.Title }
	offers.Audience = func(o *models.Offer) []models.AudienceTarget { return o.Audience }
	a.Offers = tenancy.NewGateway[models.Offer, *models.Offer](offers)

	chats := entityConfig[models.Chat, *models.Chat](d, activity, "Chat")
	chats.OnCreate = func(p *models.Principal, c *models.Chat) {
		if p.IsStaff() && c.StaffUserID == "" {
			c.StaffUserID = p.SubjectID
		}
		if !p.IsStaff() && c.OccupantUserID == "" {
			c.OccupantUserID = p.SubjectID
		}
	}
	chats.Check = checkChat
	chats.Access = func(p *models.Principal, c *models.Chat) bool {
		return p.IsStaff() || c.OccupantUserID == p.SubjectID || c.StaffUserID == p.SubjectID
	}
	chats.Describe = func(c *models.Chat) string { return c.Subject }
	a.Chats = tenancy.NewGateway[models.Chat, *models.Chat](chats)

	messages := entityConfig[models.ChatMessage, *models.ChatMessage](d, activity, "Chat Message")
	messages.OnCreate = func(p *models.Principal, m *models.ChatMessage) {
		m.SenderID = p.SubjectID
	}
	messages.Check = a.checkChatMessage
	messages.Notify = a.notifyChatMessage
	a.ChatMessages = tenancy.NewGateway[models.ChatMessage, *models.ChatMessage](messages)

	spots := entityConfig[models.ParkingSpot, *models.ParkingSpot](d, activity, "Parking Spot")
	spots.Check = a.checkParkingSpot
	spots.Describe = func(s *models.ParkingSpot) string { return s.Label }
	a.ParkingSpots = tenancy.NewGateway[models.ParkingSpot, *models.ParkingSpot](spots)

	vehicles := entityConfig[models.Vehicle, *models.Vehicle](d, activity, "Vehicle")
	vehicles.Check = a.checkVehicle
	vehicles.Describe = func(v *models.Vehicle) string { return v.Plate }
	a.Vehicles = tenancy.NewGateway[models.Vehicle, *models.Vehicle](vehicles)

	logs := entityConfig[models.ParkingLog, *models.ParkingLog](d, activity, "Parking Log")
	a.ParkingLogs = tenancy.NewGateway[models.ParkingLog, *models.ParkingLog](logs)

	tokens := entityConfig[models.DeviceToken, *models.DeviceToken](d, activity, "Device Token")
	tokens.OnCreate = func(p *models.Principal, t *models.DeviceToken) {
		t.UserID = p.SubjectID
	}
	tokens.Check = func(_ context.Context, p *models.Principal, t *models.DeviceToken) error {
		if t.UserID != p.SubjectID {
			return tenancy.InvalidArgument("Device token belongs to another user")
		}
		return requireField(t.Token, "Token")
	}
	// a device token is only ever visible to the user it delivers to
	tokens.Access = func(p *models.Principal, t *models.DeviceToken) bool {
		return t.UserID == p.SubjectID
	}
	tokens.Describe = func(t *models.DeviceToken) string { return t.Platform }
	a.DeviceTokens = tenancy.NewGateway[models.DeviceToken, *models.DeviceToken](tokens)

	return a
}

func requireField(value, name string) error {
	if value == "" {
		return tenancy.InvalidArgument("%s is required", name)
	}
	return nil
}
