package main

import (
	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-facility-platform/shared/models"
)

// guards are the request filters the routes depend on.
type guards struct {
	auth        gin.HandlerFunc
	staff       gin.HandlerFunc
	idempotency gin.HandlerFunc
}

func (a *App) registerRoutes(router *gin.Engine, g guards) {
	v1 := router.Group("/v1", g.auth)
	if g.idempotency != nil {
		v1.Use(g.idempotency)
	}
	staff := g.staff

	crud[BuildingInput](v1.Group("/buildings"), a.Buildings, staff, handleList(a.Buildings))
	crud[SpaceInput](v1.Group("/spaces"), a.Spaces, staff,
		handleList(a.Spaces, byID("building_id"), byText("floor"), byText("type")))
	crud[OccupantInput](v1.Group("/occupants"), a.Occupants, staff,
		handleList(a.Occupants, byID("space_id"), byText("user_id")))
	crud[FacilityInput](v1.Group("/facilities"), a.Facilities, staff, a.listFacilities)

	bookingTypes := v1.Group("/booking-types")
	crud[BookingTypeInput](bookingTypes, a.BookingTypes, staff, handleList(a.BookingTypes, byID("facility_id")))
	bookingTypes.GET("/:id/slots", a.slots)

	crud[BookingInput](v1.Group("/bookings"), a.Bookings, nil, a.listBookings)

	tickets := v1.Group("/tickets")
	crud[TicketInput](tickets, a.Tickets, nil,
		handleList(a.Tickets, byID("space_id"), byText("status"), byText("type"), byText("operator_id"), byText("created_by")))
	tickets.POST("/:id/status", staff, a.changeTicketStatus)

	crud[WorkOrderInput](v1.Group("/work-orders"), a.WorkOrders, staff,
		handleList(a.WorkOrders, byID("ticket_id"), byText("status"), byText("assignee_id")))

	parcels := v1.Group("/parcels")
	crud[ParcelInput](parcels, a.Parcels, staff, handleList(a.Parcels, byID("occupant_id"), byText("status")))
	parcels.POST("/:id/collect", staff, a.collectParcel)

	crud[AnnouncementInput](v1.Group("/announcements"), a.Announcements, staff, handleList(a.Announcements))
	crud[EventInput](v1.Group("/events"), a.Events, staff, handleList(a.Events))
	crud[OfferInput](v1.Group("/offers"), a.Offers, staff, handleList(a.Offers))

	chats := v1.Group("/chats")
	crud[ChatInput](chats, a.Chats, nil, handleList(a.Chats, byText("occupant_user_id"), byText("staff_user_id")))
	chats.GET("/:id/messages", a.listMessages)
	chats.POST("/:id/messages", a.postMessage)

	parking := v1.Group("/parking")
	crud[ParkingSpotInput](parking.Group("/spots"), a.ParkingSpots, staff, handleList(a.ParkingSpots, byID("building_id")))
	vehicles := parking.Group("/vehicles")
	crud[VehicleInput](vehicles, a.Vehicles, staff, handleList(a.Vehicles, byID("occupant_id"), byText("plate")))
	vehicles.POST("/:id/move", staff, a.moveVehicle)
	logs := parking.Group("/logs")
	logs.GET("", handleList(a.ParkingLogs, byID("vehicle_id"), byID("spot_id")))
	logs.GET("/:id", handleGet(a.ParkingLogs))

	crud[DeviceTokenInput](v1.Group("/device-tokens"), a.DeviceTokens, nil, a.listDeviceTokens)

	activities := v1.Group("/activities")
	activities.GET("", handleList(a.Activities, byText("type"), byID("entity_id")))
	activities.GET("/:id", handleGet(a.Activities))

	stats := v1.Group("/stats", staff)
	stats.GET("/spaces", a.spaceStats)
	stats.GET("/tickets", a.ticketStats)
	stats.GET("/tickets/service-time", a.serviceTime)

	exports := v1.Group("/exports", staff)
	exports.GET("/tickets", a.exportTickets)
	exports.GET("/bookings", a.exportBookings)

	feed := v1.Group("/feed")
	feed.GET("/announcements", a.announcementFeed)
	feed.GET("/events", a.eventFeed)
	feed.GET("/offers", a.offerFeed)

	files := v1.Group("/storage")
	files.POST("/upload-url", a.uploadURL)
	files.GET("/url", a.fileURL)
}

// staffRoles may manage property data.
var staffRoles = []models.UserRole{models.RoleManager, models.RoleStaff}
