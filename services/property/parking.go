package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/metrics"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/pavitra93/go-facility-platform/shared/tenancy"
	"github.com/pavitra93/go-facility-platform/shared/utils"
	"github.com/sirupsen/logrus"
)

type MoveVehicleRequest struct {
	// SpotID is the destination. Empty means the vehicle leaves the car park.
	SpotID *uuid.UUID `json:"spot_id"`
}

type Placement struct {
	VehicleID uuid.UUID  `json:"vehicle_id"`
	SpotID    *uuid.UUID `json:"spot_id,omitempty"`
	LogID     *uuid.UUID `json:"log_id,omitempty"`
}

var errSpotOccupied = tenancy.InvalidArgument("Parking spot is occupied")

// MoveVehicle parks the vehicle in spotID, or takes it out of the car park
// when spotID is nil. The open log is closed, the old spot freed, the new
// spot occupied and a new log opened; a failure undoes the completed steps.
func (a *App) MoveVehicle(ctx context.Context, p *models.Principal, vehicleID uuid.UUID, spotID *uuid.UUID) (*Placement, error) {
	vehicle, err := a.Vehicles.Get(ctx, p, vehicleID)
	if err != nil {
		return nil, err
	}
	if spotID != nil && *spotID == uuid.Nil {
		spotID = nil
	}

	openLog, err := a.openLog(ctx, p, vehicle.ID)
	if err != nil {
		return nil, err
	}
	current, err := a.ParkingSpots.List(ctx, p, tenancy.Where("vehicle_id", vehicle.ID))
	if err != nil {
		return nil, err
	}

	if spotID != nil {
		target, err := a.ParkingSpots.Get(ctx, p, *spotID)
		if err != nil {
			return nil, err
		}
		if target.Occupied && (target.VehicleID == nil || *target.VehicleID != vehicle.ID) {
			return nil, errSpotOccupied
		}
		if len(current) == 1 && current[0].ID == target.ID {
			placement := &Placement{VehicleID: vehicle.ID, SpotID: spotID}
			if openLog != nil {
				placement.LogID = &openLog.ID
			}
			return placement, nil
		}
	}

	now := a.now().UTC()
	changed := map[uuid.UUID]*models.ParkingSpot{}
	placement := &Placement{VehicleID: vehicle.ID, SpotID: spotID}
	saga := tenancy.NewSaga("move_vehicle")

	if openLog != nil {
		logID := openLog.ID
		saga.Add(tenancy.Step{
			Name: "close-log",
			Do: func(ctx context.Context) error {
				_, err := a.ParkingLogs.Update(ctx, p, logID, func(l *models.ParkingLog) error {
					l.ExitedAt = &now
					return nil
				})
				return err
			},
			Undo: func(ctx context.Context) error {
				_, err := a.ParkingLogs.Update(ctx, p, logID, func(l *models.ParkingLog) error {
					l.ExitedAt = nil
					return nil
				})
				return err
			},
		})
	}

	for i := range current {
		freeID := current[i].ID
		saga.Add(tenancy.Step{
			Name: "free-spot",
			Do: func(ctx context.Context) error {
				spot, err := a.ParkingSpots.Update(ctx, p, freeID, func(s *models.ParkingSpot) error {
					s.Occupied = false
					s.VehicleID = nil
					return nil
				})
				if err == nil {
					changed[spot.ID] = spot
				}
				return err
			},
			Undo: func(ctx context.Context) error {
				spot, err := a.ParkingSpots.Update(ctx, p, freeID, func(s *models.ParkingSpot) error {
					s.Occupied = true
					s.VehicleID = &vehicle.ID
					return nil
				})
				if err == nil {
					changed[spot.ID] = spot
				}
				return err
			},
		})
	}

	if spotID != nil {
		targetID := *spotID
		saga.Add(tenancy.Step{
			Name: "occupy-spot",
			Do: func(ctx context.Context) error {
				spot, err := a.ParkingSpots.Update(ctx, p, targetID, func(s *models.ParkingSpot) error {
					if s.Occupied && (s.VehicleID == nil || *s.VehicleID != vehicle.ID) {
						return errSpotOccupied
					}
					s.Occupied = true
					s.VehicleID = &vehicle.ID
					return nil
				})
				if err == nil {
					changed[spot.ID] = spot
				}
				return err
			},
			Undo: func(ctx context.Context) error {
				spot, err := a.ParkingSpots.Update(ctx, p, targetID, func(s *models.ParkingSpot) error {
					s.Occupied = false
					s.VehicleID = nil
					return nil
				})
				if err == nil {
					changed[spot.ID] = spot
				}
				return err
			},
		})
		saga.Add(tenancy.Step{
			Name: "open-log",
			Do: func(ctx context.Context) error {
				id, err := a.ParkingLogs.Upsert(ctx, p, parkingLogInput{
					VehicleID: vehicle.ID,
					SpotID:    targetID,
					EnteredAt: now,
				})
				if err == nil {
					placement.LogID = &id
				}
				return err
			},
			Undo: func(ctx context.Context) error {
				if placement.LogID == nil {
					return nil
				}
				return a.ParkingLogs.Remove(ctx, p, *placement.LogID)
			},
		})
	}

	if err := saga.Run(ctx); err != nil {
		a.publishSpots(p, changed)
		return nil, err
	}
	a.publishSpots(p, changed)
	return placement, nil
}

func (a *App) openLog(ctx context.Context, p *models.Principal, vehicleID uuid.UUID) (*models.ParkingLog, error) {
	logs, err := a.ParkingLogs.List(ctx, p, tenancy.Where("vehicle_id", vehicleID))
	if err != nil {
		return nil, err
	}
	for i := range logs {
		if logs[i].ExitedAt == nil {
			return &logs[i], nil
		}
	}
	return nil, nil
}

// publishSpots pushes the final state of every touched spot. Failures only
// cost live-map freshness.
func (a *App) publishSpots(p *models.Principal, spots map[uuid.UUID]*models.ParkingSpot) {
	for _, spot := range spots {
		if err := a.realtime.PublishSpot(p.TenantID, spot); err != nil {
			metrics.SideEffectFailuresTotal.WithLabelValues("realtime").Inc()
			a.log.WithError(err).WithFields(logrus.Fields{
				"tenant_id": p.TenantID,
				"spot_id":   spot.ID,
			}).Warn("Failed to publish parking spot update")
		}
	}
}

func (a *App) moveVehicle(c *gin.Context) {
	id, ok := pathID(c, a.Vehicles.Entity())
	if !ok {
		return
	}
	var req MoveVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format")
		return
	}
	placement, err := a.MoveVehicle(c.Request.Context(), principal(c), id, req.SpotID)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	utils.OKResponse(c, "Vehicle moved successfully", placement)
}
