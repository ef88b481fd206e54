package main

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/pavitra93/go-facility-platform/shared/utils"
)

const unassigned = "unassigned"

type Occupancy struct {
	Total      int `json:"total"`
	Occupied   int `json:"occupied"`
	Unoccupied int `json:"unoccupied"`
}

// SpaceOccupancy counts a space as occupied when at least one occupant
// lives in it. Occupants pointing at spaces not in spaces are ignored.
func SpaceOccupancy(spaces []models.Space, occupants []models.Occupant) Occupancy {
	known := make(map[uuid.UUID]struct{}, len(spaces))
	for _, s := range spaces {
		known[s.ID] = struct{}{}
	}
	occupied := make(map[uuid.UUID]struct{})
	for _, o := range occupants {
		if o.SpaceID == nil {
			continue
		}
		if _, ok := known[*o.SpaceID]; ok {
			occupied[*o.SpaceID] = struct{}{}
		}
	}
	return Occupancy{
		Total:      len(spaces),
		Occupied:   len(occupied),
		Unoccupied: len(spaces) - len(occupied),
	}
}

type TicketStats struct {
	Total      int            `json:"total"`
	ByType     map[string]int `json:"by_type"`
	ByOperator map[string]int `json:"by_operator"`
	ByStatus   map[string]int `json:"by_status"`
}

func ComputeTicketStats(tickets []models.Ticket) TicketStats {
	stats := TicketStats{
		Total:      len(tickets),
		ByType:     map[string]int{},
		ByOperator: map[string]int{},
		ByStatus:   map[string]int{},
	}
	for _, t := range tickets {
		stats.ByType[string(t.Type)]++
		operator := t.OperatorID
		if operator == "" {
			operator = unassigned
		}
		stats.ByOperator[operator]++
		stats.ByStatus[string(t.Status)]++
	}
	return stats
}

// AverageServiceTime is the mean time from creation to completion over the
// completed tickets created within [from, to], formatted m:ss.
func AverageServiceTime(tickets []models.Ticket, from, to time.Time) string {
	var total time.Duration
	var n int64
	for _, t := range tickets {
		if t.Status != models.TicketCompleted || t.CompletedAt == nil {
			continue
		}
		if t.CreatedAt.Before(from) || t.CreatedAt.After(to) {
			continue
		}
		total += t.CompletedAt.Sub(t.CreatedAt)
		n++
	}
	if n == 0 {
		return "0:00"
	}
	return formatMinutes(total / time.Duration(n))
}

func formatMinutes(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func (a *App) spaceStats(c *gin.Context) {
	ctx := c.Request.Context()
	p := principal(c)
	filters, err := queryFilters(c, []listFilter{byID("building_id")})
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	spaces, err := a.Spaces.List(ctx, p, filters...)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	occupants, err := a.Occupants.List(ctx, p)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	utils.OKResponse(c, "Space statistics retrieved successfully", SpaceOccupancy(spaces, occupants))
}

func (a *App) ticketStats(c *gin.Context) {
	tickets, err := a.Tickets.List(c.Request.Context(), principal(c))
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	utils.OKResponse(c, "Ticket statistics retrieved successfully", ComputeTicketStats(tickets))
}

// serviceTime reads from and to as RFC 3339. The range defaults to the last
// 30 days.
func (a *App) serviceTime(c *gin.Context) {
	to := a.now()
	from := to.AddDate(0, 0, -30)
	var err error
	if raw := c.Query("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			utils.BadRequestResponse(c, "from must be RFC 3339")
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			utils.BadRequestResponse(c, "to must be RFC 3339")
			return
		}
	}

	tickets, err := a.Tickets.List(c.Request.Context(), principal(c), withStatus(models.TicketCompleted))
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	utils.OKResponse(c, "Average service time retrieved successfully", gin.H{
		"from":    from,
		"to":      to,
		"average": AverageServiceTime(tickets, from, to),
	})
}
