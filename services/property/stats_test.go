package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/stretchr/testify/assert"
)

func TestSpaceOccupancyCountsDistinctSpaces(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	spaces := []models.Space{
		{Base: models.Base{ID: a}},
		{Base: models.Base{ID: b}},
		{Base: models.Base{ID: c}},
	}
	stranger := uuid.New()
	occupants := []models.Occupant{
		{SpaceID: &a},
		{SpaceID: &a},
		{SpaceID: &b},
		{SpaceID: nil},
		{SpaceID: &stranger},
	}

	assert.Equal(t, Occupancy{Total: 3, Occupied: 2, Unoccupied: 1}, SpaceOccupancy(spaces, occupants))
	assert.Equal(t, Occupancy{}, SpaceOccupancy(nil, nil))
}

func TestComputeTicketStats(t *testing.T) {
	tickets := []models.Ticket{
		{Type: models.TicketRequest, Status: models.TicketOpen, OperatorID: "op-1"},
		{Type: models.TicketRequest, Status: models.TicketCompleted, OperatorID: "op-1"},
		{Type: models.TicketIssue, Status: models.TicketOpen},
	}

	stats := ComputeTicketStats(tickets)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, map[string]int{"request": 2, "issue": 1}, stats.ByType)
	assert.Equal(t, map[string]int{"op-1": 2, unassigned: 1}, stats.ByOperator)
	assert.Equal(t, map[string]int{"open": 2, "completed": 1}, stats.ByStatus)
}

func completedTicket(created time.Time, took time.Duration) models.Ticket {
	done := created.Add(took)
	return models.Ticket{
		Base:        models.Base{CreatedAt: created},
		Status:      models.TicketCompleted,
		CompletedAt: &done,
	}
}

func TestAverageServiceTime(t *testing.T) {
	day := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	from, to := day.Add(-time.Hour), day.Add(24*time.Hour)

	t.Run("no tickets", func(t *testing.T) {
		assert.Equal(t, "0:00", AverageServiceTime(nil, from, to))
	})

	t.Run("mean of completed tickets in range", func(t *testing.T) {
		tickets := []models.Ticket{
			completedTicket(day, 2*time.Minute),
			completedTicket(day.Add(time.Hour), 3*time.Minute+30*time.Second),
			// outside the range
			completedTicket(day.Add(-48*time.Hour), time.Hour),
			// not completed
			{Base: models.Base{CreatedAt: day}, Status: models.TicketOpen},
		}
		assert.Equal(t, "2:45", AverageServiceTime(tickets, from, to))
	})

	t.Run("long durations keep counting minutes", func(t *testing.T) {
		tickets := []models.Ticket{completedTicket(day, 95*time.Minute+5*time.Second)}
		assert.Equal(t, "95:05", AverageServiceTime(tickets, from, to))
	})
}
