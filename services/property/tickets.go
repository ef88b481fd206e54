package main

import (
	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/pavitra93/go-facility-platform/shared/tenancy"
	"github.com/pavitra93/go-facility-platform/shared/utils"
)

type TicketStatusRequest struct {
	Status     models.TicketStatus `json:"status" binding:"required"`
	OperatorID *string             `json:"operator_id"`
}

// withStatus filters tickets by status.
func withStatus(status models.TicketStatus) tenancy.Filter {
	return tenancy.Where("status", string(status))
}

// changeTicketStatus moves a ticket through its workflow. Completion stamps
// CompletedAt; any other status clears it.
func (a *App) changeTicketStatus(c *gin.Context) {
	id, ok := pathID(c, a.Tickets.Entity())
	if !ok {
		return
	}
	var req TicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format")
		return
	}
	if !req.Status.Valid() {
		utils.DomainErrorResponse(c, tenancy.InvalidArgument("Invalid status"))
		return
	}

	ticket, err := a.Tickets.Update(c.Request.Context(), principal(c), id, func(t *models.Ticket) error {
		t.Status = req.Status
		if req.OperatorID != nil {
			t.OperatorID = *req.OperatorID
		}
		if req.Status == models.TicketCompleted {
			if t.CompletedAt == nil {
				now := a.now().UTC()
				t.CompletedAt = &now
			}
		} else {
			t.CompletedAt = nil
		}
		return nil
	})
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	utils.OKResponse(c, "Ticket status updated successfully", ticket)
}
