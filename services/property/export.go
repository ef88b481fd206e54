package main

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/pavitra93/go-facility-platform/shared/tenancy"
	"github.com/pavitra93/go-facility-platform/shared/utils"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// writeSheet renders one sheet with a frozen, styled header row.
func writeSheet(sheet string, headers []string, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetColWidth(sheet, name, name, 22); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for r, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func sendWorkbook(c *gin.Context, name string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (a *App) exportTickets(c *gin.Context) {
	ctx := c.Request.Context()
	p := principal(c)
	tickets, err := a.Tickets.List(ctx, p)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	var spaceIDs []uuid.UUID
	for _, t := range tickets {
		if t.SpaceID != nil {
			spaceIDs = append(spaceIDs, *t.SpaceID)
		}
	}
	spaces := tenancy.ResolveLabels[models.Space](ctx, p, a.Spaces, spaceIDs, func(s *models.Space) string { return s.Name })

	rows := make([][]interface{}, len(tickets))
	for i, t := range tickets {
		space := ""
		if t.SpaceID != nil {
			space = tenancy.Label(spaces, *t.SpaceID)
		}
		operator := t.OperatorID
		if operator == "" {
			operator = unassigned
		}
		rows[i] = []interface{}{
			t.ID.String(), t.Title, string(t.Type), string(t.Status), space, operator,
			formatTime(&t.CreatedAt), formatTime(t.CompletedAt),
		}
	}

	data, err := writeSheet("Tickets", []string{"ID", "Title", "Type", "Status", "Space", "Operator", "Created At", "Completed At"}, rows)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	sendWorkbook(c, "tickets.xlsx", data)
}

func (a *App) exportBookings(c *gin.Context) {
	bookings, err := a.Bookings.List(c.Request.Context(), principal(c))
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}

	views := a.bookingViews(c, bookings)
	rows := make([][]interface{}, len(views))
	for i, v := range views {
		rows[i] = []interface{}{
			v.ID.String(), v.FacilityName, v.BookingTypeName, v.OccupantName,
			formatTime(&v.StartsAt), formatTime(&v.EndsAt), string(v.Status), v.Notes,
		}
	}

	data, err := writeSheet("Bookings", []string{"ID", "Facility", "Booking Type", "Occupant", "Starts At", "Ends At", "Status", "Notes"}, rows)
	if err != nil {
		utils.DomainErrorResponse(c, err)
		return
	}
	sendWorkbook(c, "bookings.xlsx", data)
}
