package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/middleware"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/pavitra93/go-facility-platform/shared/tenancy"
	"github.com/pavitra93/go-facility-platform/shared/utils"
)

// principal returns the caller or nil. Gateways answer a nil principal with
// ErrUnauthenticated, so handlers need not check it.
func principal(c *gin.Context) *models.Principal {
	p, err := middleware.PrincipalFromContext(c)
	if err != nil {
		return nil
	}
	return p
}

// pathID parses the :id parameter. A malformed id cannot name a record the
// caller owns, so it is reported like any other missing record.
func pathID(c *gin.Context, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.DomainErrorResponse(c, tenancy.NotFound(entity))
		return uuid.Nil, false
	}
	return id, true
}

// listFilter maps a query parameter onto an equality filter on the column of
// the same name.
type listFilter struct {
	column string
	isUUID bool
}

func byID(column string) listFilter   { return listFilter{column: column, isUUID: true} }
func byText(column string) listFilter { return listFilter{column: column} }

func queryFilters(c *gin.Context, allowed []listFilter) ([]tenancy.Filter, error) {
	var filters []tenancy.Filter
	for _, f := range allowed {
		raw, ok := c.GetQuery(f.column)
		if !ok || raw == "" {
			continue
		}
		if !f.isUUID {
			filters = append(filters, tenancy.Where(f.column, raw))
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, tenancy.InvalidArgument("Invalid %s", f.column)
		}
		filters = append(filters, tenancy.Where(f.column, id))
	}
	return filters, nil
}

func handleGet[T any, P tenancy.RecordPtr[T]](g *tenancy.Gateway[T, P]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, g.Entity())
		if !ok {
			return
		}
		rec, err := g.Get(c.Request.Context(), principal(c), id)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}
		utils.OKResponse(c, g.Entity()+" retrieved successfully", rec)
	}
}

func handleList[T any, P tenancy.RecordPtr[T]](g *tenancy.Gateway[T, P], allowed ...listFilter) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters, err := queryFilters(c, allowed)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}
		rows, err := g.List(c.Request.Context(), principal(c), filters...)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}
		utils.OKResponse(c, g.Entity()+" list retrieved successfully", rows)
	}
}

// handleUpsert creates a record, or patches it when the body carries an id.
func handleUpsert[I tenancy.Input[T], T any, P tenancy.RecordPtr[T]](g *tenancy.Gateway[T, P]) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in I
		if err := c.ShouldBindJSON(&in); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		patch := in.TargetID() != nil && *in.TargetID() != uuid.Nil
		id, err := g.Upsert(c.Request.Context(), principal(c), in)
		if err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}

		if patch {
			utils.OKResponse(c, g.Entity()+" updated successfully", gin.H{"id": id})
			return
		}
		utils.SuccessResponse(c, http.StatusCreated, g.Entity()+" created successfully", gin.H{"id": id})
	}
}

func handleRemove[T any, P tenancy.RecordPtr[T]](g *tenancy.Gateway[T, P]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, g.Entity())
		if !ok {
			return
		}
		if err := g.Remove(c.Request.Context(), principal(c), id); err != nil {
			utils.DomainErrorResponse(c, err)
			return
		}
		utils.OKResponse(c, g.Entity()+" deleted successfully", nil)
	}
}

// crud mounts list, get, upsert and remove on group. Mutations are limited
// to writers when given.
func crud[I tenancy.Input[T], T any, P tenancy.RecordPtr[T]](group *gin.RouterGroup, g *tenancy.Gateway[T, P], writers gin.HandlerFunc, list gin.HandlerFunc) {
	group.GET("", list)
	group.GET("/:id", handleGet(g))

	mutate := []gin.HandlerFunc{handleUpsert[I](g)}
	remove := []gin.HandlerFunc{handleRemove(g)}
	if writers != nil {
		mutate = append([]gin.HandlerFunc{writers}, mutate...)
		remove = append([]gin.HandlerFunc{writers}, remove...)
	}
	group.POST("", mutate...)
	group.DELETE("/:id", remove...)
}
