package tenancy

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrRecordMissing is returned by stores when no row has the requested id.
var ErrRecordMissing = errors.New("record missing")

// Record is implemented by every tenant-scoped model through models.Base.
type Record interface {
	GetID() uuid.UUID
	SetID(uuid.UUID)
	GetTenantID() uuid.UUID
	SetTenantID(uuid.UUID)
	GetCreatedAt() time.Time
	Stamp(time.Time)
}

// RecordPtr constrains P to be *T implementing Record.
type RecordPtr[T any] interface {
	*T
	Record
}

// Filter is an equality predicate on a column.
type Filter struct {
	Column string
	Value  interface{}
}

func Where(column string, value interface{}) Filter {
	return Filter{Column: column, Value: value}
}

// Store persists one record type. Find does not scope by tenant; the
// gateway compares ownership after loading. List always scopes by tenant.
//
// Update loads the row, applies fn and saves it as one unit: concurrent
// Updates of the same row run one after another. An error from fn aborts
// the write and is returned as is.
//
// Exclusive runs fn while no other Exclusive call on the same record type
// runs, for checks that span rows, e.g. booking overlap.
type Store[T any] interface {
	Find(ctx context.Context, id uuid.UUID) (*T, error)
	Create(ctx context.Context, rec *T) error
	Update(ctx context.Context, id uuid.UUID, fn func(rec *T) error) (*T, error)
	Delete(ctx context.Context, rec *T) error
	List(ctx context.Context, tenantID uuid.UUID, filters ...Filter) ([]T, error)
	Exclusive(ctx context.Context, fn func(ctx context.Context) error) error
}
