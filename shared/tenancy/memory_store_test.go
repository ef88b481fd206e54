package tenancy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreFiltersPointerAndStringValues(t *testing.T) {
	store := NewMemoryStore[models.Occupant, *models.Occupant]()
	ctx := context.Background()
	tenant := uuid.New()
	space := uuid.New()

	housed := models.Occupant{Name: "Ana", SpaceID: &space}
	housed.ID, housed.TenantID = uuid.New(), tenant
	homeless := models.Occupant{Name: "Ben"}
	homeless.ID, homeless.TenantID = uuid.New(), tenant
	require.NoError(t, store.Create(ctx, &housed))
	require.NoError(t, store.Create(ctx, &homeless))

	rows, err := store.List(ctx, tenant, Where("space_id", space))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0].Name)

	rows, err = store.List(ctx, tenant, Where("space_id", space.String()))
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = store.List(ctx, tenant, Where("no_such_column", 1))
	assert.Error(t, err)
}

func TestMemoryStoreOrdersNewestFirst(t *testing.T) {
	store := NewMemoryStore[models.Building, *models.Building]()
	ctx := context.Background()
	tenant := uuid.New()

	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	for _, name := range []string{"first", "second", "third"} {
		b := models.Building{Name: name}
		b.ID, b.TenantID = uuid.New(), tenant
		require.NoError(t, store.Create(ctx, &b))
		clock = clock.Add(time.Minute)
	}

	rows, err := store.List(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "third", rows[0].Name)
	assert.Equal(t, "first", rows[2].Name)
}

func TestMemoryStoreRejectsDuplicateCreate(t *testing.T) {
	store := NewMemoryStore[models.Building, *models.Building]()
	b := models.Building{Name: "HQ"}
	b.ID, b.TenantID = uuid.New(), uuid.New()

	require.NoError(t, store.Create(context.Background(), &b))
	assert.Error(t, store.Create(context.Background(), &b))
}
