package tenancy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGetter struct {
	gw    *Gateway[models.Facility, *models.Facility]
	calls map[uuid.UUID]int
}

func (c *countingGetter) Get(ctx context.Context, p *models.Principal, id uuid.UUID) (*models.Facility, error) {
	c.calls[id]++
	return c.gw.Get(ctx, p, id)
}

func TestResolveLabelsFetchesDistinctIdsOnce(t *testing.T) {
	f := newFixture(t)
	p := principal()
	other := principal()
	ctx := context.Background()

	gym, err := f.gw.Upsert(ctx, p, facilityInput{Name: strp("Gym")})
	require.NoError(t, err)
	foreign, err := f.gw.Upsert(ctx, other, facilityInput{Name: strp("Secret")})
	require.NoError(t, err)
	missing := uuid.New()

	getter := &countingGetter{gw: f.gw, calls: map[uuid.UUID]int{}}
	labels := ResolveLabels[models.Facility](ctx, p, getter, []uuid.UUID{gym, gym, foreign, missing, gym}, func(f *models.Facility) string {
		return f.Name
	})

	assert.Equal(t, "Gym", labels[gym])
	assert.Equal(t, UnknownLabel, labels[foreign])
	assert.Equal(t, UnknownLabel, labels[missing])
	assert.Equal(t, UnknownLabel, Label(labels, uuid.New()))
	assert.Equal(t, 1, getter.calls[gym])
	assert.Equal(t, 1, getter.calls[foreign])
}
