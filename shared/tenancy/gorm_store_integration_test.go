//go:build integration

package tenancy

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("facility"),
		postgrescontainer.WithUsername("platform"),
		postgrescontainer.WithPassword("platform"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db := waitForGorm(t, connStr)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func TestGormStoreRespectsTenantIsolation(t *testing.T) {
	ctx := context.Background()
	db := startPostgres(t)

	activities := NewGormStore[models.Activity](db)
	gw := NewGateway[models.Space, *models.Space](Config[models.Space]{
		Entity:   "Space",
		Store:    NewGormStore[models.Space](db),
		Activity: NewActivityLog(activities),
	})

	owner := principal()
	intruder := principal()
	building := uuid.New()

	rec := &spaceInput{Name: "Unit 4B", BuildingID: building, Floor: 4, Letting: models.Letting{
		Agent: &models.LettingAgent{Name: "Lee", Phone: "+1 555 0100"},
	}}
	id, err := gw.Upsert(ctx, owner, rec)
	require.NoError(t, err)

	stored, err := gw.Get(ctx, owner, id)
	require.NoError(t, err)
	require.Equal(t, owner.TenantID, stored.TenantID)
	require.True(t, stored.Letting.Enabled())
	require.Equal(t, "Lee", stored.Letting.Agent.Name)

	_, err = gw.Get(ctx, intruder, id)
	require.ErrorIs(t, err, ErrNotFoundOrAccessDenied)

	rows, err := gw.List(ctx, owner, Where("building_id", building))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = gw.List(ctx, intruder)
	require.NoError(t, err)
	require.Empty(t, rows)

	logged, err := activities.List(ctx, owner.TenantID, Where("entity_id", id))
	require.NoError(t, err)
	require.Len(t, logged, 1)
	require.Equal(t, "Space Created", logged[0].Title)
}

func TestGormStoreConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	ctx := context.Background()
	db := startPostgres(t)

	gw := NewGateway[models.Building, *models.Building](Config[models.Building]{
		Entity: "Building",
		Store:  NewGormStore[models.Building](db),
	})
	p := principal()
	id, err := gw.Upsert(ctx, p, buildingInput{Name: "Tower"})
	require.NoError(t, err)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gw.Update(ctx, p, id, func(b *models.Building) error {
				b.Floors++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := gw.Get(ctx, p, id)
	require.NoError(t, err)
	require.Equal(t, writers, rec.Floors)
}

type spaceInput struct {
	Name       string
	BuildingID uuid.UUID
	Floor      int
	Letting    models.Letting
}

func (in *spaceInput) TargetID() *uuid.UUID { return nil }
func (in *spaceInput) Validate() error      { return in.Letting.Validate() }
func (in *spaceInput) Apply(rec *models.Space) {
	rec.Name = in.Name
	rec.BuildingID = in.BuildingID
	rec.Floor = in.Floor
	rec.Letting = in.Letting
}

func waitForGorm(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			sqlDB, derr := db.DB()
			if derr == nil && sqlDB.Ping() == nil {
				return db
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("database not ready: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}
