package tenancy

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestGormStoreListAppliesTenantFirst(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewGormStore[models.Facility](db)
	tenant := uuid.New()
	building := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "name", "created_at"}).
		AddRow(uuid.NewString(), tenant.String(), "Gym", time.Now())

	mock.ExpectQuery(`SELECT \* FROM "facilities" WHERE tenant_id = \$1 AND "building_id" = \$2`).
		WithArgs(tenant.String(), building.String()).
		WillReturnRows(rows)

	got, err := store.List(context.Background(), tenant, Where("building_id", building))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Gym", got[0].Name)
	assert.Equal(t, tenant, got[0].TenantID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreFindMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewGormStore[models.Facility](db)

	mock.ExpectQuery(`SELECT \* FROM "facilities" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.Find(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrRecordMissing)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGatewayOverGormNeverWritesForeignRecord(t *testing.T) {
	db, mock := setupMockDB(t)
	gw := NewGateway[models.Facility, *models.Facility](Config[models.Facility]{
		Entity: "Facility",
		Store:  NewGormStore[models.Facility](db),
	})
	id := uuid.New()
	intruder := principal()

	mock.ExpectQuery(`SELECT \* FROM "facilities" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}).
			AddRow(id.String(), uuid.NewString(), "Gym"))

	err := gw.Remove(context.Background(), intruder, id)
	require.Error(t, err)
	assert.Equal(t, "Facility not found or access denied", err.Error())

	// no UPDATE or DELETE was expected, so any write would have failed above
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGatewayOverGormSoftDeletesOwnRecord(t *testing.T) {
	db, mock := setupMockDB(t)
	gw := NewGateway[models.Facility, *models.Facility](Config[models.Facility]{
		Entity: "Facility",
		Store:  NewGormStore[models.Facility](db),
	})
	id := uuid.New()
	owner := principal()

	mock.ExpectQuery(`SELECT \* FROM "facilities" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}).
			AddRow(id.String(), owner.TenantID.String(), "Gym"))
	mock.ExpectExec(`UPDATE "facilities" SET "deleted_at"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, gw.Remove(context.Background(), owner, id))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreUpdateLocksRowUntilSaved(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewGormStore[models.Facility](db)
	id := uuid.New()
	tenant := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "facilities" WHERE id = \$1 .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}).
			AddRow(id.String(), tenant.String(), "Gym"))
	mock.ExpectExec(`UPDATE "facilities" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec, err := store.Update(context.Background(), id, func(f *models.Facility) error {
		f.Name = "Pool"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Pool", rec.Name)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreUpdateRollsBackWhenFnFails(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewGormStore[models.Facility](db)
	id := uuid.New()
	errGuard := InvalidArgument("Parcel already collected")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "facilities" WHERE id = \$1 .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}).
			AddRow(id.String(), uuid.NewString(), "Gym"))
	mock.ExpectRollback()

	_, err := store.Update(context.Background(), id, func(*models.Facility) error { return errGuard })
	assert.Equal(t, errGuard, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreExclusiveTakesAdvisoryLock(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewGormStore[models.Booking](db)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtext\(\$1\)\)`).
		WithArgs("*models.Booking").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ran := false
	require.NoError(t, store.Exclusive(context.Background(), func(context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)

	require.NoError(t, mock.ExpectationsWereMet())
}
