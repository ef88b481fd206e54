package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the Postgres-backed Store.
type GormStore[T any] struct {
	db *gorm.DB
}

func NewGormStore[T any](db *gorm.DB) *GormStore[T] {
	return &GormStore[T]{db: db}
}

func (s *GormStore[T]) Find(ctx context.Context, id uuid.UUID) (*T, error) {
	var rec T
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}
	return &rec, nil
}

func (s *GormStore[T]) Create(ctx context.Context, rec *T) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

// Update holds a row lock (SELECT ... FOR UPDATE) from the read until the
// save commits.
func (s *GormStore[T]) Update(ctx context.Context, id uuid.UUID, fn func(rec *T) error) (*T, error) {
	var rec T
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordMissing
		}
		if err != nil {
			return fmt.Errorf("failed to lock record: %w", err)
		}
		if err := fn(&rec); err != nil {
			return err
		}
		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("failed to save record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Exclusive takes a transaction-scoped advisory lock named after the record
// type. fn's own writes commit before the lock is released, so the next
// holder reads them.
func (s *GormStore[T]) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", lockName[T]()).Error; err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		return fn(ctx)
	})
}

func lockName[T any]() string {
	return fmt.Sprintf("%T", new(T))
}

func (s *GormStore[T]) Delete(ctx context.Context, rec *T) error {
	if err := s.db.WithContext(ctx).Delete(rec).Error; err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// List applies the tenant predicate before any caller filter.
func (s *GormStore[T]) List(ctx context.Context, tenantID uuid.UUID, filters ...Filter) ([]T, error) {
	query := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	for _, f := range filters {
		query = query.Where(clause.Eq{Column: clause.Column{Name: f.Column}, Value: f.Value})
	}

	var out []T
	if err := query.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return out, nil
}
