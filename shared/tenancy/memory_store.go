package tenancy

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/schema"
)

// MemoryStore keeps records in a map. Filter columns are resolved through
// the same gorm schema the GormStore uses, so filters behave alike.
type MemoryStore[T any, P RecordPtr[T]] struct {
	mu        sync.RWMutex
	updates   sync.Mutex
	exclusive sync.Mutex
	rows      map[uuid.UUID]T
	schema    *schema.Schema
	schemaErr error
	now       func() time.Time
}

func NewMemoryStore[T any, P RecordPtr[T]]() *MemoryStore[T, P] {
	s, err := schema.Parse(new(T), &sync.Map{}, schema.NamingStrategy{})
	return &MemoryStore[T, P]{
		rows:      make(map[uuid.UUID]T),
		schema:    s,
		schemaErr: err,
		now:       time.Now,
	}
}

func (s *MemoryStore[T, P]) Find(_ context.Context, id uuid.UUID) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.rows[id]
	if !ok {
		return nil, ErrRecordMissing
	}
	return &rec, nil
}

func (s *MemoryStore[T, P]) Create(_ context.Context, rec *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := P(rec).GetID()
	if _, exists := s.rows[id]; exists {
		return fmt.Errorf("duplicate key %s", id)
	}
	P(rec).Stamp(s.now())
	s.rows[id] = *rec
	return nil
}

// Update serializes on its own mutex rather than mu, so fn may read this
// store while it runs.
func (s *MemoryStore[T, P]) Update(ctx context.Context, id uuid.UUID, fn func(rec *T) error) (*T, error) {
	s.updates.Lock()
	defer s.updates.Unlock()

	rec, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return nil, ErrRecordMissing
	}
	P(rec).Stamp(s.now())
	s.rows[id] = *rec
	return rec, nil
}

func (s *MemoryStore[T, P]) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	s.exclusive.Lock()
	defer s.exclusive.Unlock()
	return fn(ctx)
}

func (s *MemoryStore[T, P]) Delete(_ context.Context, rec *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rows, P(rec).GetID())
	return nil
}

func (s *MemoryStore[T, P]) List(ctx context.Context, tenantID uuid.UUID, filters ...Filter) ([]T, error) {
	fields := make([]*schema.Field, len(filters))
	for i, f := range filters {
		if s.schemaErr != nil {
			return nil, fmt.Errorf("failed to parse schema: %w", s.schemaErr)
		}
		field := s.schema.LookUpField(f.Column)
		if field == nil {
			return nil, fmt.Errorf("unknown column %q", f.Column)
		}
		fields[i] = field
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0)
	for _, rec := range s.rows {
		rec := rec
		if P(&rec).GetTenantID() != tenantID {
			continue
		}
		if matchesAll(ctx, &rec, fields, filters) {
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return P(&out[i]).GetCreatedAt().After(P(&out[j]).GetCreatedAt())
	})
	return out, nil
}

func matchesAll[T any](ctx context.Context, rec *T, fields []*schema.Field, filters []Filter) bool {
	rv := reflect.ValueOf(rec).Elem()
	for i, field := range fields {
		value, _ := field.ValueOf(ctx, rv)
		if !sameValue(value, filters[i].Value) {
			return false
		}
	}
	return true
}

func sameValue(have, want interface{}) bool {
	have, ok := deref(have)
	if !ok {
		return want == nil
	}
	want, ok = deref(want)
	if !ok {
		return false
	}
	if reflect.DeepEqual(have, want) {
		return true
	}
	return fmt.Sprint(have) == fmt.Sprint(want)
}

func deref(v interface{}) (interface{}, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		return rv.Elem().Interface(), true
	}
	return v, true
}
