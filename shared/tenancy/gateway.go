package tenancy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/metrics"
	"github.com/pavitra93/go-facility-platform/shared/models"
	"github.com/pavitra93/go-facility-platform/shared/notify"
	"github.com/sirupsen/logrus"
)

type Operation string

const (
	OpCreated Operation = "Created"
	OpUpdated Operation = "Updated"
	OpDeleted Operation = "Deleted"
)

// Input is a client payload for Upsert. Apply copies only the fields the
// client provided; it never touches ID or TenantID.
type Input[T any] interface {
	TargetID() *uuid.UUID
	Validate() error
	Apply(rec *T)
}

// Config wires one entity into a Gateway. Only Entity and Store are required.
type Config[T any] struct {
	Entity     string
	Store      Store[T]
	Activity   ActivityRecorder
	Dispatcher notify.Dispatcher

	// OnCreate stamps principal-derived fields on new records.
	OnCreate func(p *models.Principal, rec *T)
	// Check validates the merged record before it is written. It may read
	// other stores, e.g. to verify references.
	Check func(ctx context.Context, p *models.Principal, rec *T) error
	// Notify derives notification intents from a committed write. prev is
	// nil for creates.
	Notify func(ctx context.Context, p *models.Principal, op Operation, prev, rec *T) []notify.Intent
	// Describe renders the activity description. Defaults to the record id.
	Describe func(rec *T) string
	// Audience exposes the record's audience for ListVisible.
	Audience func(rec *T) []models.AudienceTarget
	// Access narrows visibility inside the tenant. Rejected records are
	// reported exactly like records of another tenant.
	Access func(p *models.Principal, rec *T) bool
	// Exclusive serializes Upserts of this entity, so Check may guard
	// invariants that span records.
	Exclusive bool
}

// Gateway is the single path through which one entity is read or mutated on
// behalf of a principal.
type Gateway[T any, P RecordPtr[T]] struct {
	cfg Config[T]
	log *logrus.Entry
}

func NewGateway[T any, P RecordPtr[T]](cfg Config[T]) *Gateway[T, P] {
	return &Gateway[T, P]{
		cfg: cfg,
		log: logrus.WithField("entity", cfg.Entity),
	}
}

func (g *Gateway[T, P]) Entity() string {
	return g.cfg.Entity
}

// Get returns the record if it exists and belongs to the principal's tenant.
func (g *Gateway[T, P]) Get(ctx context.Context, p *models.Principal, id uuid.UUID) (*T, error) {
	if err := authorize(p); err != nil {
		return nil, err
	}
	return g.load(ctx, p, id)
}

// Upsert patches the targeted record when the input carries an id, and
// inserts a new record under the principal's tenant otherwise.
func (g *Gateway[T, P]) Upsert(ctx context.Context, p *models.Principal, in Input[T]) (uuid.UUID, error) {
	if err := authorize(p); err != nil {
		return uuid.Nil, err
	}
	if err := in.Validate(); err != nil {
		return uuid.Nil, asInvalidArgument(err)
	}
	if !g.cfg.Exclusive {
		return g.upsert(ctx, p, in)
	}

	var id uuid.UUID
	err := g.cfg.Store.Exclusive(ctx, func(ctx context.Context) error {
		var err error
		id, err = g.upsert(ctx, p, in)
		return err
	})
	return id, err
}

func (g *Gateway[T, P]) upsert(ctx context.Context, p *models.Principal, in Input[T]) (uuid.UUID, error) {
	if id := in.TargetID(); id != nil && *id != uuid.Nil {
		if _, err := g.Update(ctx, p, *id, func(rec *T) error {
			in.Apply(rec)
			return nil
		}); err != nil {
			return uuid.Nil, err
		}
		return *id, nil
	}

	rec := new(T)
	in.Apply(rec)
	id := uuid.New()
	P(rec).SetID(id)
	P(rec).SetTenantID(p.TenantID)
	if g.cfg.OnCreate != nil {
		g.cfg.OnCreate(p, rec)
	}
	if err := g.check(ctx, p, rec); err != nil {
		return uuid.Nil, err
	}
	if err := g.cfg.Store.Create(ctx, rec); err != nil {
		return uuid.Nil, fmt.Errorf("create %s: %w", g.cfg.Entity, err)
	}

	g.afterWrite(ctx, p, OpCreated, nil, rec)
	return id, nil
}

// Update applies fn to the record under the store's row lock, so guards
// inside fn and Check see the latest committed state. The record keeps its
// id and tenant whatever fn does.
func (g *Gateway[T, P]) Update(ctx context.Context, p *models.Principal, id uuid.UUID, fn func(rec *T) error) (*T, error) {
	if err := authorize(p); err != nil {
		return nil, err
	}

	var prev T
	var aborted error
	rec, err := g.cfg.Store.Update(ctx, id, func(rec *T) error {
		aborted = g.apply(ctx, p, id, rec, &prev, fn)
		return aborted
	})
	if aborted != nil {
		return nil, aborted
	}
	if errors.Is(err, ErrRecordMissing) {
		metrics.AccessDeniedTotal.WithLabelValues(g.cfg.Entity).Inc()
		return nil, NotFound(g.cfg.Entity)
	}
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", g.cfg.Entity, err)
	}

	g.afterWrite(ctx, p, OpUpdated, &prev, rec)
	return rec, nil
}

// apply runs inside the store's Update: ownership, fn, then Check.
func (g *Gateway[T, P]) apply(ctx context.Context, p *models.Principal, id uuid.UUID, rec, prev *T, fn func(rec *T) error) error {
	if !g.allowed(p, rec) {
		return g.denied(p, id)
	}
	*prev = *rec
	tenantID := P(rec).GetTenantID()
	if err := fn(rec); err != nil {
		return err
	}
	P(rec).SetID(id)
	P(rec).SetTenantID(tenantID)
	return g.check(ctx, p, rec)
}

// Remove deletes the record if it belongs to the principal's tenant.
func (g *Gateway[T, P]) Remove(ctx context.Context, p *models.Principal, id uuid.UUID) error {
	if err := authorize(p); err != nil {
		return err
	}
	rec, err := g.load(ctx, p, id)
	if err != nil {
		return err
	}
	if err := g.cfg.Store.Delete(ctx, rec); err != nil {
		return fmt.Errorf("delete %s: %w", g.cfg.Entity, err)
	}

	g.afterWrite(ctx, p, OpDeleted, rec, rec)
	return nil
}

// List returns the tenant's records matching every filter, newest first.
func (g *Gateway[T, P]) List(ctx context.Context, p *models.Principal, filters ...Filter) ([]T, error) {
	if err := authorize(p); err != nil {
		return nil, err
	}
	rows, err := g.cfg.Store.List(ctx, p.TenantID, filters...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", g.cfg.Entity, err)
	}
	if g.cfg.Access == nil {
		return rows, nil
	}

	allowed := rows[:0]
	for i := range rows {
		if g.cfg.Access(p, &rows[i]) {
			allowed = append(allowed, rows[i])
		}
	}
	return allowed, nil
}

// ListVisible is List restricted to records whose audience matches groups.
func (g *Gateway[T, P]) ListVisible(ctx context.Context, p *models.Principal, groups []models.AudienceTarget, filters ...Filter) ([]T, error) {
	rows, err := g.List(ctx, p, filters...)
	if err != nil {
		return nil, err
	}
	if g.cfg.Audience == nil {
		return rows, nil
	}

	visible := rows[:0]
	for i := range rows {
		if AudienceVisible(g.cfg.Audience(&rows[i]), groups) {
			visible = append(visible, rows[i])
		}
	}
	return visible, nil
}

// kind is the entity name as a lower snake case activity type.
func (g *Gateway[T, P]) kind() string {
	return strings.ReplaceAll(strings.ToLower(g.cfg.Entity), " ", "_")
}

func authorize(p *models.Principal) error {
	if p == nil || p.TenantID == uuid.Nil {
		return ErrUnauthenticated
	}
	return nil
}

func (g *Gateway[T, P]) load(ctx context.Context, p *models.Principal, id uuid.UUID) (*T, error) {
	rec, err := g.cfg.Store.Find(ctx, id)
	if errors.Is(err, ErrRecordMissing) {
		metrics.AccessDeniedTotal.WithLabelValues(g.cfg.Entity).Inc()
		return nil, NotFound(g.cfg.Entity)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", g.cfg.Entity, err)
	}
	if !g.allowed(p, rec) {
		return nil, g.denied(p, id)
	}
	return rec, nil
}

func (g *Gateway[T, P]) allowed(p *models.Principal, rec *T) bool {
	if P(rec).GetTenantID() != p.TenantID {
		return false
	}
	return g.cfg.Access == nil || g.cfg.Access(p, rec)
}

func (g *Gateway[T, P]) denied(p *models.Principal, id uuid.UUID) error {
	metrics.AccessDeniedTotal.WithLabelValues(g.cfg.Entity).Inc()
	g.log.WithFields(logrus.Fields{
		"tenant_id": p.TenantID,
		"record_id": id,
	}).Debug("Access collapsed to not found")
	return NotFound(g.cfg.Entity)
}

func (g *Gateway[T, P]) check(ctx context.Context, p *models.Principal, rec *T) error {
	if g.cfg.Check == nil {
		return nil
	}
	if err := g.cfg.Check(ctx, p, rec); err != nil {
		if errors.Is(err, ErrNotFoundOrAccessDenied) || errors.Is(err, ErrUnauthenticated) {
			return asInvalidArgument(err)
		}
		return err
	}
	return nil
}

// afterWrite runs once per committed write. Nothing here can fail the
// mutation.
func (g *Gateway[T, P]) afterWrite(ctx context.Context, p *models.Principal, op Operation, prev, rec *T) {
	id := P(rec).GetID()
	metrics.MutationsTotal.WithLabelValues(g.cfg.Entity, string(op)).Inc()
	g.log.WithFields(logrus.Fields{
		"operation": op,
		"tenant_id": p.TenantID,
		"record_id": id,
	}).Info("Record written")

	if g.cfg.Activity != nil {
		description := id.String()
		if g.cfg.Describe != nil {
			description = g.cfg.Describe(rec)
		}
		activity := models.Activity{
			Title:       fmt.Sprintf("%s %s", g.cfg.Entity, op),
			Description: description,
			Type:        g.kind(),
			EntityID:    id,
		}
		if err := g.cfg.Activity.Record(ctx, p, activity); err != nil {
			metrics.SideEffectFailuresTotal.WithLabelValues("activity").Inc()
			g.log.WithError(err).WithField("record_id", id).Warn("Failed to record activity")
		}
	}

	if g.cfg.Notify == nil || g.cfg.Dispatcher == nil {
		return
	}
	for _, intent := range g.cfg.Notify(ctx, p, op, prev, rec) {
		intent.TenantID = p.TenantID
		if intent.EntityID == uuid.Nil {
			intent.EntityID = id
		}
		if intent.EntityType == "" {
			intent.EntityType = g.kind()
		}
		if err := g.cfg.Dispatcher.Dispatch(ctx, intent); err != nil {
			metrics.SideEffectFailuresTotal.WithLabelValues("notification").Inc()
			g.log.WithError(err).WithField("record_id", id).Warn("Failed to dispatch notification")
		}
	}
}
