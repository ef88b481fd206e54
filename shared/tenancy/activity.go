package tenancy

import (
	"context"

	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/models"
)

// ActivityRecorder appends audit entries for committed mutations.
type ActivityRecorder interface {
	Record(ctx context.Context, p *models.Principal, activity models.Activity) error
}

// ActivityLog writes activities into a Store under the principal's tenant.
type ActivityLog struct {
	store Store[models.Activity]
}

func NewActivityLog(store Store[models.Activity]) *ActivityLog {
	return &ActivityLog{store: store}
}

func (l *ActivityLog) Record(ctx context.Context, p *models.Principal, activity models.Activity) error {
	activity.ID = uuid.New()
	activity.TenantID = p.TenantID
	activity.ActorID = p.SubjectID
	return l.store.Create(ctx, &activity)
}
