package tenancy

import (
	"context"

	"github.com/google/uuid"
	"github.com/pavitra93/go-facility-platform/shared/models"
)

const UnknownLabel = "Unknown"

// Getter is the ownership-checked lookup a Gateway provides.
type Getter[T any] interface {
	Get(ctx context.Context, p *models.Principal, id uuid.UUID) (*T, error)
}

// ResolveLabels fetches each distinct id once and maps it to a display label.
// Ids that cannot be fetched map to UnknownLabel.
func ResolveLabels[T any](ctx context.Context, p *models.Principal, getter Getter[T], ids []uuid.UUID, label func(*T) string) map[uuid.UUID]string {
	labels := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		if _, seen := labels[id]; seen {
			continue
		}
		rec, err := getter.Get(ctx, p, id)
		if err != nil {
			labels[id] = UnknownLabel
			continue
		}
		labels[id] = label(rec)
	}
	return labels
}

// Label returns labels[id] or UnknownLabel.
func Label(labels map[uuid.UUID]string, id uuid.UUID) string {
	if l, ok := labels[id]; ok {
		return l
	}
	return UnknownLabel
}
