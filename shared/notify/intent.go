package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Intent is a request to deliver a push notification to one user. It is
// produced after a committed write and delivered at most once.
type Intent struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	TargetUserID string    `json:"target_user_id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	EntityType   string    `json:"entity_type,omitempty"`
	EntityID     uuid.UUID `json:"entity_id,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
}

// Dispatcher hands intents to the delivery pipeline. Implementations must
// not block the caller on delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent Intent) error
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, intent Intent) error

func (f DispatcherFunc) Dispatch(ctx context.Context, intent Intent) error {
	return f(ctx, intent)
}

// Discard drops every intent. Used when no broker is configured.
var Discard Dispatcher = DispatcherFunc(func(context.Context, Intent) error { return nil })
