package db

import (
	"context"
	"errors"

	"flood-rescue/types"
)

// ErrNotFound is returned when a case or center document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrConflict is the base error for conditional writes rejected because
// the document was not in the expected state at write time. Callers wrap
// it with a descriptive state error.
var ErrConflict = errors.New("conditional write conflict")

// EventType classifies a change-feed notification.
type EventType string

const (
	EventAdded    EventType = "added"
	EventModified EventType = "modified"
	EventRemoved  EventType = "removed"
)

// CaseEvent is one change-feed notification for the case collection.
// Case is nil for removed events. Delivery is at-least-once and carries
// no ordering guarantee across documents; consumers must re-read the
// authoritative document before acting on the payload.
type CaseEvent struct {
	Type EventType
	ID   string
	Case *types.Case
}

// CaseStore is the document store abstraction for rescue cases.
type CaseStore interface {
	Create(ctx context.Context, c *types.Case) (string, error)
	Get(ctx context.Context, id string) (*types.Case, error)
	List(ctx context.Context) ([]*types.Case, error)

	// Update applies a partial write of the given field paths.
	Update(ctx context.Context, id string, fields map[string]interface{}) error

	// UpdateIf applies the partial write only if check accepts the
	// document's current state, evaluated atomically at write time. The
	// error returned by check is passed through unchanged, so callers
	// receive their own typed state errors on conflict.
	UpdateIf(ctx context.Context, id string, check func(*types.Case) error, fields map[string]interface{}) error

	Delete(ctx context.Context, id string) error

	// DeleteIf removes the document only if check accepts its current
	// state, evaluated atomically with the delete.
	DeleteIf(ctx context.Context, id string, check func(*types.Case) error) error

	// Subscribe streams change events to handler until ctx is done.
	// Handler runs on the delivery goroutine; long work must be handed
	// off so the feed is never blocked.
	Subscribe(ctx context.Context, handler func(CaseEvent)) error
}

// CenterStore is the document store abstraction for evacuation centers.
type CenterStore interface {
	CreateCenter(ctx context.Context, c *types.EvacuationCenter) (string, error)
	GetCenter(ctx context.Context, id string) (*types.EvacuationCenter, error)
	ListCenters(ctx context.Context) ([]*types.EvacuationCenter, error)

	// AppendResident appends one resident to the center's list and
	// increments its occupant count in a single atomic write, so that
	// concurrent registrations are all counted.
	AppendResident(ctx context.Context, centerID string, r types.Resident) error
}
