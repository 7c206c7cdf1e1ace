package ledger

import (
	"context"
	"time"

	"github.com/iliyamo/parking-reservation/internal/model"
)

// EventKind identifies what changed in the ledger.
type EventKind string

const (
	EventBuildingCreated EventKind = "building.created"
	EventSpotBooked      EventKind = "spot.booked"
	EventSpotReleased    EventKind = "spot.released"
)

// Event is emitted after a ledger change has been committed.  Occupancy
// is a snapshot of the affected building taken right after the change;
// it is nil when the snapshot could not be loaded.
type Event struct {
	Kind       EventKind
	BuildingID uint64
	Building   *model.Building
	Spot       *model.Spot
	Session    *model.ParkingSession
	Occupancy  *Occupancy
	At         time.Time
}

// Notifier receives committed ledger events.  Implementations must not
// block the caller for long; delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Notifiers fans an event out to several notifiers in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, ev Event) {
	for _, n := range ns {
		if n != nil {
			n.Notify(ctx, ev)
		}
	}
}
