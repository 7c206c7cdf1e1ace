// Package queue defines the parking event payload exchanged over RabbitMQ
// and the consumer that turns those events into a human readable log.
package queue

import (
	"fmt"
	"time"

	"github.com/iliyamo/parking-reservation/internal/ledger"
)

// DefaultQueue is the durable queue parking events are routed to.
const DefaultQueue = "parking.events"

// ParkingEvent is published after a booking, a release or a building
// creation has been committed.  It carries enough detail for consumers
// to log or notify without querying the database.
type ParkingEvent struct {
	Kind                 string  `json:"kind"`
	BuildingID           uint64  `json:"building_id"`
	BuildingName         string  `json:"building_name,omitempty"`
	SpotID               uint64  `json:"spot_id,omitempty"`
	SpotCode             string  `json:"spot_code,omitempty"`
	Floor                uint32  `json:"floor,omitempty"`
	SessionID            uint64  `json:"session_id,omitempty"`
	VehicleID            uint64  `json:"vehicle_id,omitempty"`
	TotalSpots           int     `json:"total_spots"`
	OccupiedSpots        int     `json:"occupied_spots"`
	OccupancyRatePercent float64 `json:"occupancy_rate_percent"`
	At                   string  `json:"at"`
}

// FromLedgerEvent flattens a ledger event.  The release code is never
// copied: it is the driver's credential.
func FromLedgerEvent(ev ledger.Event) ParkingEvent {
	out := ParkingEvent{
		Kind:       string(ev.Kind),
		BuildingID: ev.BuildingID,
		At:         ev.At.UTC().Format(time.RFC3339),
	}
	if ev.Building != nil {
		out.BuildingName = ev.Building.Name
	}
	if ev.Spot != nil {
		out.SpotID = ev.Spot.ID
		out.SpotCode = ev.Spot.Code
		out.Floor = ev.Spot.Floor
	}
	if ev.Session != nil {
		out.SessionID = ev.Session.ID
		out.VehicleID = ev.Session.VehicleID
	}
	if ev.Occupancy != nil {
		out.TotalSpots = ev.Occupancy.Total
		out.OccupiedSpots = ev.Occupancy.Occupied
		out.OccupancyRatePercent = ev.Occupancy.OccupancyRatePercent
	}
	return out
}

// FormatLine renders one event as a single log line.
func FormatLine(ev ParkingEvent) string {
	occ := fmt.Sprintf("occupancy=%d/%d (%.1f%%)", ev.OccupiedSpots, ev.TotalSpots, ev.OccupancyRatePercent)
	switch ev.Kind {
	case string(ledger.EventSpotBooked):
		return fmt.Sprintf("[%s] Spot booked | building_id=%d | spot=%s | floor=%d | session_id=%d | vehicle_id=%d | %s\n",
			ev.At, ev.BuildingID, ev.SpotCode, ev.Floor, ev.SessionID, ev.VehicleID, occ)
	case string(ledger.EventSpotReleased):
		return fmt.Sprintf("[%s] Spot released | building_id=%d | spot=%s | floor=%d | session_id=%d | %s\n",
			ev.At, ev.BuildingID, ev.SpotCode, ev.Floor, ev.SessionID, occ)
	case string(ledger.EventBuildingCreated):
		return fmt.Sprintf("[%s] Building created | building_id=%d | name=%q | spots=%d\n",
			ev.At, ev.BuildingID, ev.BuildingName, ev.TotalSpots)
	default:
		return fmt.Sprintf("[%s] %s | building_id=%d\n", ev.At, ev.Kind, ev.BuildingID)
	}
}
