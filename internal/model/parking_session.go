package model

import "time"

// ParkingSession records one vehicle occupying one spot.  The row lives
// in the `user_spots` table.  A nil ReleasedAt marks the session as
// active; released sessions are kept as history and never deleted.
//
// Fields:
//  ID         – primary key identifier.
//  SpotID     – spot being occupied.
//  UniqueCode – release code handed to the driver.
//  VehicleID  – vehicle parked in the spot.
//  ParkedAt   – when the booking was made.
//  ReleasedAt – when the spot was released (nil while active).
//  CreatedAt  – creation timestamp.
type ParkingSession struct {
    ID         uint64     `json:"id"`                    // user_spots.id
    SpotID     uint64     `json:"spot_id"`               // user_spots.spot_id
    UniqueCode string     `json:"unique_code"`           // user_spots.unique_code
    VehicleID  uint64     `json:"vehicle_id"`            // user_spots.vehicle_id
    ParkedAt   time.Time  `json:"parked_at"`             // user_spots.parked_at
    ReleasedAt *time.Time `json:"released_at,omitempty"` // user_spots.released_at (nullable)
    CreatedAt  time.Time  `json:"created_at"`            // user_spots.created_at
}

// Active reports whether the session has not been released yet.
func (s ParkingSession) Active() bool { return s.ReleasedAt == nil }

// ActiveSessionView is an open session joined with its spot, vehicle and
// driver, as shown on the building owner dashboard.  MinutesParked is
// filled in when the view is served, not stored.
type ActiveSessionView struct {
    SessionID     uint64    `json:"session_id"`
    SpotID        uint64    `json:"spot_id"`
    SpotCode      string    `json:"spot_code"`
    Floor         uint32    `json:"floor"`
    PlateNumber   string    `json:"plate_number"`
    DriverName    string    `json:"driver_name"`
    ParkedAt      time.Time `json:"parked_at"`
    MinutesParked int64     `json:"minutes_parked"`
}
