package model

import "time"

// Spot describes one addressable parking location inside a building.
// IsOccupied mirrors the existence of an open parking session for the
// spot; both are changed together inside a single transaction.
//
// Fields:
//  ID         – primary key identifier.
//  Code       – human readable label such as A1-03.
//  Floor      – 1-based floor number.
//  BuildingID – building that owns the spot.
//  IsOccupied – whether a vehicle currently holds the spot.
//  CreatedAt  – creation timestamp.
type Spot struct {
    ID         uint64    `json:"id"`          // spots.id
    Code       string    `json:"code"`        // spots.code
    Floor      uint32    `json:"floor"`       // spots.floor
    BuildingID uint64    `json:"building_id"` // spots.building_id
    IsOccupied bool      `json:"is_occupied"` // spots.is_occupied
    CreatedAt  time.Time `json:"created_at"`  // spots.created_at
}

// SpotDraft is a spot that has been laid out but not yet persisted.
type SpotDraft struct {
    Code       string
    Floor      uint32
    BuildingID uint64
}
