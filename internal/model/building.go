package model

import "time"

// Building represents a parking structure.  Capacity is the spot count
// requested when the building was created; the spots themselves are
// generated once at creation time and never reconciled afterwards.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the building.
//  Capacity  – total number of spots requested at creation.
//  CreatedAt – creation timestamp.
type Building struct {
    ID        uint64    `json:"id"`         // buildings.id
    Name      string    `json:"name"`       // buildings.name
    Capacity  uint32    `json:"capacity"`   // buildings.capacity
    CreatedAt time.Time `json:"created_at"` // buildings.created_at
}
