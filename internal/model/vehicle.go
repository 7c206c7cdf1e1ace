package model

import (
    "strings"
    "time"
)

// Vehicle is a car registered by a car owner.  Plate numbers are stored
// trimmed and upper-cased.
type Vehicle struct {
    ID          uint64    `json:"id"`           // vehicles.id
    PlateNumber string    `json:"plate_number"` // vehicles.plate_number
    UserID      uint64    `json:"user_id"`      // vehicles.user_id
    CreatedAt   time.Time `json:"created_at"`   // vehicles.created_at
}

// NormalizePlate trims and upper-cases a plate number.
func NormalizePlate(p string) string {
    return strings.ToUpper(strings.TrimSpace(p))
}

// NormalizePlates normalizes every plate, dropping blanks and duplicates
// while keeping order.
func NormalizePlates(in []string) []string {
    out := make([]string, 0, len(in))
    seen := make(map[string]bool, len(in))
    for _, p := range in {
        p = NormalizePlate(p)
        if p == "" || seen[p] {
            continue
        }
        seen[p] = true
        out = append(out, p)
    }
    return out
}
