package model

import "time"

// User types.  The type is fixed at registration.
const (
    UserTypeCarOwner      = "car_owner"
    UserTypeBuildingOwner = "building_owner"
)

// ValidUserType reports whether t is one of the known user types.
func ValidUserType(t string) bool {
    return t == UserTypeCarOwner || t == UserTypeBuildingOwner
}

// User represents an application user as stored in the `users` table.
// Users sign in with their card identifier alone; there is no password.
//
// Fields:
//  ID        – primary key identifier of the user.
//  Name      – display name.
//  CardID    – unique login identifier printed on the parking card.
//  UserType  – car_owner or building_owner.
//  CreatedAt – timestamp of creation.
type User struct {
    ID        uint64    `json:"id"`         // users.id
    Name      string    `json:"name"`       // users.name
    CardID    string    `json:"card_id"`    // users.card_id
    UserType  string    `json:"user_type"`  // users.user_type
    CreatedAt time.Time `json:"created_at"` // users.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the token handed to the client is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
