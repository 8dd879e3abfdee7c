package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleClient UserRole = "client"
	RoleAdmin  UserRole = "admin"
	RoleBaker  UserRole = "baker"
	RoleDriver UserRole = "driver"
)

// Valid reports whether r is one of the known roles
func (r UserRole) Valid() bool {
	switch r {
	case RoleClient, RoleAdmin, RoleBaker, RoleDriver:
		return true
	}
	return false
}

// LoyaltyTier is derived from the accumulated nexus points
type LoyaltyTier string

const (
	TierNeophyte  LoyaltyTier = "Neophyte"
	TierSyndicate LoyaltyTier = "Syndicate"
	TierArchitect LoyaltyTier = "Architect"
)

// TierFor maps a point balance onto a loyalty tier
func TierFor(points int) LoyaltyTier {
	switch {
	case points < 1000:
		return TierNeophyte
	case points < 5000:
		return TierSyndicate
	default:
		return TierArchitect
	}
}

type User struct {
	ID           string      `json:"id" gorm:"primaryKey"`
	Name         string      `json:"name" gorm:"not null"`
	Email        string      `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string      `json:"-"`
	Role         UserRole    `json:"role" gorm:"not null;default:'client'"`
	NexusPoints  int         `json:"nexus_points"`
	Tier         LoyaltyTier `json:"tier" gorm:"-"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
