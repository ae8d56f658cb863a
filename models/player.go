// models/player.go
package models

import (
	"time"
)

// Belt progression ladder, lowest to highest. Promotion test groups must name
// one of these; nothing enforces that the target outranks the current belt.
var BeltLevels = []string{
	"White",
	"Yellow",
	"Orange",
	"Green",
	"Blue",
	"Purple",
	"Brown",
	"Red",
	"Black 1st Dan",
	"Black 2nd Dan",
	"Black 3rd Dan",
	"Black 4th Dan",
	"Black 5th Dan",
	"Black 6th Dan",
	"Black 7th Dan",
	"Black 8th Dan",
	"Black 9th Dan",
}

// IsValidBeltLevel reports whether level is in the ladder (case-insensitive
// match is the caller's job; snapshots store the canonical spelling).
func IsValidBeltLevel(level string) bool {
	for _, b := range BeltLevels {
		if b == level {
			return true
		}
	}
	return false
}

// Player is an individual athlete registered under exactly one Union.
type Player struct {
	ID    string `json:"id" gorm:"primaryKey"`
	Email string `json:"email" gorm:"uniqueIndex;not null"` // stored lowercase

	// Ownership. A player does not exist without a union. UnionName is a
	// snapshot taken at registration time, not a live join.
	UnionID   string `json:"union_id" gorm:"not null;index"`
	UnionName string `json:"union_name"`

	// Profile
	Name            string `json:"name" gorm:"not null"`
	Phone           string `json:"phone"`
	Address         string `json:"address" gorm:"type:text"`
	DOB             string `json:"dob"` // YYYY-MM-DD as submitted
	BeltLevel       string `json:"belt_level"`
	ExperienceYears int    `json:"experience_years" gorm:"default:0"`
	PhotoURL        string `json:"photo_url"`

	// 🎛️ Review state
	Status          string     `json:"status" gorm:"type:varchar(16);default:'pending';index"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	// 🏷️ Membership code, minted once on first approval and never regenerated.
	// Pointer so the unique index ignores players that are still pending.
	PlayerCode *string `json:"player_code,omitempty" gorm:"uniqueIndex"`
	// Never serialized; approval and resend responses return it explicitly.
	Password string `json:"-"`

	// ✉️ Credential email dispatch outcome
	EmailSent   bool       `json:"email_sent" gorm:"default:false"`
	EmailSentAt *time.Time `json:"email_sent_at,omitempty"`
	EmailError  string     `json:"email_error,omitempty"`

	Timestamps
}
