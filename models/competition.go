// models/competition.go
package models

import (
	"time"
)

// Competition mirrors an externally managed news/event record. Only events in
// a registration-eligible category accept registrations.
type Competition struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"not null"`
	Category  string    `json:"category" gorm:"index"` // e.g. "competition", "championship"
	Venue     string    `json:"venue"`
	EventDate time.Time `json:"event_date"`
	Details   string    `json:"details" gorm:"type:text"`
	ImageURL  string    `json:"image_url"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// CompetitionRegistration is a union's entry of players into one competition.
// Player rows are snapshots frozen at submission time; later profile edits do
// not alter a reviewed record.
type CompetitionRegistration struct {
	ID string `json:"id" gorm:"primaryKey"`

	UnionID   string `json:"union_id" gorm:"not null;index"`
	UnionName string `json:"union_name"`

	CompetitionID    string `json:"competition_id" gorm:"not null;index"`
	CompetitionTitle string `json:"competition_title"`

	Players []CompetitionPlayerSnapshot `json:"players,omitempty" gorm:"foreignKey:RegistrationID"`

	Status          string     `json:"status" gorm:"type:varchar(16);default:'pending';index"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	Timestamps
}

// CompetitionPlayerSnapshot is one entered player, captured at submission.
type CompetitionPlayerSnapshot struct {
	ID             string `json:"id" gorm:"primaryKey"`
	RegistrationID string `json:"registration_id" gorm:"not null;index"`

	PlayerRecordID string `json:"player_record_id" gorm:"index"` // players.id
	PlayerCode     string `json:"player_code"`                   // membership code, empty if not yet approved
	Name           string `json:"name"`
	BeltLevel      string `json:"belt_level"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	SortOrder      int    `json:"sort_order" gorm:"column:sort_order;default:0"`
}
