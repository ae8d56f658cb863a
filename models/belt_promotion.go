// models/belt_promotion.go
package models

import (
	"time"
)

// BeltPromotionTest is a union's batch request to grade players up to new
// belt levels. Approval overwrites every named player's belt with the group
// target.
type BeltPromotionTest struct {
	ID string `json:"id" gorm:"primaryKey"`

	UnionID   string `json:"union_id" gorm:"not null;index"`
	UnionName string `json:"union_name"`

	Groups []PromotionTestGroup `json:"groups,omitempty" gorm:"foreignKey:TestID"`

	Status          string     `json:"status" gorm:"type:varchar(16);default:'pending';index"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	Timestamps
}

// PromotionTestGroup names one target belt and the players testing for it.
type PromotionTestGroup struct {
	ID         string `json:"id" gorm:"primaryKey"`
	TestID     string `json:"test_id" gorm:"not null;index"`
	TargetBelt string `json:"target_belt" gorm:"not null"`
	SortOrder  int    `json:"sort_order" gorm:"column:sort_order;default:0"`

	Players []PromotionPlayerSnapshot `json:"players,omitempty" gorm:"foreignKey:GroupID"`
}

// PromotionPlayerSnapshot freezes a player's belt as it was at submission.
type PromotionPlayerSnapshot struct {
	ID      string `json:"id" gorm:"primaryKey"`
	GroupID string `json:"group_id" gorm:"not null;index"`

	PlayerRecordID string `json:"player_record_id" gorm:"index"`
	PlayerCode     string `json:"player_code"`
	Name           string `json:"name"`
	CurrentBelt    string `json:"current_belt"`
	SortOrder      int    `json:"sort_order" gorm:"column:sort_order;default:0"`
}
