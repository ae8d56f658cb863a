package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// EmailOutbox is a durable queue row for the outbox mail transport. The
// dispatcher only writes rows; the outbox worker drains them.
type EmailOutbox struct {
	ID        string     `json:"id" gorm:"primaryKey"`
	Recipient string     `json:"recipient" gorm:"not null;index"`
	Subject   string     `json:"subject"`
	HTMLBody  string     `json:"html_body" gorm:"type:text"`
	Status    string     `json:"status" gorm:"type:varchar(16);default:'pending';index"` // pending | sent | failed
	Attempts  int        `json:"attempts" gorm:"default:0"`
	LastError string     `json:"last_error,omitempty"`
	SentAt    *time.Time `json:"sent_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Timestamps adds GORM auto-times plus soft delete
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
