// models/union.go
package models

import (
	"time"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Union represents a regional affiliate organization, the top-level tenant
// under which players register.
type Union struct {
	ID       string `json:"id" gorm:"primaryKey"`
	Email    string `json:"email" gorm:"uniqueIndex;not null"` // stored lowercase
	State    string `json:"state" gorm:"not null;index"`
	District string `json:"district,omitempty" gorm:"index"`

	// 👤 Secretary / contact profile
	SecretaryName string `json:"secretary_name"`
	Phone         string `json:"phone"`
	Address       string `json:"address" gorm:"type:text"`
	About         string `json:"about" gorm:"type:text"`

	// 🖼️ Media (public R2 URLs)
	LogoURL string `json:"logo_url"`

	Achievements  []UnionAchievement  `json:"achievements,omitempty" gorm:"foreignKey:UnionID"`
	GalleryImages []UnionGalleryImage `json:"gallery_images,omitempty" gorm:"foreignKey:UnionID"`

	// 🎛️ Review state
	Status     string     `json:"status" gorm:"type:varchar(16);default:'pending';index"` // pending | approved | rejected
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy string     `json:"reviewed_by,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`

	// 🔑 Login credential, derived from State on approval, absent while pending.
	// Never serialized; approval and resend responses return it explicitly.
	Password string `json:"-"`

	// ✉️ Credential email dispatch outcome (latest attempt wins)
	EmailSent   bool       `json:"email_sent" gorm:"default:false"`
	EmailSentAt *time.Time `json:"email_sent_at,omitempty"`
	EmailError  string     `json:"email_error,omitempty"`

	Timestamps
}

// UnionAchievement is one entry of a union's ordered achievements list.
type UnionAchievement struct {
	ID        string `json:"id" gorm:"primaryKey"`
	UnionID   string `json:"union_id" gorm:"not null;index"`
	Text      string `json:"text" gorm:"type:text"`
	SortOrder int    `json:"sort_order" gorm:"column:sort_order;default:0"`
}

type UnionGalleryImage struct {
	ID        string `json:"id" gorm:"primaryKey"`
	UnionID   string `json:"union_id" gorm:"not null;index"`
	URL       string `json:"url"`
	ObjectKey string `json:"object_key"` // R2 key, needed for delete
	SortOrder int    `json:"sort_order" gorm:"column:sort_order;default:0"`
}
