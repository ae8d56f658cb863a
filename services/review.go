// services/review.go
package services

import (
	"errors"
	"time"

	"union-registration-system/models"

	"gorm.io/gorm"
)

// The four reviewable kinds all share the same transition shape:
// pending --approve--> approved (terminal), pending --reject--> rejected
// (terminal). The transition is a single conditional UPDATE guarded on
// status='pending', so two concurrent reviews of the same id cannot both win
// and double-run a side effect.

const defaultRejectionReason = "did not meet registration requirements"

// markReviewed performs the compare-and-swap transition on any reviewable
// model. It returns ErrNotFound if the id does not resolve and
// ErrAlreadyReviewed if the record exists but is no longer pending.
func markReviewed(db *gorm.DB, model interface{}, id, reviewerID, newStatus, reason string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":      newStatus,
		"reviewed_at": &now,
		"reviewed_by": reviewerID,
	}
	if newStatus == models.StatusRejected {
		if reason == "" {
			reason = defaultRejectionReason
		}
		updates["rejection_reason"] = reason
	}

	res := db.Model(model).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race or bad id. Disambiguate with a read.
		var count int64
		if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrAlreadyReviewed
	}
	return nil
}

// sorted orders child collections by their sort_order column when preloading.
func sorted(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC")
}

// notFoundAs maps gorm's record-not-found onto a workflow sentinel, passing
// other errors through.
func notFoundAs(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
