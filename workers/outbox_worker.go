// workers/outbox_worker.go
package workers

import (
	"log"
	"time"

	"union-registration-system/mailer"
	"union-registration-system/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// OutboxWorker drains pending EmailOutbox rows through a real transport.
// Runs only in deployments where MAIL_TRANSPORT=outbox; in others the
// dispatcher talks to the transport directly and the outbox stays empty.
type OutboxWorker struct {
	db        *gorm.DB
	sender    mailer.Transport
	batchSize int
}

func NewOutboxWorker(db *gorm.DB, sender mailer.Transport) *OutboxWorker {
	return &OutboxWorker{
		db:        db,
		sender:    sender,
		batchSize: 50,
	}
}

// Start schedules the drain loop. Delivery is at-least-once: a row that
// fails keeps status=pending and is retried on the next tick, with the
// attempt count and last error recorded.
func (w *OutboxWorker) Start(interval time.Duration) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(w.drain),
	)
	if err != nil {
		return err
	}
	sched.Start()
	log.Printf("🔁 [Outbox] drain worker scheduled every %s", interval)
	return nil
}

func (w *OutboxWorker) drain() {
	var rows []models.EmailOutbox
	err := w.db.Where("status = ?", models.OutboxPending).
		Order("created_at ASC").
		Limit(w.batchSize).
		Find(&rows).Error
	if err != nil {
		log.Printf("[Outbox] DB error: %v", err)
		return
	}
	if len(rows) == 0 {
		return
	}

	for _, row := range rows {
		msg := mailer.Message{To: row.Recipient, Subject: row.Subject, HTML: row.HTMLBody}
		now := time.Now()

		if sendErr := w.sender.Send(msg); sendErr != nil {
			log.Printf("[Outbox] send to %s failed (attempt %d): %v", row.Recipient, row.Attempts+1, sendErr)
			w.db.Model(&models.EmailOutbox{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
				"attempts":   gorm.Expr("attempts + 1"),
				"last_error": sendErr.Error(),
			})
			continue
		}

		w.db.Model(&models.EmailOutbox{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
			"status":     models.OutboxSent,
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": "",
			"sent_at":    &now,
		})
		log.Printf("✅ [Outbox] delivered queued email to %s", row.Recipient)
	}
}
