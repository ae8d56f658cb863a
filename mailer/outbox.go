// mailer/outbox.go
package mailer

import (
	"fmt"

	"union-registration-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OutboxTransport writes the message into a durable EmailOutbox row instead
// of talking to a mail server. The outbox worker (or an external drainer)
// performs actual delivery. A successful queue write counts as dispatched;
// delivery is delegated, at-least-once.
type OutboxTransport struct {
	DB *gorm.DB
}

func NewOutboxTransport(db *gorm.DB) *OutboxTransport {
	return &OutboxTransport{DB: db}
}

func (t *OutboxTransport) Send(msg Message) error {
	row := &models.EmailOutbox{
		ID:        uuid.NewString(),
		Recipient: msg.To,
		Subject:   msg.Subject,
		HTMLBody:  msg.HTML,
		Status:    models.OutboxPending,
	}
	if err := t.DB.Create(row).Error; err != nil {
		return fmt.Errorf("failed to enqueue outbox email: %w", err)
	}
	return nil
}
