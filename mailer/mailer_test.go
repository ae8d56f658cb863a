package mailer

import (
	"errors"
	"testing"

	"union-registration-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordingTransport struct {
	err  error
	sent []Message
}

func (r *recordingTransport) Send(msg Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestDispatchReturnsResultInsteadOfError(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		transport := &recordingTransport{}
		d := NewDispatcher(transport)

		result := d.Dispatch(Message{To: "a@b.c", Subject: "Hi", HTML: "<p>hi</p>"})
		assert.True(t, result.Sent)
		assert.Empty(t, result.Error)
		require.Len(t, transport.sent, 1)
	})

	t.Run("failure is captured, not propagated", func(t *testing.T) {
		d := NewDispatcher(&recordingTransport{err: errors.New("relay down")})

		result := d.Dispatch(Message{To: "a@b.c"})
		assert.False(t, result.Sent)
		assert.Equal(t, "relay down", result.Error)
	})
}

func TestOutboxTransportEnqueues(t *testing.T) {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.EmailOutbox{}))

	transport := NewOutboxTransport(db)
	require.NoError(t, transport.Send(Message{
		To:      "secretary@union.test",
		Subject: "Union Registration Approved",
		HTML:    "<p>approved</p>",
	}))

	var row models.EmailOutbox
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, "secretary@union.test", row.Recipient)
	assert.Equal(t, models.OutboxPending, row.Status)
	assert.Zero(t, row.Attempts)
	assert.Nil(t, row.SentAt)
}

func TestApprovalMessageTemplates(t *testing.T) {
	union := UnionApprovalMessage("sec@union.test", "Khordha District Union", "sec@union.test", "odisha@itka2020")
	assert.Equal(t, "sec@union.test", union.To)
	assert.Contains(t, union.HTML, "odisha@itka2020")
	assert.Contains(t, union.HTML, "Khordha District Union")

	player := PlayerApprovalMessage("anil@example.com", "Anil Kumar", "ITKA1234560001", "odisha@itka2020")
	assert.Contains(t, player.HTML, "ITKA1234560001")
	assert.Contains(t, player.Subject, "Player")
}
