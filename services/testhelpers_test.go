package services

import (
	"errors"
	"testing"
	"time"

	"union-registration-system/mailer"
	"union-registration-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Named shared-cache DSN so every pooled connection sees the same
	// in-memory database.
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Union{},
		&models.UnionAchievement{},
		&models.UnionGalleryImage{},
		&models.Player{},
		&models.Competition{},
		&models.CompetitionRegistration{},
		&models.CompetitionPlayerSnapshot{},
		&models.BeltPromotionTest{},
		&models.PromotionTestGroup{},
		&models.PromotionPlayerSnapshot{},
		&models.EmailOutbox{},
	))
	return db
}

// stubTransport records outgoing messages; set fail to simulate a mail
// outage.
type stubTransport struct {
	fail     bool
	messages []mailer.Message
}

func (s *stubTransport) Send(msg mailer.Message) error {
	if s.fail {
		return errors.New("smtp: connection refused")
	}
	s.messages = append(s.messages, msg)
	return nil
}

func seedUnion(t *testing.T, db *gorm.DB, state, district, status string) *models.Union {
	t.Helper()
	union := &models.Union{
		ID:            uuid.NewString(),
		Email:         uuid.NewString() + "@union.test",
		State:         state,
		District:      district,
		SecretaryName: "Test Secretary",
		Status:        status,
	}
	require.NoError(t, db.Create(union).Error)
	return union
}

func seedPlayer(t *testing.T, db *gorm.DB, unionID, belt, status string) *models.Player {
	t.Helper()
	player := &models.Player{
		ID:        uuid.NewString(),
		Email:     uuid.NewString() + "@player.test",
		UnionID:   unionID,
		Name:      "Test Player",
		BeltLevel: belt,
		Status:    status,
	}
	if status == models.StatusApproved {
		code := "ITKA" + uuid.NewString()[:10]
		player.PlayerCode = &code
	}
	require.NoError(t, db.Create(player).Error)
	return player
}

func seedCompetition(t *testing.T, db *gorm.DB, category string) *models.Competition {
	t.Helper()
	comp := &models.Competition{
		ID:        uuid.NewString(),
		Title:     "State Open",
		Category:  category,
		Venue:     "City Arena",
		EventDate: time.Now().AddDate(0, 1, 0),
	}
	require.NoError(t, db.Create(comp).Error)
	return comp
}
