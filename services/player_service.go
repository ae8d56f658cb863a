// services/player_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"union-registration-system/mailer"
	"union-registration-system/models"
	"union-registration-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlayerService struct {
	DB     *gorm.DB
	Mailer *mailer.Dispatcher
}

func NewPlayerService(db *gorm.DB, m *mailer.Dispatcher) *PlayerService {
	return &PlayerService{DB: db, Mailer: m}
}

// PlayerInput carries a self-registration submission.
type PlayerInput struct {
	Email           string
	UnionID         string
	Name            string
	Phone           string
	Address         string
	DOB             string
	BeltLevel       string
	ExperienceYears int
	PhotoURL        string
}

// createPlayer persists a new pending player under an existing union. The
// union may itself still be pending; pre-registration is allowed and the
// player simply waits behind the union in the review queue.
func (s *PlayerService) createPlayer(in PlayerInput) (*models.Player, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, validationErr("a valid email is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, validationErr("name is required")
	}
	if in.UnionID == "" {
		return nil, validationErr("union_id is required")
	}
	if in.BeltLevel != "" && !models.IsValidBeltLevel(in.BeltLevel) {
		return nil, validationErr("unknown belt level %q", in.BeltLevel)
	}

	player := &models.Player{
		ID:              uuid.NewString(),
		Email:           in.Email,
		UnionID:         in.UnionID,
		Name:            in.Name,
		Phone:           in.Phone,
		Address:         in.Address,
		DOB:             in.DOB,
		BeltLevel:       in.BeltLevel,
		ExperienceYears: in.ExperienceYears,
		PhotoURL:        in.PhotoURL,
		Status:          models.StatusPending,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var union models.Union
		if err := tx.First(&union, "id = ?", in.UnionID).Error; err != nil {
			return notFoundAs(err, ErrUnionNotFound)
		}
		// Snapshot the union name at registration time.
		player.UnionName = unionDisplayName(union)

		var count int64
		if err := tx.Model(&models.Player{}).Unscoped().
			Where("email = ?", player.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateEmail
		}

		return tx.Create(player).Error
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

func unionDisplayName(u models.Union) string {
	if u.District != "" {
		return u.District + " District Union, " + u.State
	}
	return u.State + " State Union"
}

// mintUniquePlayerCode mints a membership code and verifies it against the
// uniqueness index, retrying on the (practically impossible) collision.
func mintUniquePlayerCode(db *gorm.DB) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code := utils.NewPlayerCode()
		var count int64
		if err := db.Model(&models.Player{}).Unscoped().
			Where("player_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not mint a unique player code")
}

// approvePlayer runs the CAS transition, then mints the membership code
// (at most once: re-approval attempts fail the CAS first, and a code that
// already exists is never regenerated), derives the password, and dispatches
// the credential email.
func (s *PlayerService) approvePlayer(id, reviewerID string) (*models.Player, error) {
	if err := markReviewed(s.DB, &models.Player{}, id, reviewerID, models.StatusApproved, ""); err != nil {
		return nil, err
	}

	var player models.Player
	if err := s.DB.First(&player, "id = ?", id).Error; err != nil {
		return nil, err
	}

	if player.PlayerCode == nil {
		code, err := mintUniquePlayerCode(s.DB)
		if err != nil {
			return nil, err
		}
		player.PlayerCode = &code
		if err := s.DB.Model(&player).Update("player_code", code).Error; err != nil {
			return nil, err
		}
	}

	if player.Password == "" {
		var union models.Union
		if err := s.DB.First(&union, "id = ?", player.UnionID).Error; err != nil {
			return nil, err
		}
		player.Password = utils.DerivePassword(union.State)
		if err := s.DB.Model(&player).Update("password", player.Password).Error; err != nil {
			return nil, err
		}
	}

	s.recordPlayerDispatch(&player,
		s.Mailer.Dispatch(mailer.PlayerApprovalMessage(player.Email, player.Name, *player.PlayerCode, player.Password)))
	return &player, nil
}

func (s *PlayerService) rejectPlayer(id, reviewerID, reason string) (*models.Player, error) {
	if err := markReviewed(s.DB, &models.Player{}, id, reviewerID, models.StatusRejected, reason); err != nil {
		return nil, err
	}
	var player models.Player
	if err := s.DB.First(&player, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *PlayerService) resendPlayerEmail(id string) (*models.Player, mailer.DispatchResult, error) {
	var player models.Player
	if err := s.DB.First(&player, "id = ?", id).Error; err != nil {
		return nil, mailer.DispatchResult{}, notFoundAs(err, ErrNotFound)
	}
	if player.Status != models.StatusApproved || player.PlayerCode == nil {
		return nil, mailer.DispatchResult{}, validationErr("player is not approved, nothing to resend")
	}

	result := s.Mailer.Dispatch(mailer.PlayerApprovalMessage(player.Email, player.Name, *player.PlayerCode, player.Password))
	s.recordPlayerDispatch(&player, result)
	return &player, result, nil
}

func (s *PlayerService) recordPlayerDispatch(player *models.Player, result mailer.DispatchResult) {
	now := time.Now()
	player.EmailSent = result.Sent
	player.EmailError = result.Error
	updates := map[string]interface{}{
		"email_sent":  result.Sent,
		"email_error": result.Error,
	}
	if result.Sent {
		player.EmailSentAt = &now
		updates["email_sent_at"] = &now
	}
	if err := s.DB.Model(&models.Player{}).Where("id = ?", player.ID).Updates(updates).Error; err != nil {
		log.Printf("failed to record email dispatch for player %s: %v", player.ID, err)
	}
}

// PlayerPatch is a partial profile update. Union ownership is immutable;
// empty fields are dropped.
type PlayerPatch struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	DOB             string `json:"dob"`
	ExperienceYears int    `json:"experience_years"`
	UnionID         string `json:"union_id"`
}

func (s *PlayerService) updatePlayerProfile(id string, patch PlayerPatch) (*models.Player, error) {
	var player models.Player
	if err := s.DB.First(&player, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, ErrNotFound)
	}

	if patch.UnionID != "" && patch.UnionID != player.UnionID {
		return nil, errors.Join(ErrImmutableField, errors.New("a player cannot move unions via profile update"))
	}

	updates := map[string]interface{}{}
	if patch.Name != "" {
		updates["name"] = patch.Name
	}
	if patch.Phone != "" {
		updates["phone"] = patch.Phone
	}
	if patch.Address != "" {
		updates["address"] = patch.Address
	}
	if patch.DOB != "" {
		updates["dob"] = patch.DOB
	}
	if patch.ExperienceYears > 0 {
		updates["experience_years"] = patch.ExperienceYears
	}
	if len(updates) > 0 {
		if err := s.DB.Model(&player).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &player, nil
}

// ===== Fiber handlers =====

func (s *PlayerService) RegisterPlayer(c *fiber.Ctx) error {
	in := PlayerInput{
		Email:     c.FormValue("email"),
		UnionID:   c.FormValue("union_id"),
		Name:      c.FormValue("name"),
		Phone:     c.FormValue("phone"),
		Address:   c.FormValue("address"),
		DOB:       c.FormValue("dob"),
		BeltLevel: c.FormValue("belt_level"),
	}
	if raw := c.FormValue("experience_years"); raw != "" {
		years, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "experience_years must be a number"})
		}
		in.ExperienceYears = years
	}

	if photo, err := c.FormFile("photo"); err == nil && photo.Size > 0 {
		ext := filepath.Ext(photo.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "players/" + uuid.NewString() + ext
		url, _, err := utils.UploadMedia(photo, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store photo"})
		}
		in.PhotoURL = url
	}

	player, err := s.createPlayer(in)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(player)
}

func (s *PlayerService) GetPlayerByID(c *fiber.Ctx) error {
	var player models.Player
	if err := s.DB.First(&player, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "player not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(player)
}

// ListPlayersByUnion returns a union's players, optionally filtered by status.
func (s *PlayerService) ListPlayersByUnion(c *fiber.Ctx) error {
	q := s.DB.Where("union_id = ?", c.Params("union_id")).Order("created_at ASC")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	var players []models.Player
	if err := q.Find(&players).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch players"})
	}
	return c.JSON(players)
}

// ListPendingPlayers is the admin review queue, filterable by status.
func (s *PlayerService) ListPendingPlayers(c *fiber.Ctx) error {
	var players []models.Player
	q := s.DB.Order("created_at ASC")
	status := c.Query("status", models.StatusPending)
	if status != "all" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&players).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch players"})
	}
	return c.JSON(players)
}

func (s *PlayerService) UpdatePlayerProfile(c *fiber.Ctx) error {
	var patch PlayerPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	player, err := s.updatePlayerProfile(c.Params("id"), patch)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(player)
}

func (s *PlayerService) ApprovePlayer(c *fiber.Ctx) error {
	reviewerID, _ := c.Locals("user_id").(string)
	player, err := s.approvePlayer(c.Params("id"), reviewerID)
	if err != nil {
		return respondErr(c, err)
	}
	// The credential is json:"-" on the model; admin responses carry it explicitly.
	return c.JSON(fiber.Map{"player": player, "password": player.Password})
}

func (s *PlayerService) RejectPlayer(c *fiber.Ctx) error {
	reviewerID, _ := c.Locals("user_id").(string)
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&body)
	player, err := s.rejectPlayer(c.Params("id"), reviewerID, body.Reason)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(player)
}

func (s *PlayerService) ResendPlayerEmail(c *fiber.Ctx) error {
	player, result, err := s.resendPlayerEmail(c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"player": player, "password": player.Password, "dispatch": result})
}
