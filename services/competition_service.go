// services/competition_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"union-registration-system/models"
	"union-registration-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Categories of news/event records that accept registrations. Matching is
// case-insensitive.
var registrationEligibleCategories = []string{
	"competition",
	"championship",
	"tournament",
}

func isEligibleCategory(category string) bool {
	c := strings.ToLower(strings.TrimSpace(category))
	for _, eligible := range registrationEligibleCategories {
		if c == eligible {
			return true
		}
	}
	return false
}

type CompetitionService struct {
	DB *gorm.DB
}

func NewCompetitionService(db *gorm.DB) *CompetitionService {
	return &CompetitionService{DB: db}
}

// submitRegistration validates and persists a union's competition entry.
// All-or-nothing: a single offending player fails the whole submission and
// nothing is persisted.
func (s *CompetitionService) submitRegistration(unionID, competitionID string, playerIDs []string) (*models.CompetitionRegistration, error) {
	if len(playerIDs) == 0 {
		return nil, validationErr("at least one player is required")
	}

	reg := &models.CompetitionRegistration{
		ID:            uuid.NewString(),
		UnionID:       unionID,
		CompetitionID: competitionID,
		Status:        models.StatusPending,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var union models.Union
		if err := tx.First(&union, "id = ?", unionID).Error; err != nil {
			return notFoundAs(err, ErrUnionNotFound)
		}
		reg.UnionName = unionDisplayName(union)

		var competition models.Competition
		if err := tx.First(&competition, "id = ?", competitionID).Error; err != nil {
			return notFoundAs(err, ErrNotFound)
		}
		if !isEligibleCategory(competition.Category) {
			return fmt.Errorf("%w: category %q", ErrCompetitionNotEligible, competition.Category)
		}
		reg.CompetitionTitle = competition.Title

		// One pending registration per (union, competition). Approved or
		// rejected history does not block a fresh submission.
		var existing models.CompetitionRegistration
		err := tx.Where("union_id = ? AND competition_id = ? AND status = ?",
			unionID, competitionID, models.StatusPending).First(&existing).Error
		if err == nil {
			return fmt.Errorf("%w (existing id %s)", ErrDuplicatePendingRegistration, existing.ID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		snapshots, err := snapshotCompetitionPlayers(tx, reg.ID, unionID, playerIDs)
		if err != nil {
			return err
		}

		if err := tx.Create(reg).Error; err != nil {
			return err
		}
		if err := tx.Create(&snapshots).Error; err != nil {
			return err
		}
		return tx.Preload("Players", sorted).First(reg, "id = ?", reg.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// snapshotCompetitionPlayers resolves each player, verifies union membership,
// and freezes their current data into immutable snapshot rows.
func snapshotCompetitionPlayers(tx *gorm.DB, registrationID, unionID string, playerIDs []string) ([]models.CompetitionPlayerSnapshot, error) {
	snapshots := make([]models.CompetitionPlayerSnapshot, 0, len(playerIDs))
	for i, playerID := range playerIDs {
		var player models.Player
		if err := tx.First(&player, "id = ?", playerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: player %s not found", ErrPlayerNotInUnion, playerID)
			}
			return nil, err
		}
		if player.UnionID != unionID {
			return nil, fmt.Errorf("%w: player %s (%s)", ErrPlayerNotInUnion, player.Name, playerID)
		}

		code := ""
		if player.PlayerCode != nil {
			code = *player.PlayerCode
		}
		snapshots = append(snapshots, models.CompetitionPlayerSnapshot{
			ID:             uuid.NewString(),
			RegistrationID: registrationID,
			PlayerRecordID: player.ID,
			PlayerCode:     code,
			Name:           player.Name,
			BeltLevel:      player.BeltLevel,
			Email:          player.Email,
			Phone:          player.Phone,
			SortOrder:      i,
		})
	}
	return snapshots, nil
}

func (s *CompetitionService) approveRegistration(id, reviewerID string) (*models.CompetitionRegistration, error) {
	// No issuance side effect for competition entries; the transition is the
	// whole approval.
	if err := markReviewed(s.DB, &models.CompetitionRegistration{}, id, reviewerID, models.StatusApproved, ""); err != nil {
		return nil, err
	}
	var reg models.CompetitionRegistration
	if err := s.DB.Preload("Players", sorted).First(&reg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

func (s *CompetitionService) rejectRegistration(id, reviewerID, reason string) (*models.CompetitionRegistration, error) {
	if err := markReviewed(s.DB, &models.CompetitionRegistration{}, id, reviewerID, models.StatusRejected, reason); err != nil {
		return nil, err
	}
	var reg models.CompetitionRegistration
	if err := s.DB.Preload("Players", sorted).First(&reg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

// listFiltered powers the admin review queue.
func (s *CompetitionService) listFiltered(state, district, unionID, status string) ([]models.CompetitionRegistration, error) {
	q := s.DB.Preload("Players", sorted).Order("created_at DESC")
	if unionID != "" {
		q = q.Where("union_id = ?", unionID)
	} else if state != "" || district != "" {
		unionQ := s.DB.Model(&models.Union{}).Select("id")
		if state != "" {
			unionQ = unionQ.Where("state = ?", utils.CanonicalRegion(state))
		}
		if district != "" {
			unionQ = unionQ.Where("district = ?", utils.CanonicalRegion(district))
		}
		q = q.Where("union_id IN (?)", unionQ)
	}
	if status != "" && status != "all" {
		q = q.Where("status = ?", status)
	}

	var regs []models.CompetitionRegistration
	if err := q.Find(&regs).Error; err != nil {
		return nil, err
	}
	return regs, nil
}

// ===== Fiber handlers =====

// CreateCompetition records the local mirror of an event record.
func (s *CompetitionService) CreateCompetition(c *fiber.Ctx) error {
	var input struct {
		Title     string     `json:"title"`
		Category  string     `json:"category"`
		Venue     string     `json:"venue"`
		EventDate *time.Time `json:"event_date"`
		Details   string     `json:"details"`
		ImageURL  string     `json:"image_url"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if input.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}

	competition := &models.Competition{
		ID:       uuid.NewString(),
		Title:    input.Title,
		Category: input.Category,
		Venue:    input.Venue,
		Details:  input.Details,
		ImageURL: input.ImageURL,
	}
	if input.EventDate != nil {
		competition.EventDate = *input.EventDate
	}
	if err := s.DB.Create(competition).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save competition"})
	}
	return c.Status(fiber.StatusCreated).JSON(competition)
}

// ListAvailableCompetitions returns events open for registration.
func (s *CompetitionService) ListAvailableCompetitions(c *fiber.Ctx) error {
	var competitions []models.Competition
	if err := s.DB.Order("event_date ASC").Find(&competitions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch competitions"})
	}

	available := make([]models.Competition, 0, len(competitions))
	for _, comp := range competitions {
		if isEligibleCategory(comp.Category) {
			available = append(available, comp)
		}
	}
	return c.JSON(available)
}

// SubmitRegistration handles a union's entry submission.
func (s *CompetitionService) SubmitRegistration(c *fiber.Ctx) error {
	var input struct {
		UnionID       string   `json:"union_id"`
		CompetitionID string   `json:"competition_id"`
		PlayerIDs     []string `json:"player_ids"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if input.UnionID == "" || input.CompetitionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "union_id and competition_id are required"})
	}

	reg, err := s.submitRegistration(input.UnionID, input.CompetitionID, input.PlayerIDs)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reg)
}

func (s *CompetitionService) GetRegistrationByID(c *fiber.Ctx) error {
	var reg models.CompetitionRegistration
	if err := s.DB.Preload("Players", sorted).First(&reg, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "registration not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(reg)
}

func (s *CompetitionService) ListRegistrationsByUnion(c *fiber.Ctx) error {
	var regs []models.CompetitionRegistration
	if err := s.DB.Preload("Players", sorted).
		Where("union_id = ?", c.Params("union_id")).
		Order("created_at DESC").Find(&regs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch registrations"})
	}
	return c.JSON(regs)
}

// ListAllRegistrations is the admin queue, filterable by state / district /
// union / status.
func (s *CompetitionService) ListAllRegistrations(c *fiber.Ctx) error {
	regs, err := s.listFiltered(c.Query("state"), c.Query("district"), c.Query("union_id"), c.Query("status"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch registrations"})
	}
	return c.JSON(regs)
}

func (s *CompetitionService) ApproveRegistration(c *fiber.Ctx) error {
	reviewerID, _ := c.Locals("user_id").(string)
	reg, err := s.approveRegistration(c.Params("id"), reviewerID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(reg)
}

func (s *CompetitionService) RejectRegistration(c *fiber.Ctx) error {
	reviewerID, _ := c.Locals("user_id").(string)
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&body)
	reg, err := s.rejectRegistration(c.Params("id"), reviewerID, body.Reason)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(reg)
}
