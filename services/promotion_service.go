// services/promotion_service.go
package services

import (
	"errors"
	"fmt"

	"union-registration-system/models"
	"union-registration-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PromotionService struct {
	DB *gorm.DB
}

func NewPromotionService(db *gorm.DB) *PromotionService {
	return &PromotionService{DB: db}
}

// TestGroupInput is one target belt and the players testing for it.
type TestGroupInput struct {
	TargetBelt string   `json:"target_belt"`
	PlayerIDs  []string `json:"player_ids"`
}

// submitTest validates and persists a belt-promotion test. Every group must
// name a known belt and a non-empty set of players belonging to the union;
// current belts are frozen into snapshots at this point.
func (s *PromotionService) submitTest(unionID string, groups []TestGroupInput) (*models.BeltPromotionTest, error) {
	if len(groups) == 0 {
		return nil, validationErr("at least one test group is required")
	}
	for _, g := range groups {
		if !models.IsValidBeltLevel(g.TargetBelt) {
			return nil, validationErr("unknown target belt %q", g.TargetBelt)
		}
		if len(g.PlayerIDs) == 0 {
			return nil, validationErr("test group for %s has no players", g.TargetBelt)
		}
	}

	test := &models.BeltPromotionTest{
		ID:      uuid.NewString(),
		UnionID: unionID,
		Status:  models.StatusPending,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var union models.Union
		if err := tx.First(&union, "id = ?", unionID).Error; err != nil {
			return notFoundAs(err, ErrUnionNotFound)
		}
		test.UnionName = unionDisplayName(union)

		if err := tx.Create(test).Error; err != nil {
			return err
		}

		for gi, g := range groups {
			group := &models.PromotionTestGroup{
				ID:         uuid.NewString(),
				TestID:     test.ID,
				TargetBelt: g.TargetBelt,
				SortOrder:  gi,
			}
			if err := tx.Create(group).Error; err != nil {
				return err
			}

			for pi, playerID := range g.PlayerIDs {
				var player models.Player
				if err := tx.First(&player, "id = ?", playerID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return fmt.Errorf("%w: player %s not found", ErrPlayerNotInUnion, playerID)
					}
					return err
				}
				if player.UnionID != unionID {
					return fmt.Errorf("%w: player %s (%s)", ErrPlayerNotInUnion, player.Name, playerID)
				}

				code := ""
				if player.PlayerCode != nil {
					code = *player.PlayerCode
				}
				snapshot := &models.PromotionPlayerSnapshot{
					ID:             uuid.NewString(),
					GroupID:        group.ID,
					PlayerRecordID: player.ID,
					PlayerCode:     code,
					Name:           player.Name,
					CurrentBelt:    player.BeltLevel,
					SortOrder:      pi,
				}
				if err := tx.Create(snapshot).Error; err != nil {
					return err
				}
			}
		}

		return tx.Preload("Groups", sorted).Preload("Groups.Players", sorted).First(test, "id = ?", test.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return test, nil
}

// approveTest runs the CAS transition and then the belt cascade: every
// snapshotted player's belt is overwritten with its group's target level.
// The cascade is the only path that mutates Directory records from this
// service, and it runs in one transaction after the status commit.
func (s *PromotionService) approveTest(id, reviewerID string) (*models.BeltPromotionTest, error) {
	if err := markReviewed(s.DB, &models.BeltPromotionTest{}, id, reviewerID, models.StatusApproved, ""); err != nil {
		return nil, err
	}

	var test models.BeltPromotionTest
	if err := s.DB.Preload("Groups", sorted).Preload("Groups.Players", sorted).First(&test, "id = ?", id).Error; err != nil {
		return nil, err
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for _, group := range test.Groups {
			for _, snap := range group.Players {
				res := tx.Model(&models.Player{}).
					Where("id = ?", snap.PlayerRecordID).
					Update("belt_level", group.TargetBelt)
				if res.Error != nil {
					return res.Error
				}
				// A purged player is skipped, not an error. The test still
				// records what was approved.
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (s *PromotionService) rejectTest(id, reviewerID, reason string) (*models.BeltPromotionTest, error) {
	if err := markReviewed(s.DB, &models.BeltPromotionTest{}, id, reviewerID, models.StatusRejected, reason); err != nil {
		return nil, err
	}
	var test models.BeltPromotionTest
	if err := s.DB.Preload("Groups", sorted).Preload("Groups.Players", sorted).First(&test, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (s *PromotionService) listFiltered(state, district, unionID, status string) ([]models.BeltPromotionTest, error) {
	q := s.DB.Preload("Groups", sorted).Preload("Groups.Players", sorted).Order("created_at DESC")
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

	var tests []models.BeltPromotionTest
	if err := q.Find(&tests).Error; err != nil {
		return nil, err
	}
	return tests, nil
}

// listByPlayer returns every test that snapshots the given player record.
func (s *PromotionService) listByPlayer(playerRecordID string) ([]models.BeltPromotionTest, error) {
	var groupIDs []string
	if err := s.DB.Model(&models.PromotionPlayerSnapshot{}).
		Where("player_record_id = ?", playerRecordID).
		Distinct("group_id").Pluck("group_id", &groupIDs).Error; err != nil {
		return nil, err
	}
	if len(groupIDs) == 0 {
		return []models.BeltPromotionTest{}, nil
	}

	var testIDs []string
	if err := s.DB.Model(&models.PromotionTestGroup{}).
		Where("id IN ?", groupIDs).
		Distinct("test_id").Pluck("test_id", &testIDs).Error; err != nil {
		return nil, err
	}

	var tests []models.BeltPromotionTest
	if err := s.DB.Preload("Groups", sorted).Preload("Groups.Players", sorted).
		Where("id IN ?", testIDs).
		Order("created_at DESC").Find(&tests).Error; err != nil {
		return nil, err
	}
	return tests, nil
}

// ===== Fiber handlers =====

func (s *PromotionService) SubmitTest(c *fiber.Ctx) error {
	var input struct {
		UnionID string           `json:"union_id"`
		Groups  []TestGroupInput `json:"groups"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if input.UnionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "union_id is required"})
	}

	test, err := s.submitTest(input.UnionID, input.Groups)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(test)
}

func (s *PromotionService) GetTestByID(c *fiber.Ctx) error {
	var test models.BeltPromotionTest
	if err := s.DB.Preload("Groups", sorted).Preload("Groups.Players", sorted).First(&test, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "belt promotion test not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(test)
}

func (s *PromotionService) ListTestsByUnion(c *fiber.Ctx) error {
	var tests []models.BeltPromotionTest
	if err := s.DB.Preload("Groups", sorted).Preload("Groups.Players", sorted).
		Where("union_id = ?", c.Params("union_id")).
		Order("created_at DESC").Find(&tests).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch tests"})
	}
	return c.JSON(tests)
}

func (s *PromotionService) ListTestsByPlayer(c *fiber.Ctx) error {
	tests, err := s.listByPlayer(c.Params("player_id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch tests"})
	}
	return c.JSON(tests)
}

func (s *PromotionService) ListAllTests(c *fiber.Ctx) error {
	tests, err := s.listFiltered(c.Query("state"), c.Query("district"), c.Query("union_id"), c.Query("status"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch tests"})
	}
	return c.JSON(tests)
}

func (s *PromotionService) ApproveTest(c *fiber.Ctx) error {
	reviewerID, _ := c.Locals("user_id").(string)
	test, err := s.approveTest(c.Params("id"), reviewerID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(test)
}

func (s *PromotionService) RejectTest(c *fiber.Ctx) error {
	reviewerID, _ := c.Locals("user_id").(string)
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&body)
	test, err := s.rejectTest(c.Params("id"), reviewerID, body.Reason)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(test)
}
