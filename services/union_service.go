// services/union_service.go
package services

import (
	"encoding/json"
	"errors"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"union-registration-system/mailer"
	"union-registration-system/models"
	"union-registration-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UnionService struct {
	DB     *gorm.DB
	Mailer *mailer.Dispatcher
}

func NewUnionService(db *gorm.DB, m *mailer.Dispatcher) *UnionService {
	return &UnionService{DB: db, Mailer: m}
}

// UnionInput carries a self-service union submission.
type UnionInput struct {
	Email         string
	State         string
	District      string
	SecretaryName string
	Phone         string
	Address       string
	About         string
	LogoURL       string
	Achievements  []string
}

// createUnion persists a new pending union. The email must be unused across
// all unions regardless of status; no password exists until approval.
func (s *UnionService) createUnion(in UnionInput) (*models.Union, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, validationErr("a valid email is required")
	}
	if strings.TrimSpace(in.State) == "" {
		return nil, validationErr("state is required")
	}
	if strings.TrimSpace(in.SecretaryName) == "" {
		return nil, validationErr("secretary_name is required")
	}

	union := &models.Union{
		ID:            uuid.NewString(),
		Email:         in.Email,
		State:         utils.CanonicalRegion(in.State),
		District:      utils.CanonicalRegion(in.District),
		SecretaryName: in.SecretaryName,
		Phone:         in.Phone,
		Address:       in.Address,
		About:         in.About,
		LogoURL:       in.LogoURL,
		Status:        models.StatusPending,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Union{}).Unscoped().
			Where("email = ?", union.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateEmail
		}

		if err := tx.Create(union).Error; err != nil {
			return err
		}

		if len(in.Achievements) > 0 {
			var achievements []models.UnionAchievement
			for i, text := range in.Achievements {
				if strings.TrimSpace(text) == "" {
					continue
				}
				achievements = append(achievements, models.UnionAchievement{
					ID:        uuid.NewString(),
					UnionID:   union.ID,
					Text:      text,
					SortOrder: i,
				})
			}
			if len(achievements) > 0 {
				if err := tx.Create(&achievements).Error; err != nil {
					return err
				}
			}
		}

		return tx.Preload("Achievements", sorted).Preload("GalleryImages", sorted).
			First(union, "id = ?", union.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return union, nil
}

// UnionPatch is a partial profile update. Empty fields are silently dropped;
// state and district are immutable after submission.
type UnionPatch struct {
	SecretaryName string `json:"secretary_name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	About         string `json:"about"`
	State         string `json:"state"`
	District      string `json:"district"`
}

func (s *UnionService) updateUnionProfile(id string, patch UnionPatch) (*models.Union, error) {
	var union models.Union
	if err := s.DB.First(&union, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, ErrNotFound)
	}

	if patch.State != "" && utils.CanonicalRegion(patch.State) != union.State {
		return nil, errors.Join(ErrImmutableField, errors.New("state is fixed at registration"))
	}
	if patch.District != "" && utils.CanonicalRegion(patch.District) != union.District {
		return nil, errors.Join(ErrImmutableField, errors.New("district is fixed at registration"))
	}

	updates := map[string]interface{}{}
	if patch.SecretaryName != "" {
		updates["secretary_name"] = patch.SecretaryName
	}
	if patch.Phone != "" {
		updates["phone"] = patch.Phone
	}
	if patch.Address != "" {
		updates["address"] = patch.Address
	}
	if patch.About != "" {
		updates["about"] = patch.About
	}
	if len(updates) > 0 {
		if err := s.DB.Model(&union).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &union, nil
}

// approveUnion runs the CAS transition, then the post-approval side effects:
// credential derivation and the outcome email. The transition is committed
// before any side effect runs, so a failed side effect never leaves the
// union stuck in pending.
func (s *UnionService) approveUnion(id, reviewerID string) (*models.Union, error) {
	if err := markReviewed(s.DB, &models.Union{}, id, reviewerID, models.StatusApproved, ""); err != nil {
		return nil, err
	}

	var union models.Union
	if err := s.DB.First(&union, "id = ?", id).Error; err != nil {
		return nil, err
	}

	// Credential issuance is idempotent: derived, not generated.
	if union.Password == "" {
		union.Password = utils.DerivePassword(union.State)
		if err := s.DB.Model(&union).Update("password", union.Password).Error; err != nil {
			return nil, err
		}
	}

	s.recordUnionDispatch(&union,
		s.Mailer.Dispatch(mailer.UnionApprovalMessage(union.Email, union.SecretaryName, union.Email, union.Password)))
	return &union, nil
}

func (s *UnionService) rejectUnion(id, reviewerID, reason string) (*models.Union, error) {
	if err := markReviewed(s.DB, &models.Union{}, id, reviewerID, models.StatusRejected, reason); err != nil {
		return nil, err
	}
	var union models.Union
	if err := s.DB.First(&union, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &union, nil
}

// resendUnionEmail re-dispatches the already-issued credential. Never
// regenerates the password.
func (s *UnionService) resendUnionEmail(id string) (*models.Union, mailer.DispatchResult, error) {
	var union models.Union
	if err := s.DB.First(&union, "id = ?", id).Error; err != nil {
		return nil, mailer.DispatchResult{}, notFoundAs(err, ErrNotFound)
	}
	if union.Status != models.StatusApproved {
		return nil, mailer.DispatchResult{}, validationErr("union is not approved, nothing to resend")
	}

	result := s.Mailer.Dispatch(mailer.UnionApprovalMessage(union.Email, union.SecretaryName, union.Email, union.Password))
	s.recordUnionDispatch(&union, result)
	return &union, result, nil
}

// recordUnionDispatch writes the latest dispatch outcome back onto the row.
// A write failure here is logged, not surfaced: the approval already stands.
func (s *UnionService) recordUnionDispatch(union *models.Union, result mailer.DispatchResult) {
	now := time.Now()
	union.EmailSent = result.Sent
	union.EmailError = result.Error
	updates := map[string]interface{}{
		"email_sent":  result.Sent,
		"email_error": result.Error,
	}
	if result.Sent {
		union.EmailSentAt = &now
		updates["email_sent_at"] = &now
	}
	if err := s.DB.Model(&models.Union{}).Where("id = ?", union.ID).Updates(updates).Error; err != nil {
		log.Printf("failed to record email dispatch for union %s: %v", union.ID, err)
	}
}

// listByDistrict returns unions for a state, district heads first, then the
// state head (no district), then the rest.
func (s *UnionService) listByDistrict(state, district string) ([]models.Union, error) {
	state = utils.CanonicalRegion(state)
	district = utils.CanonicalRegion(district)

	q := s.DB.Preload("Achievements", sorted).Preload("GalleryImages", sorted)
	if state != "" {
		q = q.Where("state = ?", state)
	}
	var unions []models.Union
	if err := q.Find(&unions).Error; err != nil {
		return nil, err
	}

	rank := func(u models.Union) int {
		switch {
		case district != "" && u.District == district:
			return 0
		case u.District == "": // state head
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(unions, func(i, j int) bool {
		return rank(unions[i]) < rank(unions[j])
	})
	return unions, nil
}

// ===== Fiber handlers =====

// RegisterUnion handles the public multipart submission form.
func (s *UnionService) RegisterUnion(c *fiber.Ctx) error {
	in := UnionInput{
		Email:         c.FormValue("email"),
		State:         c.FormValue("state"),
		District:      c.FormValue("district"),
		SecretaryName: c.FormValue("secretary_name"),
		Phone:         c.FormValue("phone"),
		Address:       c.FormValue("address"),
		About:         c.FormValue("about"),
	}

	if raw := c.FormValue("achievements"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Achievements); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid achievements JSON"})
		}
	}

	if logoFile, err := c.FormFile("logo"); err == nil && logoFile.Size > 0 {
		ext := filepath.Ext(logoFile.Filename)
		if ext == "" {
			ext = ".png"
		}
		key := utils.ObjectKeyPrefix(in.SecretaryName+" "+in.State) + "/logo/" + uuid.NewString() + ext
		url, _, err := utils.UploadMedia(logoFile, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store logo"})
		}
		in.LogoURL = url
	}

	union, err := s.createUnion(in)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(union)
}

func (s *UnionService) GetUnionByID(c *fiber.Ctx) error {
	var union models.Union
	if err := s.DB.Preload("Achievements", sorted).Preload("GalleryImages", sorted).
		First(&union, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "union not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(union)
}

// ListUnionsByDistrict serves the directory view, filterable by state and
// district query params.
func (s *UnionService) ListUnionsByDistrict(c *fiber.Ctx) error {
	unions, err := s.listByDistrict(c.Query("state"), c.Query("district"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch unions"})
	}
	return c.JSON(unions)
}

// ListPendingUnions is the admin review queue.
func (s *UnionService) ListPendingUnions(c *fiber.Ctx) error {
	var unions []models.Union
	q := s.DB.Order("created_at ASC")
	status := c.Query("status", models.StatusPending)
	if status != "all" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&unions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch unions"})
	}
	return c.JSON(unions)
}

func (s *UnionService) UpdateUnionProfile(c *fiber.Ctx) error {
	var patch UnionPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	union, err := s.updateUnionProfile(c.Params("id"), patch)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(union)
}

func (s *UnionService) ApproveUnion(c *fiber.Ctx) error {
	reviewerID, _ := c.Locals("user_id").(string)
	union, err := s.approveUnion(c.Params("id"), reviewerID)
	if err != nil {
		return respondErr(c, err)
	}
	// The credential is json:"-" on the model; admin responses carry it explicitly.
	return c.JSON(fiber.Map{"union": union, "password": union.Password})
}

func (s *UnionService) RejectUnion(c *fiber.Ctx) error {
	reviewerID, _ := c.Locals("user_id").(string)
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.BodyParser(&body) // reason is optional
	union, err := s.rejectUnion(c.Params("id"), reviewerID, body.Reason)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(union)
}

func (s *UnionService) ResendUnionEmail(c *fiber.Ctx) error {
	union, result, err := s.resendUnionEmail(c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"union": union, "password": union.Password, "dispatch": result})
}

// AddGalleryImage uploads one image to the union's gallery.
func (s *UnionService) AddGalleryImage(c *fiber.Ctx) error {
	id := c.Params("id")

	var union models.Union
	if err := s.DB.First(&union, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "union not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image file is required"})
	}
	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	key := utils.ObjectKeyPrefix(union.SecretaryName+" "+union.State) + "/gallery/" + uuid.NewString() + ext
	url, objectKey, err := utils.UploadMedia(file, key)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store gallery image"})
	}

	var maxOrder int
	s.DB.Model(&models.UnionGalleryImage{}).Where("union_id = ?", id).
		Select("COALESCE(MAX(sort_order), -1)").Scan(&maxOrder)

	img := &models.UnionGalleryImage{
		ID:        uuid.NewString(),
		UnionID:   id,
		URL:       url,
		ObjectKey: objectKey,
		SortOrder: maxOrder + 1,
	}
	if err := s.DB.Create(img).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save gallery image"})
	}
	return c.Status(fiber.StatusCreated).JSON(img)
}

// DeleteGalleryImage removes one gallery image record and its stored object.
func (s *UnionService) DeleteGalleryImage(c *fiber.Ctx) error {
	imageID := c.Params("image_id")

	var img models.UnionGalleryImage
	if err := s.DB.First(&img, "id = ? AND union_id = ?", imageID, c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "gallery image not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if err := s.DB.Delete(&img).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete gallery image"})
	}
	if err := utils.DeleteFileFromR2(img.ObjectKey); err != nil {
		log.Printf("failed to delete R2 object %s: %v", img.ObjectKey, err)
	}
	return c.JSON(fiber.Map{"message": "gallery image deleted", "id": imageID})
}

// RemoveUnion soft-deletes a union so it disappears from directories and
// lookups but stays restorable.
func (s *UnionService) RemoveUnion(c *fiber.Ctx) error {
	var union models.Union
	if err := s.DB.First(&union, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "union not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if err := s.DB.Delete(&union).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to remove union"})
	}
	return c.JSON(fiber.Map{"message": "union removed", "id": union.ID})
}

// RestoreUnion clears a soft delete.
func (s *UnionService) RestoreUnion(c *fiber.Ctx) error {
	id := c.Params("id")
	res := s.DB.Unscoped().Model(&models.Union{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to restore union"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no removed union with that id"})
	}
	var union models.Union
	if err := s.DB.First(&union, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(union)
}

// PurgeUnion hard-deletes a union and its children. Admin escape hatch only;
// normal flow never hard-deletes, records are retained for audit.
func (s *UnionService) PurgeUnion(c *fiber.Ctx) error {
	id := c.Params("id")

	var union models.Union
	if err := s.DB.Unscoped().First(&union, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "union not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var playerCount int64
	s.DB.Model(&models.Player{}).Where("union_id = ?", id).Count(&playerCount)
	if playerCount > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":        "cannot purge union: players are still registered under it",
			"player_count": playerCount,
		})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("union_id = ?", id).Delete(&models.UnionAchievement{}).Error; err != nil {
			return err
		}
		if err := tx.Where("union_id = ?", id).Delete(&models.UnionGalleryImage{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&union).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to purge union"})
	}
	return c.JSON(fiber.Map{"message": "union purged", "id": id})
}

// FindUnionByEmail is a lookup used by the login flow upstream.
func (s *UnionService) FindUnionByEmail(c *fiber.Ctx) error {
	email := strings.ToLower(strings.TrimSpace(c.Query("email")))
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email query param is required"})
	}
	var union models.Union
	if err := s.DB.First(&union, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "union not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(union)
}
