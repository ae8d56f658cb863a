// services/export_service.go
package services

import (
	"errors"
	"fmt"

	"union-registration-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportService renders approved (or any-status, export is not gated on
// review outcome) workflow records as spreadsheets. Read-only.
type ExportService struct {
	DB *gorm.DB
}

func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{DB: db}
}

// BuildRegistrationSheet renders one row per entered player with competition
// context columns. Pure: no database access.
func BuildRegistrationSheet(reg *models.CompetitionRegistration) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Players"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []interface{}{"#", "Player ID", "Name", "Belt", "Email", "Phone", "Union", "Competition", "Status"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, err
	}

	for i, p := range reg.Players {
		row := []interface{}{
			i + 1, p.PlayerCode, p.Name, p.BeltLevel, p.Email, p.Phone,
			reg.UnionName, reg.CompetitionTitle, reg.Status,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// BuildPromotionSheet renders one row per testing player with the group's
// target belt alongside the frozen current belt.
func BuildPromotionSheet(test *models.BeltPromotionTest) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Candidates"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []interface{}{"#", "Player ID", "Name", "Current Belt", "Target Belt", "Union", "Status"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, err
	}

	rowNum := 2
	for _, group := range test.Groups {
		for _, p := range group.Players {
			row := []interface{}{
				rowNum - 1, p.PlayerCode, p.Name, p.CurrentBelt, group.TargetBelt,
				test.UnionName, test.Status,
			}
			if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", rowNum), &row); err != nil {
				return nil, err
			}
			rowNum++
		}
	}
	return f, nil
}

// ExportRegistration streams a registration's player list as .xlsx.
func (s *ExportService) ExportRegistration(c *fiber.Ctx) error {
	var reg models.CompetitionRegistration
	if err := s.DB.Preload("Players", sorted).First(&reg, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "registration not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	f, err := BuildRegistrationSheet(&reg)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to build export"})
	}
	return streamWorkbook(c, f, "competition-registration-"+reg.ID+".xlsx")
}

// ExportTest streams a belt test's candidate list as .xlsx.
func (s *ExportService) ExportTest(c *fiber.Ctx) error {
	var test models.BeltPromotionTest
	if err := s.DB.Preload("Groups", sorted).Preload("Groups.Players", sorted).First(&test, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "belt promotion test not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	f, err := BuildPromotionSheet(&test)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to build export"})
	}
	return streamWorkbook(c, f, "belt-promotion-test-"+test.ID+".xlsx")
}

func streamWorkbook(c *fiber.Ctx, f *excelize.File, filename string) error {
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(c.Response().BodyWriter()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to write export"})
	}
	return nil
}
