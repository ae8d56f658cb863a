package handlers

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"union-registration-system/middleware"
	"union-registration-system/services"
)

func SetupPromotionRoutes(app *fiber.App, promotionService *services.PromotionService, exportService *services.ExportService) {
	auth := middleware.ReviewerContextMiddleware(os.Getenv("JWT_SECRET"))

	// 🔓 Public routes
	app.Get("/unions/:union_id/promotion-tests", promotionService.ListTestsByUnion)
	app.Get("/players/:player_id/promotion-tests", promotionService.ListTestsByPlayer)
	app.Get("/promotion-tests/:id", promotionService.GetTestByID)

	// 🔐 Authenticated routes
	app.Post("/promotion-tests", auth, promotionService.SubmitTest)

	// 🔒 Admin-only routes
	admin := app.Group("/admin/promotion-tests", auth, middleware.RequireAdmin())
	admin.Get("/", promotionService.ListAllTests)
	admin.Post("/:id/approve", promotionService.ApproveTest)
	admin.Post("/:id/reject", promotionService.RejectTest)
	admin.Get("/:id/export", exportService.ExportTest)
}
