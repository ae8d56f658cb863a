package handlers

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"union-registration-system/middleware"
	"union-registration-system/services"
)

func SetupPlayerRoutes(app *fiber.App, playerService *services.PlayerService) {
	auth := middleware.ReviewerContextMiddleware(os.Getenv("JWT_SECRET"))

	// 🔓 Public routes
	app.Post("/players/register", playerService.RegisterPlayer)
	app.Get("/players/:id", playerService.GetPlayerByID)
	app.Get("/unions/:union_id/players", playerService.ListPlayersByUnion)

	// 🔐 Authenticated routes
	app.Put("/players/:id", auth, playerService.UpdatePlayerProfile)

	// 🔒 Admin-only routes
	admin := app.Group("/admin/players", auth, middleware.RequireAdmin())
	admin.Get("/", playerService.ListPendingPlayers)
	admin.Post("/:id/approve", playerService.ApprovePlayer)
	admin.Post("/:id/reject", playerService.RejectPlayer)
	admin.Post("/:id/resend-email", playerService.ResendPlayerEmail)
}
