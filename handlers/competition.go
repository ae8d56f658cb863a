package handlers

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"union-registration-system/middleware"
	"union-registration-system/services"
)

func SetupCompetitionRoutes(app *fiber.App, competitionService *services.CompetitionService, exportService *services.ExportService) {
	auth := middleware.ReviewerContextMiddleware(os.Getenv("JWT_SECRET"))

	// 🔓 Public routes
	app.Get("/competitions", competitionService.ListAvailableCompetitions)
	app.Get("/unions/:union_id/registrations", competitionService.ListRegistrationsByUnion)
	app.Get("/registrations/:id", competitionService.GetRegistrationByID)

	// Internal route for the events service mirroring its published events here
	internal := app.Group("/internal", middleware.EventsServiceAuthMiddleware())
	internal.Post("/competitions", competitionService.CreateCompetition)

	// 🔐 Authenticated routes
	app.Post("/registrations", auth, competitionService.SubmitRegistration)

	// 🔒 Admin-only routes
	admin := app.Group("/admin/registrations", auth, middleware.RequireAdmin())
	admin.Get("/", competitionService.ListAllRegistrations)
	admin.Post("/:id/approve", competitionService.ApproveRegistration)
	admin.Post("/:id/reject", competitionService.RejectRegistration)
	admin.Get("/:id/export", exportService.ExportRegistration)
}
