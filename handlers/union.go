package handlers

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"union-registration-system/middleware"
	"union-registration-system/services"
)

func SetupUnionRoutes(app *fiber.App, unionService *services.UnionService) {
	auth := middleware.ReviewerContextMiddleware(os.Getenv("JWT_SECRET"))

	// 🔓 Public routes
	app.Post("/unions/register", unionService.RegisterUnion)
	app.Get("/unions/by-district", unionService.ListUnionsByDistrict)
	app.Get("/unions/by-email", unionService.FindUnionByEmail)
	app.Get("/unions/:id", unionService.GetUnionByID)

	// 🔐 Authenticated routes (union secretaries manage their own profile).
	// Auth is attached per route; a catch-all group would also swallow the
	// public routes registered after this setup runs.
	app.Put("/unions/:id", auth, unionService.UpdateUnionProfile)
	app.Post("/unions/:id/gallery", auth, unionService.AddGalleryImage)
	app.Delete("/unions/:id/gallery/:image_id", auth, unionService.DeleteGalleryImage)

	// 🔒 Admin-only routes (review queue + approval lifecycle)
	admin := app.Group("/admin/unions", auth, middleware.RequireAdmin())
	admin.Get("/", unionService.ListPendingUnions)
	admin.Post("/:id/approve", unionService.ApproveUnion)
	admin.Post("/:id/reject", unionService.RejectUnion)
	admin.Post("/:id/resend-email", unionService.ResendUnionEmail)
	admin.Delete("/:id", unionService.RemoveUnion)
	admin.Post("/:id/restore", unionService.RestoreUnion)
	admin.Delete("/:id/purge", unionService.PurgeUnion)
}
