// file: internals/features/mastery/module_progress/route/admin_route.go
package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pelajarku_backend/internals/events"
	progressController "pelajarku_backend/internals/features/mastery/module_progress/controller"
)

func ModuleProgressAdminRoutes(router fiber.Router, db *gorm.DB, pub events.Publisher) {
	ctl := progressController.NewModuleProgressController(db, nil, pub)

	router.Post("/enrollments", ctl.PostEnrollment)
}
