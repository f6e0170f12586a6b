// file: internals/features/mastery/module_progress/route/user_route.go
package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pelajarku_backend/internals/events"
	progressController "pelajarku_backend/internals/features/mastery/module_progress/controller"
)

func ModuleProgressUserRoutes(router fiber.Router, db *gorm.DB, pub events.Publisher) {
	ctl := progressController.NewModuleProgressController(db, nil, pub)
	modules := router.Group("/modules")

	modules.Get("/", ctl.ListModules)
	modules.Get("/:module_id", ctl.GetModule)
	modules.Post("/:module_id/retake", ctl.PostRetake)
}
