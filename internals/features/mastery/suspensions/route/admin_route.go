// file: internals/features/mastery/suspensions/route/admin_route.go
package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pelajarku_backend/internals/events"
	suspensionController "pelajarku_backend/internals/features/mastery/suspensions/controller"
)

func SuspensionAdminRoutes(router fiber.Router, db *gorm.DB, pub events.Publisher) {
	ctl := suspensionController.NewSuspensionController(db, nil, pub)

	router.Get("/suspensions", ctl.ListSuspensions)
	router.Get("/appeals", ctl.ListAppeals)
	router.Patch("/appeals/:appeal_id/decision", ctl.PatchAppealDecision)
}
