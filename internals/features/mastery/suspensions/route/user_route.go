// file: internals/features/mastery/suspensions/route/user_route.go
package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pelajarku_backend/internals/events"
	suspensionController "pelajarku_backend/internals/features/mastery/suspensions/controller"
	"pelajarku_backend/internals/middlewares"
)

func SuspensionUserRoutes(router fiber.Router, db *gorm.DB, pub events.Publisher) {
	ctl := suspensionController.NewSuspensionController(db, nil, pub)
	suspensions := router.Group("/suspensions")

	suspensions.Get("/", ctl.ListMySuspensions)
	// rate limit ketat: banding bukan endpoint spam
	suspensions.Post("/:suspension_id/appeals", middlewares.AppealRateLimiter(), ctl.PostAppeal)
}
