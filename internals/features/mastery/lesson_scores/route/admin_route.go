// file: internals/features/mastery/lesson_scores/route/admin_route.go
package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pelajarku_backend/internals/events"
	lessonController "pelajarku_backend/internals/features/mastery/lesson_scores/controller"
)

// Intake nilai dari subsistem grading (service account admin).
func LessonScoreAdminRoutes(router fiber.Router, db *gorm.DB, pub events.Publisher) {
	ctl := lessonController.NewLessonScoreController(db, nil, pub)

	router.Post("/grades", ctl.PostGrade)
}
