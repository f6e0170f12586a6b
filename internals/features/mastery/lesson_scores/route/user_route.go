// file: internals/features/mastery/lesson_scores/route/user_route.go
package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pelajarku_backend/internals/events"
	lessonController "pelajarku_backend/internals/features/mastery/lesson_scores/controller"
)

func LessonScoreUserRoutes(router fiber.Router, db *gorm.DB, pub events.Publisher) {
	ctl := lessonController.NewLessonScoreController(db, nil, pub)
	lessons := router.Group("/lessons")

	lessons.Post("/reading-progress", ctl.PostReadingProgress)
	lessons.Post("/engagement", ctl.PostEngagement)
	lessons.Get("/:lesson_id/completion", ctl.GetCompletion)
}
