// file: internals/route/index.go
package routes

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pelajarku_backend/internals/events"
	lessonRoutes "pelajarku_backend/internals/features/mastery/lesson_scores/route"
	progressRoutes "pelajarku_backend/internals/features/mastery/module_progress/route"
	suspensionRoutes "pelajarku_backend/internals/features/mastery/suspensions/route"
	authMiddleware "pelajarku_backend/internals/middlewares/auth"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB, pub events.Publisher) {
	startTime = time.Now()

	BaseRoutes(app, db)

	// ===================== PRIVATE (USER) =====================
	log.Println("[INFO] Setting up PRIVATE (user) group...")
	user := app.Group("/api/u",
		authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
			Secret:              os.Getenv("JWT_SECRET"),
			AllowCookieFallback: true,
		}),
	)

	userMastery := user.Group("/mastery")
	lessonRoutes.LessonScoreUserRoutes(userMastery, db, pub)
	progressRoutes.ModuleProgressUserRoutes(userMastery, db, pub)
	suspensionRoutes.SuspensionUserRoutes(userMastery, db, pub)

	// ===================== ADMIN =====================
	log.Println("[INFO] Setting up ADMIN group (Auth + RoleCheck)...")
	admin := app.Group("/api/a",
		authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
			Secret:              os.Getenv("JWT_SECRET"),
			AllowCookieFallback: true,
		}),
		authMiddleware.IsAdmin(),
	)

	adminMastery := admin.Group("/mastery")
	lessonRoutes.LessonScoreAdminRoutes(adminMastery, db, pub)
	progressRoutes.ModuleProgressAdminRoutes(adminMastery, db, pub)
	suspensionRoutes.SuspensionAdminRoutes(adminMastery, db, pub)
}
