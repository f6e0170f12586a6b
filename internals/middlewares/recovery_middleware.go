package middlewares

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// RecoveryMiddleware menangkap panic dan mengembalikan error 500.
// Panic di jalur scoring jangan sampai mematikan proses; skor bisa
// di-recompute dari sinyal berikutnya.
func RecoveryMiddleware() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log.Printf("[PANIC] %s %s request_id=%s: %v",
				c.Method(), c.Path(), c.Get("X-Request-ID"), e)
		},
	})
}
