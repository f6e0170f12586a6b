package logger

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// LoggerMiddleware mencatat semua request, dengan request-id supaya log bisa
// dikorelasikan dengan event engine di downstream.
func LoggerMiddleware() fiber.Handler {
	return logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Jakarta",
		Format:     "[${time}] ${respHeader:X-Request-ID} ${ip} - ${method} ${path} - ${status} - ${latency}\n",
	})
}
