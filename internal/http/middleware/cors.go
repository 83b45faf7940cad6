package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS allows the frontend at origin to call the listed methods.
// Content-Disposition is exposed so browsers can read download filenames.
func CORS(origin string, methods ...string) fiber.Handler {
	if origin == "" {
		origin = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:  origin,
		AllowMethods:  strings.Join(methods, ","),
		AllowHeaders:  "Content-Type, " + RequestIDHeader,
		ExposeHeaders: "Content-Disposition, " + RequestIDHeader,
	})
}
