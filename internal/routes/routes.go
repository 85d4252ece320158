// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and token requirements.
package routes

import (
	"time"

	"cardform/internal/handlers"
	"cardform/internal/middleware"
	"cardform/internal/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies are the services the routes are wired to
type Dependencies struct {
	Sessions    repositories.SessionRepository
	Gatherer    prometheus.Gatherer
	TokenSecret string
	TokenTTL    time.Duration

	// CreateLimit caps form creations per client IP and minute. Zero disables it.
	CreateLimit  int
	// FieldLimiter throttles field edits per session when set.
	FieldLimiter *middleware.SessionRateLimiter

	Logger *zap.SugaredLogger
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.Sessions)
	formHandler := handlers.NewFormHandler(deps.Sessions, deps.TokenSecret, deps.TokenTTL, deps.Logger)
	sessionAuth := middleware.NewFormSessionMiddleware(deps.TokenSecret, deps.Logger)

	// Public routes
	app.Get("/health", healthHandler.HealthCheck)
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	forms := api.Group("/forms")

	createHandlers := []fiber.Handler{formHandler.CreateForm}
	if deps.CreateLimit > 0 {
		createHandlers = append([]fiber.Handler{createLimiter(deps.CreateLimit)}, createHandlers...)
	}
	forms.Post("/", createHandlers...)

	// Session routes, the token must match :id
	session := forms.Group("/:id", sessionAuth.Handler)
	session.Get("/", formHandler.GetForm)
	session.Delete("/", formHandler.DeleteForm)
	if deps.FieldLimiter != nil {
		session.Put("/fields/:field", deps.FieldLimiter.Handler, formHandler.UpdateField)
	} else {
		session.Put("/fields/:field", formHandler.UpdateField)
	}
	session.Post("/submit", formHandler.Submit)
	session.Post("/reset", formHandler.ResetSubmission)
	session.Get("/events", formHandler.Events)
}

func createLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	})
}
