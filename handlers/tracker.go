package handlers

import (
	"commander-tracker/middleware"
	"commander-tracker/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTrackerRoutes(app *fiber.App, trackerService *services.TrackerService, auth middleware.Authorizer) {
	// 🔓 Public reads
	api := app.Group("/api")
	api.Get("/dashboard", trackerService.GetDashboard)
	api.Get("/history", trackerService.GetHistory)
	api.Get("/players", trackerService.GetPlayers)
	api.Get("/decks", trackerService.GetDecks)
	api.Get("/players/:slug/stats", trackerService.GetPlayerStats)

	// 🔐 Recording requires the group secret
	gated := api.Group("/", middleware.GroupGateMiddleware(auth))
	gated.Post("/matches", trackerService.PostMatch)
}
