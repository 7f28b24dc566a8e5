package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"encrypted-match-system/middleware"
	"encrypted-match-system/models"
	"encrypted-match-system/oracle"
)

// SetupOracleRoutes registers the push endpoint the oracle relay calls with
// finished decryptions.
func SetupOracleRoutes(app *fiber.App, core Core, callbackToken string) {
	grp := app.Group("/oracle", middleware.OracleAuthMiddleware(callbackToken))

	grp.Post("/callbacks/:callback_id", func(c *fiber.Ctx) error {
		callbackID := c.Params("callback_id")
		kind, ok := models.KindForCallback(callbackID)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown callback id"})
		}

		var req struct {
			RequestID string `json:"request_id"`
			Cleartext []byte `json:"cleartext"`
			Proof     []byte `json:"proof"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		if req.RequestID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "request_id is required"})
		}

		if kind == models.RequestKindPlayerStats {
			reveal, err := core.OnPlayerStatsResult(c.UserContext(), req.RequestID, req.Cleartext, req.Proof)
			if err != nil {
				log.Printf("[Oracle] ❌ player-stats callback %s rejected: %v", req.RequestID, err)
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"request_id": req.RequestID, "player_id": reveal.PlayerID, "match_count": reveal.MatchCount})
		}

		err := core.HandleOracleResult(c.UserContext(), oracle.Result{
			RequestID:   req.RequestID,
			CallbackID:  callbackID,
			Cleartext:   req.Cleartext,
			Proof:       req.Proof,
			FulfilledAt: time.Now(),
		})
		if err != nil {
			log.Printf("[Oracle] ❌ %s callback %s rejected: %v", callbackID, req.RequestID, err)
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"request_id": req.RequestID, "status": models.PendingFulfilled})
	})
}
