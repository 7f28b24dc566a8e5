package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"encrypted-match-system/encryption"
	"encrypted-match-system/middleware"
	"encrypted-match-system/models"
	"encrypted-match-system/oracle"
	"encrypted-match-system/services"
)

// Core is the part of services.Processor the HTTP layer uses.
type Core interface {
	Submit(ctx context.Context, stats, gameLog, playerID encryption.Handle) (uint64, error)
	RequestVerification(ctx context.Context, matchID uint64) (string, error)
	HandleOracleResult(ctx context.Context, res oracle.Result) error
	RequestPlayerStatsDecryption(ctx context.Context, playerID string) (string, error)
	OnPlayerStatsResult(ctx context.Context, requestID string, cleartext, proof []byte) (services.PlayerStatsReveal, error)
	DetectCheatingPatterns(ctx context.Context, matchID uint64, patterns []string) (bool, error)
	CalculateRankings(ctx context.Context, matchIDs []uint64) (services.Rankings, error)
	ValidateTournamentResult(ctx context.Context, matchIDs []uint64, claimedWinner string) (bool, error)
	DecryptedMatchData(ctx context.Context, matchID uint64) (models.DecryptedMatchRecord, error)
	EncryptedMatch(ctx context.Context, matchID uint64) (models.EncryptedMatchRecord, error)
	EncryptedPlayerStats(ctx context.Context, playerID string) (encryption.Handle, error)
	Players(ctx context.Context) ([]string, error)
	Subscribe() (<-chan models.Event, func())
}

type MatchHandler struct {
	core Core
}

// SetupMatchRoutes registers the operator-facing routes behind Gateway auth.
func SetupMatchRoutes(app *fiber.App, core Core, gatewayToken string) {
	h := &MatchHandler{core: core}

	// Auth is attached per route; /oracle and /events carry their own.
	gw := middleware.GatewayAuthMiddleware(gatewayToken)
	op := middleware.OperatorContextMiddleware()

	// Matches
	app.Post("/matches", gw, op, h.SubmitMatch)
	app.Get("/matches/:id", gw, op, h.GetDecryptedMatch)
	app.Get("/matches/:id/encrypted", gw, op, h.GetEncryptedMatch)
	app.Post("/matches/:id/verify", gw, op, h.RequestVerification)
	app.Post("/matches/:id/anticheat", gw, op, h.DetectCheating)

	// Player ledger
	app.Get("/players", gw, op, h.ListPlayers)
	app.Get("/players/:player_id/stats", gw, op, h.GetPlayerStats)
	app.Post("/players/:player_id/stats/decrypt", gw, op, h.RequestPlayerStats)

	// Results
	app.Post("/rankings", gw, op, h.CalculateRankings)
	app.Post("/results/validate", gw, op, h.ValidateResult)
}

func (h *MatchHandler) SubmitMatch(c *fiber.Ctx) error {
	var req struct {
		EncryptedPlayerStats []byte `json:"encrypted_player_stats"`
		EncryptedGameLog     []byte `json:"encrypted_game_log"`
		EncryptedPlayerID    []byte `json:"encrypted_player_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	id, err := h.core.Submit(c.UserContext(), req.EncryptedPlayerStats, req.EncryptedGameLog, req.EncryptedPlayerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (h *MatchHandler) GetDecryptedMatch(c *fiber.Ctx) error {
	id, ok := matchIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid match id"})
	}
	dec, err := h.core.DecryptedMatchData(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dec)
}

func (h *MatchHandler) GetEncryptedMatch(c *fiber.Ctx) error {
	id, ok := matchIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid match id"})
	}
	enc, err := h.core.EncryptedMatch(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(enc)
}

func (h *MatchHandler) RequestVerification(c *fiber.Ctx) error {
	id, ok := matchIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid match id"})
	}
	requestID, err := h.core.RequestVerification(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	log.Printf("[API] Operator %s requested verification of match %d", middleware.OperatorID(c), id)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"match_id": id, "request_id": requestID})
}

func (h *MatchHandler) DetectCheating(c *fiber.Ctx) error {
	id, ok := matchIDParam(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid match id"})
	}
	var req struct {
		Patterns []string `json:"patterns"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	found, err := h.core.DetectCheatingPatterns(c.UserContext(), id, req.Patterns)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"match_id": id, "cheating_detected": found})
}

func (h *MatchHandler) ListPlayers(c *fiber.Ctx) error {
	players, err := h.core.Players(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	if players == nil {
		players = []string{}
	}
	return c.JSON(fiber.Map{"players": players})
}

func (h *MatchHandler) GetPlayerStats(c *fiber.Ctx) error {
	playerID := c.Params("player_id")
	counter, err := h.core.EncryptedPlayerStats(c.UserContext(), playerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"player_id": playerID, "encrypted_counter": []byte(counter)})
}

func (h *MatchHandler) RequestPlayerStats(c *fiber.Ctx) error {
	playerID := c.Params("player_id")
	requestID, err := h.core.RequestPlayerStatsDecryption(c.UserContext(), playerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"player_id": playerID, "request_id": requestID})
}

func (h *MatchHandler) CalculateRankings(c *fiber.Ctx) error {
	var req struct {
		MatchIDs []uint64 `json:"match_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	rankings, err := h.core.CalculateRankings(c.UserContext(), req.MatchIDs)
	if err != nil {
		return respondError(c, err)
	}
	if rankings.PlayerIDs == nil {
		rankings.PlayerIDs, rankings.Scores = []string{}, []int64{}
	}
	return c.JSON(rankings)
}

func (h *MatchHandler) ValidateResult(c *fiber.Ctx) error {
	var req struct {
		MatchIDs      []uint64 `json:"match_ids"`
		ClaimedWinner string   `json:"claimed_winner"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.ClaimedWinner == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "claimed_winner is required"})
	}
	valid, err := h.core.ValidateTournamentResult(c.UserContext(), req.MatchIDs, req.ClaimedWinner)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"claimed_winner": req.ClaimedWinner, "valid": valid})
}

func matchIDParam(c *fiber.Ctx) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// respondError maps core errors onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrPlayerNotFound),
		errors.Is(err, services.ErrInvalidRequest):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrAlreadyVerified),
		errors.Is(err, services.ErrMatchNotVerified):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrProofVerificationFailed),
		errors.Is(err, services.ErrMalformedCleartext):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrEmptyCiphertext):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrProcessorStopped):
		status = fiber.StatusServiceUnavailable
	}
	if status == fiber.StatusInternalServerError {
		log.Printf("ERROR %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
