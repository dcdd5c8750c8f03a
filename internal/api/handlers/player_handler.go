package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oreforge/oreforge-server/internal/core/models"
	"github.com/oreforge/oreforge-server/internal/core/ports"
	"github.com/oreforge/oreforge-server/internal/core/services"
	"github.com/oreforge/oreforge-server/pkg/logger"
)

type PlayerHandler struct {
	verificationService *services.VerificationService
	creditService       *services.CreditService
	playerRepo          ports.PlayerRepository
}

func NewPlayerHandler(
	verificationService *services.VerificationService,
	creditService *services.CreditService,
	playerRepo ports.PlayerRepository,
) *PlayerHandler {
	return &PlayerHandler{
		verificationService: verificationService,
		creditService:       creditService,
		playerRepo:          playerRepo,
	}
}

type registerRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
}

type adminVerifyRequest struct {
	EvidenceRef string `json:"evidence_ref"`
}

type playerResponse struct {
	WalletAddress   string     `json:"wallet_address"`
	Status          string     `json:"status"`
	Verified        bool       `json:"verified"`
	ChallengeAmount *string    `json:"challenge_amount,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	EvidenceRef     *string    `json:"evidence_ref,omitempty"`
	CreditedTotal   string     `json:"credited_total"`
}

func toPlayerResponse(player *models.Player) playerResponse {
	resp := playerResponse{
		WalletAddress: player.WalletAddress,
		Status:        string(player.Status(time.Now().UTC())),
		Verified:      player.Verified,
		ExpiresAt:     player.VerificationExpiresAt,
		EvidenceRef:   player.VerificationTxRef,
		CreditedTotal: player.CreditedTotal.String(),
	}
	if player.ChallengeAmount != nil {
		amount := player.ChallengeAmount.String()
		resp.ChallengeAmount = &amount
	}
	return resp
}

func (h *PlayerHandler) Register(c *gin.Context) {
	log := logger.WithComponent("player_handler")

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet_address is required"})
		return
	}

	player, err := h.verificationService.Register(c.Request.Context(), req.WalletAddress)
	if err != nil {
		log.Error().Err(err).Str("wallet", req.WalletAddress).Msg("Registration failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toPlayerResponse(player))
}

func (h *PlayerHandler) CheckNow(c *gin.Context) {
	log := logger.WithComponent("player_handler")
	wallet := c.Param("wallet")

	player, err := h.verificationService.CheckNow(c.Request.Context(), wallet)
	if errors.Is(err, ports.ErrPlayerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("wallet", wallet).Msg("Verification check failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toPlayerResponse(player))
}

func (h *PlayerHandler) AdminVerify(c *gin.Context) {
	log := logger.WithComponent("player_handler")
	wallet := c.Param("wallet")

	// Body is optional for an operator override.
	var req adminVerifyRequest
	_ = c.ShouldBindJSON(&req)

	player, err := h.verificationService.AdminVerify(c.Request.Context(), wallet, req.EvidenceRef)
	if errors.Is(err, ports.ErrPlayerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("wallet", wallet).Msg("Admin verification failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toPlayerResponse(player))
}

func (h *PlayerHandler) GetPlayer(c *gin.Context) {
	wallet := c.Param("wallet")

	player, err := h.playerRepo.GetByWallet(c.Request.Context(), wallet)
	if errors.Is(err, ports.ErrPlayerNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ledgerTotal, err := h.creditService.LedgerTotal(c.Request.Context(), player)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{
		"player":       toPlayerResponse(player),
		"ledger_total": ledgerTotal.String(),
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PlayerHandler) ListPlayers(c *gin.Context) {
	filter := ports.PlayerFilter{
		Limit:  parseIntQuery(c, "limit", 50),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if v := c.Query("verified"); v != "" {
		verified := v == "true"
		filter.Verified = &verified
	}

	players, err := h.playerRepo.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]playerResponse, 0, len(players))
	for _, player := range players {
		resp = append(resp, toPlayerResponse(player))
	}
	c.JSON(http.StatusOK, gin.H{
		"players": resp,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
