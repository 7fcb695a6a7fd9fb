package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lab-occupancy/internal/config"
	"github.com/iliyamo/lab-occupancy/internal/lab"
	"github.com/iliyamo/lab-occupancy/internal/model"
	"github.com/iliyamo/lab-occupancy/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints: direct
// registration, the chat-bot identity exchange and the admin gate.
type AuthHandler struct {
	Cfg config.Config
	Lab *lab.Manager

	adminHash string
}

// NewAuthHandler constructs an AuthHandler.  The admin shared secret is
// hashed once at startup; only the hash is kept in memory.
func NewAuthHandler(cfg config.Config, m *lab.Manager) *AuthHandler {
	hash, err := utils.HashSecret(cfg.AdminSecret, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("hash admin secret: %v", err)
	}
	return &AuthHandler{Cfg: cfg, Lab: m, adminHash: hash}
}

// ----- DTOs -----

type registerReq struct {
	Name       string `json:"name"`
	Track      string `json:"track"`
	Group      string `json:"group"`
	Department string `json:"department"`
}

type telegramReq struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Track      string `json:"track"`
	Group      string `json:"group"`
	Department string `json:"department"`
}

type adminReq struct {
	Secret string `json:"secret"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User   model.User `json:"user"`
	Access tokenPart  `json:"access"`
}

// Register creates a local identity and returns a token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.Lab.RegisterUser(ctx, lab.Profile{
		Name:       req.Name,
		Track:      model.CompetenceTrack(req.Track),
		Group:      req.Group,
		Department: req.Department,
	})
	if err != nil {
		return writeError(c, err)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, user.ID, "USER", h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusCreated, authResp{
		User:   user,
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Telegram exchanges an identity the chat-bot relay already verified.  The
// external id is trusted as given: a first-time id registers, a known id
// logs in.  Either way the response carries a fresh access token.
func (h *AuthHandler) Telegram(c echo.Context) error {
	var req telegramReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.ExternalID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "external_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.Lab.UserByID(ctx, req.ExternalID)
	if errors.Is(err, lab.ErrUserNotFound) {
		user, err = h.Lab.RegisterUser(ctx, lab.Profile{
			ExternalID: req.ExternalID,
			Name:       req.Name,
			Track:      model.CompetenceTrack(req.Track),
			Group:      req.Group,
			Department: req.Department,
		})
	}
	if err != nil {
		return writeError(c, err)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, user.ID, "USER", h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:   user,
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Admin verifies the shared secret and issues an ADMIN token.  This is a
// UI-mode switch in front of the management surface, not a security
// boundary.
func (h *AuthHandler) Admin(c echo.Context) error {
	var req adminReq
	if err := c.Bind(&req); err != nil || req.Secret == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "secret required"})
	}
	if !utils.VerifySecret(h.adminHash, req.Secret) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid secret"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, "admin", "ADMIN", h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Me returns the authenticated identity, mirroring the JWT claims.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": c.Get("user_id"),
		"role":    c.Get("role"),
	})
}
