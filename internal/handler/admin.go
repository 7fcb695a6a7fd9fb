package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lab-occupancy/internal/lab"
	"github.com/iliyamo/lab-occupancy/internal/model"
)

// AdminHandler exposes the management surface: maintenance transitions,
// user administration, log clearing, statistics actions, snapshot
// import/export and the database wipe.  Routes are gated by the ADMIN role.
type AdminHandler struct {
	Lab *lab.Manager
}

// NewAdminHandler constructs an AdminHandler around the manager.
func NewAdminHandler(m *lab.Manager) *AdminHandler {
	if m == nil {
		panic("nil manager passed to NewAdminHandler")
	}
	return &AdminHandler{Lab: m}
}

type maintenanceReq struct {
	Reason       string     `json:"reason"`
	EstimatedEnd *time.Time `json:"estimated_end"`
}

// SetMaintenance takes a seat out of service.  A seat with an active
// session is rejected; the session has to be ended first.
func (h *AdminHandler) SetMaintenance(c echo.Context) error {
	var req maintenanceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Reason) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason required"})
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	seat, err := h.Lab.SetMaintenance(ctx, c.Param("id"), req.Reason, req.EstimatedEnd)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, seat)
}

// ClearMaintenance returns a seat to service.
func (h *AdminHandler) ClearMaintenance(c echo.Context) error {
	ctx, cancel := opCtx(c)
	defer cancel()
	seat, err := h.Lab.ClearMaintenance(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, seat)
}

type userReq struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Track      string `json:"track"`
	Group      string `json:"group"`
	Department string `json:"department"`
}

// AddUser registers a user administratively.  An explicit id is honored
// (mirrors an externally issued identity); otherwise one is generated.
func (h *AdminHandler) AddUser(c echo.Context) error {
	var req userReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	user, err := h.Lab.RegisterUser(ctx, lab.Profile{
		ExternalID: req.ID,
		Name:       req.Name,
		Track:      model.CompetenceTrack(req.Track),
		Group:      req.Group,
		Department: req.Department,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

// UpdateUser edits an existing user's profile.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	var req userReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	user, err := h.Lab.UpdateUser(ctx, c.Param("id"), lab.Profile{
		Name:       req.Name,
		Track:      model.CompetenceTrack(req.Track),
		Group:      req.Group,
		Department: req.Department,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// ClearLogs empties the event log without touching seats or sessions.
func (h *AdminHandler) ClearLogs(c echo.Context) error {
	ctx, cancel := opCtx(c)
	defer cancel()
	if err := h.Lab.ClearLogs(ctx); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RefreshStatistics forces a recompute and returns the result.
func (h *AdminHandler) RefreshStatistics(c echo.Context) error {
	ctx, cancel := opCtx(c)
	defer cancel()
	st, err := h.Lab.RefreshStatistics(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// ResetStatistics zeroes the session-derived statistics.
func (h *AdminHandler) ResetStatistics(c echo.Context) error {
	ctx, cancel := opCtx(c)
	defer cancel()
	st, err := h.Lab.ResetStatistics(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// ExportSnapshot returns the full current state as one document.
func (h *AdminHandler) ExportSnapshot(c echo.Context) error {
	ctx, cancel := opCtx(c)
	defer cancel()
	snap, err := h.Lab.Snapshot(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// ImportSnapshot replaces the store contents wholesale.  The document must
// pass structural validation; a rejected import leaves state unchanged.
func (h *AdminHandler) ImportSnapshot(c echo.Context) error {
	var snap model.Snapshot
	if err := c.Bind(&snap); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := opCtx(c)
	defer cancel()
	if err := h.Lab.ImportSnapshot(ctx, &snap); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ClearDatabase wipes the store back to the default layout and returns the
// fresh snapshot.
func (h *AdminHandler) ClearDatabase(c echo.Context) error {
	ctx, cancel := opCtx(c)
	defer cancel()
	snap, err := h.Lab.ClearDatabase(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}
