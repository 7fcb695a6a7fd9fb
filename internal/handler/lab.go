package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lab-occupancy/internal/lab"
)

// LabHandler exposes the floor-plan reads and the session operations.  All
// mutating methods assume JWT authentication has already run; ownership is
// enforced here (a user only ends or touches their own session, an admin
// may act on any).
type LabHandler struct {
	Lab *lab.Manager
}

// NewLabHandler constructs a LabHandler around the manager.
func NewLabHandler(m *lab.Manager) *LabHandler {
	if m == nil {
		panic("nil manager passed to NewLabHandler")
	}
	return &LabHandler{Lab: m}
}

func opCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// GetSeats returns every seat of the floor plan.
func (h *LabHandler) GetSeats(c echo.Context) error {
	ctx, cancel := opCtx(c)
	defer cancel()
	snap, err := h.Lab.Snapshot(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, snap.Seats)
}

// GetUsers returns the user registry.
func (h *LabHandler) GetUsers(c echo.Context) error {
	ctx, cancel := opCtx(c)
	defer cancel()
	snap, err := h.Lab.Snapshot(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, snap.Users)
}

// GetLogs returns the bounded event log, most recent first.
func (h *LabHandler) GetLogs(c echo.Context) error {
	ctx, cancel := opCtx(c)
	defer cancel()
	snap, err := h.Lab.Snapshot(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, snap.Logs)
}

// GetStatistics returns the current derived statistics.
func (h *LabHandler) GetStatistics(c echo.Context) error {
	ctx, cancel := opCtx(c)
	defer cancel()
	snap, err := h.Lab.Snapshot(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, snap.Statistics)
}

// ClaimSeat starts a session on a free seat for the authenticated user.
// An admin may claim on behalf of another user via the user_id field.
func (h *LabHandler) ClaimSeat(c echo.Context) error {
	seatID := c.Param("id")
	userID := currentUserID(c)
	var body struct {
		UserID string `json:"user_id"`
	}
	_ = c.Bind(&body)
	if body.UserID != "" && isAdmin(c) {
		userID = body.UserID
	}
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := opCtx(c)
	defer cancel()
	sess, err := h.Lab.StartSession(ctx, userID, seatID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, sess)
}

// EndSession closes an active session and frees its seat.
func (h *LabHandler) EndSession(c echo.Context) error {
	sessionID := c.Param("id")
	ctx, cancel := opCtx(c)
	defer cancel()

	if ok, err := h.authorizeSession(ctx, c, sessionID); !ok {
		return err
	}
	sess, err := h.Lab.EndSession(ctx, sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

// TouchSession refreshes the heartbeat of an active session.  Clients call
// this on a timer; repeating it has no effect beyond the LastSeen stamp.
func (h *LabHandler) TouchSession(c echo.Context) error {
	sessionID := c.Param("id")
	ctx, cancel := opCtx(c)
	defer cancel()

	if ok, err := h.authorizeSession(ctx, c, sessionID); !ok {
		return err
	}
	sess, err := h.Lab.TouchSession(ctx, sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

// authorizeSession rejects a non-admin acting on someone else's session.
// The boolean reports whether the caller may proceed; on denial the
// rejection response has already been written and the handler must not
// touch the session.  The subsequent manager call re-checks state under
// its own lock, so a session that ends between the check and the call
// still fails cleanly.
func (h *LabHandler) authorizeSession(ctx context.Context, c echo.Context, sessionID string) (bool, error) {
	if isAdmin(c) {
		return true, nil
	}
	uid := currentUserID(c)
	if uid == "" {
		return false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	snap, err := h.Lab.Snapshot(ctx)
	if err != nil {
		return false, writeError(c, err)
	}
	for _, sess := range snap.Sessions {
		if sess.ID == sessionID {
			if sess.UserID != uid {
				return false, c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return true, nil
		}
	}
	return false, writeError(c, lab.ErrSessionNotFound)
}
