package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/lab-occupancy/internal/lab"
	"github.com/iliyamo/lab-occupancy/internal/model"
)

// writeError maps the lab error taxonomy onto HTTP responses.  NotFound and
// Conflict are caller-visible rejections that left state unchanged; an
// invalid snapshot on import is a 422; anything else is a server fault.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, lab.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, lab.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrInvalidSnapshot):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// currentUserID pulls the authenticated identity injected by the JWT
// middleware.  Empty when the request is unauthenticated.
func currentUserID(c echo.Context) string {
	if s, ok := c.Get("user_id").(string); ok {
		return s
	}
	return ""
}

// isAdmin reports whether the request carries the ADMIN role.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "ADMIN"
}
