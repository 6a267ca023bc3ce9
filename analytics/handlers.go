package analytics

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler serves the admin analytics JSON API.
type Handler struct {
	svc *Service
}

// NewHandler creates a new analytics handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Users lists visitors, optionally filtered by ?q=.
func (h *Handler) Users(c echo.Context) error {
	visitors, err := h.svc.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, visitors)
}

// Summary returns {total, last7, last30}.
func (h *Handler) Summary(c echo.Context) error {
	sum, err := h.svc.Summary(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sum)
}

// Daily returns [{d, c}] for ?days=N (default 30, at most 180). ?fill=true
// adds zero entries for days without registrations.
func (h *Handler) Daily(c echo.Context) error {
	days := DefaultDays
	var fill bool
	if err := echo.QueryParamsBinder(c).
		Int("days", &days).
		Bool("fill", &fill).
		BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "days must be an integer and fill a boolean")
	}
	if days < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "days must be at least 1")
	}

	counts, err := h.svc.Daily(c.Request().Context(), days, fill)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, counts)
}

// Agents returns [{agent, count}] sorted by count descending.
func (h *Handler) Agents(c echo.Context) error {
	agents, err := h.svc.Agents(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agents)
}

// RegisterRoutes mounts the analytics endpoints on an admin-gated group.
func (h *Handler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/users", h.Users)
	admin.GET("/stats/summary", h.Summary)
	admin.GET("/stats/daily", h.Daily)
	admin.GET("/stats/agents", h.Agents)
}
