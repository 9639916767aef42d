package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/launchbase/auth-platform/internal/api/middleware"
	"github.com/launchbase/auth-platform/internal/core/domain"
	"github.com/launchbase/auth-platform/internal/core/ports"
)

// DashboardHandler serves the minimal authenticated landing data: the
// caller's profile plus their recent auth activity.
type DashboardHandler struct {
	users ports.UserRepository
	audit ports.AuditRepository
}

func NewDashboardHandler(users ports.UserRepository, audit ports.AuditRepository) *DashboardHandler {
	return &DashboardHandler{users: users, audit: audit}
}

type dashboardResponse struct {
	User     *domain.User    `json:"user"`
	Activity []activityEntry `json:"activity"`
}

type activityEntry struct {
	Type      string `json:"type"`
	Success   bool   `json:"success"`
	IP        string `json:"ip,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Dashboard handles GET /dashboard.
//
// @Summary      Authenticated dashboard
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  dashboardResponse
// @Failure      401  {object}  map[string]any
// @Router       /dashboard [get]
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	user, err := h.users.FindByID(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	events, err := h.audit.ListByEmail(c.Request().Context(), user.Email, 10)
	if err != nil {
		return err
	}

	activity := make([]activityEntry, 0, len(events))
	for _, e := range events {
		activity = append(activity, activityEntry{
			Type:      string(e.Type),
			Success:   e.Success,
			IP:        e.IP,
			Timestamp: e.Timestamp.Unix(),
		})
	}

	return c.JSON(http.StatusOK, dashboardResponse{User: user, Activity: activity})
}
