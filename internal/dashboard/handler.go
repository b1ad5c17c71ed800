package dashboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/menulens/menulens/internal/core/analytics"
	httperr "github.com/menulens/menulens/internal/core/errors"
	"github.com/menulens/menulens/internal/live"
)

// RegisterRoutes registers all dashboard API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/dashboard", s.HandleDashboard)
	r.GET("/v1/dashboard/trends", s.HandleTrends)
	r.GET("/v1/settings", s.HandleGetSettings)
	r.DELETE("/v1/settings/cache", s.HandleInvalidateSettings)
}

// HandleDashboard handles GET /v1/dashboard
// Query parameters: window, top, recent
func (s *Service) HandleDashboard(c *gin.Context) {
	var query struct {
		Window string `form:"window"`
		Top    string `form:"top"`
		Recent string `form:"recent"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		writeInvalidQuery(c, err)
		return
	}

	days, err := s.parseWindow(query.Window)
	if err != nil {
		writeInvalidQuery(c, err)
		return
	}
	top, err := parseLimit("top", query.Top)
	if err != nil {
		writeInvalidQuery(c, err)
		return
	}
	recent, err := parseLimit("recent", query.Recent)
	if err != nil {
		writeInvalidQuery(c, err)
		return
	}

	resp, err := s.Dashboard(c.Request.Context(), DashboardRequest{WindowDays: days, Top: top, Recent: recent})
	if err != nil {
		writeServiceError(c, err, "Failed to render dashboard")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleTrends handles GET /v1/dashboard/trends
// Query parameters: window
func (s *Service) HandleTrends(c *gin.Context) {
	days, err := s.parseWindow(c.Query("window"))
	if err != nil {
		writeInvalidQuery(c, err)
		return
	}

	resp, err := s.Trends(days)
	if err != nil {
		writeServiceError(c, err, "Failed to load trends")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleGetSettings handles GET /v1/settings
func (s *Service) HandleGetSettings(c *gin.Context) {
	current, err := s.Settings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to load settings",
			Details:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, current)
}

// HandleInvalidateSettings handles DELETE /v1/settings/cache
func (s *Service) HandleInvalidateSettings(c *gin.Context) {
	s.InvalidateSettings()
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}

func (s *Service) parseWindow(raw string) (int, error) {
	if raw == "" {
		if days := s.DefaultWindow(); days > 0 {
			return days, nil
		}
	}
	days, err := analytics.ParseWindow(raw)
	if err != nil {
		return 0, err
	}
	return days, nil
}

func parseLimit(name, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return n, nil
}

func writeInvalidQuery(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidQueryError,
		Message:   "Invalid query parameters",
		Details:   err.Error(),
	})
}

func writeServiceError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrInvalidQuery), errors.Is(err, live.ErrUnknownWindow):
		writeInvalidQuery(c, err)
	case errors.Is(err, live.ErrNotReady), errors.Is(err, ErrTrendsNotReady):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotReadyError,
			Message:   "Dashboard is still syncing",
			Details:   err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   message,
			Details:   err.Error(),
		})
	}
}
