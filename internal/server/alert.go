package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	alertdomain "github.com/smallbiznis/gridpulse/internal/alert/domain"
)

func (s *Server) ListAlerts(c *gin.Context) {
	var query struct {
		Limit  string `form:"limit"`
		HomeID string `form:"homeId"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	limit, err := parseOptionalInt(query.Limit)
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
		return
	}
	req := alertdomain.ListAlertsRequest{HomeID: strings.TrimSpace(query.HomeID)}
	if limit != nil {
		if *limit <= 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
			return
		}
		req.Limit = *limit
	}

	alerts, err := s.alertSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if alerts == nil {
		alerts = []*alertdomain.Alert{}
	}
	c.JSON(http.StatusOK, alerts)
}
