package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	consumptiondomain "github.com/smallbiznis/gridpulse/internal/consumption/domain"
)

func (s *Server) GetLatestConsumption(c *gin.Context) {
	record, err := s.consumptionSvc.Latest(c.Request.Context(), strings.TrimSpace(c.Param("homeId")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) GetConsumptionHistory(c *gin.Context) {
	window, err := parseOptionalWindow(c.Query("window"))
	if err != nil {
		AbortWithError(c, newValidationError("window", "invalid_window", "invalid window"))
		return
	}

	records, err := s.consumptionSvc.History(c.Request.Context(), consumptiondomain.HistoryRequest{
		HomeID: strings.TrimSpace(c.Param("homeId")),
		Window: window,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if records == nil {
		records = []*consumptiondomain.ConsumptionRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) GetStatistics(c *gin.Context) {
	window, err := parseOptionalWindow(c.Query("window"))
	if err != nil {
		AbortWithError(c, newValidationError("window", "invalid_window", "invalid window"))
		return
	}

	stats, err := s.consumptionSvc.Statistics(c.Request.Context(), consumptiondomain.StatisticsRequest{
		Window: window,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
