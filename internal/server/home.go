package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	homedomain "github.com/smallbiznis/gridpulse/internal/home/domain"
)

type createHomeRequest struct {
	HomeID  string `json:"homeId"`
	Address string `json:"address"`
	Owner   string `json:"owner"`
}

func (s *Server) ListHomes(c *gin.Context) {
	homes, err := s.homeSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if homes == nil {
		homes = []*homedomain.Home{}
	}
	c.JSON(http.StatusOK, homes)
}

func (s *Server) GetHome(c *gin.Context) {
	home, err := s.homeSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("homeId")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, home)
}

func (s *Server) CreateHome(c *gin.Context) {
	var req createHomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	home, err := s.homeSvc.Create(c.Request.Context(), homedomain.CreateHomeRequest{
		HomeID:  strings.TrimSpace(req.HomeID),
		Address: strings.TrimSpace(req.Address),
		Owner:   strings.TrimSpace(req.Owner),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, home)
}
