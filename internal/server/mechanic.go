package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	mechanicdomain "github.com/smallbiznis/servicebay/internal/mechanic/domain"
)

type createMechanicRequest struct {
	Name  string `json:"Name"`
	Phone string `json:"Phone"`
}

func (s *Server) CreateMechanic(c *gin.Context) {
	var req createMechanicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.mechanicSvc.Create(c.Request.Context(), mechanicdomain.CreateMechanicRequest{
		Name:  strings.TrimSpace(req.Name),
		Phone: strings.TrimSpace(req.Phone),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListMechanics(c *gin.Context) {
	resp, err := s.mechanicSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteMechanic(c *gin.Context) {
	if err := s.mechanicSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Mechanic deleted successfully"})
}

func isMechanicValidationError(err error) bool {
	switch err {
	case mechanicdomain.ErrInvalidID,
		mechanicdomain.ErrInvalidName:
		return true
	default:
		return false
	}
}
