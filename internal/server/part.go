package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	sparepartdomain "github.com/smallbiznis/servicebay/internal/sparepart/domain"
)

type createPartRequest struct {
	Name  string          `json:"Name"`
	Stock int64           `json:"Stock"`
	Price decimal.Decimal `json:"Price"`
}

func (s *Server) CreatePart(c *gin.Context) {
	var req createPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.partSvc.Create(c.Request.Context(), sparepartdomain.CreateSparePartRequest{
		Name:  strings.TrimSpace(req.Name),
		Stock: req.Stock,
		Price: req.Price,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListParts(c *gin.Context) {
	resp, err := s.partSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPartByID(c *gin.Context) {
	id := pathID(c, "id")
	if id == 0 {
		AbortWithError(c, newValidationError("id", "invalid_part_id", "invalid part id"))
		return
	}

	resp, err := s.partSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isPartValidationError(err error) bool {
	switch err {
	case sparepartdomain.ErrInvalidName,
		sparepartdomain.ErrInvalidStock,
		sparepartdomain.ErrInvalidPrice,
		sparepartdomain.ErrInvalidThreshold:
		return true
	default:
		return false
	}
}
