package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	vehicledomain "github.com/smallbiznis/servicebay/internal/vehicle/domain"
)

type vehicleRequest struct {
	RegistrationNo string `json:"RegistrationNo"`
	Make           string `json:"Make"`
	Model          string `json:"Model"`
	CustomerID     flexID `json:"CustomerID"`
}

func (r vehicleRequest) customerID() string {
	if r.CustomerID <= 0 {
		return ""
	}
	return r.CustomerID.ID().String()
}

func (s *Server) CreateVehicle(c *gin.Context) {
	var req vehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.vehicleSvc.Create(c.Request.Context(), vehicledomain.CreateVehicleRequest{
		RegistrationNo: req.RegistrationNo,
		Make:           req.Make,
		Model:          req.Model,
		CustomerID:     req.customerID(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListVehicles(c *gin.Context) {
	resp, err := s.vehicleSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetVehicleByID(c *gin.Context) {
	resp, err := s.vehicleSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateVehicle(c *gin.Context) {
	var req vehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	_, err := s.vehicleSvc.Update(c.Request.Context(), vehicledomain.UpdateVehicleRequest{
		ID:             strings.TrimSpace(c.Param("id")),
		RegistrationNo: req.RegistrationNo,
		Make:           req.Make,
		Model:          req.Model,
		CustomerID:     req.customerID(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vehicle updated successfully"})
}

func (s *Server) DeleteVehicle(c *gin.Context) {
	if err := s.vehicleSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vehicle deleted successfully"})
}

func isVehicleValidationError(err error) bool {
	switch err {
	case vehicledomain.ErrInvalidID,
		vehicledomain.ErrInvalidRegistration,
		vehicledomain.ErrInvalidMake,
		vehicledomain.ErrInvalidModel,
		vehicledomain.ErrInvalidCustomer:
		return true
	default:
		return false
	}
}
