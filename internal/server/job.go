package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	obscontext "github.com/smallbiznis/servicebay/internal/observability/context"
	servicejobdomain "github.com/smallbiznis/servicebay/internal/servicejob/domain"
)

type createJobRequest struct {
	VehicleID  flexID `json:"VehicleID"`
	MechanicID flexID `json:"MechanicID"`
	Date       string `json:"Date"`
	Notes      string `json:"Notes"`
}

type updateJobStatusRequest struct {
	Status       string           `json:"status"`
	LaborCharges *decimal.Decimal `json:"laborCharges"`
}

type completeJobRequest struct {
	LaborCharges *decimal.Decimal `json:"laborCharges"`
}

type assignMechanicRequest struct {
	MechanicID flexID `json:"MechanicID"`
}

func (s *Server) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	date, err := parseOptionalTime(req.Date, false)
	if err != nil || date == nil {
		AbortWithError(c, servicejobdomain.ErrInvalidDate)
		return
	}

	resp, err := s.jobSvc.Create(c.Request.Context(), servicejobdomain.CreateJobRequest{
		VehicleID:  req.VehicleID.ID(),
		MechanicID: req.MechanicID.Ptr(),
		Date:       *date,
		Notes:      req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tagID(c, obscontext.KeyJobID, resp.ID)
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListJobs(c *gin.Context) {
	resp, err := s.jobSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetJobByID(c *gin.Context) {
	resp, err := s.jobSvc.Get(c.Request.Context(), pathID(c, "id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// UpdateJobStatus completes and invoices the job when the target status is
// Completed; any other status is a plain transition.
func (s *Server) UpdateJobStatus(c *gin.Context) {
	var req updateJobStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	jobID := pathID(c, "id")
	tagID(c, obscontext.KeyJobID, jobID)

	resp, err := s.jobSvc.UpdateStatus(c.Request.Context(), servicejobdomain.UpdateStatusRequest{
		JobID:        jobID,
		Status:       req.Status,
		LaborCharges: req.LaborCharges,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if resp.Invoice != nil {
		tagID(c, obscontext.KeyInvoiceID, resp.Invoice.ID)
		c.JSON(http.StatusOK, gin.H{
			"message": s.invoiceGeneratedMessage(resp.Invoice.Amount),
			"data":    resp.Invoice,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Job status updated to %s", resp.Job.Status),
		"data":    resp.Job,
	})
}

func (s *Server) CompleteJob(c *gin.Context) {
	var req completeJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.LaborCharges == nil {
		AbortWithError(c, servicejobdomain.ErrLaborChargesRequired)
		return
	}

	jobID := pathID(c, "id")
	tagID(c, obscontext.KeyJobID, jobID)

	resp, err := s.jobSvc.CompleteAndInvoice(c.Request.Context(), jobID, *req.LaborCharges)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tagID(c, obscontext.KeyInvoiceID, resp.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": s.invoiceGeneratedMessage(resp.Amount),
		"data":    resp,
	})
}

func (s *Server) AssignJobMechanic(c *gin.Context) {
	var req assignMechanicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	jobID := pathID(c, "id")
	tagID(c, obscontext.KeyJobID, jobID)

	resp, err := s.jobSvc.AssignMechanic(c.Request.Context(), jobID, req.MechanicID.ID())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Mechanic assigned successfully", "data": resp})
}

func (s *Server) invoiceGeneratedMessage(amount decimal.Decimal) string {
	return fmt.Sprintf("Invoice generated successfully for %s%s", s.shop.Get().CurrencySymbol, amount.StringFixed(2))
}

func isJobValidationError(err error) bool {
	switch err {
	case servicejobdomain.ErrInvalidID,
		servicejobdomain.ErrInvalidVehicle,
		servicejobdomain.ErrInvalidMechanic,
		servicejobdomain.ErrInvalidDate,
		servicejobdomain.ErrInvalidStatus,
		servicejobdomain.ErrInvalidLaborCharges,
		servicejobdomain.ErrLaborChargesRequired:
		return true
	default:
		return false
	}
}
