package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	jobpartdomain "github.com/smallbiznis/servicebay/internal/jobpart/domain"
	obscontext "github.com/smallbiznis/servicebay/internal/observability/context"
)

type attachPartRequest struct {
	PartID   flexID       `json:"partId"`
	Quantity flexQuantity `json:"quantity"`
}

func (s *Server) ListJobParts(c *gin.Context) {
	resp, err := s.jobPartSvc.ListForJob(c.Request.Context(), pathID(c, "id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AttachJobPart(c *gin.Context) {
	var req attachPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Quantity.invalid {
		AbortWithError(c, jobpartdomain.ErrInvalidQuantity)
		return
	}

	jobID := pathID(c, "id")
	tagID(c, obscontext.KeyJobID, jobID)
	tagID(c, obscontext.KeyPartID, req.PartID.ID())

	_, err := s.jobPartSvc.Attach(c.Request.Context(), jobpartdomain.AttachRequest{
		JobID:    jobID,
		PartID:   req.PartID.ID(),
		Quantity: req.Quantity.value,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Part added to job successfully"})
}

func (s *Server) DetachJobPart(c *gin.Context) {
	removed, err := s.jobPartSvc.Detach(c.Request.Context(), pathID(c, "jobPartId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tagID(c, obscontext.KeyJobID, removed.JobID)
	c.JSON(http.StatusOK, gin.H{"message": "Part removed from job successfully"})
}

func isJobPartValidationError(err error) bool {
	switch err {
	case jobpartdomain.ErrInvalidJobID,
		jobpartdomain.ErrInvalidPartID,
		jobpartdomain.ErrInvalidJobPartID,
		jobpartdomain.ErrInvalidQuantity:
		return true
	default:
		return false
	}
}
