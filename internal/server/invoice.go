package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/servicebay/internal/invoice/domain"
	obscontext "github.com/smallbiznis/servicebay/internal/observability/context"
)

type updateInvoiceStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) ListInvoices(c *gin.Context) {
	resp, err := s.invoiceSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	item, err := s.invoiceSvc.Get(c.Request.Context(), pathID(c, "id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) UpdateInvoiceStatus(c *gin.Context) {
	var req updateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoiceID := pathID(c, "id")
	tagID(c, obscontext.KeyInvoiceID, invoiceID)

	item, err := s.invoiceSvc.UpdateStatus(c.Request.Context(), invoicedomain.UpdateStatusRequest{
		InvoiceID: invoiceID,
		Status:    req.Status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Invoice status updated to %s", item.Status)})
}

func (s *Server) RenderInvoicePDF(c *gin.Context) {
	invoiceID := pathID(c, "id")
	tagID(c, obscontext.KeyInvoiceID, invoiceID)

	doc, err := s.invoiceSvc.RenderPDF(c.Request.Context(), invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	body, err := io.ReadAll(doc.Content)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, doc.FileName))
	c.Data(http.StatusOK, "application/pdf", body)
}

func isInvoiceValidationError(err error) bool {
	switch err {
	case invoicedomain.ErrInvalidID,
		invoicedomain.ErrInvalidStatus:
		return true
	default:
		return false
	}
}
