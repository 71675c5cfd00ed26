package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/servicebay/internal/providers/spreadsheet"
	sparepartdomain "github.com/smallbiznis/servicebay/internal/sparepart/domain"
)

func (s *Server) ExportInvoiceRegister(c *gin.Context) {
	out, err := s.invoiceSvc.ExportRegister(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	body, err := io.ReadAll(out.Content)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, out.FileName))
	c.Data(http.StatusOK, spreadsheet.ContentType, body)
}

// ListLowStockParts defaults the threshold to the configured alert level.
func (s *Server) ListLowStockParts(c *gin.Context) {
	threshold := s.cfg.StockAlert.Threshold
	if raw := strings.TrimSpace(c.Query("threshold")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			AbortWithError(c, sparepartdomain.ErrInvalidThreshold)
			return
		}
		threshold = parsed
	}

	items, err := s.partSvc.ListLowStock(c.Request.Context(), threshold)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items, "threshold": threshold})
}
