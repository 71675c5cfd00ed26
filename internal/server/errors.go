package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/servicebay/internal/audit/domain"
	customerdomain "github.com/smallbiznis/servicebay/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/servicebay/internal/invoice/domain"
	jobpartdomain "github.com/smallbiznis/servicebay/internal/jobpart/domain"
	mechanicdomain "github.com/smallbiznis/servicebay/internal/mechanic/domain"
	servicejobdomain "github.com/smallbiznis/servicebay/internal/servicejob/domain"
	sparepartdomain "github.com/smallbiznis/servicebay/internal/sparepart/domain"
	vehicledomain "github.com/smallbiznis/servicebay/internal/vehicle/domain"
	"github.com/smallbiznis/servicebay/pkg/db"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, jobpartdomain.ErrInsufficientStock):
		return http.StatusBadRequest, errorPayload{
			Type:    "business_rule_violation",
			Code:    err.Error(),
			Message: "Insufficient stock for this part.",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    conflictCode(err),
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Code:    notFoundCode(err),
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds error_type and error_code into the request log.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	if db.IsRetryableErr(err) {
		return "internal_error", "retryable_store_error"
	}
	_, payload := mapError(err)
	code := payload.Code
	if code == "" && len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isCustomerValidationError(err),
		isVehicleValidationError(err),
		isMechanicValidationError(err),
		isPartValidationError(err),
		isJobValidationError(err),
		isJobPartValidationError(err),
		isInvoiceValidationError(err),
		isAuditValidationError(err):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, servicejobdomain.ErrIllegalTransition),
		errors.Is(err, servicejobdomain.ErrAlreadyInvoiced),
		errors.Is(err, servicejobdomain.ErrMechanicRequired),
		errors.Is(err, customerdomain.ErrHasVehicles),
		errors.Is(err, vehicledomain.ErrDuplicateRegistration),
		errors.Is(err, vehicledomain.ErrHasJobs),
		errors.Is(err, mechanicdomain.ErrHasJobs):
		return true
	default:
		return false
	}
}

func conflictCode(err error) string {
	if errors.Is(err, ErrConflict) {
		return "conflict"
	}
	return err.Error()
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, servicejobdomain.ErrIllegalTransition):
		return "status transition is not allowed"
	case errors.Is(err, servicejobdomain.ErrAlreadyInvoiced):
		return "job has already been invoiced"
	case errors.Is(err, servicejobdomain.ErrMechanicRequired):
		return "assign a mechanic first"
	case errors.Is(err, customerdomain.ErrHasVehicles):
		return "customer still owns vehicles"
	case errors.Is(err, vehicledomain.ErrDuplicateRegistration):
		return "registration number already exists"
	case errors.Is(err, vehicledomain.ErrHasJobs),
		errors.Is(err, mechanicdomain.ErrHasJobs):
		return "record is referenced by service jobs"
	default:
		return "conflict"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, vehicledomain.ErrNotFound),
		errors.Is(err, vehicledomain.ErrCustomerNotFound),
		errors.Is(err, mechanicdomain.ErrNotFound),
		errors.Is(err, sparepartdomain.ErrNotFound),
		errors.Is(err, servicejobdomain.ErrNotFound),
		errors.Is(err, servicejobdomain.ErrVehicleNotFound),
		errors.Is(err, servicejobdomain.ErrMechanicNotFound),
		errors.Is(err, jobpartdomain.ErrJobNotFound),
		errors.Is(err, jobpartdomain.ErrJobPartNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func notFoundCode(err error) string {
	if errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
		return "not_found"
	}
	return err.Error()
}

func isAuditValidationError(err error) bool {
	switch err {
	case auditdomain.ErrInvalidPageToken,
		auditdomain.ErrInvalidTimeRange,
		auditdomain.ErrInvalidAction,
		auditdomain.ErrInvalidJobID:
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if strings.HasSuffix(code, "_required") {
		return strings.TrimSuffix(code, "_required")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_invoice_status", "invalid_status":
		return "Invalid status provided."
	case "labor_charges_required":
		return "labor charges are required to complete a job"
	default:
		return "invalid value"
	}
}
