package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	inquirydomain "github.com/smallbiznis/medbill/internal/inquiry/domain"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
	materialdomain "github.com/smallbiznis/medbill/internal/material/domain"
	templatedomain "github.com/smallbiznis/medbill/internal/template/domain"
	"github.com/smallbiznis/medbill/pkg/validation"
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
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// validationSentinels are reported as 400 with the sentinel text as code.
// Order matters when one error wraps several of them.
var validationSentinels = []error{
	ErrInvalidRequest,
	lineitemdomain.ErrNegativeTotal,
	lineitemdomain.ErrInvalidHospital,
	lineitemdomain.ErrInvalidQuantity,
	lineitemdomain.ErrInvalidGST,
	lineitemdomain.ErrInvalidDiscount,
	lineitemdomain.ErrInvalidRate,
	lineitemdomain.ErrMissingDescription,
	materialdomain.ErrInvalidID,
	materialdomain.ErrInvalidMaterialNumber,
	materialdomain.ErrInvalidDescription,
	materialdomain.ErrInvalidCategory,
	materialdomain.ErrInvalidGST,
	materialdomain.ErrInvalidPrice,
	materialdomain.ErrInvalidLevel,
	inquirydomain.ErrInvalidID,
	inquirydomain.ErrInvalidStatus,
	templatedomain.ErrInvalidID,
	templatedomain.ErrInvalidName,
	templatedomain.ErrInvalidStateCode,
}

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

// classifyErrorForLog feeds the request logger the same type and code the
// client receives.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
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

	var fieldErr *validation.Error
	if errors.As(err, &fieldErr) {
		out := make([]ValidationError, 0, len(fieldErr.Fields))
		for _, f := range fieldErr.Fields {
			out = append(out, ValidationError{Field: f.Field, Code: f.Code, Message: f.Message})
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  out,
		}
	}

	if code, ok := validationErrorCode(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code, err),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, materialdomain.ErrDuplicateMaterial),
		errors.Is(err, lineitemdomain.ErrAmbiguousMatch),
		errors.Is(err, lineitemdomain.ErrDuplicateRow),
		errors.Is(err, lineitemdomain.ErrStaleResolution):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, lineitemdomain.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, materialdomain.ErrNotFound),
		errors.Is(err, inquirydomain.ErrNotFound),
		errors.Is(err, templatedomain.ErrNotFound),
		errors.Is(err, lineitemdomain.ErrResolutionNotFound),
		errors.Is(err, lineitemdomain.ErrRowNotFound),
		errors.Is(err, lineitemdomain.ErrDraftNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, materialdomain.ErrDuplicateMaterial):
		return "material number already exists"
	case errors.Is(err, lineitemdomain.ErrAmbiguousMatch):
		return "material number matches more than one catalog entry"
	case errors.Is(err, lineitemdomain.ErrDuplicateRow):
		return "row id already exists in the draft"
	case errors.Is(err, lineitemdomain.ErrStaleResolution):
		return "a newer material number was entered for this row"
	default:
		return "conflict"
	}
}

func validationErrorCode(err error) (string, bool) {
	for _, sentinel := range validationSentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error(), true
		}
	}
	return "", false
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "negative_total":
		return "items"
	}
	return strings.TrimPrefix(code, "invalid_")
}

func validationErrorMessage(code string, err error) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "negative_total":
		// err carries the line number.
		return err.Error()
	}
	if msg := err.Error(); msg != code {
		return msg
	}
	return "invalid value"
}
