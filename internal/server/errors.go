package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/paperlane/paperlane/internal/auth/domain"
	batchdomain "github.com/paperlane/paperlane/internal/batch/domain"
	ledgerdomain "github.com/paperlane/paperlane/internal/ledger/domain"
	usagedomain "github.com/paperlane/paperlane/internal/usage/domain"
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
	Type      string                  `json:"type"`
	Message   string                  `json:"message"`
	Errors    []ValidationError       `json:"errors,omitempty"`
	Breakdown *creditBreakdownPayload `json:"breakdown,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// creditBreakdownPayload renders credits as floats for clients.
type creditBreakdownPayload struct {
	PagesRequested     int     `json:"pagesRequested"`
	FreePagesRemaining int     `json:"freePagesRemaining"`
	PayablePages       int     `json:"payablePages"`
	RequiredCredits    float64 `json:"requiredCredits"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
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
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	var insufficient *ledgerdomain.InsufficientCreditsError
	if errors.As(err, &insufficient) {
		bd := insufficient.Breakdown
		return http.StatusPaymentRequired, errorPayload{
			Type:    "insufficient_credits",
			Message: "insufficient credits for requested pages",
			Breakdown: &creditBreakdownPayload{
				PagesRequested:     bd.PagesRequested,
				FreePagesRemaining: bd.FreePagesRemaining,
				PayablePages:       bd.PayablePages,
				RequiredCredits:    bd.RequiredCredits.Float64(),
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ledgerdomain.ErrStoreUnavailable):
		// Never leak store internals to the client.
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

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, batchdomain.ErrInvalidName),
		errors.Is(err, batchdomain.ErrNoFiles),
		errors.Is(err, batchdomain.ErrTooManyFiles),
		errors.Is(err, batchdomain.ErrInvalidPriority),
		errors.Is(err, batchdomain.ErrInvalidMergeFormat),
		errors.Is(err, batchdomain.ErrInvalidFileName),
		errors.Is(err, batchdomain.ErrInvalidFileType),
		errors.Is(err, batchdomain.ErrFileTooLarge),
		errors.Is(err, ledgerdomain.ErrInvalidUser),
		errors.Is(err, ledgerdomain.ErrInvalidPages),
		errors.Is(err, ledgerdomain.ErrInvalidAmount),
		errors.Is(err, usagedomain.ErrInvalidUser):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ledgerdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	switch code {
	case "too_many_files":
		return "files"
	case "file_too_large":
		return "files"
	default:
		return ""
	}
}
