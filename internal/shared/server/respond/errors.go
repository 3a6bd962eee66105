package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/shared/apperr"
	"jobtracker/internal/shared/telemetry"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// Failure maps a classified error onto a status and code. Not-found and validation
// failures expose their message; storage and configuration failures do not.
func Failure(c *gin.Context, err error) {
	status, code, message := Classify(err)
	var details any
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		details = publicDetails(appErr)
	}
	Error(c, status, code, message, details)
}

// Classify returns the HTTP status, error code and client-facing message for err.
func Classify(err error) (int, string, string) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound, "not_found", messageOf(err)
	case apperr.KindValidation:
		return http.StatusBadRequest, "validation_error", messageOf(err)
	case apperr.KindConfiguration:
		return http.StatusInternalServerError, "configuration_error", "service is not configured"
	default:
		return http.StatusServiceUnavailable, "storage_unavailable", "storage is unavailable"
	}
}

func messageOf(err error) string {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}

func publicDetails(e *apperr.Error) any {
	switch e.Kind {
	case apperr.KindNotFound, apperr.KindValidation:
	default:
		return nil
	}
	if fields := mergedContext(e); len(fields) > 0 {
		return fields
	}
	return nil
}

// mergedContext collects context fields down the wrap chain; outer layers win.
func mergedContext(err error) map[string]any {
	out := map[string]any{}
	for err != nil {
		var e *apperr.Error
		if !errors.As(err, &e) {
			break
		}
		for k, v := range e.Context {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
		err = e.Err
	}
	return out
}
