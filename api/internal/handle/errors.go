package handle

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"hospital-portal/api/internal/report"
)

// APIError is the failure body: {success:false, error, message}.
type APIError struct {
	Status  int    `json:"-"`
	Success bool   `json:"success"`
	Code    string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// fromReportError maps pipeline error kinds to the public error codes.
func fromReportError(err error) *APIError {
	switch report.KindOf(err) {
	case report.KindMissingInput:
		return newAPIError(http.StatusBadRequest, "No image file provided", "Please upload an image file")
	case report.KindUnsupportedFormat:
		return newAPIError(http.StatusBadRequest, "Invalid file format", "Please upload PNG/JPG/GIF/WEBP")
	case report.KindPayloadTooLarge:
		return newAPIError(http.StatusBadRequest, "File too large", "Max size 16MB")
	case report.KindUnknownProvider:
		return newAPIError(http.StatusBadRequest, "Invalid provider", errMessage(err))
	case report.KindConfiguration:
		return newAPIError(http.StatusInternalServerError, "Configuration error", errMessage(err))
	default:
		return newAPIError(http.StatusInternalServerError, "Failed to analyze report", errMessage(err))
	}
}

func errMessage(err error) string {
	var re *report.Error
	if errors.As(err, &re) && re.Msg != "" && re.Err == nil {
		return re.Msg
	}
	return err.Error()
}

// ErrorHandler renders every error as an APIError.
// Usage: e.HTTPErrorHandler = handle.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		apiErr  *APIError
		httpErr *echo.HTTPError
	)
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		if httpErr.Code == http.StatusRequestEntityTooLarge {
			apiErr = newAPIError(httpErr.Code, "File too large", "Max size 16MB")
			break
		}
		apiErr = newAPIError(httpErr.Code, http.StatusText(httpErr.Code), fmt.Sprintf("%v", httpErr.Message))
	case report.KindOf(err) != "":
		apiErr = fromReportError(err)
	default:
		apiErr = newAPIError(http.StatusInternalServerError, "Internal error", "An unexpected error occurred")
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apiErr.Status)
		return
	}
	_ = c.JSON(apiErr.Status, apiErr)
}
