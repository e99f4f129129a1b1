package handle

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"hospital-portal/api/internal/report"
)

// ImageField is the multipart field carrying the report image.
const ImageField = "image"

// AnalyzeLabReport handles POST /api/lab-report and POST /analyze.
func (h *Handle) AnalyzeLabReport(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-store")

	img, err := readUpload(c, ImageField)
	if err != nil {
		return err
	}

	env, err := h.deps.Pipeline.Run(c.Request().Context(), img, c.FormValue("llm_name"))
	if err != nil {
		apiErr := fromReportError(err)
		if apiErr.Status >= http.StatusInternalServerError {
			h.log.WithError(err).WithField("kind", report.KindOf(err)).Error("lab report failed")
		}
		return apiErr
	}
	return c.JSON(http.StatusOK, env)
}

// readUpload returns nil when no usable file was sent; the validator turns
// that into MissingInput. Oversized files are not read into memory.
func readUpload(c echo.Context, field string) (*report.UploadedImage, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return nil, httpErr
		}
		return nil, nil
	}
	if fh == nil || strings.TrimSpace(fh.Filename) == "" || fh.Size == 0 {
		return nil, nil
	}

	img := &report.UploadedImage{
		Filename: fh.Filename,
		MIMEType: fh.Header.Get(echo.HeaderContentType),
		Size:     fh.Size,
	}
	if fh.Size > report.MaxImageBytes || !report.AllowedMIME(img.MIMEType) {
		return img, nil
	}
	data, err := readAll(fh, report.MaxImageBytes+1)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	img.Data = data
	return img, nil
}

func readAll(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit))
}
