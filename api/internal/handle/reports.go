package handle

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"hospital-portal/api/internal/report"
	"hospital-portal/api/internal/store"
)

type storedReport struct {
	report.ReportRecord
	Parameters  []report.Parameter `json:"parameters"`
	HasConcerns bool               `json:"has_concerns"`
}

type reportsResponse struct {
	Success  bool                          `json:"success"`
	ID       string                        `json:"id"`
	Reports  []storedReport                `json:"reports"`
	Analysis *report.MedicalReportAnalysis `json:"analysis,omitempty"`
}

// GetLabReport handles GET /api/lab-report/:id.
func (h *Handle) GetLabReport(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return newAPIError(http.StatusBadRequest, "Missing report id", "Provide the report id from the upload response")
	}
	ctx := c.Request().Context()

	recs, err := h.deps.Reports.Lookup(ctx, id)
	if err != nil {
		h.log.WithError(err).WithField("report_id", id).Error("report lookup failed")
		return newAPIError(http.StatusBadGateway, "Failed to read reports", err.Error())
	}

	out := reportsResponse{Success: true, ID: id, Reports: make([]storedReport, 0, len(recs))}
	for _, r := range recs {
		out.Reports = append(out.Reports, storedReport{ReportRecord: r, Parameters: r.Parameters(), HasConcerns: r.HasConcerns()})
	}

	if h.deps.Archive != nil {
		a, err := h.deps.Archive.FindByID(ctx, id)
		switch {
		case err == nil:
			out.Analysis = &a.Analysis
		case !errors.Is(err, store.ErrNotFound):
			h.log.WithError(err).WithField("report_id", id).Warn("archive lookup failed")
		}
	}

	if len(out.Reports) == 0 && out.Analysis == nil {
		return newAPIError(http.StatusNotFound, "Report not found", fmt.Sprintf("No reports for ID %s", id))
	}
	return c.JSON(http.StatusOK, out)
}
