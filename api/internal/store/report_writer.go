package store

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"hospital-portal/api/internal/logger"
	"hospital-portal/api/internal/report"
)

// ReportWriter appends flattened reports to the reports sheet.
type ReportWriter struct {
	table Table
	log   *logrus.Entry
}

func NewReportWriter(t Table, log *logger.Logger) *ReportWriter {
	return &ReportWriter{table: t, log: log.WithComponent("report_writer")}
}

// Persist makes sure the header is in place and appends one row.
// Failures come back as PersistFailed, never as a panic or error.
// The header check and write are not atomic across writers.
func (w *ReportWriter) Persist(ctx context.Context, rec report.ReportRecord) report.PersistOutcome {
	if err := w.ensureHeader(ctx); err != nil {
		w.log.WithError(err).WithField("report_id", rec.ID).Warn("header write failed")
		return report.PersistError(err)
	}
	if err := w.table.Append(ctx, rec.Row()); err != nil {
		w.log.WithError(err).WithField("report_id", rec.ID).Warn("append failed")
		return report.PersistError(err)
	}
	w.log.WithField("report_id", rec.ID).Info("report row appended")
	return report.PersistOK()
}

func (w *ReportWriter) ensureHeader(ctx context.Context) error {
	h, err := w.table.HeaderRow(ctx, len(report.Header))
	if err != nil {
		// unreadable header: write it anyway and let the write decide
		w.log.WithError(err).Debug("header read failed")
	} else if len(h) > 0 && strings.TrimSpace(h[0]) == "id" {
		return nil
	}
	return w.table.WriteHeader(ctx, report.Header)
}

// Lookup returns every stored record with the given id, in sheet order.
func (w *ReportWriter) Lookup(ctx context.Context, id string) ([]report.ReportRecord, error) {
	rows, err := w.table.Rows(ctx)
	if err != nil {
		return nil, report.Wrap(report.KindPersistence, "read reports", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	header, data := report.Header, rows
	if len(rows[0]) > 0 && strings.TrimSpace(rows[0][0]) == "id" {
		header, data = rows[0], rows[1:]
	}
	id = strings.TrimSpace(id)
	var out []report.ReportRecord
	for _, r := range data {
		rec := report.ParseRecord(header, r)
		if rec.ID == id {
			out = append(out, rec)
		}
	}
	return out, nil
}
