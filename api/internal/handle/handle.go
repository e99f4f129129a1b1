package handle

import (
	"context"

	"github.com/sirupsen/logrus"

	"hospital-portal/api/internal/config"
	"hospital-portal/api/internal/logger"
	"hospital-portal/api/internal/report"
	"hospital-portal/api/internal/store"
)

type LabReportRunner interface {
	Run(ctx context.Context, img *report.UploadedImage, provider string) (report.Envelope, error)
}

type ReportFinder interface {
	Lookup(ctx context.Context, id string) ([]report.ReportRecord, error)
}

type ArchiveFinder interface {
	FindByID(ctx context.Context, id string) (*store.ArchivedReport, error)
}

type AppointmentLister interface {
	List(ctx context.Context) ([]store.Appointment, error)
}

type AppointmentBooker interface {
	Available(ctx context.Context, date, time string) (bool, error)
	Book(ctx context.Context, a store.Appointment) (store.Appointment, error)
}

type Deps struct {
	Pipeline LabReportRunner
	Reports  ReportFinder
	// Archive, Bookings, Booker and Engines may be nil.
	Archive  ArchiveFinder
	Bookings AppointmentLister
	Booker   AppointmentBooker
	Engines  interface{ Names() []string }

	Patient  config.Credential
	Hospital config.Credential
}

type Handle struct {
	deps Deps
	log  *logrus.Entry
}

func New(d Deps, log *logger.Logger) *Handle {
	return &Handle{deps: d, log: log.WithComponent("http")}
}
