package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"hospital-portal/api/internal/handle"
	"hospital-portal/api/internal/logger"
)

// bodyLimit sits above the 16 MiB image limit so oversize files still reach
// the validator and get the regular "File too large" answer.
const bodyLimit = "17M"

type Options struct {
	CORSOrigins []string
}

// New builds the echo instance with middleware and all routes.
func New(h *handle.Handle, log *logger.Logger, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handle.ErrorHandler

	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.WithComponent("http").WithError(err).WithField("stack", string(stack)).Error("panic recovered")
			return err
		},
	}))
	e.Use(middleware.BodyLimit(bodyLimit))
	if len(opts.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			AllowCredentials: true,
		}))
	}
	e.Use(handle.AuthGate())

	Register(e, h)
	return e
}

func Register(e *echo.Echo, h *handle.Handle) {
	e.GET("/healthz", h.Healthz)
	e.GET("/health", h.Health)

	e.POST("/analyze", h.AnalyzeLabReport)

	api := e.Group("/api")
	api.POST("/lab-report", h.AnalyzeLabReport)
	api.GET("/lab-report/:id", h.GetLabReport)
	api.GET("/appointments", h.ListAppointments)
	api.GET("/appointments/availability", h.CheckAvailability)
	api.POST("/appointments", h.BookAppointment)
	api.POST("/login", h.Login)
	api.GET("/logout", h.Logout)
	api.POST("/logout", h.Logout)

	e.GET("/login", h.LoginPage)
	e.GET("/patient", h.PatientPage)
	e.GET("/hospital", h.HospitalPage)
	e.GET("/hospital/bookings", h.BookingsPage)
}

func requestLogger(log *logger.Logger) echo.MiddlewareFunc {
	entry := log.WithComponent("http")
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/healthz"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
			}
			if v.Error != nil {
				entry.WithFields(fields).WithError(v.Error).Warn("request")
				return nil
			}
			entry.WithFields(fields).Info("request")
			return nil
		},
	})
}

// StartHTTP serves until ctx is cancelled, then shuts down gracefully.
func StartHTTP(ctx context.Context, addr string, e *echo.Echo, log *logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithComponent("http").WithField("addr", addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
