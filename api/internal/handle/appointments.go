package handle

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"hospital-portal/api/internal/store"
)

// ListAppointments handles GET /api/appointments. Failures are plain text.
func (h *Handle) ListAppointments(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-store")
	if h.deps.Bookings == nil {
		return c.String(http.StatusInternalServerError, "GOOGLE_SHEET_ID is not defined")
	}
	list, err := h.deps.Bookings.List(c.Request().Context())
	if err != nil {
		h.log.WithError(err).Error("GET /api/appointments failed")
		return c.String(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, list)
}

type availabilityResponse struct {
	Available bool   `json:"available"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Message   string `json:"message"`
}

// CheckAvailability handles GET /api/appointments/availability?date=YYYY-MM-DD&time=HH:MM.
func (h *Handle) CheckAvailability(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-store")
	if h.deps.Booker == nil {
		return newAPIError(http.StatusInternalServerError, "Configuration error", "GOOGLE_SHEET_ID is not defined")
	}
	date, tm := strings.TrimSpace(c.QueryParam("date")), strings.TrimSpace(c.QueryParam("time"))
	if date == "" || tm == "" {
		return newAPIError(http.StatusBadRequest, "Invalid request", "date and time are required")
	}

	ok, err := h.deps.Booker.Available(c.Request().Context(), date, tm)
	if err != nil {
		h.log.WithError(err).Error("availability check failed")
		return newAPIError(http.StatusBadGateway, "Appointments unavailable", err.Error())
	}
	msg := fmt.Sprintf("The time slot on %s at %s is available for booking.", date, tm)
	if !ok {
		msg = fmt.Sprintf("The time slot on %s at %s is already booked. Please choose a different date or time.", date, tm)
	}
	return c.JSON(http.StatusOK, availabilityResponse{Available: ok, Date: date, Time: tm, Message: msg})
}

type bookingRequest struct {
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	AppointmentType string `json:"appointmentType" form:"appointmentType"`
	Date            string `json:"date" form:"date"`
	Time            string `json:"time" form:"time"`
}

type bookingResponse struct {
	Success     bool              `json:"success"`
	Appointment store.Appointment `json:"appointment"`
	Message     string            `json:"message"`
}

// BookAppointment handles POST /api/appointments (JSON or form).
func (h *Handle) BookAppointment(c echo.Context) error {
	if h.deps.Booker == nil {
		return newAPIError(http.StatusInternalServerError, "Configuration error", "GOOGLE_SHEET_ID is not defined")
	}
	var req bookingRequest
	if err := c.Bind(&req); err != nil {
		return newAPIError(http.StatusBadRequest, "Invalid request", "Send name, email, appointmentType, date and time")
	}

	a, err := h.deps.Booker.Book(c.Request().Context(), store.Appointment{
		Name:            req.Name,
		Email:           req.Email,
		AppointmentType: req.AppointmentType,
		Date:            req.Date,
		Time:            req.Time,
	})
	switch {
	case errors.Is(err, store.ErrInvalidBooking):
		return newAPIError(http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, store.ErrSlotTaken):
		return newAPIError(http.StatusConflict, "Slot unavailable", "This time slot was just booked by someone else. Please choose a different time.")
	case err != nil:
		h.log.WithError(err).Error("booking failed")
		return newAPIError(http.StatusBadGateway, "Appointments unavailable", err.Error())
	}

	h.log.WithFields(logrus.Fields{"date": a.Date, "time": a.Time}).Info("appointment booked")
	return c.JSON(http.StatusCreated, bookingResponse{
		Success:     true,
		Appointment: a,
		Message:     fmt.Sprintf("Appointment booked for %s on %s at %s.", a.Name, a.Date, a.Time),
	})
}
