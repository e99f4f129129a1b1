package handle

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type page struct {
	Page  string `json:"page"`
	Title string `json:"title"`
	Links []link `json:"links"`
	Next  string `json:"next,omitempty"`
}

func (h *Handle) LoginPage(c echo.Context) error {
	return c.JSON(http.StatusOK, page{
		Page:  "login",
		Title: "Sign in",
		Links: []link{{Label: "Sign in", Href: "/api/login"}},
		Next:  safeNext(c.QueryParam("next")),
	})
}

func (h *Handle) PatientPage(c echo.Context) error {
	return c.JSON(http.StatusOK, page{
		Page:  "patient",
		Title: "Patient portal",
		Links: []link{
			{Label: "Upload lab report", Href: "/api/lab-report"},
			{Label: "Find my report", Href: "/api/lab-report/{id}"},
			{Label: "Sign out", Href: "/api/logout"},
		},
	})
}

func (h *Handle) HospitalPage(c echo.Context) error {
	return c.JSON(http.StatusOK, page{
		Page:  "hospital",
		Title: "Hospital dashboard",
		Links: []link{
			{Label: "Bookings", Href: "/hospital/bookings"},
			{Label: "Sign out", Href: "/api/logout"},
		},
	})
}

func (h *Handle) BookingsPage(c echo.Context) error {
	return c.JSON(http.StatusOK, page{
		Page:  "bookings",
		Title: "Appointment bookings",
		Links: []link{
			{Label: "Data", Href: "/api/appointments"},
			{Label: "Back", Href: "/hospital"},
		},
	})
}

// Healthz is the plain liveness check.
func (h *Handle) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Health reports which extraction providers have credentials.
func (h *Handle) Health(c echo.Context) error {
	engines := []string{}
	if h.deps.Engines != nil {
		if n := h.deps.Engines.Names(); n != nil {
			engines = n
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "healthy",
		"message": "Medical report analyzer is running",
		"engines": engines,
	})
}
