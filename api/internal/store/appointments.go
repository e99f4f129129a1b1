package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"hospital-portal/api/internal/report"
)

var (
	ErrSlotTaken      = errors.New("time slot already booked")
	ErrInvalidBooking = errors.New("invalid booking")
)

// AppointmentHeader is written when a booking lands on an empty sheet.
var AppointmentHeader = []string{"Timestamp", "Name", "Email", "Appointment Type", "Date", "Time"}

const (
	BookingDateLayout = "2006-01-02"
	BookingTimeLayout = "15:04"
)

// Appointment is one booking row from the intake form sheet.
type Appointment struct {
	Timestamp       string `json:"timestamp"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	AppointmentType string `json:"appointmentType"`
	Date            string `json:"date"`
	Time            string `json:"time"`
}

type AppointmentReader struct {
	table Table
}

func NewAppointmentReader(t Table) *AppointmentReader {
	return &AppointmentReader{table: t}
}

// List maps rows by header name. Missing columns come back empty.
func (r *AppointmentReader) List(ctx context.Context) ([]Appointment, error) {
	rows, err := r.table.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return parseAppointments(rows), nil
}

func parseAppointments(rows [][]string) []Appointment {
	out := []Appointment{}
	if len(rows) == 0 {
		return out
	}

	header := rows[0]
	idx := func(col string) int {
		for i, h := range header {
			if strings.ToLower(strings.TrimSpace(h)) == col {
				return i
			}
		}
		return -1
	}
	typeIdx := -1
	for i, h := range header {
		if strings.Contains(strings.ToLower(h), "appointment") {
			typeIdx = i
			break
		}
	}
	ts, name, email, date, tm := idx("timestamp"), idx("name"), idx("email"), idx("date"), idx("time")

	for _, row := range rows[1:] {
		at := func(i int) string {
			if i < 0 || i >= len(row) {
				return ""
			}
			return row[i]
		}
		out = append(out, Appointment{
			Timestamp:       at(ts),
			Name:            at(name),
			Email:           at(email),
			AppointmentType: at(typeIdx),
			Date:            at(date),
			Time:            at(tm),
		})
	}
	return out
}

// Available reports whether no stored booking has the same date and time.
func (r *AppointmentReader) Available(ctx context.Context, date, tm string) (bool, error) {
	list, err := r.List(ctx)
	if err != nil {
		return false, err
	}
	return slotFree(list, date, tm), nil
}

func slotFree(list []Appointment, date, tm string) bool {
	date, tm = strings.TrimSpace(date), strings.TrimSpace(tm)
	for _, a := range list {
		if strings.TrimSpace(a.Date) == date && strings.TrimSpace(a.Time) == tm {
			return false
		}
	}
	return true
}

// AppointmentWriter books slots on the same sheet it reads from.
type AppointmentWriter struct {
	*AppointmentReader

	mu  sync.Mutex
	now func() time.Time
}

func NewAppointmentWriter(t Table) *AppointmentWriter {
	return &AppointmentWriter{AppointmentReader: NewAppointmentReader(t), now: time.Now}
}

// Book re-checks the slot and appends
// [timestamp, name, email, type, date, time]. Bookings made by other
// processes between the check and the append are not detected.
func (w *AppointmentWriter) Book(ctx context.Context, a Appointment) (Appointment, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.TrimSpace(a.Email)
	a.AppointmentType = strings.TrimSpace(a.AppointmentType)
	a.Date = strings.TrimSpace(a.Date)
	a.Time = strings.TrimSpace(a.Time)
	if err := checkBooking(a); err != nil {
		return Appointment{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.table.Rows(ctx)
	if err != nil {
		return Appointment{}, fmt.Errorf("read bookings: %w", err)
	}
	if len(rows) == 0 {
		if err := w.table.WriteHeader(ctx, AppointmentHeader); err != nil {
			return Appointment{}, fmt.Errorf("write bookings header: %w", err)
		}
	} else if !slotFree(parseAppointments(rows), a.Date, a.Time) {
		return Appointment{}, ErrSlotTaken
	}

	a.Timestamp = w.now().Local().Format(report.RecordTimeLayout)
	row := []string{a.Timestamp, a.Name, a.Email, a.AppointmentType, a.Date, a.Time}
	if err := w.table.Append(ctx, row); err != nil {
		return Appointment{}, fmt.Errorf("append booking: %w", err)
	}
	return a, nil
}

func checkBooking(a Appointment) error {
	switch {
	case a.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidBooking)
	case !strings.Contains(a.Email, "@"):
		return fmt.Errorf("%w: email is required", ErrInvalidBooking)
	}
	if _, err := time.Parse(BookingDateLayout, a.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidBooking)
	}
	if _, err := time.Parse(BookingTimeLayout, a.Time); err != nil {
		return fmt.Errorf("%w: time must be HH:MM", ErrInvalidBooking)
	}
	return nil
}
