// Package dashboard shapes the summary data the clinic landing view
// renders: per-collection totals, the recent-patient count, bar-chart
// data, and the next few upcoming appointments.
package dashboard

import (
	"sort"
	"time"

	"github.com/clinicdesk/clinicd/internal/clinic"
)

const (
	recentWindowDays     = 30
	upcomingAppointments = 5
)

// Totals counts every collection the chart renders.
type Totals struct {
	Patients      int `json:"patients"`
	Treatments    int `json:"treatments"`
	Appointments  int `json:"appointments"`
	SurgicalCases int `json:"surgicalCases"`
}

// ChartData is the bar-chart shape: one label per collection with its
// count at the same index.
type ChartData struct {
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

// Summary is the full dashboard payload.
type Summary struct {
	Totals         Totals               `json:"totals"`
	RecentPatients int                  `json:"recentPatients"`
	Chart          ChartData            `json:"chart"`
	Upcoming       []clinic.Appointment `json:"upcomingAppointments"`
}

// Service aggregates over the clinical data store. It only reads.
type Service struct {
	store *clinic.Store
}

func NewService(store *clinic.Store) *Service {
	return &Service{store: store}
}

// Summary builds the dashboard payload from the current collections.
func (s *Service) Summary() Summary {
	totals := Totals{
		Patients:      len(s.store.Patients()),
		Treatments:    len(s.store.Treatments()),
		Appointments:  len(s.store.Appointments()),
		SurgicalCases: len(s.store.SurgicalCases()),
	}
	return Summary{
		Totals:         totals,
		RecentPatients: len(s.store.RecentPatients(recentWindowDays)),
		Chart: ChartData{
			Labels: []string{"Patients", "Treatments", "Appointments", "Surgeries"},
			Counts: []int{totals.Patients, totals.Treatments, totals.Appointments, totals.SurgicalCases},
		},
		Upcoming: s.upcoming(),
	}
}

// upcoming returns at most five appointments with status upcoming, sorted
// by date ascending. Sorting is a view concern; the store keeps insertion
// order.
func (s *Service) upcoming() []clinic.Appointment {
	var upcoming []clinic.Appointment
	for _, a := range s.store.Appointments() {
		if a.Status == clinic.AppointmentUpcoming {
			upcoming = append(upcoming, a)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return appointmentDate(upcoming[i]).Before(appointmentDate(upcoming[j]))
	})
	if len(upcoming) > upcomingAppointments {
		upcoming = upcoming[:upcomingAppointments]
	}
	if upcoming == nil {
		upcoming = []clinic.Appointment{}
	}
	return upcoming
}

func appointmentDate(a clinic.Appointment) time.Time {
	d, err := time.ParseInLocation("2006-01-02", a.Date, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return d
}
