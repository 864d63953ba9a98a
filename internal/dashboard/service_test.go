package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicd/internal/clinic"
	"github.com/clinicdesk/clinicd/internal/platform/kv"
)

var today = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

func newTestService() (*Service, *clinic.Store) {
	store := clinic.NewStore(kv.NewMemoryStore(), zerolog.Nop(),
		clinic.WithClock(func() time.Time { return today }))
	return NewService(store), store
}

func TestSummary_TotalsAndChart(t *testing.T) {
	svc, store := newTestService()
	p := store.AddPatient(clinic.Patient{Name: "Huda", Age: "52", Phone: "0100"})
	store.AddTreatment(clinic.Treatment{PatientID: p.ID, Name: "physio"})
	store.AddTreatment(clinic.Treatment{PatientID: p.ID, Name: "meds"})
	store.AddSurgicalCase(clinic.SurgicalCase{PatientID: p.ID, SurgeryType: "arthroscopy", Status: clinic.SurgeryScheduled})

	sum := svc.Summary()
	want := Totals{Patients: 1, Treatments: 2, Appointments: 0, SurgicalCases: 1}
	if sum.Totals != want {
		t.Errorf("totals: got %+v, want %+v", sum.Totals, want)
	}
	if sum.RecentPatients != 1 {
		t.Errorf("expected 1 recent patient, got %d", sum.RecentPatients)
	}
	wantCounts := []int{1, 2, 0, 1}
	if len(sum.Chart.Labels) != 4 || len(sum.Chart.Counts) != 4 {
		t.Fatalf("unexpected chart shape %+v", sum.Chart)
	}
	for i, n := range wantCounts {
		if sum.Chart.Counts[i] != n {
			t.Errorf("chart count[%d] (%s): got %d, want %d", i, sum.Chart.Labels[i], sum.Chart.Counts[i], n)
		}
	}
}

func TestSummary_UpcomingSortedAndCapped(t *testing.T) {
	svc, store := newTestService()
	p := store.AddPatient(clinic.Patient{Name: "Huda", Age: "52", Phone: "0100"})

	dates := []string{"2025-06-25", "2025-06-18", "2025-06-30", "2025-06-16", "2025-06-22", "2025-06-20", "2025-06-17"}
	for _, d := range dates {
		store.AddAppointment(clinic.Appointment{PatientID: p.ID, Date: d, Time: "10:00", Status: clinic.AppointmentUpcoming})
	}
	// Completed and cancelled never show up.
	store.AddAppointment(clinic.Appointment{PatientID: p.ID, Date: "2025-06-15", Time: "09:00", Status: clinic.AppointmentCompleted})
	store.AddAppointment(clinic.Appointment{PatientID: p.ID, Date: "2025-06-15", Time: "09:30", Status: clinic.AppointmentCancelled})

	up := svc.Summary().Upcoming
	if len(up) != 5 {
		t.Fatalf("expected 5 upcoming, got %d", len(up))
	}
	wantOrder := []string{"2025-06-16", "2025-06-17", "2025-06-18", "2025-06-20", "2025-06-22"}
	for i, d := range wantOrder {
		if up[i].Date != d {
			t.Errorf("upcoming[%d]: got %s, want %s", i, up[i].Date, d)
		}
	}
}

func TestSummary_EmptyStore(t *testing.T) {
	svc, _ := newTestService()
	sum := svc.Summary()
	if sum.Totals != (Totals{}) {
		t.Errorf("expected zero totals, got %+v", sum.Totals)
	}
	if sum.Upcoming == nil || len(sum.Upcoming) != 0 {
		t.Errorf("expected empty (non-nil) upcoming list, got %#v", sum.Upcoming)
	}
}

func TestHandler_GetSummary(t *testing.T) {
	svc, store := newTestService()
	store.AddPatient(clinic.Patient{Name: "Huda", Age: "52", Phone: "0100"})
	h := NewHandler(svc)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	rec := httptest.NewRecorder()
	if err := h.GetSummary(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var sum Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.Totals.Patients != 1 {
		t.Errorf("unexpected payload %+v", sum)
	}
}
