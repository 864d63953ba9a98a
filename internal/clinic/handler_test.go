package clinic

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicd/internal/platform/kv"
)

func newTestHandler() (*Handler, *Store, *echo.Echo) {
	store := newTestStore(kv.NewMemoryStore())
	return NewHandler(store), store, echo.New()
}

func jsonRequest(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_CreatePatient(t *testing.T) {
	h, store, e := newTestHandler()
	c, rec := jsonRequest(e, http.MethodPost, "/api/v1/patients", `{"name":"Huda","age":"52","phone":"0100","diagnosis":"knee pain"}`)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var p Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.ID == "" || p.DateAdded == "" {
		t.Errorf("expected assigned id and dateAdded, got %+v", p)
	}
	if len(store.Patients()) != 1 {
		t.Error("expected patient stored")
	}
}

func TestHandler_CreatePatient_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"age":"52","phone":"0100"}`},
		{"missing phone", `{"name":"Huda","age":"52"}`},
		{"non-numeric age", `{"name":"Huda","age":"old","phone":"0100"}`},
		{"zero age", `{"name":"Huda","age":"0","phone":"0100"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, store, e := newTestHandler()
			c, _ := jsonRequest(e, http.MethodPost, "/api/v1/patients", tc.body)
			err := h.CreatePatient(c)
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %v", err)
			}
			if len(store.Patients()) != 0 {
				t.Error("store must not be touched on validation failure")
			}
		})
	}
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h, _, e := newTestHandler()
	c, _ := jsonRequest(e, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("missing")

	err := h.GetPatient(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_ListPatients_Search(t *testing.T) {
	h, store, e := newTestHandler()
	store.AddPatient(Patient{Name: "Huda", Age: "52", Phone: "0100", Diagnosis: "knee pain"})
	store.AddPatient(Patient{Name: "Omar", Age: "30", Phone: "0122", Diagnosis: "back pain"})
	store.AddPatient(Patient{Name: "Mona", Age: "41", Phone: "0155", Diagnosis: "migraine"})

	c, rec := jsonRequest(e, http.MethodGet, "/api/v1/patients?q=pain", "")
	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data  []Patient `json:"data"`
		Total int       `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.Data) != 2 {
		t.Errorf("expected 2 matches, got total=%d data=%d", resp.Total, len(resp.Data))
	}
}

func TestHandler_ListPatients_Pagination(t *testing.T) {
	h, store, e := newTestHandler()
	for i := 0; i < 5; i++ {
		store.AddPatient(Patient{Name: "p", Age: "30", Phone: "0100"})
	}
	c, rec := jsonRequest(e, http.MethodGet, "/api/v1/patients?limit=2&offset=4", "")
	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data    []Patient `json:"data"`
		Total   int       `json:"total"`
		HasMore bool      `json:"has_more"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 5 || len(resp.Data) != 1 || resp.HasMore {
		t.Errorf("unexpected page %+v", resp)
	}
}

func TestHandler_RecentPatients_BadDays(t *testing.T) {
	h, _, e := newTestHandler()
	c, _ := jsonRequest(e, http.MethodGet, "/api/v1/patients/recent?days=soon", "")
	if err := h.RecentPatients(c); err == nil {
		t.Error("expected error for non-numeric days")
	}
}

func TestHandler_CreateTreatment_ResolvesSnapshot(t *testing.T) {
	h, store, e := newTestHandler()
	p := store.AddPatient(Patient{Name: "Huda", Age: "52", Phone: "0100"})

	c, rec := jsonRequest(e, http.MethodPost, "/api/v1/treatments",
		`{"patientId":"`+p.ID+`","patientName":"spoofed","name":"physio","description":"weekly"}`)
	if err := h.CreateTreatment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var tr Treatment
	json.Unmarshal(rec.Body.Bytes(), &tr)
	if tr.PatientName != "Huda" {
		t.Errorf("snapshot must come from the live patient, got %q", tr.PatientName)
	}
	if tr.Date == "" {
		t.Error("expected stamped date")
	}
}

func TestHandler_CreateTreatment_UnknownPatient(t *testing.T) {
	h, _, e := newTestHandler()
	c, _ := jsonRequest(e, http.MethodPost, "/api/v1/treatments", `{"patientId":"ghost","name":"physio"}`)
	err := h.CreateTreatment(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_CreateSurgicalCase_DefaultsAndValidation(t *testing.T) {
	h, store, e := newTestHandler()
	p := store.AddPatient(Patient{Name: "Huda", Age: "52", Phone: "0100"})

	c, rec := jsonRequest(e, http.MethodPost, "/api/v1/surgical-cases",
		`{"patientId":"`+p.ID+`","surgeryType":"arthroscopy","date":"2025-07-01"}`)
	if err := h.CreateSurgicalCase(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sc SurgicalCase
	json.Unmarshal(rec.Body.Bytes(), &sc)
	if sc.Status != SurgeryScheduled {
		t.Errorf("expected default status scheduled, got %q", sc.Status)
	}

	c, _ = jsonRequest(e, http.MethodPost, "/api/v1/surgical-cases",
		`{"patientId":"`+p.ID+`","surgeryType":"arthroscopy","date":"2025-07-01","status":"postponed"}`)
	if err := h.CreateSurgicalCase(c); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestHandler_CreateAppointment_SnapshotsPhone(t *testing.T) {
	h, store, e := newTestHandler()
	p := store.AddPatient(Patient{Name: "Huda", Age: "52", Phone: "0100"})

	c, rec := jsonRequest(e, http.MethodPost, "/api/v1/appointments",
		`{"patientId":"`+p.ID+`","date":"2025-06-20","time":"10:00"}`)
	if err := h.CreateAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var a Appointment
	json.Unmarshal(rec.Body.Bytes(), &a)
	if a.Phone != "0100" {
		t.Errorf("expected phone snapshotted from patient, got %q", a.Phone)
	}
	if a.Status != AppointmentUpcoming {
		t.Errorf("expected default status upcoming, got %q", a.Status)
	}
}

func TestHandler_UpdateAppointment_PartialMerge(t *testing.T) {
	h, store, e := newTestHandler()
	p := store.AddPatient(Patient{Name: "Huda", Age: "52", Phone: "0100"})
	a := store.AddAppointment(Appointment{PatientID: p.ID, PatientName: p.Name, Date: "2025-06-20", Time: "10:00", Phone: "0100", Status: AppointmentUpcoming})

	c, rec := jsonRequest(e, http.MethodPut, "/", `{"status":"completed"}`)
	c.SetParamNames("id")
	c.SetParamValues(a.ID)
	if err := h.UpdateAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	got := store.Appointments()[0]
	if got.Status != AppointmentCompleted {
		t.Errorf("status not updated: %q", got.Status)
	}
	if got.Date != "2025-06-20" || got.Time != "10:00" || got.Phone != "0100" {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestHandler_DeletePatient_Cascades(t *testing.T) {
	h, store, e := newTestHandler()
	p := seedPatientWithDependents(store)

	c, rec := jsonRequest(e, http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(p.ID)
	if err := h.DeletePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if len(store.Treatments())+len(store.MedicalRecords())+len(store.SurgicalCases())+len(store.Appointments()) != 0 {
		t.Error("dependents survived the cascade")
	}
}

func TestHandler_Reset(t *testing.T) {
	h, store, e := newTestHandler()
	seedPatientWithDependents(store)

	c, rec := jsonRequest(e, http.MethodPost, "/api/v1/admin/reset", "")
	if err := h.Reset(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if len(store.Patients()) != 0 {
		t.Error("expected empty store after reset")
	}
}
