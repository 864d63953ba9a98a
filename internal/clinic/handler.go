package clinic

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicd/pkg/pagination"
)

// Handler exposes the clinical data store over HTTP. Input validation
// happens here before the store is touched; the store itself does not
// re-validate. The patientName snapshot on dependent records is resolved
// from the live patient list at creation time, mirroring the form flow
// where staff pick a patient from that list.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients", h.CreatePatient)
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/recent", h.RecentPatients)
	api.GET("/patients/:id", h.GetPatient)
	api.PUT("/patients/:id", h.UpdatePatient)
	api.DELETE("/patients/:id", h.DeletePatient)

	api.POST("/treatments", h.CreateTreatment)
	api.GET("/treatments", h.ListTreatments)
	api.PUT("/treatments/:id", h.UpdateTreatment)
	api.DELETE("/treatments/:id", h.DeleteTreatment)

	api.POST("/medical-records", h.CreateMedicalRecord)
	api.GET("/medical-records", h.ListMedicalRecords)
	api.PUT("/medical-records/:id", h.UpdateMedicalRecord)
	api.DELETE("/medical-records/:id", h.DeleteMedicalRecord)

	api.POST("/surgical-cases", h.CreateSurgicalCase)
	api.GET("/surgical-cases", h.ListSurgicalCases)
	api.PUT("/surgical-cases/:id", h.UpdateSurgicalCase)
	api.DELETE("/surgical-cases/:id", h.DeleteSurgicalCase)

	api.POST("/appointments", h.CreateAppointment)
	api.GET("/appointments", h.ListAppointments)
	api.PUT("/appointments/:id", h.UpdateAppointment)
	api.DELETE("/appointments/:id", h.DeleteAppointment)

	api.POST("/admin/reset", h.Reset)
}

// -- Patients --

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var msgs []string
	if strings.TrimSpace(p.Name) == "" {
		msgs = append(msgs, "name is required")
	}
	if p.Age == "" {
		msgs = append(msgs, "age is required")
	} else if n, err := strconv.Atoi(p.Age); err != nil || n <= 0 {
		msgs = append(msgs, "age must be a positive number")
	}
	if strings.TrimSpace(p.Phone) == "" {
		msgs = append(msgs, "phone is required")
	}
	if len(msgs) > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, strings.Join(msgs, "; "))
	}
	created := h.store.AddPatient(p)
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListPatients(c echo.Context) error {
	patients := h.store.Patients()
	if q := c.QueryParam("q"); q != "" {
		filtered := patients[:0]
		for _, p := range patients {
			if containsFold(p.Name, q) || containsFold(p.Diagnosis, q) || strings.Contains(p.Phone, q) {
				filtered = append(filtered, p)
			}
		}
		patients = filtered
	}
	return listResponse(c, patients)
}

func (h *Handler) RecentPatients(c echo.Context) error {
	days := 30
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be a non-negative number")
		}
		days = n
	}
	recent := h.store.RecentPatients(days)
	if recent == nil {
		recent = []Patient{}
	}
	return c.JSON(http.StatusOK, recent)
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, ok := h.store.PatientByID(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	var upd PatientUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if upd.Age != nil {
		if n, err := strconv.Atoi(*upd.Age); err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "age must be a positive number")
		}
	}
	h.store.UpdatePatient(c.Param("id"), upd)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	h.store.DeletePatient(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

// -- Treatments --

func (h *Handler) CreateTreatment(c echo.Context) error {
	var t Treatment
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(t.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	patient, err := h.resolvePatient(t.PatientID)
	if err != nil {
		return err
	}
	t.PatientName = patient.Name
	created := h.store.AddTreatment(t)
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListTreatments(c echo.Context) error {
	treatments := h.store.Treatments()
	if q := c.QueryParam("q"); q != "" {
		filtered := treatments[:0]
		for _, t := range treatments {
			if containsFold(t.PatientName, q) || containsFold(t.Name, q) || containsFold(t.Description, q) {
				filtered = append(filtered, t)
			}
		}
		treatments = filtered
	}
	return listResponse(c, treatments)
}

func (h *Handler) UpdateTreatment(c echo.Context) error {
	var upd TreatmentUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.store.UpdateTreatment(c.Param("id"), upd)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteTreatment(c echo.Context) error {
	h.store.DeleteTreatment(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

// -- Medical records --

func (h *Handler) CreateMedicalRecord(c echo.Context) error {
	var r MedicalRecord
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(r.Diagnosis) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "diagnosis is required")
	}
	patient, err := h.resolvePatient(r.PatientID)
	if err != nil {
		return err
	}
	r.PatientName = patient.Name
	created := h.store.AddMedicalRecord(r)
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListMedicalRecords(c echo.Context) error {
	records := h.store.MedicalRecords()
	if q := c.QueryParam("q"); q != "" {
		filtered := records[:0]
		for _, r := range records {
			if containsFold(r.PatientName, q) || containsFold(r.Diagnosis, q) || containsFold(r.Notes, q) {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	return listResponse(c, records)
}

func (h *Handler) UpdateMedicalRecord(c echo.Context) error {
	var upd MedicalRecordUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.store.UpdateMedicalRecord(c.Param("id"), upd)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteMedicalRecord(c echo.Context) error {
	h.store.DeleteMedicalRecord(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

// -- Surgical cases --

func (h *Handler) CreateSurgicalCase(c echo.Context) error {
	var sc SurgicalCase
	if err := c.Bind(&sc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var msgs []string
	if strings.TrimSpace(sc.SurgeryType) == "" {
		msgs = append(msgs, "surgeryType is required")
	}
	if sc.Date == "" {
		msgs = append(msgs, "date is required")
	}
	if sc.Status == "" {
		sc.Status = SurgeryScheduled
	} else if !ValidSurgeryStatus(sc.Status) {
		msgs = append(msgs, "status must be scheduled, completed, or cancelled")
	}
	if len(msgs) > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, strings.Join(msgs, "; "))
	}
	patient, err := h.resolvePatient(sc.PatientID)
	if err != nil {
		return err
	}
	sc.PatientName = patient.Name
	created := h.store.AddSurgicalCase(sc)
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListSurgicalCases(c echo.Context) error {
	cases := h.store.SurgicalCases()
	if q := c.QueryParam("q"); q != "" {
		filtered := cases[:0]
		for _, sc := range cases {
			if containsFold(sc.PatientName, q) || containsFold(sc.SurgeryType, q) || containsFold(sc.Status, q) {
				filtered = append(filtered, sc)
			}
		}
		cases = filtered
	}
	return listResponse(c, cases)
}

func (h *Handler) UpdateSurgicalCase(c echo.Context) error {
	var upd SurgicalCaseUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if upd.Status != nil && !ValidSurgeryStatus(*upd.Status) {
		return echo.NewHTTPError(http.StatusBadRequest, "status must be scheduled, completed, or cancelled")
	}
	h.store.UpdateSurgicalCase(c.Param("id"), upd)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteSurgicalCase(c echo.Context) error {
	h.store.DeleteSurgicalCase(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

// -- Appointments --

func (h *Handler) CreateAppointment(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var msgs []string
	if a.Date == "" {
		msgs = append(msgs, "date is required")
	}
	if a.Time == "" {
		msgs = append(msgs, "time is required")
	}
	if a.Status == "" {
		a.Status = AppointmentUpcoming
	} else if !ValidAppointmentStatus(a.Status) {
		msgs = append(msgs, "status must be upcoming, completed, or cancelled")
	}
	if len(msgs) > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, strings.Join(msgs, "; "))
	}
	patient, err := h.resolvePatient(a.PatientID)
	if err != nil {
		return err
	}
	a.PatientName = patient.Name
	if a.Phone == "" {
		a.Phone = patient.Phone
	}
	created := h.store.AddAppointment(a)
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	appts := h.store.Appointments()
	if q := c.QueryParam("q"); q != "" {
		filtered := appts[:0]
		for _, a := range appts {
			if containsFold(a.PatientName, q) || containsFold(a.Diagnosis, q) ||
				strings.Contains(a.Date, q) || containsFold(a.Status, q) {
				filtered = append(filtered, a)
			}
		}
		appts = filtered
	}
	return listResponse(c, appts)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	var upd AppointmentUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if upd.Status != nil && !ValidAppointmentStatus(*upd.Status) {
		return echo.NewHTTPError(http.StatusBadRequest, "status must be upcoming, completed, or cancelled")
	}
	h.store.UpdateAppointment(c.Param("id"), upd)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	h.store.DeleteAppointment(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

// Reset wipes all five collections. Irreversible.
func (h *Handler) Reset(c echo.Context) error {
	h.store.ClearAll()
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) resolvePatient(patientID string) (Patient, error) {
	if patientID == "" {
		return Patient{}, echo.NewHTTPError(http.StatusBadRequest, "patientId is required")
	}
	patient, ok := h.store.PatientByID(patientID)
	if !ok {
		return Patient{}, echo.NewHTTPError(http.StatusBadRequest, "patientId does not reference an existing patient")
	}
	return patient, nil
}

func listResponse[T any](c echo.Context, items []T) error {
	pg := pagination.FromContext(c)
	lo, hi := pg.Window(len(items))
	return c.JSON(http.StatusOK, pagination.NewResponse(items[lo:hi], len(items), pg))
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
