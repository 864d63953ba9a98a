package clinic

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicd/internal/platform/kv"
)

const (
	patientsKey       = "patients"
	treatmentsKey     = "treatments"
	medicalRecordsKey = "medicalRecords"
	surgicalCasesKey  = "surgicalCases"
	appointmentsKey   = "appointments"
)

const dateFormat = "2006-01-02"

// Store holds the five collections in memory and writes each back to the
// key-value medium after every mutation. Collections preserve insertion
// order. Persistence is best-effort: a failed write is logged and the
// in-memory change stands.
type Store struct {
	mu     sync.RWMutex
	kv     kv.Store
	logger zerolog.Logger

	newID func() string
	now   func() time.Time

	patients       []Patient
	treatments     []Treatment
	medicalRecords []MedicalRecord
	surgicalCases  []SurgicalCase
	appointments   []Appointment
}

// Option customizes a Store.
type Option func(*Store)

// WithIDGenerator overrides the record id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithClock overrides the clock used for creation dates and the recency
// filter.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore constructs a clinical data store and loads all five
// collections from the medium. Absent or corrupt collections load as
// empty.
func NewStore(store kv.Store, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		kv:     store,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.patients = loadCollection[Patient](s, patientsKey)
	s.treatments = loadCollection[Treatment](s, treatmentsKey)
	s.medicalRecords = loadCollection[MedicalRecord](s, medicalRecordsKey)
	s.surgicalCases = loadCollection[SurgicalCase](s, surgicalCasesKey)
	s.appointments = loadCollection[Appointment](s, appointmentsKey)
	return s
}

func loadCollection[T any](s *Store, key string) []T {
	data, ok, err := s.kv.Load(key)
	if err != nil {
		s.logger.Warn().Err(err).Str("collection", key).Msg("loading collection, starting empty")
		return nil
	}
	if !ok {
		return nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn().Err(err).Str("collection", key).Msg("corrupt collection, starting empty")
		return nil
	}
	return items
}

func (s *Store) persist(key string, collection any) {
	data, err := json.Marshal(collection)
	if err != nil {
		s.logger.Error().Err(err).Str("collection", key).Msg("encoding collection")
		return
	}
	if err := s.kv.Save(key, data); err != nil {
		s.logger.Warn().Err(err).Str("collection", key).Msg("persisting collection, in-memory state stands")
	}
}

// -- Patients --

// AddPatient appends a new patient. The id and dateAdded are assigned
// here; whatever the caller put in those fields is discarded.
func (s *Store) AddPatient(p Patient) Patient {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.newID()
	p.DateAdded = s.now().Format(dateFormat)
	s.patients = append(s.patients, p)
	s.persist(patientsKey, s.patients)
	return p
}

// UpdatePatient merges the non-nil fields onto the patient with the given
// id. An unknown id is a silent no-op.
func (s *Store) UpdatePatient(id string, upd PatientUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.patients {
		if s.patients[i].ID != id {
			continue
		}
		p := &s.patients[i]
		if upd.Name != nil {
			p.Name = *upd.Name
		}
		if upd.Age != nil {
			p.Age = *upd.Age
		}
		if upd.Phone != nil {
			p.Phone = *upd.Phone
		}
		if upd.Diagnosis != nil {
			p.Diagnosis = *upd.Diagnosis
		}
		break
	}
	s.persist(patientsKey, s.patients)
}

// DeletePatient removes the patient and every treatment, medical record,
// surgical case, and appointment referencing it. The cascade happens
// under one lock, so no reader can observe a partially pruned state.
// Deleting an unknown id is a no-op.
func (s *Store) DeletePatient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.patients = deleteByID(s.patients, id, func(p Patient) string { return p.ID })
	s.treatments = deleteWhere(s.treatments, func(t Treatment) bool { return t.PatientID == id })
	s.medicalRecords = deleteWhere(s.medicalRecords, func(r MedicalRecord) bool { return r.PatientID == id })
	s.surgicalCases = deleteWhere(s.surgicalCases, func(sc SurgicalCase) bool { return sc.PatientID == id })
	s.appointments = deleteWhere(s.appointments, func(a Appointment) bool { return a.PatientID == id })

	s.persist(patientsKey, s.patients)
	s.persist(treatmentsKey, s.treatments)
	s.persist(medicalRecordsKey, s.medicalRecords)
	s.persist(surgicalCasesKey, s.surgicalCases)
	s.persist(appointmentsKey, s.appointments)
}

// PatientByID returns the patient with the given id.
func (s *Store) PatientByID(id string) (Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.patients {
		if p.ID == id {
			return p, true
		}
	}
	return Patient{}, false
}

// RecentPatients returns the patients whose dateAdded falls on or after
// today minus days, comparing calendar dates only. The boundary day is
// included. Patients with an unparseable dateAdded are excluded.
func (s *Store) RecentPatients(days int) []Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, -days)

	var recent []Patient
	for _, p := range s.patients {
		added, err := time.ParseInLocation(dateFormat, p.DateAdded, time.UTC)
		if err != nil {
			continue
		}
		if !added.Before(cutoff) {
			recent = append(recent, p)
		}
	}
	return recent
}

// Patients returns a copy of the patient collection in insertion order.
func (s *Store) Patients() []Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Patient(nil), s.patients...)
}

// -- Treatments --

// AddTreatment appends a new treatment with a fresh id and today's date.
func (s *Store) AddTreatment(t Treatment) Treatment {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = s.newID()
	t.Date = s.now().Format(dateFormat)
	s.treatments = append(s.treatments, t)
	s.persist(treatmentsKey, s.treatments)
	return t
}

func (s *Store) UpdateTreatment(id string, upd TreatmentUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.treatments {
		if s.treatments[i].ID != id {
			continue
		}
		t := &s.treatments[i]
		if upd.PatientID != nil {
			t.PatientID = *upd.PatientID
		}
		if upd.PatientName != nil {
			t.PatientName = *upd.PatientName
		}
		if upd.Name != nil {
			t.Name = *upd.Name
		}
		if upd.Description != nil {
			t.Description = *upd.Description
		}
		break
	}
	s.persist(treatmentsKey, s.treatments)
}

func (s *Store) DeleteTreatment(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.treatments = deleteByID(s.treatments, id, func(t Treatment) string { return t.ID })
	s.persist(treatmentsKey, s.treatments)
}

func (s *Store) Treatments() []Treatment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Treatment(nil), s.treatments...)
}

// -- Medical records --

// AddMedicalRecord appends a new history entry with a fresh id and
// today's date.
func (s *Store) AddMedicalRecord(r MedicalRecord) MedicalRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.newID()
	r.Date = s.now().Format(dateFormat)
	s.medicalRecords = append(s.medicalRecords, r)
	s.persist(medicalRecordsKey, s.medicalRecords)
	return r
}

func (s *Store) UpdateMedicalRecord(id string, upd MedicalRecordUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.medicalRecords {
		if s.medicalRecords[i].ID != id {
			continue
		}
		r := &s.medicalRecords[i]
		if upd.PatientID != nil {
			r.PatientID = *upd.PatientID
		}
		if upd.PatientName != nil {
			r.PatientName = *upd.PatientName
		}
		if upd.Diagnosis != nil {
			r.Diagnosis = *upd.Diagnosis
		}
		if upd.Notes != nil {
			r.Notes = *upd.Notes
		}
		break
	}
	s.persist(medicalRecordsKey, s.medicalRecords)
}

func (s *Store) DeleteMedicalRecord(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.medicalRecords = deleteByID(s.medicalRecords, id, func(r MedicalRecord) string { return r.ID })
	s.persist(medicalRecordsKey, s.medicalRecords)
}

func (s *Store) MedicalRecords() []MedicalRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]MedicalRecord(nil), s.medicalRecords...)
}

// -- Surgical cases --

// AddSurgicalCase appends a new case. The date comes from the caller.
func (s *Store) AddSurgicalCase(sc SurgicalCase) SurgicalCase {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc.ID = s.newID()
	s.surgicalCases = append(s.surgicalCases, sc)
	s.persist(surgicalCasesKey, s.surgicalCases)
	return sc
}

func (s *Store) UpdateSurgicalCase(id string, upd SurgicalCaseUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.surgicalCases {
		if s.surgicalCases[i].ID != id {
			continue
		}
		sc := &s.surgicalCases[i]
		if upd.PatientID != nil {
			sc.PatientID = *upd.PatientID
		}
		if upd.PatientName != nil {
			sc.PatientName = *upd.PatientName
		}
		if upd.SurgeryType != nil {
			sc.SurgeryType = *upd.SurgeryType
		}
		if upd.Date != nil {
			sc.Date = *upd.Date
		}
		if upd.Status != nil {
			sc.Status = *upd.Status
		}
		if upd.Notes != nil {
			sc.Notes = *upd.Notes
		}
		break
	}
	s.persist(surgicalCasesKey, s.surgicalCases)
}

func (s *Store) DeleteSurgicalCase(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.surgicalCases = deleteByID(s.surgicalCases, id, func(sc SurgicalCase) string { return sc.ID })
	s.persist(surgicalCasesKey, s.surgicalCases)
}

func (s *Store) SurgicalCases() []SurgicalCase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SurgicalCase(nil), s.surgicalCases...)
}

// -- Appointments --

// AddAppointment appends a new appointment. Date and time come from the
// caller.
func (s *Store) AddAppointment(a Appointment) Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.newID()
	s.appointments = append(s.appointments, a)
	s.persist(appointmentsKey, s.appointments)
	return a
}

func (s *Store) UpdateAppointment(id string, upd AppointmentUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.appointments {
		if s.appointments[i].ID != id {
			continue
		}
		a := &s.appointments[i]
		if upd.PatientID != nil {
			a.PatientID = *upd.PatientID
		}
		if upd.PatientName != nil {
			a.PatientName = *upd.PatientName
		}
		if upd.Date != nil {
			a.Date = *upd.Date
		}
		if upd.Time != nil {
			a.Time = *upd.Time
		}
		if upd.Phone != nil {
			a.Phone = *upd.Phone
		}
		if upd.Diagnosis != nil {
			a.Diagnosis = *upd.Diagnosis
		}
		if upd.Promotion != nil {
			a.Promotion = *upd.Promotion
		}
		if upd.Status != nil {
			a.Status = *upd.Status
		}
		break
	}
	s.persist(appointmentsKey, s.appointments)
}

func (s *Store) DeleteAppointment(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appointments = deleteByID(s.appointments, id, func(a Appointment) string { return a.ID })
	s.persist(appointmentsKey, s.appointments)
}

func (s *Store) Appointments() []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Appointment(nil), s.appointments...)
}

// ClearAll empties all five collections and removes their persisted
// records. Irreversible.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.patients = nil
	s.treatments = nil
	s.medicalRecords = nil
	s.surgicalCases = nil
	s.appointments = nil

	for _, key := range []string{patientsKey, treatmentsKey, medicalRecordsKey, surgicalCasesKey, appointmentsKey} {
		if err := s.kv.Delete(key); err != nil {
			s.logger.Warn().Err(err).Str("collection", key).Msg("removing persisted collection")
		}
	}
}

func deleteByID[T any](items []T, id string, idOf func(T) string) []T {
	return deleteWhere(items, func(item T) bool { return idOf(item) == id })
}

func deleteWhere[T any](items []T, match func(T) bool) []T {
	out := items[:0]
	for _, item := range items {
		if !match(item) {
			out = append(out, item)
		}
	}
	return out
}
