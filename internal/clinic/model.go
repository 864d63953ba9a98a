// Package clinic owns the five clinical record collections: patients,
// treatments, medical records, surgical cases, and appointments. The
// patient is the root entity; every other record references a patient by
// id and carries a snapshot of the patient's name taken at creation time.
package clinic

// Surgical case statuses.
const (
	SurgeryScheduled = "scheduled"
	SurgeryCompleted = "completed"
	SurgeryCancelled = "cancelled"
)

// Appointment statuses.
const (
	AppointmentUpcoming  = "upcoming"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// Patient is the root clinical entity. DateAdded is stamped YYYY-MM-DD at
// creation and never changes. JSON field names follow the persisted
// storage contract (camelCase keys).
type Patient struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Age       string `json:"age"`
	Phone     string `json:"phone"`
	Diagnosis string `json:"diagnosis"`
	DateAdded string `json:"dateAdded"`
}

// Treatment records a treatment plan for a patient. Date is stamped at
// creation and immutable. PatientName is a snapshot; it is not refreshed
// when the patient is later renamed.
type Treatment struct {
	ID          string `json:"id"`
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// MedicalRecord is a dated history entry for a patient.
type MedicalRecord struct {
	ID          string `json:"id"`
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName"`
	Diagnosis   string `json:"diagnosis"`
	Notes       string `json:"notes"`
	Date        string `json:"date"`
}

// SurgicalCase tracks a scheduled or performed surgery. Unlike treatments
// and medical records, its date is caller-supplied and editable.
type SurgicalCase struct {
	ID          string `json:"id"`
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName"`
	SurgeryType string `json:"surgeryType"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
}

// Appointment is a booked visit. Phone is snapshotted from the patient at
// booking time but stays editable on the appointment itself.
type Appointment struct {
	ID          string `json:"id"`
	PatientID   string `json:"patientId"`
	PatientName string `json:"patientName"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Phone       string `json:"phone"`
	Diagnosis   string `json:"diagnosis"`
	Promotion   string `json:"promotion"`
	Status      string `json:"status"`
}

// PatientUpdate carries a partial patient edit. Nil fields are left
// untouched. ID and DateAdded are not editable.
type PatientUpdate struct {
	Name      *string `json:"name"`
	Age       *string `json:"age"`
	Phone     *string `json:"phone"`
	Diagnosis *string `json:"diagnosis"`
}

// TreatmentUpdate carries a partial treatment edit. ID and Date are not
// editable.
type TreatmentUpdate struct {
	PatientID   *string `json:"patientId"`
	PatientName *string `json:"patientName"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// MedicalRecordUpdate carries a partial medical-record edit. ID and Date
// are not editable.
type MedicalRecordUpdate struct {
	PatientID   *string `json:"patientId"`
	PatientName *string `json:"patientName"`
	Diagnosis   *string `json:"diagnosis"`
	Notes       *string `json:"notes"`
}

// SurgicalCaseUpdate carries a partial surgical-case edit. Only ID is not
// editable.
type SurgicalCaseUpdate struct {
	PatientID   *string `json:"patientId"`
	PatientName *string `json:"patientName"`
	SurgeryType *string `json:"surgeryType"`
	Date        *string `json:"date"`
	Status      *string `json:"status"`
	Notes       *string `json:"notes"`
}

// AppointmentUpdate carries a partial appointment edit. Only ID is not
// editable.
type AppointmentUpdate struct {
	PatientID   *string `json:"patientId"`
	PatientName *string `json:"patientName"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Phone       *string `json:"phone"`
	Diagnosis   *string `json:"diagnosis"`
	Promotion   *string `json:"promotion"`
	Status      *string `json:"status"`
}

// ValidSurgeryStatus reports whether s is one of the surgical case
// statuses.
func ValidSurgeryStatus(s string) bool {
	return s == SurgeryScheduled || s == SurgeryCompleted || s == SurgeryCancelled
}

// ValidAppointmentStatus reports whether s is one of the appointment
// statuses.
func ValidAppointmentStatus(s string) bool {
	return s == AppointmentUpcoming || s == AppointmentCompleted || s == AppointmentCancelled
}
