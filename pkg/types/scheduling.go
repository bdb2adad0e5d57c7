package types

import (
	"strings"
	"time"
)

// ScheduleEntry represents one configured medication administration event
// as returned by the hospital backend. Display attributes are carried
// through to notifications without interpretation.
type ScheduleEntry struct {
	ID                 int64     `json:"id"`
	PatientNumber      int64     `json:"patient_number"`
	NextDoseTime       time.Time `json:"next_dose_time"`
	MedicationName     string    `json:"Medication_name"`
	MedicationUnit     string    `json:"Medication_unit"`
	MedicationStrength string    `json:"Medication_strength"`
	MedicationRoute    string    `json:"Medication_route"`
	MedicationForm     string    `json:"Medication_form"`
	PhysicianID        string    `json:"physicianID"`
	Notes              string    `json:"notes"`
}

// DoseTimeOfDay returns the next dose time formatted as HH:MM in the
// schedule's local offset.
func (s *ScheduleEntry) DoseTimeOfDay() string {
	return s.NextDoseTime.Format("15:04")
}

// Patient represents a patient directory record used for notification
// enrichment.
type Patient struct {
	PatientNumber int64  `json:"patient_number"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	RoomNumber    int    `json:"room_number"`
	IsArchived    bool   `json:"is_archived"`
}

// DisplayName returns the patient name in "LAST, First" form.
func (p *Patient) DisplayName() string {
	return strings.ToUpper(p.LastName) + ", " + p.FirstName
}
