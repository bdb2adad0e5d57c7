package types

import "time"

// DoseNotification is the payload delivered to the notification sink.
// A detailed notification describes a single schedule entry enriched with
// patient attributes; a coalesced notification carries only the ids of the
// schedules due around the same time.
type DoseNotification struct {
	// Present on every notification
	ID        string    `json:"id"`
	EmittedAt time.Time `json:"emitted_at"`

	// Coalesced form
	Multiple    bool    `json:"multiple,omitempty"`
	Message     string  `json:"message,omitempty"`
	ScheduleIDs []int64 `json:"scheduleIds,omitempty"`

	// Detailed form
	ScheduleID  int64  `json:"scheduleId,omitempty"`
	Medication  string `json:"medication,omitempty"`
	Dosage      string `json:"dosage,omitempty"`
	DosageUnit  string `json:"dosage_unit,omitempty"`
	Room        string `json:"room,omitempty"`
	Route       string `json:"route,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Form        string `json:"form,omitempty"`
	Physician   string `json:"physician,omitempty"`
	DosageTime  string `json:"dosage_time,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
}

// UnknownPatientName is substituted when a schedule's patient is not in
// the directory cache.
const UnknownPatientName = "Unknown"
