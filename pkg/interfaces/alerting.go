package interfaces

import (
	"context"

	"github.com/medisync/dose-alert/pkg/types"
)

// ScheduleSource returns the current medication schedules with their
// computed next dose times. Polled once per alert cycle.
type ScheduleSource interface {
	GetMedications(ctx context.Context) ([]*types.ScheduleEntry, error)
}

// PatientDirectory resolves patients to display attributes for
// notification enrichment. Fetched once at startup.
type PatientDirectory interface {
	GetPatients(ctx context.Context) ([]*types.Patient, error)
}

// NotificationSink receives alert payloads and owns their display and
// dismissal. Dismissal never re-arms an alert.
type NotificationSink interface {
	Show(notification *types.DoseNotification)
	Dismiss()
	Current() (*types.DoseNotification, bool)
}

// AudioOutput plays an alert sound at a volume fraction. At most one
// sound is live at a time; starting a new one stops the previous.
type AudioOutput interface {
	Play(file string, volume float64) error
	Stop()
}

// PreferenceStore persists user preferences across sessions as raw
// string values.
type PreferenceStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// AlertService defines the lifecycle of the dose alert service
type AlertService interface {
	Start(addr string) error
	Stop() error
	UpdateSettings(settings types.Settings) error
	Settings() types.Settings
}
