package alerting

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/medisync/dose-alert/pkg/interfaces"
	"github.com/medisync/dose-alert/pkg/logger"
	"github.com/medisync/dose-alert/pkg/monitoring"
	"github.com/medisync/dose-alert/pkg/types"
)

// Coalesced notification message, matching what the client UI displays
const coalescedMessage = "Multiple upcoming medications scheduled."

// Scheduler polls the schedule source once per cycle, decides which
// schedules should alert at the 60- and 30-minute thresholds, and emits
// at most one notification and one audio trigger per cycle.
//
// Per-schedule state: a schedule id enters a fired set when its threshold
// alert is emitted and leaves both sets the moment its dose time passes,
// which re-arms alerting for the schedule's next occurrence.
type Scheduler struct {
	source   interfaces.ScheduleSource
	sink     interfaces.NotificationSink
	audio    interfaces.AudioOutput
	sounds   *SoundMap
	metrics  *monitoring.MetricsCollector
	logger   *logger.Logger
	clock    Clock
	interval time.Duration
	slack    float64 // minutes of tolerance around each threshold

	mu        sync.Mutex
	settings  types.Settings
	patients  map[int64]*types.Patient
	firedAt60 map[int64]struct{}
	firedAt30 map[int64]struct{}

	// Cycles must not overlap; a tick that arrives while the previous
	// cycle is still fetching is skipped.
	busy atomic.Bool
}

// SchedulerOptions holds the collaborators and tuning for a Scheduler
type SchedulerOptions struct {
	Source   interfaces.ScheduleSource
	Sink     interfaces.NotificationSink
	Audio    interfaces.AudioOutput
	Sounds   *SoundMap
	Metrics  *monitoring.MetricsCollector
	Logger   *logger.Logger
	Clock    Clock
	Interval time.Duration
	Slack    int
}

// NewScheduler creates a dose alert scheduler
func NewScheduler(opts SchedulerOptions) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = NewRealClock()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Slack <= 0 {
		opts.Slack = 1
	}

	return &Scheduler{
		source:    opts.Source,
		sink:      opts.Sink,
		audio:     opts.Audio,
		sounds:    opts.Sounds,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		clock:     opts.Clock,
		interval:  opts.Interval,
		slack:     float64(opts.Slack),
		settings:  types.DefaultSettings(),
		patients:  make(map[int64]*types.Patient),
		firedAt60: make(map[int64]struct{}),
		firedAt30: make(map[int64]struct{}),
	}
}

// Run drives the polling loop until the context is cancelled. The first
// poll is delayed to the next minute boundary, then every cycle repeats
// on a fixed interval.
func (s *Scheduler) Run(ctx context.Context) {
	delay := delayUntilBoundary(s.clock.Now(), s.interval)
	s.logger.WithField("initial_delay_ms", delay.Milliseconds()).Info("Dose alert scheduler starting")

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	s.RunCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Dose alert scheduler stopped")
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle executes one poll cycle. A failed fetch leaves all state
// untouched and is equivalent to a no-candidate cycle.
func (s *Scheduler) RunCycle(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		s.logger.Warn("Previous poll cycle still running, skipping tick")
		s.metrics.RecordPollSkipped()
		return
	}
	defer s.busy.Store(false)

	started := s.clock.Now()

	schedules, err := s.source.GetMedications(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to fetch medication schedules")
		s.metrics.RecordFetchError("medications")
		s.metrics.RecordPollCycle("fetch_error")
		return
	}

	now := s.clock.Now()

	s.mu.Lock()
	candidates := s.evaluate(schedules, now)
	notification, sound := s.buildEmission(candidates, now)
	s.metrics.SetArmedSchedules("60", len(s.firedAt60))
	s.metrics.SetArmedSchedules("30", len(s.firedAt30))
	s.mu.Unlock()

	outcome := "no_candidates"
	if notification != nil {
		kind := "detailed"
		if notification.Multiple {
			kind = "coalesced"
		}
		outcome = kind

		s.sink.Show(notification)
		s.metrics.RecordAlertFired(kind)
		s.logger.AlertEmitted(kind, candidateIDs(candidates), sound.play)

		if sound.play {
			if err := s.audio.Play(sound.file, sound.volume); err != nil {
				s.logger.WithError(err).Error("Failed to play alert sound")
				s.metrics.RecordAudioError()
			}
		}
	}

	s.metrics.RecordPollCycle(outcome)
	s.logger.PollCycle(len(schedules), len(candidates), s.clock.Now().Sub(started).Milliseconds())
}

// evaluate applies the per-entry threshold rules and returns this cycle's
// candidates. Caller must hold the mutex.
func (s *Scheduler) evaluate(schedules []*types.ScheduleEntry, now time.Time) []*types.ScheduleEntry {
	var candidates []*types.ScheduleEntry

	for _, sched := range schedules {
		// Schedules for archived patients never alert
		if patient, ok := s.patients[sched.PatientNumber]; ok && patient.IsArchived {
			continue
		}

		diffMinutes := sched.NextDoseTime.Sub(now).Minutes()

		// Dose time has passed: evict from both fired sets so the
		// schedule's next occurrence can alert again.
		if diffMinutes < 0 {
			delete(s.firedAt60, sched.ID)
			delete(s.firedAt30, sched.ID)
			continue
		}

		if _, fired := s.firedAt60[sched.ID]; !fired && s.inWindow(diffMinutes, 60) {
			s.firedAt60[sched.ID] = struct{}{}
			candidates = append(candidates, sched)
			continue
		}

		if _, fired := s.firedAt30[sched.ID]; !fired && s.inWindow(diffMinutes, 30) {
			s.firedAt30[sched.ID] = struct{}{}
			candidates = append(candidates, sched)
		}
	}

	return candidates
}

// inWindow reports whether diffMinutes falls in the threshold window
func (s *Scheduler) inWindow(diffMinutes float64, threshold float64) bool {
	return diffMinutes >= threshold-s.slack && diffMinutes <= threshold+s.slack
}

// soundRequest describes the audio side of an emission
type soundRequest struct {
	play   bool
	file   string
	volume float64
}

// buildEmission turns this cycle's candidates into at most one
// notification payload plus its audio request. Caller must hold the
// mutex; the returned payload is detached from scheduler state.
func (s *Scheduler) buildEmission(candidates []*types.ScheduleEntry, now time.Time) (*types.DoseNotification, soundRequest) {
	if len(candidates) == 0 {
		return nil, soundRequest{}
	}

	sound := soundRequest{
		play:   s.settings.Volume > 0,
		file:   s.sounds.Resolve(s.settings.AlertSound),
		volume: s.settings.VolumeFraction(),
	}

	if len(candidates) > 1 {
		// Coalesced: ids only, no per-entry enrichment
		return &types.DoseNotification{
			ID:          uuid.New().String(),
			EmittedAt:   now,
			Multiple:    true,
			Message:     coalescedMessage,
			ScheduleIDs: candidateIDs(candidates),
		}, sound
	}

	sched := candidates[0]
	notification := &types.DoseNotification{
		ID:          uuid.New().String(),
		EmittedAt:   now,
		ScheduleID:  sched.ID,
		Medication:  sched.MedicationName,
		Dosage:      sched.MedicationStrength,
		DosageUnit:  sched.MedicationUnit,
		Route:       sched.MedicationRoute,
		Notes:       sched.Notes,
		Form:        sched.MedicationForm,
		Physician:   sched.PhysicianID,
		DosageTime:  sched.DoseTimeOfDay(),
		PatientName: types.UnknownPatientName,
	}

	if patient, ok := s.patients[sched.PatientNumber]; ok {
		notification.PatientName = patient.DisplayName()
		notification.Room = strconv.Itoa(patient.RoomNumber)
	}

	return notification, sound
}

// SetPatients replaces the enrichment cache. Loaded once at startup; a
// patient missing from the cache degrades to an "Unknown" name.
func (s *Scheduler) SetPatients(patients []*types.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.patients = make(map[int64]*types.Patient, len(patients))
	for _, p := range patients {
		s.patients[p.PatientNumber] = p
	}
	s.metrics.SetPatientCacheSize(len(s.patients))
}

// UpdateSettings replaces the alerting settings. Takes effect on the
// next emission, not retroactively.
func (s *Scheduler) UpdateSettings(settings types.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// Settings returns the current alerting settings
func (s *Scheduler) Settings() types.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// ArmedAt reports fired-set membership for a schedule id
func (s *Scheduler) ArmedAt(id int64) (at60, at30 bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, at60 = s.firedAt60[id]
	_, at30 = s.firedAt30[id]
	return at60, at30
}

// PatientCacheSize returns the number of cached patients
func (s *Scheduler) PatientCacheSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.patients)
}

func candidateIDs(candidates []*types.ScheduleEntry) []int64 {
	ids := make([]int64, 0, len(candidates))
	for _, sched := range candidates {
		ids = append(ids, sched.ID)
	}
	return ids
}
