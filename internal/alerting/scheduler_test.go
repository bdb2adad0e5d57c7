package alerting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medisync/dose-alert/pkg/config"
	"github.com/medisync/dose-alert/pkg/logger"
	"github.com/medisync/dose-alert/pkg/monitoring"
	"github.com/medisync/dose-alert/pkg/types"
)

// MockScheduleSource is a mock implementation of ScheduleSource
type MockScheduleSource struct {
	mock.Mock
}

func (m *MockScheduleSource) GetMedications(ctx context.Context) ([]*types.ScheduleEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.ScheduleEntry), args.Error(1)
}

// MockAudioOutput is a mock implementation of AudioOutput
type MockAudioOutput struct {
	mock.Mock
}

func (m *MockAudioOutput) Play(file string, volume float64) error {
	args := m.Called(file, volume)
	return args.Error(0)
}

func (m *MockAudioOutput) Stop() {
	m.Called()
}

// countingSink records every shown notification on top of MemorySink
type countingSink struct {
	MemorySink
	shown []*types.DoseNotification
}

func (c *countingSink) Show(notification *types.DoseNotification) {
	c.shown = append(c.shown, notification)
	c.MemorySink.Show(notification)
}

// manualClock is advanced explicitly by tests
type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time {
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func testSoundMap(t *testing.T) *SoundMap {
	sounds, err := NewSoundMap(&config.AudioConfig{
		SoundDir: "testdata",
		Sounds: map[string]string{
			"alarm 1": "alarm 1.wav",
			"alarm 2": "alarm 2.wav",
		},
		DefaultSound: "alarm 1",
	})
	require.NoError(t, err)
	return sounds
}

type schedulerFixture struct {
	scheduler *Scheduler
	source    *MockScheduleSource
	audio     *MockAudioOutput
	sink      *countingSink
	clock     *manualClock
}

func setupTestScheduler(t *testing.T) *schedulerFixture {
	source := &MockScheduleSource{}
	audioOut := &MockAudioOutput{}
	sink := &countingSink{}
	clock := &manualClock{now: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}

	scheduler := NewScheduler(SchedulerOptions{
		Source:   source,
		Sink:     sink,
		Audio:    audioOut,
		Sounds:   testSoundMap(t),
		Metrics:  monitoring.NewMetricsCollector("test"),
		Logger:   logger.New("error"),
		Clock:    clock,
		Interval: time.Minute,
		Slack:    1,
	})

	return &schedulerFixture{
		scheduler: scheduler,
		source:    source,
		audio:     audioOut,
		sink:      sink,
		clock:     clock,
	}
}

func schedule(id int64, patient int64, doseTime time.Time) *types.ScheduleEntry {
	return &types.ScheduleEntry{
		ID:                 id,
		PatientNumber:      patient,
		NextDoseTime:       doseTime,
		MedicationName:     "Amoxicillin",
		MedicationUnit:     "mg",
		MedicationStrength: "500",
		MedicationRoute:    "oral",
		MedicationForm:     "capsule",
		PhysicianID:        "DR-7",
		Notes:              "with food",
	}
}

func TestRunCycle_60MinuteAlert_FiresOnce(t *testing.T) {
	f := setupTestScheduler(t)

	doseTime := f.clock.Now().Add(60 * time.Minute)
	f.source.On("GetMedications", mock.Anything).Return([]*types.ScheduleEntry{schedule(42, 1, doseTime)}, nil)
	f.audio.On("Play", mock.Anything, mock.Anything).Return(nil)

	f.scheduler.RunCycle(context.Background())

	require.Len(t, f.sink.shown, 1)
	assert.Equal(t, int64(42), f.sink.shown[0].ScheduleID)
	assert.False(t, f.sink.shown[0].Multiple)

	at60, at30 := f.scheduler.ArmedAt(42)
	assert.True(t, at60)
	assert.False(t, at30)

	// One minute later diff is 59, still in the window: must not re-fire
	f.clock.Advance(time.Minute)
	f.scheduler.RunCycle(context.Background())

	assert.Len(t, f.sink.shown, 1)
	f.audio.AssertNumberOfCalls(t, "Play", 1)
}

func TestRunCycle_RearmAfterDosePassed(t *testing.T) {
	f := setupTestScheduler(t)

	doseTime := f.clock.Now().Add(60 * time.Minute)
	entry := schedule(42, 1, doseTime)
	f.source.On("GetMedications", mock.Anything).Return([]*types.ScheduleEntry{entry}, nil)
	f.audio.On("Play", mock.Anything, mock.Anything).Return(nil)

	// Fire at the 60-minute threshold
	f.scheduler.RunCycle(context.Background())

	// Advance to 30 minutes before the dose: the 30-minute alert fires
	f.clock.Advance(30 * time.Minute)
	f.scheduler.RunCycle(context.Background())

	at60, at30 := f.scheduler.ArmedAt(42)
	assert.True(t, at60)
	assert.True(t, at30)
	assert.Len(t, f.sink.shown, 2)

	// Advance past the dose time: both fired sets evict the id
	f.clock.Advance(31 * time.Minute)
	f.scheduler.RunCycle(context.Background())

	at60, at30 = f.scheduler.ArmedAt(42)
	assert.False(t, at60)
	assert.False(t, at30)

	// No additional notification on the eviction cycle
	assert.Len(t, f.sink.shown, 2)
}

func TestRunCycle_CoalescesMultipleCandidates(t *testing.T) {
	f := setupTestScheduler(t)

	doseTime := f.clock.Now().Add(30 * time.Minute)
	entries := []*types.ScheduleEntry{
		schedule(7, 1, doseTime),
		schedule(8, 2, doseTime.Add(30*time.Second)),
	}
	f.source.On("GetMedications", mock.Anything).Return(entries, nil)
	f.audio.On("Play", mock.Anything, mock.Anything).Return(nil)

	f.scheduler.RunCycle(context.Background())

	require.Len(t, f.sink.shown, 1)
	notification := f.sink.shown[0]
	assert.True(t, notification.Multiple)
	assert.Equal(t, "Multiple upcoming medications scheduled.", notification.Message)
	assert.ElementsMatch(t, []int64{7, 8}, notification.ScheduleIDs)

	// Coalesced payloads carry no enrichment
	assert.Empty(t, notification.PatientName)
	assert.Empty(t, notification.Medication)

	f.audio.AssertNumberOfCalls(t, "Play", 1)
}

func TestRunCycle_EnrichesSingleCandidate(t *testing.T) {
	f := setupTestScheduler(t)

	f.scheduler.SetPatients([]*types.Patient{
		{PatientNumber: 1, FirstName: "Maria", LastName: "Santos", RoomNumber: 204},
	})

	doseTime := f.clock.Now().Add(60 * time.Minute)
	f.source.On("GetMedications", mock.Anything).Return([]*types.ScheduleEntry{schedule(42, 1, doseTime)}, nil)
	f.audio.On("Play", mock.Anything, mock.Anything).Return(nil)

	f.scheduler.RunCycle(context.Background())

	require.Len(t, f.sink.shown, 1)
	notification := f.sink.shown[0]
	assert.Equal(t, "SANTOS, Maria", notification.PatientName)
	assert.Equal(t, "204", notification.Room)
	assert.Equal(t, "Amoxicillin", notification.Medication)
	assert.Equal(t, "500", notification.Dosage)
	assert.Equal(t, "mg", notification.DosageUnit)
	assert.Equal(t, doseTime.Format("15:04"), notification.DosageTime)
}

func TestRunCycle_UnknownPatientFallback(t *testing.T) {
	f := setupTestScheduler(t)

	doseTime := f.clock.Now().Add(60 * time.Minute)
	f.source.On("GetMedications", mock.Anything).Return([]*types.ScheduleEntry{schedule(42, 99, doseTime)}, nil)
	f.audio.On("Play", mock.Anything, mock.Anything).Return(nil)

	f.scheduler.RunCycle(context.Background())

	require.Len(t, f.sink.shown, 1)
	assert.Equal(t, types.UnknownPatientName, f.sink.shown[0].PatientName)
	assert.Empty(t, f.sink.shown[0].Room)
}

func TestRunCycle_VolumeZeroSuppressesAudioOnly(t *testing.T) {
	f := setupTestScheduler(t)
	f.scheduler.UpdateSettings(types.Settings{Volume: 0, AlertSound: "alarm 1"})

	doseTime := f.clock.Now().Add(60 * time.Minute)
	f.source.On("GetMedications", mock.Anything).Return([]*types.ScheduleEntry{schedule(42, 1, doseTime)}, nil)

	f.scheduler.RunCycle(context.Background())

	// Notification still shows, zero audio calls
	assert.Len(t, f.sink.shown, 1)
	f.audio.AssertNotCalled(t, "Play", mock.Anything, mock.Anything)
}

func TestRunCycle_FetchFailureLeavesStateUntouched(t *testing.T) {
	f := setupTestScheduler(t)

	doseTime := f.clock.Now().Add(60 * time.Minute)
	f.source.On("GetMedications", mock.Anything).
		Return([]*types.ScheduleEntry{schedule(42, 1, doseTime)}, nil).Once()
	f.audio.On("Play", mock.Anything, mock.Anything).Return(nil)

	f.scheduler.RunCycle(context.Background())
	at60Before, _ := f.scheduler.ArmedAt(42)
	require.True(t, at60Before)

	f.source.On("GetMedications", mock.Anything).
		Return(nil, types.NewTransientFetchError("MEDICATIONS_FETCH_FAILED", "backend down", nil)).Once()

	f.clock.Advance(time.Minute)
	f.scheduler.RunCycle(context.Background())

	// Failed cycle equals a no-candidate cycle: no emission, state intact
	at60After, _ := f.scheduler.ArmedAt(42)
	assert.True(t, at60After)
	assert.Len(t, f.sink.shown, 1)
}

func TestRunCycle_DismissDoesNotRearm(t *testing.T) {
	f := setupTestScheduler(t)

	doseTime := f.clock.Now().Add(60 * time.Minute)
	f.source.On("GetMedications", mock.Anything).Return([]*types.ScheduleEntry{schedule(42, 1, doseTime)}, nil)
	f.audio.On("Play", mock.Anything, mock.Anything).Return(nil)

	f.scheduler.RunCycle(context.Background())
	require.Len(t, f.sink.shown, 1)

	// Dismissing twice clears the display but never the fired sets
	f.sink.Dismiss()
	f.sink.Dismiss()

	_, visible := f.sink.Current()
	assert.False(t, visible)

	at60, _ := f.scheduler.ArmedAt(42)
	assert.True(t, at60)

	f.clock.Advance(time.Minute)
	f.scheduler.RunCycle(context.Background())
	assert.Len(t, f.sink.shown, 1)
}

func TestRunCycle_SkipsWhenPreviousCycleRunning(t *testing.T) {
	f := setupTestScheduler(t)

	f.scheduler.busy.Store(true)
	f.scheduler.RunCycle(context.Background())

	// The tick was skipped entirely: no fetch, no emission
	f.source.AssertNotCalled(t, "GetMedications", mock.Anything)
	assert.Empty(t, f.sink.shown)
}

func TestRunCycle_SkipsArchivedPatients(t *testing.T) {
	f := setupTestScheduler(t)

	f.scheduler.SetPatients([]*types.Patient{
		{PatientNumber: 1, FirstName: "Jose", LastName: "Cruz", RoomNumber: 110, IsArchived: true},
	})

	doseTime := f.clock.Now().Add(60 * time.Minute)
	f.source.On("GetMedications", mock.Anything).Return([]*types.ScheduleEntry{schedule(42, 1, doseTime)}, nil)

	f.scheduler.RunCycle(context.Background())

	assert.Empty(t, f.sink.shown)
	at60, at30 := f.scheduler.ArmedAt(42)
	assert.False(t, at60)
	assert.False(t, at30)
}

func TestRunCycle_OutsideWindowsNoAction(t *testing.T) {
	f := setupTestScheduler(t)

	// 45 minutes out is between the two windows
	doseTime := f.clock.Now().Add(45 * time.Minute)
	f.source.On("GetMedications", mock.Anything).Return([]*types.ScheduleEntry{schedule(42, 1, doseTime)}, nil)

	f.scheduler.RunCycle(context.Background())

	assert.Empty(t, f.sink.shown)
	at60, at30 := f.scheduler.ArmedAt(42)
	assert.False(t, at60)
	assert.False(t, at30)
}

func TestRunCycle_NextDoseTimeMayChangeBetweenPolls(t *testing.T) {
	f := setupTestScheduler(t)
	f.audio.On("Play", mock.Anything, mock.Anything).Return(nil)

	// Dose passes, then upstream advances next_dose_time to the
	// following day's occurrence
	passed := f.clock.Now().Add(-2 * time.Minute)
	f.source.On("GetMedications", mock.Anything).
		Return([]*types.ScheduleEntry{schedule(42, 1, passed)}, nil).Once()
	f.scheduler.RunCycle(context.Background())

	nextOccurrence := f.clock.Now().Add(60 * time.Minute)
	f.source.On("GetMedications", mock.Anything).
		Return([]*types.ScheduleEntry{schedule(42, 1, nextOccurrence)}, nil).Once()

	f.clock.Advance(time.Minute)
	f.scheduler.RunCycle(context.Background())

	// The recurring schedule alerts again for its new occurrence
	assert.Len(t, f.sink.shown, 1)
	at60, _ := f.scheduler.ArmedAt(42)
	assert.True(t, at60)
}

func TestDelayUntilBoundary(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		now      time.Time
		expected time.Duration
	}{
		{"on the boundary", base, 0},
		{"mid minute", base.Add(24*time.Second + 500*time.Millisecond), 35*time.Second + 500*time.Millisecond},
		{"just before boundary", base.Add(59*time.Second + 999*time.Millisecond), time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, delayUntilBoundary(tt.now, time.Minute))
		})
	}
}
