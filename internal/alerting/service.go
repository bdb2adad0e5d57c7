package alerting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/medisync/dose-alert/internal/api"
	"github.com/medisync/dose-alert/internal/audio"
	"github.com/medisync/dose-alert/internal/prefs"
	"github.com/medisync/dose-alert/pkg/config"
	"github.com/medisync/dose-alert/pkg/interfaces"
	"github.com/medisync/dose-alert/pkg/logger"
	"github.com/medisync/dose-alert/pkg/monitoring"
	"github.com/medisync/dose-alert/pkg/types"
)

// Service wires the dose alert scheduler to its collaborators and
// exposes the local HTTP surface the UI consumes.
type Service struct {
	config    *config.Config
	logger    *logger.Logger
	metrics   *monitoring.MetricsCollector
	scheduler *Scheduler
	sink      *MemorySink
	store     interfaces.PreferenceStore
	directory interfaces.PatientDirectory
	audio     interfaces.AudioOutput
	server    *http.Server
	cancel    context.CancelFunc
}

// New creates a new dose alert service with production collaborators
func New(cfg *config.Config, log *logger.Logger) (interfaces.AlertService, error) {
	sounds, err := NewSoundMap(&cfg.Audio)
	if err != nil {
		return nil, fmt.Errorf("invalid audio configuration: %w", err)
	}

	client := api.NewClient(cfg.Backend.BaseURL, cfg.Backend.RequestTimeoutDuration(), log)
	store := prefs.NewStore(cfg.PreferencesPath, log)
	output := audio.NewOutput(log)
	sink := NewMemorySink()
	metrics := monitoring.NewMetricsCollector("dose-alert")

	scheduler := NewScheduler(SchedulerOptions{
		Source:   client,
		Sink:     sink,
		Audio:    output,
		Sounds:   sounds,
		Metrics:  metrics,
		Logger:   log,
		Interval: cfg.Alerting.PollIntervalDuration(),
		Slack:    cfg.Alerting.WindowSlack,
	})

	return &Service{
		config:    cfg,
		logger:    log,
		metrics:   metrics,
		scheduler: scheduler,
		sink:      sink,
		store:     store,
		directory: client,
		audio:     output,
	}, nil
}

// Start initializes state and serves the local HTTP surface. Blocks
// until the server stops.
func (s *Service) Start(addr string) error {
	// Settings are best-effort: a broken store yields defaults
	settings := LoadSettings(s.store, s.logger)
	s.scheduler.UpdateSettings(settings)
	s.logger.WithFields(map[string]interface{}{
		"volume":      settings.Volume,
		"alert_sound": settings.AlertSound,
	}).Info("Loaded alert settings")

	// Patient directory is loaded once for the session; failure leaves
	// the cache empty and enrichment degrades to "Unknown"
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	loadCtx, loadCancel := context.WithTimeout(ctx, s.config.Backend.RequestTimeoutDuration())
	patients, err := s.directory.GetPatients(loadCtx)
	loadCancel()
	if err != nil {
		s.logger.WithError(err).Error("Failed to load patient directory, enrichment degraded")
		s.metrics.RecordFetchError("patients")
	} else {
		s.scheduler.SetPatients(patients)
		s.logger.WithField("patients", len(patients)).Info("Patient directory cached")
	}

	go s.scheduler.Run(ctx)

	router := mux.NewRouter()
	s.setupRoutes(router)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	s.logger.Infof("Starting Dose Alert Service on %s", addr)
	return s.server.ListenAndServe()
}

// Stop shuts down the poll loop, audio, and HTTP server
func (s *Service) Stop() error {
	s.logger.Info("Stopping Dose Alert Service")

	if s.cancel != nil {
		s.cancel()
	}

	s.audio.Stop()

	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// UpdateSettings validates, persists, and applies new settings. The
// scheduler sees them synchronously; they affect the next emission.
func (s *Service) UpdateSettings(settings types.Settings) error {
	if !settings.Valid() {
		return types.NewValidationError("SETTINGS_OUT_OF_RANGE",
			fmt.Sprintf("volume must be 0-100, got %d", settings.Volume), nil)
	}

	if err := SaveSettings(s.store, settings); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}

	s.scheduler.UpdateSettings(settings)
	s.logger.WithFields(map[string]interface{}{
		"volume":      settings.Volume,
		"alert_sound": settings.AlertSound,
	}).Info("Alert settings updated")

	return nil
}

// Settings returns the scheduler's current settings
func (s *Service) Settings() types.Settings {
	return s.scheduler.Settings()
}
