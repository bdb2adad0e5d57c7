package alerting

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/medisync/dose-alert/pkg/config"
	"github.com/medisync/dose-alert/pkg/interfaces"
	"github.com/medisync/dose-alert/pkg/logger"
	"github.com/medisync/dose-alert/pkg/types"
)

// Preference store keys. The volume key holds a JSON-encoded integer,
// the alertSound key a plain sound name.
const (
	prefKeyVolume     = "volume"
	prefKeyAlertSound = "alertSound"
)

// LoadSettings reads settings from the preference store. Any missing or
// unparseable key keeps its default; a broken store is never fatal.
func LoadSettings(store interfaces.PreferenceStore, log *logger.Logger) types.Settings {
	settings := types.DefaultSettings()

	if raw, ok := store.Get(prefKeyVolume); ok {
		var volume int
		if err := json.Unmarshal([]byte(raw), &volume); err != nil {
			log.WithError(types.NewPreferenceLoadError("VOLUME_PARSE_FAILED", "stored volume is not an integer", err)).
				Warn("Using default volume")
		} else if volume < 0 || volume > 100 {
			log.WithField("volume", volume).Warn("Stored volume out of range, using default")
		} else {
			settings.Volume = volume
		}
	}

	if sound, ok := store.Get(prefKeyAlertSound); ok && sound != "" {
		settings.AlertSound = sound
	}

	return settings
}

// SaveSettings persists settings to the preference store
func SaveSettings(store interfaces.PreferenceStore, settings types.Settings) error {
	volume, err := json.Marshal(settings.Volume)
	if err != nil {
		return fmt.Errorf("failed to encode volume: %w", err)
	}

	if err := store.Set(prefKeyVolume, string(volume)); err != nil {
		return fmt.Errorf("failed to save volume: %w", err)
	}

	if err := store.Set(prefKeyAlertSound, settings.AlertSound); err != nil {
		return fmt.Errorf("failed to save alert sound: %w", err)
	}

	return nil
}

// SoundMap resolves alert sound names to playable files. Unknown names
// fall back to the configured default sound rather than failing.
type SoundMap struct {
	dir          string
	files        map[string]string
	defaultSound string
}

// NewSoundMap builds the sound mapping from configuration. The default
// sound must be mapped; individual files are resolved lazily at playback.
func NewSoundMap(cfg *config.AudioConfig) (*SoundMap, error) {
	if _, ok := cfg.Sounds[cfg.DefaultSound]; !ok {
		return nil, types.NewValidationError("DEFAULT_SOUND_UNMAPPED",
			fmt.Sprintf("default sound %q has no file mapping", cfg.DefaultSound), nil)
	}

	files := make(map[string]string, len(cfg.Sounds))
	for name, file := range cfg.Sounds {
		files[name] = file
	}

	return &SoundMap{
		dir:          cfg.SoundDir,
		files:        files,
		defaultSound: cfg.DefaultSound,
	}, nil
}

// Resolve returns the file path for a sound name, falling back to the
// default sound for unknown names.
func (m *SoundMap) Resolve(name string) string {
	file, ok := m.files[name]
	if !ok {
		file = m.files[m.defaultSound]
	}
	return filepath.Join(m.dir, file)
}
