package types

// AlertSound names one of the bundled alarm sounds
type AlertSound string

const (
	SoundAlarm1 AlertSound = "alarm 1"
	SoundAlarm2 AlertSound = "alarm 2"
	SoundAlarm3 AlertSound = "alarm 3"
	SoundAlarm4 AlertSound = "alarm 4"
)

// Settings holds the user's alerting preferences. Volume 0 suppresses
// audio playback; the visual notification is always shown.
type Settings struct {
	Volume     int    `json:"volume"`
	AlertSound string `json:"alert_sound"`
}

// DefaultSettings returns the settings substituted when the preference
// store cannot be read.
func DefaultSettings() Settings {
	return Settings{
		Volume:     100,
		AlertSound: string(SoundAlarm1),
	}
}

// VolumeFraction returns the volume scaled to 0.0-1.0 for audio playback
func (s Settings) VolumeFraction() float64 {
	if s.Volume <= 0 {
		return 0
	}
	if s.Volume >= 100 {
		return 1
	}
	return float64(s.Volume) / 100
}

// Valid reports whether the settings are within range
func (s Settings) Valid() bool {
	return s.Volume >= 0 && s.Volume <= 100
}
