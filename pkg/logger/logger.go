package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// New creates a new logger instance
func New(level string) *Logger {
	log := logrus.New()

	// Set log level
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	// Set output format
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	// Set output destination
	log.SetOutput(os.Stdout)

	return &Logger{Logger: log}
}

// WithFields creates a new logger entry with the specified fields
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// WithField creates a new logger entry with a single field
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithError creates a new logger entry with an error field
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// WithComponent creates a new logger entry with component name field
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.Logger.WithField("component", component)
}

// WithScheduleID creates a new logger entry with schedule ID field
func (l *Logger) WithScheduleID(scheduleID int64) *logrus.Entry {
	return l.Logger.WithField("schedule_id", scheduleID)
}

// AlertEmitted logs an alert emission with structured format
func (l *Logger) AlertEmitted(kind string, scheduleIDs []int64, audio bool) {
	l.Logger.WithFields(logrus.Fields{
		"alert":        true,
		"kind":         kind,
		"schedule_ids": scheduleIDs,
		"audio":        audio,
	}).Info("Alert emitted")
}

// PollCycle logs the outcome of a poll cycle
func (l *Logger) PollCycle(schedules, candidates int, durationMs int64) {
	l.Logger.WithFields(logrus.Fields{
		"poll":        true,
		"schedules":   schedules,
		"candidates":  candidates,
		"duration_ms": durationMs,
	}).Debug("Poll cycle completed")
}
