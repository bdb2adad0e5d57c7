package alerting

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/medisync/dose-alert/pkg/types"
)

// setupRoutes configures HTTP routes for the alert service
func (s *Service) setupRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	// Notification state for the attached UI
	api.HandleFunc("/status", s.statusHandler).Methods("GET")
	api.HandleFunc("/notification/dismiss", s.dismissHandler).Methods("POST")

	// Settings resource
	api.HandleFunc("/settings", s.getSettingsHandler).Methods("GET")
	api.HandleFunc("/settings", s.updateSettingsHandler).Methods("PUT")

	// Health check
	router.HandleFunc(s.config.Monitoring.HealthPath, s.healthCheckHandler).Methods("GET")

	// Prometheus metrics
	if s.config.Monitoring.Enabled {
		router.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler()).Methods("GET")
	}

	s.logger.Info("Dose alert service routes configured")
}

// statusHandler reports the current notification and scheduler state
func (s *Service) statusHandler(w http.ResponseWriter, r *http.Request) {
	notification, visible := s.sink.Current()

	response := map[string]interface{}{
		"visible":            visible,
		"notification":       notification,
		"patient_cache_size": s.scheduler.PatientCacheSize(),
	}

	s.writeJSONResponse(w, http.StatusOK, response)
}

// dismissHandler clears the displayed notification. Dismissing never
// re-arms an alert and repeating it is harmless.
func (s *Service) dismissHandler(w http.ResponseWriter, r *http.Request) {
	s.sink.Dismiss()
	s.audio.Stop()

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"dismissed": true,
	})
}

// getSettingsHandler returns the current alert settings
func (s *Service) getSettingsHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, s.Settings())
}

// updateSettingsHandler persists and applies new alert settings
func (s *Service) updateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var settings types.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := s.UpdateSettings(settings); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Failed to update settings", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, settings)
}

// healthCheckHandler reports service liveness
func (s *Service) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "dose-alert",
		"timestamp": time.Now().UTC(),
	})
}

// writeJSONResponse writes a JSON response
func (s *Service) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("Failed to encode JSON response: %v", err)
	}
}

// writeErrorResponse writes an error response
func (s *Service) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	s.logger.Errorf("%s: %v", message, err)

	response := map[string]interface{}{
		"error":  message,
		"status": statusCode,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	s.writeJSONResponse(w, statusCode, response)
}
