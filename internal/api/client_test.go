package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisync/dose-alert/pkg/logger"
	"github.com/medisync/dose-alert/pkg/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL, 5*time.Second, logger.New("error"))
	return client, server
}

func TestGetMedications_ParsesBackendPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/medications/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{
				"id": 42,
				"patient_number": 7,
				"next_dose_time": "2025-03-10T09:00:00+08:00",
				"Medication_name": "Amoxicillin",
				"Medication_unit": "mg",
				"Medication_strength": "500",
				"Medication_route": "oral",
				"Medication_form": "capsule",
				"physicianID": "DR-7",
				"notes": "with food"
			}
		]`))
	})

	schedules, err := client.GetMedications(context.Background())
	require.NoError(t, err)
	require.Len(t, schedules, 1)

	sched := schedules[0]
	assert.Equal(t, int64(42), sched.ID)
	assert.Equal(t, int64(7), sched.PatientNumber)
	assert.Equal(t, "Amoxicillin", sched.MedicationName)
	assert.Equal(t, "09:00", sched.DoseTimeOfDay())

	expected := time.Date(2025, 3, 10, 9, 0, 0, 0, time.FixedZone("", 8*3600))
	assert.True(t, sched.NextDoseTime.Equal(expected))
}

func TestGetPatients_ParsesBackendPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/patients/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"patient_number": 7, "first_name": "Maria", "last_name": "Santos", "room_number": 204, "is_archived": false},
			{"patient_number": 8, "first_name": "Jose", "last_name": "Cruz", "room_number": 110, "is_archived": true}
		]`))
	})

	patients, err := client.GetPatients(context.Background())
	require.NoError(t, err)
	require.Len(t, patients, 2)

	assert.Equal(t, "SANTOS, Maria", patients[0].DisplayName())
	assert.Equal(t, 204, patients[0].RoomNumber)
	assert.True(t, patients[1].IsArchived)
}

func TestGetMedications_NonOKStatusIsTransient(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.GetMedications(context.Background())
	require.Error(t, err)

	var alertErr *types.AlertError
	require.True(t, errors.As(err, &alertErr))
	assert.Equal(t, types.ErrorTypeTransientFetch, alertErr.Type)
}

func TestGetMedications_DecodeFailureIsTransient(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a list"`))
	})

	_, err := client.GetMedications(context.Background())
	require.Error(t, err)

	var alertErr *types.AlertError
	require.True(t, errors.As(err, &alertErr))
	assert.Equal(t, types.ErrorTypeTransientFetch, alertErr.Type)
}

func TestGetPatients_ConnectionRefusedIsTransient(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := NewClient(server.URL, time.Second, logger.New("error"))

	_, err := client.GetPatients(context.Background())
	require.Error(t, err)

	var alertErr *types.AlertError
	require.True(t, errors.As(err, &alertErr))
	assert.Equal(t, types.ErrorTypeTransientFetch, alertErr.Type)
}
