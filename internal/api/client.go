package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/medisync/dose-alert/pkg/logger"
	"github.com/medisync/dose-alert/pkg/types"
)

// Client consumes the hospital backend's read endpoints. It implements
// both interfaces.ScheduleSource and interfaces.PatientDirectory.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new backend API client
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log,
	}
}

// GetMedications fetches the full medication schedule list
func (c *Client) GetMedications(ctx context.Context) ([]*types.ScheduleEntry, error) {
	var schedules []*types.ScheduleEntry
	if err := c.getJSON(ctx, "/medications/", &schedules); err != nil {
		return nil, types.NewTransientFetchError("MEDICATIONS_FETCH_FAILED", "failed to fetch medication schedules", err)
	}
	return schedules, nil
}

// GetPatients fetches the full patient directory
func (c *Client) GetPatients(ctx context.Context) ([]*types.Patient, error) {
	var patients []*types.Patient
	if err := c.getJSON(ctx, "/patients/", &patients); err != nil {
		return nil, types.NewTransientFetchError("PATIENTS_FETCH_FAILED", "failed to fetch patient list", err)
	}
	return patients, nil
}

// getJSON performs a GET request and decodes the JSON response body
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}

	return nil
}
