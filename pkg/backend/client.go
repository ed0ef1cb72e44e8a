// Package backend talks to the SitSense cloud API: posture telemetry
// uploads, device settings fetch, and the realtime settings socket.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/sitsense/go-sitsense/internal/httpc"
	"github.com/sitsense/go-sitsense/pkg/posture"
)

// API paths, relative to the base URL.
const (
	posturePath  = "/posture-data/"
	settingsPath = "/device-settings/"
)

// ComponentScore is one component's score on the wire.
type ComponentScore struct {
	ComponentType string `json:"component_type"`
	Score         int    `json:"score"`
}

type postureRequest struct {
	Components []ComponentScore `json:"components"`
}

// Client is an authenticated SitSense API client. Requests carry the
// device credentials in X-API-Key and X-Device-ID headers.
type Client struct {
	baseURL  string
	apiKey   string
	deviceID string
	hc       *http.Client
}

// NewClient creates an API client for the given backend and credentials.
func NewClient(baseURL, apiKey, deviceID string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		deviceID: deviceID,
		hc:       httpc.Client,
	}
}

// DeviceID returns the device identity this client authenticates as.
func (c *Client) DeviceID() string {
	return c.deviceID
}

// SendScores uploads one set of windowed component scores.
// It implements the telemetry sink used by the posture pipeline.
func (c *Client) SendScores(ctx context.Context, s posture.Scores) error {
	req := postureRequest{Components: make([]ComponentScore, 0, len(posture.Components))}
	for _, comp := range posture.Components {
		req.Components = append(req.Components, ComponentScore{
			ComponentType: string(comp),
			Score:         int(math.Round(s.Get(comp))),
		})
	}
	return c.post(ctx, posturePath, req)
}

// FetchSettings retrieves the current device settings from the backend.
func (c *Client) FetchSettings(ctx context.Context) (posture.Settings, error) {
	var settings posture.Settings
	if err := c.get(ctx, settingsPath, &settings); err != nil {
		return posture.Settings{}, err
	}
	return settings, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.auth(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("POST %s: unexpected status %d", path, resp.StatusCode)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.auth(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: decode response: %w", path, err)
	}
	return nil
}

func (c *Client) auth(req *http.Request) {
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-Device-ID", c.deviceID)
}
