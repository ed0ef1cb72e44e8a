package backend

import (
	"context"
	"time"

	"github.com/sitsense/go-sitsense/internal/log"
)

// Default poller timing.
const (
	DefaultPollInterval = 60 * time.Second
	DefaultRetryDelay   = 10 * time.Second
)

// Poller periodically fetches device settings over HTTP and publishes
// them to the store. It is the fallback path when the settings socket
// is unavailable.
type Poller struct {
	client   *Client
	store    *Store
	interval time.Duration
	retry    time.Duration
}

// NewPoller creates a settings poller with default timing.
func NewPoller(client *Client, store *Store) *Poller {
	return &Poller{
		client:   client,
		store:    store,
		interval: DefaultPollInterval,
		retry:    DefaultRetryDelay,
	}
}

// SetInterval overrides the poll interval and retry delay.
func (p *Poller) SetInterval(interval, retry time.Duration) {
	p.interval = interval
	p.retry = retry
}

// Run polls until the context is cancelled. The first fetch happens
// immediately so the pipeline starts with real settings.
func (p *Poller) Run(ctx context.Context) {
	log.Info("Settings poller started", "interval", p.interval)

	for {
		delay := p.interval
		if err := p.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("Settings fetch failed", "error", err)
			delay = p.retry
		}

		select {
		case <-ctx.Done():
			log.Info("Settings poller stopped")
			return
		case <-time.After(delay):
		}
	}
}

func (p *Poller) poll(ctx context.Context) error {
	settings, err := p.client.FetchSettings(ctx)
	if err != nil {
		return err
	}
	p.store.Update(settings)
	log.Debug("Settings updated",
		"sensitivity", settings.Sensitivity,
		"intensity", settings.VibrationIntensity,
		"active_session", settings.HasActiveSession)
	return nil
}
