package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"ev-fleet/optimizer/internal/domain"
	"ev-fleet/optimizer/internal/metrics"
)

// Client forwards one serialized snapshot at a time to the remote store.
// A failed send is logged and counted, never retried; retry policy belongs
// to the remote side.
type Client struct {
	url    string
	http   *http.Client
	logger *zerolog.Logger
}

// NewClient returns nil when url is empty, which disables forwarding.
func NewClient(url string, timeout time.Duration, logger *zerolog.Logger) *Client {
	if url == "" {
		return nil
	}
	return &Client{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Send posts the snapshot as JSON and reports the binary outcome.
func (c *Client) Send(ctx context.Context, snap *domain.TelemetrySnapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cloud send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cloud rejected snapshot: status %d", resp.StatusCode)
	}
	return nil
}

// Forward is the fire-and-forget wrapper the ingest path uses: outcome is
// surfaced in the log and the failure counter only.
func (c *Client) Forward(ctx context.Context, snap *domain.TelemetrySnapshot) {
	if err := c.Send(ctx, snap); err != nil {
		metrics.CloudForwardFailures.Add(1)
		c.logger.Warn().Err(err).Str("vehicle", snap.VehicleID).Msg("cloud forward failed")
		return
	}
	c.logger.Debug().Str("vehicle", snap.VehicleID).Msg("snapshot forwarded to cloud")
}
