// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "github.com/nodemeter/nodemeter/reporter"

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nodemeter/nodemeter/telemetry"
)

// batch is the publish payload. Snapshots are sent as a one-element list so
// the endpoint contract stays stable should batching across cycles ever be
// introduced.
type batch struct {
	Agent     string                `json:"agent"`
	Version   string                `json:"version"`
	Telemetry []*telemetry.Snapshot `json:"telemetry"`
}

// HTTPPublisher delivers snapshots to a collection endpoint as JSON over
// HTTP. Each snapshot is sent exactly once: a failed delivery is reported to
// the caller and the snapshot is dropped.
type HTTPPublisher struct {
	client   *http.Client
	endpoint string
	token    string
	name     string
	version  string
	timeout  time.Duration
}

var _ Publisher = (*HTTPPublisher)(nil)

// NewHTTPPublisher returns a publisher that POSTs snapshots to the configured
// collection endpoint.
func NewHTTPPublisher(cfg *Config) *HTTPPublisher {
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPPublisher{
		client:   &http.Client{Timeout: timeout},
		endpoint: cfg.CollectionEndpoint,
		token:    cfg.Token,
		name:     cfg.Name,
		version:  cfg.Version,
		timeout:  timeout,
	}
}

func (p *HTTPPublisher) Start(_ context.Context) error {
	log.Infof("Publishing telemetry to %s", p.endpoint)
	return nil
}

func (p *HTTPPublisher) Stop() {
	p.client.CloseIdleConnections()
}

func (p *HTTPPublisher) Publish(ctx context.Context, snapshot *telemetry.Snapshot) error {
	body, err := json.Marshal(batch{
		Agent:     p.name,
		Version:   p.version,
		Telemetry: []*telemetry.Snapshot{snapshot},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint,
		bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create publish request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", p.name+"/"+p.version)
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to publish snapshot: %v", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("collection endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
