// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "github.com/nodemeter/nodemeter/reporter"

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/nodemeter/nodemeter/telemetry"
)

// LogPublisher writes snapshots to the debug log. It stands in for the HTTP
// publisher when no collection endpoint is configured.
type LogPublisher struct{}

var _ Publisher = (*LogPublisher)(nil)

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Start(_ context.Context) error {
	log.Info("No collection endpoint configured, logging telemetry instead")
	return nil
}

func (p *LogPublisher) Stop() {}

func (p *LogPublisher) Publish(_ context.Context, snapshot *telemetry.Snapshot) error {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %v", err)
	}
	log.Debugf("Telemetry snapshot: %s", body)
	return nil
}
