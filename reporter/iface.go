// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "github.com/nodemeter/nodemeter/reporter"

import (
	"context"

	"github.com/nodemeter/nodemeter/telemetry"
)

// Publisher is the sink for assembled telemetry snapshots.
type Publisher interface {
	// Publish sends one snapshot to the sink. It returns an error if the
	// snapshot could not be delivered; the caller decides how to degrade.
	// Publish must not retry or buffer across cycles: sampling state has
	// already advanced when it is called, and delivery of a stale snapshot
	// is worth less than the next fresh one.
	Publish(ctx context.Context, snapshot *telemetry.Snapshot) error

	// Start starts the publisher in the background.
	//
	// If the publisher needs to perform a long-running starting operation then
	// it is recommended that Start() returns quickly and the long-running
	// operation is performed in the background.
	Start(ctx context.Context) error

	// Stop triggers a graceful shutdown of the publisher.
	Stop()
}

// MetricExporter is the sink for individual metric values. Implementations
// must tolerate keys they do not know about.
type MetricExporter interface {
	Export(key string, value float64)
}
