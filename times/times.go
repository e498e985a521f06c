// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package times // import "github.com/nodemeter/nodemeter/times"

import (
	"time"
)

const (
	// PublishTimeout defines the timeout for each publish of a telemetry batch
	// to the collection endpoint.
	PublishTimeout = 10 * time.Second
	// ContainerRequestTimeout defines the timeout for each container engine
	// API request (list, inspect, ping).
	ContainerRequestTimeout = 5 * time.Second
	// EventRetryBackoff defines the time between reconnect attempts to the
	// container engine event stream after it failed.
	EventRetryBackoff = 5 * time.Second
	// PingInterval defines the base interval at which container engine
	// availability is probed. The actual interval is jittered.
	PingInterval = 1 * time.Minute
)

// Compile time check for interface adherence
var _ IntervalsAndTimers = (*Times)(nil)

// Times hold all the intervals and timeouts that are used across the agent in a central place
// and comes with Getters to read them.
type Times struct {
	sampleInterval          time.Duration
	selfMetricsInterval     time.Duration
	publishTimeout          time.Duration
	containerRequestTimeout time.Duration
	eventRetryBackoff       time.Duration
	pingInterval            time.Duration
}

// IntervalsAndTimers is a meta-interface that exists purely to document its functionality.
type IntervalsAndTimers interface {
	// SampleInterval defines the interval at which one full telemetry
	// sampling cycle runs.
	SampleInterval() time.Duration
	// SelfMetricsInterval defines the interval at which the agent reports
	// metrics about itself.
	SelfMetricsInterval() time.Duration
	// PublishTimeout defines the timeout for each publish of a telemetry
	// batch to the collection endpoint.
	PublishTimeout() time.Duration
	// ContainerRequestTimeout defines the timeout for each container engine
	// API request.
	ContainerRequestTimeout() time.Duration
	// EventRetryBackoff defines the time between reconnect attempts to the
	// container engine event stream.
	EventRetryBackoff() time.Duration
	// PingInterval defines the base interval for container engine
	// availability probes.
	PingInterval() time.Duration
}

func (t *Times) SampleInterval() time.Duration { return t.sampleInterval }

func (t *Times) SelfMetricsInterval() time.Duration { return t.selfMetricsInterval }

func (t *Times) PublishTimeout() time.Duration { return t.publishTimeout }

func (t *Times) ContainerRequestTimeout() time.Duration { return t.containerRequestTimeout }

func (t *Times) EventRetryBackoff() time.Duration { return t.eventRetryBackoff }

func (t *Times) PingInterval() time.Duration { return t.pingInterval }

// New returns a new Times instance.
func New(sampleInterval, selfMetricsInterval time.Duration) *Times {
	return &Times{
		sampleInterval:          sampleInterval,
		selfMetricsInterval:     selfMetricsInterval,
		publishTimeout:          PublishTimeout,
		containerRequestTimeout: ContainerRequestTimeout,
		eventRetryBackoff:       EventRetryBackoff,
		pingInterval:            PingInterval,
	}
}
