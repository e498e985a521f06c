// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "github.com/nodemeter/nodemeter/reporter"

import (
	"time"
)

type Config struct {
	// Name defines the name of the agent.
	Name string

	// Version defines the version of the agent.
	Version string

	// CollectionEndpoint defines the URL snapshots are published to. If it
	// is empty, snapshots are logged instead of sent.
	CollectionEndpoint string

	// Token is the bearer token presented to the collection endpoint.
	// It may be empty.
	Token string

	// PublishTimeout bounds each publish attempt.
	PublishTimeout time.Duration
}

// New returns the publisher matching the configuration: an HTTP publisher
// when a collection endpoint is configured, the log publisher otherwise.
func New(cfg *Config) Publisher {
	if cfg.CollectionEndpoint == "" {
		return NewLogPublisher()
	}
	return NewHTTPPublisher(cfg)
}
