// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package controller // import "github.com/nodemeter/nodemeter/internal/controller"

import (
	"errors"
	"flag"
	"time"

	log "github.com/sirupsen/logrus"
)

type Config struct {
	// CollectionEndpoint is the URL snapshots are published to. Empty means
	// snapshots are logged instead.
	CollectionEndpoint string
	// Token is the bearer token presented to the collection endpoint.
	Token string
	// DiskPath is the mount point whose filesystem usage is sampled.
	DiskPath string
	// SampleInterval is the length of one sampling cycle.
	SampleInterval time.Duration
	// SelfMetricsInterval is the interval of the agent's own metrics.
	SelfMetricsInterval time.Duration
	// MonitorContainers enables container runtime accounting via the local
	// container engine.
	MonitorContainers bool
	PprofAddr         string
	VerboseMode       bool
	Version           bool

	Fs *flag.FlagSet
}

// Dump visits all flag sets, and dumps them all to debug
// Used for verbose mode logging.
func (cfg *Config) Dump() {
	log.Debug("Config:")
	cfg.Fs.VisitAll(func(f *flag.Flag) {
		log.Debugf("%s: %v", f.Name, f.Value)
	})
}

// Validate runs validations on the provided configuration, and returns errors
// if invalid values were provided.
func (cfg *Config) Validate() error {
	if cfg.SampleInterval <= 0 {
		return errors.New("sample interval must be positive")
	}
	if cfg.SelfMetricsInterval <= 0 {
		return errors.New("self-metrics interval must be positive")
	}
	if cfg.DiskPath == "" {
		return errors.New("disk path must not be empty")
	}
	return nil
}
