// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package controller // import "github.com/nodemeter/nodemeter/internal/controller"

import (
	"context"
	"fmt"
	"net/url"

	log "github.com/sirupsen/logrus"

	"github.com/nodemeter/nodemeter/containerwatch"
	"github.com/nodemeter/nodemeter/cpustats"
	"github.com/nodemeter/nodemeter/hoststats"
	"github.com/nodemeter/nodemeter/metrics"
	"github.com/nodemeter/nodemeter/metrics/selfmetrics"
	"github.com/nodemeter/nodemeter/netstats"
	"github.com/nodemeter/nodemeter/periodiccaller"
	"github.com/nodemeter/nodemeter/reporter"
	"github.com/nodemeter/nodemeter/sampler"
	"github.com/nodemeter/nodemeter/times"
	"github.com/nodemeter/nodemeter/vc"
)

// Controller is an instance that runs, manages and stops the agent.
type Controller struct {
	config *Config

	publisher reporter.Publisher
	cpuReader *cpustats.Reader

	stopSampling    func()
	stopSelfMetrics func()
}

// New creates a new controller
func New(cfg *Config) *Controller {
	return &Controller{
		config: cfg,
	}
}

// Start builds the providers and sinks, seeds the sampler and starts the
// periodic sampling loop. The controller should only be started once.
func (c *Controller) Start(ctx context.Context) error {
	intervals := times.New(c.config.SampleInterval, c.config.SelfMetricsInterval)

	cpuReader, err := cpustats.NewReader()
	if err != nil {
		return fmt.Errorf("failed to open CPU tick source: %w", err)
	}
	c.cpuReader = cpuReader

	netReader, err := netstats.NewReader()
	if err != nil {
		return fmt.Errorf("failed to open interface counter source: %w", err)
	}

	hostReader := hoststats.NewReader()

	exporter, err := metrics.NewExporter()
	if err != nil {
		return fmt.Errorf("failed to create metric exporter: %w", err)
	}

	c.publisher = reporter.New(&reporter.Config{
		Name:               "nodemeter",
		Version:            vc.Version(),
		CollectionEndpoint: c.config.CollectionEndpoint,
		Token:              c.config.Token,
		PublishTimeout:     intervals.PublishTimeout(),
	})
	if err = c.publisher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start publisher: %w", err)
	}

	// A missing container engine only disables runtime accounting. The node
	// telemetry is worth having either way.
	var watcher *containerwatch.Watcher
	if c.config.MonitorContainers {
		watcher, err = containerwatch.New(ctx, intervals)
		if err != nil {
			log.Warnf("Container runtime accounting disabled: %v", err)
			watcher = nil
		}
	}

	samplerCfg := &sampler.Config{
		CPU:                cpuReader,
		Net:                netReader,
		Mem:                hostReader,
		Host:               hostReader,
		Publisher:          c.publisher,
		Exporter:           exporter,
		Timers:             intervals,
		DiskPath:           c.config.DiskPath,
		PreferredInterface: routeInterface(c.config.CollectionEndpoint),
	}
	if watcher != nil {
		samplerCfg.Containers = watcher
	}

	smplr, err := sampler.New(samplerCfg)
	if err != nil {
		return fmt.Errorf("failed to create sampler: %w", err)
	}

	if err = smplr.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed sampler: %w", err)
	}

	if watcher != nil {
		watcher.Start(ctx, smplr.RecordDeath)
	}

	c.stopSampling = periodiccaller.Start(ctx, intervals.SampleInterval(), func() {
		smplr.RunCycle(ctx)
	})

	c.stopSelfMetrics, err = selfmetrics.Start(ctx, exporter,
		intervals.SelfMetricsInterval())
	if err != nil {
		return fmt.Errorf("failed to start self metrics: %w", err)
	}

	log.Infof("Sampling node telemetry every %v", intervals.SampleInterval())
	return nil
}

// Shutdown stops the controller
func (c *Controller) Shutdown() {
	log.Info("Stop processing ...")
	if c.stopSampling != nil {
		c.stopSampling()
	}
	if c.stopSelfMetrics != nil {
		c.stopSelfMetrics()
	}
	if c.publisher != nil {
		c.publisher.Stop()
	}
	if c.cpuReader != nil {
		if err := c.cpuReader.Close(); err != nil {
			log.Errorf("Failed to close CPU tick source: %v", err)
		}
	}
}

// routeInterface resolves which interface carries traffic to the collection
// endpoint, so the sampler can prefer it over the traffic heuristic. Best
// effort: without an endpoint or a usable routing table it returns "".
func routeInterface(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}

	name, err := netstats.RouteInterface(parsed.Hostname())
	if err != nil {
		log.Debugf("Could not determine route interface for %s: %v",
			parsed.Hostname(), err)
		return ""
	}
	return name
}
