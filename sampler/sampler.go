// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package sampler runs the telemetry sampling cycle: it pulls one measurement
// from every source, rotates the previous-sample state that the delta
// calculators need, closes the container accounting window and hands the
// assembled snapshot to the publish and export sinks.
//
// A failing source degrades its own section of the snapshot and nothing
// else; the cycle always completes and always publishes what it has. The
// cycle trigger lives outside this package, one RunCycle call per interval,
// never concurrently.
package sampler // import "github.com/nodemeter/nodemeter/sampler"

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nodemeter/nodemeter/containertime"
	"github.com/nodemeter/nodemeter/cpustats"
	"github.com/nodemeter/nodemeter/hoststats"
	"github.com/nodemeter/nodemeter/meminfo"
	"github.com/nodemeter/nodemeter/metrics"
	"github.com/nodemeter/nodemeter/netstats"
	"github.com/nodemeter/nodemeter/reporter"
	"github.com/nodemeter/nodemeter/telemetry"
	"github.com/nodemeter/nodemeter/times"
)

// CPUSource provides cumulative per-core tick counters.
type CPUSource interface {
	Snapshot() (cpustats.Snapshot, error)
}

// NetSource provides interface byte counters.
type NetSource interface {
	Interfaces() ([]netstats.InterfaceSnapshot, error)
	Interface(name string) (*netstats.InterfaceSnapshot, error)
}

// MemSource provides the raw memory counter text.
type MemSource interface {
	ReadMemCounters() ([]byte, error)
}

// HostSource provides the stateless host measurements.
type HostSource interface {
	LoadAverage() (hoststats.LoadAvg, error)
	DiskUsage(path string) (hoststats.DiskUsage, error)
	Uptime() (time.Duration, error)
}

// ContainerLister enumerates all containers known to the engine.
type ContainerLister interface {
	List(ctx context.Context) ([]containertime.Observation, error)
}

// Compile time checks for interface adherence of the concrete providers.
var (
	_ CPUSource  = (*cpustats.Reader)(nil)
	_ NetSource  = (*netstats.Reader)(nil)
	_ MemSource  = (*hoststats.Reader)(nil)
	_ HostSource = (*hoststats.Reader)(nil)
)

type Config struct {
	CPU  CPUSource
	Net  NetSource
	Mem  MemSource
	Host HostSource

	// Containers may be nil: container runtime accounting is then disabled
	// and the snapshot never carries a runtime figure.
	Containers ContainerLister

	Publisher reporter.Publisher
	Exporter  reporter.MetricExporter

	Timers times.IntervalsAndTimers

	// DiskPath is the mount point whose filesystem usage is sampled.
	DiskPath string

	// PreferredInterface names an interface to elect ahead of the traffic
	// heuristic, typically derived from the kernel route to the collection
	// endpoint. Ignored when the named interface is not a candidate.
	PreferredInterface string

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Sampler holds all state that survives between cycles. Only the sampling
// goroutine touches the previous-sample fields; the accountant does its own
// locking because death events arrive concurrently.
type Sampler struct {
	cpu        CPUSource
	net        NetSource
	mem        MemSource
	host       HostSource
	containers ContainerLister
	publisher  reporter.Publisher
	exporter   reporter.MetricExporter
	timers     times.IntervalsAndTimers
	diskPath   string
	preferred  string
	clock      func() time.Time

	prevCPU   cpustats.Snapshot
	prevNet   *netstats.InterfaceSnapshot
	ifaceName string

	accountant *containertime.Accountant
}

// New creates a Sampler. The container accounting window opens at the current
// clock reading.
func New(cfg *Config) (*Sampler, error) {
	if cfg.CPU == nil || cfg.Net == nil || cfg.Mem == nil || cfg.Host == nil {
		return nil, errors.New("missing telemetry source")
	}
	if cfg.Publisher == nil || cfg.Exporter == nil {
		return nil, errors.New("missing telemetry sink")
	}
	if cfg.Timers == nil {
		return nil, errors.New("missing timers")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	diskPath := cfg.DiskPath
	if diskPath == "" {
		diskPath = "/"
	}

	return &Sampler{
		cpu:        cfg.CPU,
		net:        cfg.Net,
		mem:        cfg.Mem,
		host:       cfg.Host,
		containers: cfg.Containers,
		publisher:  cfg.Publisher,
		exporter:   cfg.Exporter,
		timers:     cfg.Timers,
		diskPath:   diskPath,
		preferred:  cfg.PreferredInterface,
		clock:      clock,
		accountant: containertime.New(clock()),
	}, nil
}

// RecordDeath forwards a container death observation into the runtime
// accountant. Safe to call from any goroutine.
func (s *Sampler) RecordDeath(obs containertime.Observation) {
	s.accountant.RecordDeath(obs)
}

// Seed takes the initial samples the first cycle's deltas are computed
// against and elects the primary network interface. Must be called once
// before RunCycle.
func (s *Sampler) Seed(_ context.Context) error {
	snapshot, err := s.cpu.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to take initial CPU snapshot: %v", err)
	}
	s.prevCPU = snapshot

	ifaces, err := s.net.Interfaces()
	if err != nil {
		return fmt.Errorf("failed to enumerate interfaces: %v", err)
	}
	name, ok := s.electInterface(ifaces)
	if !ok {
		log.Warnf("No primary network interface found, network rates disabled")
		return nil
	}
	s.ifaceName = name
	for i := range ifaces {
		if ifaces[i].Name == name {
			seed := ifaces[i]
			s.prevNet = &seed
			break
		}
	}
	log.Infof("Monitoring network interface %s", name)

	return nil
}

// electInterface prefers the route-derived interface when it is among the
// candidates and falls back to the traffic heuristic otherwise.
func (s *Sampler) electInterface(ifaces []netstats.InterfaceSnapshot) (string, bool) {
	if s.preferred != "" {
		for i := range ifaces {
			if ifaces[i].Name == s.preferred {
				return s.preferred, true
			}
		}
		log.Debugf("Preferred interface %s is not a candidate, using traffic heuristic",
			s.preferred)
	}
	return netstats.Select(ifaces)
}

// RunCycle performs one full sampling cycle: measure, assemble, publish,
// export. Failures are logged and omitted, never returned; the snapshot that
// leaves here carries whatever could be measured this cycle.
func (s *Sampler) RunCycle(ctx context.Context) {
	now := s.clock()
	snapshot := &telemetry.Snapshot{CapturedAt: now}

	snapshot.CPU = telemetry.CPUFrom(s.sampleCPU())
	snapshot.Network = telemetry.NetworkFrom(s.ifaceName, s.sampleNet())
	snapshot.ContainerRuntimeSeconds = s.sampleContainers(ctx, now)
	snapshot.Memory = telemetry.MemoryFrom(s.sampleMemory())
	snapshot.Load = telemetry.LoadFrom(s.sampleLoad())
	snapshot.Disk = telemetry.DiskFrom(s.sampleDisk())
	snapshot.UptimeSeconds = s.sampleUptime()

	s.publish(ctx, snapshot)
	s.export(snapshot)
}

// sampleCPU converts the tick counters into utilization percentages against
// the previous cycle. The previous snapshot rotates on every successful
// read, even when the delta itself fails, so a core count change costs one
// cycle rather than poisoning all following ones.
func (s *Sampler) sampleCPU() *cpustats.Usage {
	curr, err := s.cpu.Snapshot()
	if err != nil {
		log.Errorf("Failed to read CPU ticks: %v", err)
		return nil
	}

	usage, err := cpustats.Delta(s.prevCPU, curr)
	s.prevCPU = curr
	if err != nil {
		log.Errorf("Failed to compute CPU usage: %v", err)
		return nil
	}
	return &usage
}

// sampleNet derives transfer rates of the elected interface from consecutive
// counter snapshots. An interface that is absent this cycle (or a failed
// enumeration) drops the previous snapshot: rates resume after one full
// re-seeded interval instead of being computed over an unknown time span.
func (s *Sampler) sampleNet() *netstats.Rates {
	if s.ifaceName == "" {
		return nil
	}

	curr, err := s.net.Interface(s.ifaceName)
	if err != nil {
		log.Errorf("Failed to read interface counters: %v", err)
		s.prevNet = nil
		return nil
	}
	if curr == nil {
		if s.prevNet != nil {
			log.Warnf("Interface %s disappeared, omitting network rates", s.ifaceName)
		}
		s.prevNet = nil
		return nil
	}

	prev := s.prevNet
	s.prevNet = curr
	if prev == nil {
		// Re-seed cycle after a disappearance.
		return nil
	}

	rates, err := netstats.Rate(prev, curr, s.timers.SampleInterval())
	if err != nil {
		log.Errorf("Failed to compute network rates: %v", err)
		return nil
	}
	return &rates
}

// sampleContainers closes the accounting window against a fresh enumeration.
// When the engine cannot be enumerated the window stays open: the figure is
// omitted this cycle and the next successful poll accounts the longer window
// in one piece instead of losing it.
func (s *Sampler) sampleContainers(ctx context.Context, now time.Time) *int64 {
	if s.containers == nil {
		return nil
	}

	observed, err := s.containers.List(ctx)
	if err != nil {
		log.Errorf("Failed to list containers: %v", err)
		return nil
	}

	seconds := s.accountant.CloseWindow(now, observed)
	return &seconds
}

func (s *Sampler) sampleMemory() *meminfo.Info {
	data, err := s.mem.ReadMemCounters()
	if err != nil {
		log.Errorf("Failed to read memory counters: %v", err)
		return nil
	}
	return meminfo.Parse(data)
}

func (s *Sampler) sampleLoad() *hoststats.LoadAvg {
	avg, err := s.host.LoadAverage()
	if err != nil {
		log.Errorf("Failed to read load averages: %v", err)
		return nil
	}
	return &avg
}

func (s *Sampler) sampleDisk() *hoststats.DiskUsage {
	usage, err := s.host.DiskUsage(s.diskPath)
	if err != nil {
		log.Errorf("Failed to read disk usage of %s: %v", s.diskPath, err)
		return nil
	}
	return &usage
}

func (s *Sampler) sampleUptime() *uint64 {
	uptime, err := s.host.Uptime()
	if err != nil {
		log.Errorf("Failed to read uptime: %v", err)
		return nil
	}
	seconds := uint64(uptime / time.Second)
	return &seconds
}

func (s *Sampler) publish(ctx context.Context, snapshot *telemetry.Snapshot) {
	if err := s.publisher.Publish(ctx, snapshot); err != nil {
		log.Errorf("Failed to publish snapshot: %v", err)
		s.exporter.Export(metrics.KeyPublishFailures, 1)
	}
}

// export forwards every leaf value present in the snapshot to the export
// sink, one call per leaf. Absent sections and absent optional counters are
// skipped entirely.
func (s *Sampler) export(snapshot *telemetry.Snapshot) {
	if memory := snapshot.Memory; memory != nil {
		s.exportOptional(metrics.KeyMemTotal, memory.TotalBytes)
		s.exportOptional(metrics.KeyMemFree, memory.FreeBytes)
		s.exportOptional(metrics.KeyMemUsed, memory.UsedBytes)
		s.exportOptional(metrics.KeyMemActive, memory.ActiveBytes)
		s.exportOptional(metrics.KeyMemInactive, memory.InactiveBytes)
		s.exportOptional(metrics.KeyMemCached, memory.CachedBytes)
		s.exportOptional(metrics.KeyMemBuffers, memory.BuffersBytes)
	}
	if cpu := snapshot.CPU; cpu != nil {
		s.exporter.Export(metrics.KeyCPUSystem, cpu.SystemPct)
		s.exporter.Export(metrics.KeyCPUUser, cpu.UserPct)
		s.exporter.Export(metrics.KeyCPUIdle, cpu.IdlePct)
	}
	if network := snapshot.Network; network != nil {
		s.exporter.Export(metrics.KeyNetInRate, network.InBytesPerSec)
		s.exporter.Export(metrics.KeyNetOutRate, network.OutBytesPerSec)
	}
	if loadAvg := snapshot.Load; loadAvg != nil {
		s.exporter.Export(metrics.KeyLoad1, loadAvg.Load1)
		s.exporter.Export(metrics.KeyLoad5, loadAvg.Load5)
		s.exporter.Export(metrics.KeyLoad15, loadAvg.Load15)
	}
	if disk := snapshot.Disk; disk != nil {
		s.exporter.Export(metrics.KeyDiskFree, float64(disk.FreeBytes))
		s.exporter.Export(metrics.KeyDiskAvailable, float64(disk.AvailableBytes))
		s.exporter.Export(metrics.KeyDiskUsed, float64(disk.UsedBytes))
		s.exporter.Export(metrics.KeyDiskTotal, float64(disk.TotalBytes))
	}
	if seconds := snapshot.ContainerRuntimeSeconds; seconds != nil {
		s.exporter.Export(metrics.KeyContainerRuntime, float64(*seconds))
	}
	if uptime := snapshot.UptimeSeconds; uptime != nil {
		s.exporter.Export(metrics.KeyHostUptime, float64(*uptime))
	}
}

func (s *Sampler) exportOptional(key string, value *uint64) {
	if value == nil {
		return
	}
	s.exporter.Export(key, float64(*value))
}
