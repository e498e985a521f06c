// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry defines the assembled per-cycle snapshot that is handed
// to the publish and export sinks. A nil section means the corresponding
// measurement failed or was unavailable this cycle; a degraded cycle still
// produces a snapshot with the sections that could be measured.
package telemetry // import "github.com/nodemeter/nodemeter/telemetry"

import (
	"time"

	"github.com/nodemeter/nodemeter/cpustats"
	"github.com/nodemeter/nodemeter/hoststats"
	"github.com/nodemeter/nodemeter/meminfo"
	"github.com/nodemeter/nodemeter/netstats"
)

// Snapshot is one sampling cycle's result. It is immutable once assembled.
type Snapshot struct {
	CapturedAt time.Time `json:"captured_at"`

	Memory  *Memory  `json:"memory,omitempty"`
	CPU     *CPU     `json:"cpu,omitempty"`
	Network *Network `json:"network,omitempty"`
	Load    *Load    `json:"load,omitempty"`
	Disk    *Disk    `json:"disk,omitempty"`

	// ContainerRuntimeSeconds is the accumulated container runtime of the
	// window that ended with this cycle.
	ContainerRuntimeSeconds *int64 `json:"container_runtime_seconds,omitempty"`

	UptimeSeconds *uint64 `json:"uptime_seconds,omitempty"`
}

// Memory holds byte-normalized memory counters. Fields are nil when the
// counter was absent from the source, which is distinct from zero.
type Memory struct {
	TotalBytes    *uint64 `json:"total_bytes,omitempty"`
	FreeBytes     *uint64 `json:"free_bytes,omitempty"`
	UsedBytes     *uint64 `json:"used_bytes,omitempty"`
	ActiveBytes   *uint64 `json:"active_bytes,omitempty"`
	InactiveBytes *uint64 `json:"inactive_bytes,omitempty"`
	CachedBytes   *uint64 `json:"cached_bytes,omitempty"`
	BuffersBytes  *uint64 `json:"buffers_bytes,omitempty"`
}

// CPU holds the aggregate utilization percentages between the previous and
// this cycle.
type CPU struct {
	SystemPct float64 `json:"system_pct"`
	UserPct   float64 `json:"user_pct"`
	IdlePct   float64 `json:"idle_pct"`
}

// Network holds the primary interface's transfer rates between the previous
// and this cycle.
type Network struct {
	Interface      string  `json:"interface"`
	InBytesPerSec  float64 `json:"in_bytes_per_sec"`
	OutBytesPerSec float64 `json:"out_bytes_per_sec"`
}

// Load holds the scheduler load averages.
type Load struct {
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

// Disk holds the usage of the monitored filesystem.
type Disk struct {
	FreeBytes      uint64 `json:"free_bytes"`
	AvailableBytes uint64 `json:"available_bytes"`
	UsedBytes      uint64 `json:"used_bytes"`
	TotalBytes     uint64 `json:"total_bytes"`
}

// MemoryFrom maps parsed memory counters into the snapshot shape, deriving
// the used figure where its inputs are present.
func MemoryFrom(info *meminfo.Info) *Memory {
	if info == nil {
		return nil
	}
	memory := &Memory{
		TotalBytes:    info.Total,
		FreeBytes:     info.Free,
		ActiveBytes:   info.Active,
		InactiveBytes: info.Inactive,
		CachedBytes:   info.Cached,
		BuffersBytes:  info.Buffers,
	}
	if used, ok := info.Used(); ok {
		memory.UsedBytes = &used
	}
	return memory
}

// CPUFrom maps a utilization delta into the snapshot shape.
func CPUFrom(usage *cpustats.Usage) *CPU {
	if usage == nil {
		return nil
	}
	return &CPU{
		SystemPct: usage.System,
		UserPct:   usage.User,
		IdlePct:   usage.Idle,
	}
}

// NetworkFrom maps interface rates into the snapshot shape.
func NetworkFrom(iface string, rates *netstats.Rates) *Network {
	if rates == nil {
		return nil
	}
	return &Network{
		Interface:      iface,
		InBytesPerSec:  rates.InPerSec,
		OutBytesPerSec: rates.OutPerSec,
	}
}

// LoadFrom maps load averages into the snapshot shape.
func LoadFrom(avg *hoststats.LoadAvg) *Load {
	if avg == nil {
		return nil
	}
	return &Load{
		Load1:  avg.Load1,
		Load5:  avg.Load5,
		Load15: avg.Load15,
	}
}

// DiskFrom maps filesystem usage into the snapshot shape.
func DiskFrom(usage *hoststats.DiskUsage) *Disk {
	if usage == nil {
		return nil
	}
	return &Disk{
		FreeBytes:      usage.Free,
		AvailableBytes: usage.Available,
		UsedBytes:      usage.Used,
		TotalBytes:     usage.Total,
	}
}
