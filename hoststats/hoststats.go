// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package hoststats provides the host-level measurements that need no delta
// state: load averages, filesystem usage, uptime and the raw memory counters.
package hoststats // import "github.com/nodemeter/nodemeter/hoststats"

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v4/load"
	"golang.org/x/sys/unix"

	"github.com/nodemeter/nodemeter/stringutil"
)

var (
	// uptimePath is the file name to read the host uptime from.
	uptimePath = "/proc/uptime"

	// memCountersPath is the file name to read the memory counters from.
	memCountersPath = "/proc/meminfo"
)

// LoadAvg holds the scheduler load averages over the conventional windows.
type LoadAvg struct {
	Load1  float64
	Load5  float64
	Load15 float64
}

// DiskUsage holds the usage of one filesystem, in bytes.
type DiskUsage struct {
	Free      uint64
	Available uint64
	Used      uint64
	Total     uint64
}

// Reader provides the stateless host measurements of one sampling cycle.
type Reader struct{}

// NewReader returns a Reader.
func NewReader() *Reader {
	return &Reader{}
}

// LoadAverage returns the current scheduler load averages.
func (r *Reader) LoadAverage() (LoadAvg, error) {
	avg, err := load.Avg()
	if err != nil {
		return LoadAvg{}, fmt.Errorf("failed to read load averages: %v", err)
	}
	return LoadAvg{
		Load1:  avg.Load1,
		Load5:  avg.Load5,
		Load15: avg.Load15,
	}, nil
}

// DiskUsage returns the usage of the filesystem that path lives on.
func (r *Reader) DiskUsage(path string) (DiskUsage, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return DiskUsage{}, fmt.Errorf("failed to statfs %s: %v", path, err)
	}

	blockSize := uint64(stat.Bsize)
	return DiskUsage{
		Free:      stat.Bfree * blockSize,
		Available: stat.Bavail * blockSize,
		Used:      (stat.Blocks - stat.Bfree) * blockSize,
		Total:     stat.Blocks * blockSize,
	}, nil
}

// Uptime returns how long the host has been up.
func (r *Reader) Uptime() (time.Duration, error) {
	data, err := os.ReadFile(uptimePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read uptime: %v", err)
	}

	// First field is the uptime in seconds with sub-second resolution,
	// second field is accumulated idle time.
	var fields [3]string
	if stringutil.FieldsN(stringutil.ByteSlice2String(data), fields[:]) < 1 {
		return 0, fmt.Errorf("unexpected uptime content '%s'", data)
	}
	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse uptime '%s': %v", fields[0], err)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

// ReadMemCounters returns the raw memory counter file of this cycle.
func (r *Reader) ReadMemCounters() ([]byte, error) {
	data, err := os.ReadFile(memCountersPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory counters: %v", err)
	}
	return data, nil
}
