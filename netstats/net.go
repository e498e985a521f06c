// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package netstats samples interface byte counters and derives transfer rates
// from consecutive samples of the node's primary interface.
package netstats // import "github.com/nodemeter/nodemeter/netstats"

import (
	"fmt"
	"strings"
	"time"

	psnet "github.com/shirou/gopsutil/v4/net"
	log "github.com/sirupsen/logrus"
)

// ethernetPrefixes matches kernel names of physical ethernet interfaces,
// both the classic (eth0) and the predictable (enp0s31f6, eno1, ens5,
// enx<mac>) naming schemes.
var ethernetPrefixes = []string{"eth", "en"}

// InterfaceSnapshot is a point-in-time copy of one interface's cumulative
// byte counters.
type InterfaceSnapshot struct {
	Name     string
	InBytes  uint64
	OutBytes uint64
}

// Rates holds the byte transfer rates between two snapshots.
type Rates struct {
	InPerSec  float64
	OutPerSec float64
}

// Rate calculates transfer rates between two snapshots of the same interface
// taken interval apart. A counter that went backwards (interface bounce or
// counter reset) yields a zero rate for that direction rather than a bogus
// spike.
func Rate(prev, curr *InterfaceSnapshot, interval time.Duration) (Rates, error) {
	if prev == nil || curr == nil {
		return Rates{}, fmt.Errorf("missing snapshot (prev %v, curr %v)", prev, curr)
	}
	if prev.Name != curr.Name {
		return Rates{}, fmt.Errorf("snapshot interface changed from %s to %s",
			prev.Name, curr.Name)
	}
	if interval <= 0 {
		return Rates{}, fmt.Errorf("invalid sampling interval %v", interval)
	}

	seconds := interval.Seconds()
	return Rates{
		InPerSec:  float64(byteDelta(curr.Name, prev.InBytes, curr.InBytes)) / seconds,
		OutPerSec: float64(byteDelta(curr.Name, prev.OutBytes, curr.OutBytes)) / seconds,
	}, nil
}

func byteDelta(name string, prev, curr uint64) uint64 {
	if curr < prev {
		log.Debugf("Byte counter on %s went backwards (%d -> %d)", name, prev, curr)
		return 0
	}
	return curr - prev
}

// Select elects the primary interface from an enumeration: the ethernet-class
// interface with traffic on it that has transmitted the most bytes. Ties keep
// the earlier interface in enumeration order. The second return is false if
// no interface qualifies.
func Select(ifaces []InterfaceSnapshot) (string, bool) {
	var elected *InterfaceSnapshot
	for i := range ifaces {
		candidate := &ifaces[i]
		if !IsEthernetClass(candidate.Name) {
			continue
		}
		if candidate.InBytes == 0 && candidate.OutBytes == 0 {
			continue
		}
		if elected == nil || candidate.OutBytes > elected.OutBytes {
			elected = candidate
		}
	}
	if elected == nil {
		return "", false
	}
	return elected.Name, true
}

// IsEthernetClass reports whether name looks like a physical ethernet
// interface name.
func IsEthernetClass(name string) bool {
	for _, prefix := range ethernetPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Reader samples interface byte counters via the kernel's per-NIC statistics.
type Reader struct{}

// NewReader returns a Reader and verifies counters can be sampled at all.
func NewReader() (*Reader, error) {
	r := &Reader{}
	if _, err := psnet.IOCounters(true); err != nil {
		return nil, fmt.Errorf("failed to read interface counters: %v", err)
	}
	return r, nil
}

// Interfaces returns snapshots of all ethernet-class interfaces.
func (r *Reader) Interfaces() ([]InterfaceSnapshot, error) {
	counters, err := psnet.IOCounters(true)
	if err != nil {
		return nil, fmt.Errorf("failed to read interface counters: %v", err)
	}
	return fromCounters(counters), nil
}

// Interface re-resolves one interface by name. A missing interface is not an
// error: it returns (nil, nil) so the caller can treat disappearance as the
// transient condition it usually is.
func (r *Reader) Interface(name string) (*InterfaceSnapshot, error) {
	counters, err := psnet.IOCounters(true)
	if err != nil {
		return nil, fmt.Errorf("failed to read interface counters: %v", err)
	}
	for i := range counters {
		if counters[i].Name == name {
			snapshot := snapshotOf(&counters[i])
			return &snapshot, nil
		}
	}
	return nil, nil
}

func fromCounters(counters []psnet.IOCountersStat) []InterfaceSnapshot {
	snapshots := make([]InterfaceSnapshot, 0, len(counters))
	for i := range counters {
		if !IsEthernetClass(counters[i].Name) {
			continue
		}
		snapshots = append(snapshots, snapshotOf(&counters[i]))
	}
	return snapshots
}

func snapshotOf(counters *psnet.IOCountersStat) InterfaceSnapshot {
	return InterfaceSnapshot{
		Name:     counters.Name,
		InBytes:  counters.BytesRecv,
		OutBytes: counters.BytesSent,
	}
}
