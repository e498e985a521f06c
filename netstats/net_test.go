// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package netstats

import (
	"testing"
	"time"

	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRate(t *testing.T) {
	tests := map[string]struct {
		prev     *InterfaceSnapshot
		curr     *InterfaceSnapshot
		interval time.Duration
		expected Rates
		err      bool
	}{
		"steady transfer": {
			prev:     &InterfaceSnapshot{Name: "eth0", InBytes: 1000, OutBytes: 2000},
			curr:     &InterfaceSnapshot{Name: "eth0", InBytes: 7000, OutBytes: 5000},
			interval: 60 * time.Second,
			expected: Rates{InPerSec: 100, OutPerSec: 50},
		},
		"idle interface": {
			prev:     &InterfaceSnapshot{Name: "eth0", InBytes: 1000, OutBytes: 2000},
			curr:     &InterfaceSnapshot{Name: "eth0", InBytes: 1000, OutBytes: 2000},
			interval: 60 * time.Second,
			expected: Rates{},
		},
		"sub-second interval": {
			prev:     &InterfaceSnapshot{Name: "eth0"},
			curr:     &InterfaceSnapshot{Name: "eth0", InBytes: 50, OutBytes: 25},
			interval: 500 * time.Millisecond,
			expected: Rates{InPerSec: 100, OutPerSec: 50},
		},
		"counter reset clamps to zero": {
			prev:     &InterfaceSnapshot{Name: "eth0", InBytes: 9000, OutBytes: 100},
			curr:     &InterfaceSnapshot{Name: "eth0", InBytes: 600, OutBytes: 700},
			interval: 60 * time.Second,
			expected: Rates{InPerSec: 0, OutPerSec: 10},
		},
		"interface changed": {
			prev:     &InterfaceSnapshot{Name: "eth0"},
			curr:     &InterfaceSnapshot{Name: "eth1"},
			interval: 60 * time.Second,
			err:      true,
		},
		"missing previous": {
			prev:     nil,
			curr:     &InterfaceSnapshot{Name: "eth0"},
			interval: 60 * time.Second,
			err:      true,
		},
		"zero interval": {
			prev:     &InterfaceSnapshot{Name: "eth0"},
			curr:     &InterfaceSnapshot{Name: "eth0"},
			interval: 0,
			err:      true,
		},
	}

	for name, testcase := range tests {
		t.Run(name, func(t *testing.T) {
			rates, err := Rate(testcase.prev, testcase.curr, testcase.interval)
			if testcase.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, testcase.expected.InPerSec, rates.InPerSec, 0.000001)
			assert.InDelta(t, testcase.expected.OutPerSec, rates.OutPerSec, 0.000001)
		})
	}
}

func TestSelect(t *testing.T) {
	tests := map[string]struct {
		ifaces   []InterfaceSnapshot
		expected string
		ok       bool
	}{
		"highest outbound wins": {
			ifaces: []InterfaceSnapshot{
				{Name: "eth0", InBytes: 100, OutBytes: 200},
				{Name: "eth1", InBytes: 100, OutBytes: 900},
				{Name: "eth2", InBytes: 100, OutBytes: 300},
			},
			expected: "eth1",
			ok:       true,
		},
		"tie keeps enumeration order": {
			ifaces: []InterfaceSnapshot{
				{Name: "eno1", InBytes: 5, OutBytes: 70},
				{Name: "eno2", InBytes: 5, OutBytes: 70},
			},
			expected: "eno1",
			ok:       true,
		},
		"counters must be nonzero": {
			ifaces: []InterfaceSnapshot{
				{Name: "eth0"},
				{Name: "eth1", InBytes: 1},
			},
			expected: "eth1",
			ok:       true,
		},
		"non ethernet names skipped": {
			ifaces: []InterfaceSnapshot{
				{Name: "docker0", InBytes: 100, OutBytes: 100000},
				{Name: "veth12ab34", InBytes: 100, OutBytes: 100000},
				{Name: "eth0", InBytes: 1, OutBytes: 1},
			},
			expected: "eth0",
			ok:       true,
		},
		"nothing qualifies": {
			ifaces: []InterfaceSnapshot{
				{Name: "lo", InBytes: 100, OutBytes: 100},
				{Name: "eth0"},
			},
			ok: false,
		},
		"empty enumeration": {
			ifaces: nil,
			ok:     false,
		},
	}

	for name, testcase := range tests {
		t.Run(name, func(t *testing.T) {
			elected, ok := Select(testcase.ifaces)
			require.Equal(t, testcase.ok, ok)
			assert.Equal(t, testcase.expected, elected)
		})
	}
}

func TestIsEthernetClass(t *testing.T) {
	tests := map[string]bool{
		"eth0":            true,
		"eth12":           true,
		"eno1":            true,
		"ens5":            true,
		"enp0s31f6":       true,
		"enx00e04c680001": true,
		"lo":              false,
		"docker0":         false,
		"veth1a2b3c":      false,
		"br-4f1e2d":       false,
		"wlan0":           false,
		"tun0":            false,
	}

	for name, expected := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, expected, IsEthernetClass(name))
		})
	}
}

func TestFromCounters(t *testing.T) {
	counters := []psnet.IOCountersStat{
		{Name: "lo", BytesRecv: 10, BytesSent: 10},
		{Name: "eth0", BytesRecv: 1234, BytesSent: 5678},
		{Name: "docker0", BytesRecv: 99, BytesSent: 99},
		{Name: "enp3s0", BytesRecv: 42, BytesSent: 43},
	}

	snapshots := fromCounters(counters)
	require.Len(t, snapshots, 2)
	assert.Equal(t, InterfaceSnapshot{Name: "eth0", InBytes: 1234, OutBytes: 5678},
		snapshots[0])
	assert.Equal(t, InterfaceSnapshot{Name: "enp3s0", InBytes: 42, OutBytes: 43},
		snapshots[1])
}
