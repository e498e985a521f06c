// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package hoststats

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAverage(t *testing.T) {
	reader := NewReader()

	avg, err := reader.LoadAverage()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, avg.Load1, 0.0)
	assert.GreaterOrEqual(t, avg.Load5, 0.0)
	assert.GreaterOrEqual(t, avg.Load15, 0.0)
}

func TestDiskUsage(t *testing.T) {
	reader := NewReader()

	usage, err := reader.DiskUsage(t.TempDir())
	require.NoError(t, err)

	assert.NotZero(t, usage.Total)
	assert.LessOrEqual(t, usage.Free, usage.Total)
	assert.LessOrEqual(t, usage.Available, usage.Free)
	assert.Equal(t, usage.Total-usage.Free, usage.Used)
}

func TestDiskUsageMissingPath(t *testing.T) {
	reader := NewReader()

	_, err := reader.DiskUsage("/__does-not-exist__")
	require.Error(t, err)
}

func TestUptime(t *testing.T) {
	tests := map[string]struct {
		content  string
		expected time.Duration
		err      bool
	}{
		"plain":           {content: "3600.25 7000.12\n", expected: 3600*time.Second + 250*time.Millisecond},
		"single field":    {content: "42.00\n", expected: 42 * time.Second},
		"not numeric":     {content: "up since tuesday\n", err: true},
		"empty":           {content: "", err: true},
		"whitespace only": {content: "   \n", err: true},
	}

	reader := NewReader()
	for name, testcase := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "uptime")
			require.NoError(t, os.WriteFile(path, []byte(testcase.content), 0o600))

			defer func(prev string) { uptimePath = prev }(uptimePath)
			uptimePath = path

			uptime, err := reader.Uptime()
			if testcase.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testcase.expected, uptime)
		})
	}
}

func TestUptimeMissingFile(t *testing.T) {
	defer func(prev string) { uptimePath = prev }(uptimePath)
	uptimePath = "/__does-not-exist__"

	_, err := NewReader().Uptime()
	require.Error(t, err)
}

func TestReadMemCounters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meminfo")
	content := []byte("MemTotal: 1024 kB\nMemFree: 512 kB\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	defer func(prev string) { memCountersPath = prev }(memCountersPath)
	memCountersPath = path

	data, err := NewReader().ReadMemCounters()
	require.NoError(t, err)
	assert.Equal(t, content, data)
}
