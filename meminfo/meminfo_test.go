// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package meminfo

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireValue(t *testing.T, field *uint64, expected uint64) {
	t.Helper()
	require.NotNil(t, field)
	assert.Equal(t, expected, *field)
}

func TestParse(t *testing.T) {
	info := Parse([]byte("MemTotal: 1024 kB\nMemFree: 512 kB\n"))

	requireValue(t, info.Total, 1048576)
	requireValue(t, info.Free, 524288)
	assert.Nil(t, info.Active)
	assert.Nil(t, info.Inactive)
	assert.Nil(t, info.Cached)
	assert.Nil(t, info.Buffers)

	used, ok := info.Used()
	require.True(t, ok)
	assert.Equal(t, uint64(524288), used)
}

func TestParseFile(t *testing.T) {
	tests := map[string]struct {
		path     string
		expected *Info
	}{
		"full counter file": {
			path: "testdata/meminfo.ok",
			expected: &Info{
				Total:    kbytes(16326396),
				Free:     kbytes(8196508),
				Active:   kbytes(4888928),
				Inactive: kbytes(2453108),
				Cached:   kbytes(3162136),
				Buffers:  kbytes(512932),
			},
		},
		"garbage": {
			path:     "testdata/meminfo.garbage",
			expected: &Info{},
		},
		"empty": {
			path:     "testdata/meminfo.empty",
			expected: &Info{},
		},
	}

	for name, testcase := range tests {
		t.Run(name, func(t *testing.T) {
			data, err := os.ReadFile(testcase.path)
			require.NoError(t, err)
			assert.Equal(t, testcase.expected, Parse(data))
		})
	}
}

func TestParsePartial(t *testing.T) {
	tests := map[string]struct {
		content  string
		expected *Info
	}{
		"value not numeric": {
			content:  "MemTotal: abc kB\nMemFree: 512 kB\n",
			expected: &Info{Free: kbytes(512)},
		},
		"value missing": {
			content:  "MemTotal:\nMemFree: 512 kB\n",
			expected: &Info{Free: kbytes(512)},
		},
		"unknown keys skipped": {
			content:  "Slab: 100 kB\nShmem: 200 kB\nBuffers: 300 kB\n",
			expected: &Info{Buffers: kbytes(300)},
		},
		"qualified variants not confused": {
			content:  "Active(anon): 100 kB\nActive: 200 kB\n",
			expected: &Info{Active: kbytes(200)},
		},
		"missing unit still kilobytes": {
			content:  "Cached: 700\n",
			expected: &Info{Cached: kbytes(700)},
		},
	}

	for name, testcase := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, testcase.expected, Parse([]byte(testcase.content)))
		})
	}
}

func TestUsedAbsent(t *testing.T) {
	tests := map[string]struct {
		info *Info
	}{
		"no counters":  {&Info{}},
		"free absent":  {&Info{Total: kbytes(1024)}},
		"total absent": {&Info{Free: kbytes(512)}},
	}

	for name, testcase := range tests {
		t.Run(name, func(t *testing.T) {
			used, ok := testcase.info.Used()
			assert.False(t, ok)
			assert.Equal(t, uint64(0), used)
		})
	}
}

func TestUsedClamped(t *testing.T) {
	info := &Info{Total: kbytes(512), Free: kbytes(1024)}

	used, ok := info.Used()
	require.True(t, ok)
	assert.Equal(t, uint64(0), used)
}

// kbytes returns a pointer to the byte-normalized form of a kilobyte reading.
func kbytes(kb uint64) *uint64 {
	b := kb * 1024
	return &b
}
