/*
 * Copyright Elasticsearch B.V. and/or licensed to Elasticsearch B.V. under one
 * or more contributor license agreements. Licensed under the Apache License 2.0.
 * See the file "LICENSE" for details.
 */

package main

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodemeter/nodemeter/internal/controller"
)

func parseWithArgs(t *testing.T, args ...string) (*controller.Config, error) {
	t.Helper()

	oldArgs := os.Args
	os.Args = append([]string{"nodemeter"}, args...)
	t.Cleanup(func() { os.Args = oldArgs })

	return parseArgs()
}

func TestParseArgsDefaults(t *testing.T) {
	cfg, err := parseWithArgs(t)
	require.NoError(t, err)

	assert.Empty(t, cfg.CollectionEndpoint)
	assert.Equal(t, "/", cfg.DiskPath)
	assert.True(t, cfg.MonitorContainers)
	assert.Equal(t, 60*time.Second, cfg.SampleInterval)
	assert.Equal(t, 10*time.Second, cfg.SelfMetricsInterval)
	assert.Empty(t, cfg.Token)
	assert.False(t, cfg.VerboseMode)
	assert.False(t, cfg.Version)
}

func TestParseArgsFlags(t *testing.T) {
	cfg, err := parseWithArgs(t,
		"-collection-endpoint", "https://telemetry.example.com/v1/ingest",
		"-disk-path", "/var/lib",
		"-monitor-containers=false",
		"-sample-interval", "30s",
		"-self-metrics-interval", "5s",
		"-token", "secret",
		"-verbose",
	)
	require.NoError(t, err)

	assert.Equal(t, "https://telemetry.example.com/v1/ingest", cfg.CollectionEndpoint)
	assert.Equal(t, "/var/lib", cfg.DiskPath)
	assert.False(t, cfg.MonitorContainers)
	assert.Equal(t, 30*time.Second, cfg.SampleInterval)
	assert.Equal(t, 5*time.Second, cfg.SelfMetricsInterval)
	assert.Equal(t, "secret", cfg.Token)
	assert.True(t, cfg.VerboseMode)
}

func TestParseArgsEnvironment(t *testing.T) {
	t.Setenv("NODEMETER_SAMPLE_INTERVAL", "90s")
	t.Setenv("NODEMETER_TOKEN", "from-env")

	cfg, err := parseWithArgs(t)
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.SampleInterval)
	assert.Equal(t, "from-env", cfg.Token)
}

func TestParseArgsFlagBeatsEnvironment(t *testing.T) {
	t.Setenv("NODEMETER_SAMPLE_INTERVAL", "90s")

	cfg, err := parseWithArgs(t, "-sample-interval", "15s")
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.SampleInterval)
}
