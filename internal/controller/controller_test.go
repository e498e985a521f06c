// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{
		DiskPath:            "/",
		SampleInterval:      60 * time.Second,
		SelfMetricsInterval: 10 * time.Second,
	}

	for _, tt := range []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "zero sample interval",
			mutate:  func(cfg *Config) { cfg.SampleInterval = 0 },
			wantErr: "sample interval",
		},
		{
			name:    "negative sample interval",
			mutate:  func(cfg *Config) { cfg.SampleInterval = -time.Second },
			wantErr: "sample interval",
		},
		{
			name:    "zero self-metrics interval",
			mutate:  func(cfg *Config) { cfg.SelfMetricsInterval = 0 },
			wantErr: "self-metrics interval",
		},
		{
			name:    "empty disk path",
			mutate:  func(cfg *Config) { cfg.DiskPath = "" },
			wantErr: "disk path",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestRouteInterfaceWithoutEndpoint(t *testing.T) {
	require.Empty(t, routeInterface(""))
	require.Empty(t, routeInterface("://not-a-url"))
	require.Empty(t, routeInterface("/just/a/path"))
}
