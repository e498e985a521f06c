/*
 * Copyright Elasticsearch B.V. and/or licensed to Elasticsearch B.V. under one
 * or more contributor license agreements. Licensed under the Apache License 2.0.
 * See the file "LICENSE" for details.
 */

// Package selfmetrics implements the fetching and reporting of agent specific metrics.
package selfmetrics

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sys/unix"

	log "github.com/sirupsen/logrus"

	"github.com/nodemeter/nodemeter/metrics"
	"github.com/nodemeter/nodemeter/periodiccaller"
)

// Exporter receives the collected self metrics.
type Exporter interface {
	Export(key string, value float64)
}

// rusageTimes holds time values of a rusage call.
type rusageTimes struct {
	// utime represents the user time in usec.
	utime unix.Timeval
	// stime represents the system time in usec.
	stime unix.Timeval

	exporter Exporter
}

const (
	// rusageSelf is the indicator that we get the rusage
	// of the calling process itself.
	rusageSelf = 0
)

// timeDelta calculates the difference between two time values
// and returns the difference in milliseconds.
func timeDelta(now, prev unix.Timeval) int64 {
	secDelta := (now.Sec - prev.Sec) * 1000
	usecDelta := (now.Usec - prev.Usec) / 1000
	return secDelta + usecDelta
}

// report collects agent specific metrics and forwards these
// to the exporter for further processing.
func (r *rusageTimes) report() {
	nGoRoutines := runtime.NumGoroutine()

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	var rusage unix.Rusage
	if err := unix.Getrusage(rusageSelf, &rusage); err != nil {
		log.Errorf("Failed to fetch Rusage: %v", err)
		return
	}

	// Get the difference to the previous call of rusage.
	deltaStime := timeDelta(rusage.Stime, r.stime)
	deltaUtime := timeDelta(rusage.Utime, r.utime)

	// Save the current values of the rusage call.
	r.stime = rusage.Stime
	r.utime = rusage.Utime

	r.exporter.Export(metrics.KeyAgentGoRoutines, float64(nGoRoutines))
	r.exporter.Export(metrics.KeyAgentHeapAlloc, float64(stats.HeapAlloc))
	r.exporter.Export(metrics.KeyAgentUTime, float64(deltaUtime))
	r.exporter.Export(metrics.KeyAgentSTime, float64(deltaStime))
}

// Start starts the agent specific metric retrieval and reporting.
func Start(mainCtx context.Context, exporter Exporter, interval time.Duration) (func(), error) {
	var rusage unix.Rusage
	if err := unix.Getrusage(rusageSelf, &rusage); err != nil {
		log.Errorf("Failed to fetch Rusage: %v", err)
		return func() {}, err
	}

	prev := rusageTimes{
		utime:    rusage.Utime,
		stime:    rusage.Stime,
		exporter: exporter,
	}

	ctx, cancel := context.WithCancel(mainCtx)
	stopReporting := periodiccaller.Start(ctx, interval, func() {
		prev.report()
	})

	return func() {
		cancel()
		stopReporting()
	}, nil
}
