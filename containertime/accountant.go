// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package containertime attributes container runtime to sampling windows.

The central type is the Accountant. It maintains a sampling window that is
advanced on every cycle close, and answers one question per cycle: how many
seconds did containers run on this node during the window that just ended?

Two input paths feed it:

  - Poll reconciliation: every cycle close receives the full enumeration of
    containers, running and exited, and attributes each one's overlap with
    the closing window.
  - Death events: container exits are also reported asynchronously, so runs
    that start and end between two polls (invisible to reconciliation once
    the engine garbage collects them) are captured the moment they happen.
    Their contribution accumulates in a pending bucket that is drained into
    the closing window exactly once.

A run observed by both paths must not be counted twice. Every container
therefore carries a watermark of how far its runtime has been attributed;
both paths attribute only past the watermark. The watermark also makes
windows additive: a run contributes its full length once, split across the
windows it overlaps, never more.
*/
package containertime // import "github.com/nodemeter/nodemeter/containertime"

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// recordRetentionWindows is the number of cycle closes a container record
// survives without being enumerated before it is dropped.
const recordRetentionWindows = 3

// Observation is one container's state as reported by the engine. A zero
// timestamp means the engine did not provide a usable value; it is never
// interpreted as the epoch.
type Observation struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Running    bool
}

// validRun reports whether the observation describes a completed run with
// usable timestamps.
func (o *Observation) validRun() bool {
	return !o.StartedAt.IsZero() && !o.FinishedAt.IsZero() &&
		o.StartedAt.Before(o.FinishedAt)
}

// record tracks attribution state for one container ID.
type record struct {
	// accountedUntil is the watermark: runtime up to this instant has been
	// attributed to some window already.
	accountedUntil time.Time

	// exited is set once a finished run has been fully attributed.
	exited bool

	// missedWindows counts consecutive cycle closes without an enumeration
	// of this container.
	missedWindows int
}

// Accountant turns container observations and death events into
// runtime-seconds per sampling window.
//
// CloseWindow must only be called from the sampling goroutine. RecordDeath
// is safe to call from any goroutine at any time.
type Accountant struct {
	mu sync.Mutex

	// windowStart is the exclusive lower bound of the currently open window.
	windowStart time.Time

	// pending accumulates event-reported runtime for the open window.
	pending time.Duration

	records map[string]*record
}

// New returns an Accountant whose first window opens at start.
func New(start time.Time) *Accountant {
	return &Accountant{
		windowStart: start,
		records:     make(map[string]*record),
	}
}

// RecordDeath attributes the unaccounted tail of a completed run to the
// currently open window. Deaths without a usable run are dropped here, a
// wedged engine clock must not propagate into the runtime figure.
func (a *Accountant) RecordDeath(obs Observation) {
	if !obs.validRun() {
		log.Debugf("Ignoring death of container %s without usable run (started %v, finished %v)",
			obs.ID, obs.StartedAt, obs.FinishedAt)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	rec := a.recordFor(obs.ID)
	baseline := latest(obs.StartedAt, a.windowStart, rec.accountedUntil)
	if contribution := obs.FinishedAt.Sub(baseline); contribution > 0 {
		a.pending += contribution
	}
	rec.accountedUntil = latest(rec.accountedUntil, obs.FinishedAt)
	rec.exited = true
}

// CloseWindow attributes the enumerated containers' runtime to the closing
// window, drains the event-reported pending runtime into it, and opens the
// next window at now. It returns the closed window's runtime in whole
// seconds, truncated.
func (a *Accountant) CloseWindow(now time.Time, observed []Observation) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	var total time.Duration
	for i := range observed {
		total += a.attributeLocked(&observed[i], now)
	}

	// Drain the event-side bucket exactly once per window.
	total += a.pending
	a.pending = 0

	// Both inputs above are relative to the old window start, it must only
	// advance after they have been consumed.
	a.windowStart = now

	a.sweepLocked(observed)

	return int64(total / time.Second)
}

// attributeLocked returns one observation's contribution to the closing
// window and advances its watermark. Unusable observations contribute zero;
// the cycle carries on.
func (a *Accountant) attributeLocked(obs *Observation, now time.Time) time.Duration {
	rec := a.recordFor(obs.ID)

	if obs.Running {
		if rec.exited {
			// A death was already recorded for this ID. An enumeration
			// captured before that death still reports the old run and
			// must not be re-attributed; a restart under the same ID is
			// a fresh run and carries a start time past the death
			// watermark.
			if obs.StartedAt.IsZero() || !obs.StartedAt.After(rec.accountedUntil) {
				return 0
			}
		}
		if obs.StartedAt.IsZero() {
			log.Debugf("Container %s is running without usable start time", obs.ID)
			return 0
		}
		baseline := latest(obs.StartedAt, a.windowStart, rec.accountedUntil)
		contribution := now.Sub(baseline)
		if contribution < 0 {
			return 0
		}
		rec.accountedUntil = latest(rec.accountedUntil, now)
		rec.exited = false
		return contribution
	}

	if !obs.validRun() {
		log.Debugf("Container %s exited without usable run (started %v, finished %v)",
			obs.ID, obs.StartedAt, obs.FinishedAt)
		rec.exited = true
		return 0
	}

	baseline := latest(obs.StartedAt, a.windowStart, rec.accountedUntil)
	contribution := obs.FinishedAt.Sub(baseline)
	if contribution < 0 {
		contribution = 0
	}
	rec.accountedUntil = latest(rec.accountedUntil, obs.FinishedAt)
	rec.exited = true
	return contribution
}

// sweepLocked expires records of containers the engine no longer reports.
func (a *Accountant) sweepLocked(observed []Observation) {
	enumerated := make(map[string]struct{}, len(observed))
	for i := range observed {
		enumerated[observed[i].ID] = struct{}{}
	}

	for id, rec := range a.records {
		if _, ok := enumerated[id]; ok {
			rec.missedWindows = 0
			continue
		}
		rec.missedWindows++
		if rec.exited || rec.missedWindows >= recordRetentionWindows {
			delete(a.records, id)
		}
	}
}

func (a *Accountant) recordFor(id string) *record {
	rec, ok := a.records[id]
	if !ok {
		rec = &record{}
		a.records[id] = rec
	}
	return rec
}

// latest returns the latest of the given instants.
func latest(times ...time.Time) time.Time {
	var result time.Time
	for _, t := range times {
		if t.After(result) {
			result = t
		}
	}
	return result
}
