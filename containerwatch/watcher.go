/*
 * Copyright Elasticsearch B.V. and/or licensed to Elasticsearch B.V. under one
 * or more contributor license agreements. Licensed under the Apache License 2.0.
 * See the file "LICENSE" for details.
 */

// Package containerwatch feeds the container runtime accountant from the
// Docker Engine API. It provides both input paths the accountant consumes:
// polled observations of all containers via List, and asynchronous death
// observations via the engine's event stream.
//
// Start timestamps of dying containers are kept in an LRU cache so that a
// container which is removed between its die event and our inspect call can
// still be attributed.
package containerwatch // import "github.com/nodemeter/nodemeter/containerwatch"

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	lru "github.com/elastic/go-freelru"
	log "github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"

	"github.com/nodemeter/nodemeter/containertime"
	"github.com/nodemeter/nodemeter/periodiccaller"
	"github.com/nodemeter/nodemeter/times"
)

// startedAtCacheSize defines the size of the cache which maps a container ID
// to its start timestamp. Its perfect size would be the number of containers
// that die within one sampling window.
const startedAtCacheSize = 1024

// pingJitter defines the maximum relative deviation of the availability
// probe interval.
const pingJitter = 0.2

// OnDeathFunc receives one observation per container die event. It is called
// from a background goroutine.
type OnDeathFunc func(containertime.Observation)

// dockerAPI is the subset of the Docker Engine client the watcher uses.
type dockerAPI interface {
	ContainerList(ctx context.Context, options container.ListOptions) (
		[]container.Summary, error)
	ContainerInspect(ctx context.Context, containerID string) (
		container.InspectResponse, error)
	Events(ctx context.Context, options events.ListOptions) (
		<-chan events.Message, <-chan error)
	Ping(ctx context.Context) (types.Ping, error)
}

// Compile time check that the real client satisfies the narrowed interface.
var _ dockerAPI = (*client.Client)(nil)

// hashString is a helper function for the started-at cache.
// xxh3 turned out to be the fastest hash function for strings in the FreeLRU
// benchmarks. It was only outperformed by the AES hash function, which is
// implemented in Plan9 assembly.
func hashString(s string) uint32 {
	return uint32(xxh3.HashString(s))
}

// Watcher observes the container engine.
type Watcher struct {
	api    dockerAPI
	timers times.IntervalsAndTimers

	// startedAt caches the start timestamp per container ID. Locked LRU.
	startedAt *lru.SyncedLRU[string, time.Time]
}

// New connects to the container engine configured through the environment and
// verifies it is reachable.
func New(ctx context.Context, timers times.IntervalsAndTimers) (*Watcher, error) {
	api, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create container engine client: %v", err)
	}

	watcher, err := newWatcher(api, timers)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := watcher.requestCtx(ctx)
	defer cancel()
	if _, err = api.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping container engine: %v", err)
	}

	return watcher, nil
}

func newWatcher(api dockerAPI, timers times.IntervalsAndTimers) (*Watcher, error) {
	startedAt, err := lru.NewSynced[string, time.Time](startedAtCacheSize, hashString)
	if err != nil {
		return nil, fmt.Errorf("unable to create started-at cache: %v", err)
	}

	return &Watcher{
		api:       api,
		timers:    timers,
		startedAt: startedAt,
	}, nil
}

// requestCtx bounds a single engine API request.
func (w *Watcher) requestCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, w.timers.ContainerRequestTimeout())
}

// List returns one observation per container known to the engine, including
// stopped ones. Containers whose inspect fails are skipped, the listing
// itself failing is an error for the caller to handle.
func (w *Watcher) List(ctx context.Context) ([]containertime.Observation, error) {
	listCtx, cancel := w.requestCtx(ctx)
	defer cancel()
	containers, err := w.api.ContainerList(listCtx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %v", err)
	}

	observations := make([]containertime.Observation, 0, len(containers))
	for i := range containers {
		id := containers[i].ID
		state, err := w.inspectState(ctx, id)
		if err != nil {
			log.Debugf("Failed to inspect container %s: %v", shortID(id), err)
			continue
		}
		observations = append(observations, w.observationOf(id, state))
	}

	return observations, nil
}

func (w *Watcher) inspectState(ctx context.Context, id string) (*container.State, error) {
	inspectCtx, cancel := w.requestCtx(ctx)
	defer cancel()
	inspect, err := w.api.ContainerInspect(inspectCtx, id)
	if err != nil {
		return nil, err
	}
	if inspect.ContainerJSONBase == nil || inspect.State == nil {
		return nil, errors.New("inspect response carries no state")
	}
	return inspect.State, nil
}

// observationOf maps an inspected state into an observation and refreshes the
// started-at cache.
func (w *Watcher) observationOf(id string, state *container.State) containertime.Observation {
	obs := containertime.Observation{
		ID:         id,
		Running:    state.Running,
		StartedAt:  parseEngineTime(state.StartedAt),
		FinishedAt: parseEngineTime(state.FinishedAt),
	}
	if !obs.StartedAt.IsZero() {
		w.startedAt.Add(id, obs.StartedAt)
	}
	return obs
}

// Start begins delivering death observations to onDeath from a background
// goroutine until ctx is canceled. It also starts the periodic engine
// availability probe.
func (w *Watcher) Start(ctx context.Context, onDeath OnDeathFunc) {
	go w.runEventLoop(ctx, onDeath)
	w.startPing(ctx)
}

// runEventLoop keeps a filtered event subscription alive. The engine client
// terminates the message channel on any stream error, so each failure is
// followed by a fresh subscription after a backoff.
func (w *Watcher) runEventLoop(ctx context.Context, onDeath OnDeathFunc) {
	filter := filters.NewArgs(
		filters.Arg("type", string(events.ContainerEventType)),
		filters.Arg("event", string(events.ActionDie)),
	)

	for {
		msgCh, errCh := w.api.Events(ctx, events.ListOptions{Filters: filter})
		err := w.consumeEvents(ctx, msgCh, errCh, onDeath)
		if ctx.Err() != nil {
			return
		}
		log.Warnf("Container event stream failed, reconnecting in %v: %v",
			w.timers.EventRetryBackoff(), err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.timers.EventRetryBackoff()):
		}
	}
}

func (w *Watcher) consumeEvents(ctx context.Context, msgCh <-chan events.Message,
	errCh <-chan error, onDeath OnDeathFunc) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case msg := <-msgCh:
			onDeath(w.deathObservation(ctx, msg))
		}
	}
}

// deathObservation assembles the observation for a die event. The exit
// timestamp comes from the event itself. The start timestamp comes from
// inspecting the container, with the started-at cache as fallback for
// containers that are already removed.
func (w *Watcher) deathObservation(ctx context.Context,
	msg events.Message) containertime.Observation {
	id := msg.Actor.ID
	obs := containertime.Observation{
		ID:         id,
		FinishedAt: eventTime(msg),
	}

	if state, err := w.inspectState(ctx, id); err != nil {
		log.Debugf("Failed to inspect dying container %s: %v", shortID(id), err)
	} else {
		obs.StartedAt = parseEngineTime(state.StartedAt)
	}

	if obs.StartedAt.IsZero() {
		if started, ok := w.startedAt.Get(id); ok {
			obs.StartedAt = started
		}
	} else {
		w.startedAt.Add(id, obs.StartedAt)
	}

	return obs
}

// startPing probes engine availability on a jittered interval and logs
// transitions. A down engine is not fatal: polling degrades on its own and
// the event stream reconnects once the engine returns.
func (w *Watcher) startPing(ctx context.Context) {
	available := true
	periodiccaller.StartWithJitter(ctx, w.timers.PingInterval(), pingJitter, func() {
		pingCtx, cancel := w.requestCtx(ctx)
		defer cancel()
		_, err := w.api.Ping(pingCtx)
		switch {
		case err != nil && available:
			log.Warnf("Container engine became unavailable: %v", err)
		case err == nil && !available:
			log.Infof("Container engine became available again")
		}
		available = err == nil
	})
}

// parseEngineTime parses the engine's RFC3339Nano state timestamps. The
// engine reports the zero value for states never entered; unparseable values
// degrade to the zero time as well, which readers treat as no usable data.
func parseEngineTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		log.Debugf("Unparseable container state timestamp %q: %v", value, err)
		return time.Time{}
	}
	return ts
}

func eventTime(msg events.Message) time.Time {
	if msg.TimeNano > 0 {
		return time.Unix(0, msg.TimeNano)
	}
	if msg.Time > 0 {
		return time.Unix(msg.Time, 0)
	}
	return time.Now()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
