/*
 * Copyright Elasticsearch B.V. and/or licensed to Elasticsearch B.V. under one
 * or more contributor license agreements. Licensed under the Apache License 2.0.
 * See the file "LICENSE" for details.
 */

/*
Package cpustats provides per-core CPU tick snapshots and the delta math that
turns two consecutive snapshots into utilization percentages.

The directory structure is

	cpustats/
	├── cpu.go
	├── cpu_test.go
	└── testdata
	    ├── procstat.empty
	    ├── procstat.garbage
	    └── procstat.ok

A Snapshot is a point-in-time copy of the cumulative tick counters of every
logical core. Snapshots carry no derived state; all rate math lives in Delta,
which is a pure function of two snapshots and therefore trivially testable.

The description of '/proc/stat' can be found at

	https://man7.org/linux/man-pages/man5/proc.5.html.
*/
package cpustats // import "github.com/nodemeter/nodemeter/cpustats"

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tklauser/numcpus"

	"github.com/nodemeter/nodemeter/stringutil"
)

// procStatPath is the file name to read the CPU tick counters from.
var procStatPath = "/proc/stat"

// CoreTicks holds the cumulative tick counters of one logical core, in the
// kernel's USER_HZ units. The counters only ever grow, modulo wrap-around.
type CoreTicks struct {
	User   uint64
	System uint64
	Idle   uint64
}

// Snapshot is the per-core counter state of one sampling cycle, ordered by
// core enumeration in the source.
type Snapshot []CoreTicks

// Usage is the aggregate CPU utilization between two snapshots, as
// percentages. The categories sum to 100 within floating point tolerance.
type Usage struct {
	System float64
	User   float64
	Idle   float64
}

// Delta calculates the aggregate utilization between two snapshots as the
// unweighted mean of the per-core percentages. A core without elapsed ticks
// counts as fully idle. The snapshots must cover the same cores; a length
// mismatch means the core count changed in between and the caller has to
// re-seed.
func Delta(prev, curr Snapshot) (Usage, error) {
	if len(prev) == 0 || len(curr) == 0 {
		return Usage{}, fmt.Errorf("empty snapshot (prev %d cores, curr %d cores)",
			len(prev), len(curr))
	}
	if len(prev) != len(curr) {
		return Usage{}, fmt.Errorf("core count changed from %d to %d",
			len(prev), len(curr))
	}

	var sum Usage
	for i := range curr {
		user := tickDelta(prev[i].User, curr[i].User)
		system := tickDelta(prev[i].System, curr[i].System)
		idle := tickDelta(prev[i].Idle, curr[i].Idle)

		total := user + system + idle
		if total == 0 {
			// No ticks elapsed on this core, it was idle.
			sum.Idle += 100
			continue
		}
		sum.User += float64(user*100) / float64(total)
		sum.System += float64(system*100) / float64(total)
		sum.Idle += float64(idle*100) / float64(total)
	}

	cores := float64(len(curr))
	return Usage{
		System: sum.System / cores,
		User:   sum.User / cores,
		Idle:   sum.Idle / cores,
	}, nil
}

// tickDelta returns curr-prev, accounting for counter wrap-around.
func tickDelta(prev, curr uint64) uint64 {
	if curr < prev {
		log.Debugf("CPU tick wrap-around detected %d -> %d", prev, curr)
		return (math.MaxUint64 - prev) + curr + 1
	}
	return curr - prev
}

// Reader takes snapshots of the kernel's per-core CPU tick counters.
// It is not safe for concurrent use.
type Reader struct {
	// file is the open counter file, rewound before every snapshot.
	file *os.File

	// scannerBuffer backs the line scanner in Snapshot. The Reader is
	// guaranteed concurrency free, so the buffer can be reused.
	scannerBuffer [8192]byte
}

// NewReader opens the CPU tick counter source and verifies it is readable.
func NewReader() (*Reader, error) {
	return newReader(procStatPath)
}

func newReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CPU counters: %v", err)
	}
	r := &Reader{file: file}

	snapshot, err := r.Snapshot()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read initial CPU counters: %v", err)
	}
	if online, err := numcpus.GetOnline(); err == nil && online != len(snapshot) {
		log.Warnf("CPU counter source reports %d cores, %d online", len(snapshot), online)
	}

	return r, nil
}

// Snapshot reads the current per-core tick counters.
func (r *Reader) Snapshot() (Snapshot, error) {
	// rewind instead of open/close at every interval
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var snapshot Snapshot

	scanner := bufio.NewScanner(r.file)
	scanner.Buffer(r.scannerBuffer[:], cap(r.scannerBuffer))
	for scanner.Scan() {
		// Avoid heap allocation by not using scanner.Text().
		// NOTE: The underlying bytes will change with the next call to scanner.Scan(),
		// so make sure to not keep any references after the end of the loop iteration.
		line := stringutil.ByteSlice2String(scanner.Bytes())

		// Per-core lines are 'cpuN ...', the aggregate line 'cpu ...' is skipped.
		if !strings.HasPrefix(line, "cpu") || len(line) < 4 || !isDigit(line[3]) {
			continue
		}

		// Fields per proc(5): cpu user nice system idle ...
		var fields [6]string
		if n := stringutil.FieldsN(line, fields[:]); n < 5 {
			return nil, fmt.Errorf("failed to find at least 5 fields in '%s'", line)
		}

		var ticks CoreTicks
		var err error
		if ticks.User, err = strconv.ParseUint(fields[1], 10, 64); err != nil {
			return nil, fmt.Errorf("failed to parse user ticks in '%s'", line)
		}
		if ticks.System, err = strconv.ParseUint(fields[3], 10, 64); err != nil {
			return nil, fmt.Errorf("failed to parse system ticks in '%s'", line)
		}
		if ticks.Idle, err = strconv.ParseUint(fields[4], 10, 64); err != nil {
			return nil, fmt.Errorf("failed to parse idle ticks in '%s'", line)
		}
		snapshot = append(snapshot, ticks)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read CPU counters: %v", err)
	}

	if len(snapshot) == 0 {
		return nil, fmt.Errorf("no per-core counters in %s", r.file.Name())
	}
	return snapshot, nil
}

// Close releases the underlying counter file.
func (r *Reader) Close() error {
	return r.file.Close()
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
