// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package meminfo parses the kernel's textual memory counter file into
// byte-normalized values.
package meminfo // import "github.com/nodemeter/nodemeter/meminfo"

import (
	"bufio"
	"bytes"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/nodemeter/nodemeter/stringutil"
)

// The source reports kilobytes, all values are normalized to bytes.
const kiloByte = 1024

// Info holds the memory counters of one sampling cycle. A nil field means the
// counter was absent from the source; absence is distinct from a zero reading.
type Info struct {
	Total    *uint64
	Free     *uint64
	Active   *uint64
	Inactive *uint64
	Cached   *uint64
	Buffers  *uint64
}

// Used derives the used-memory figure from Total and Free. It reports false
// if either input counter was absent, as a fabricated zero would be
// indistinguishable from a real reading.
func (i *Info) Used() (uint64, bool) {
	if i.Total == nil || i.Free == nil {
		return 0, false
	}
	if *i.Free > *i.Total {
		// Inconsistent source snapshot, clamp instead of wrapping around.
		return 0, true
	}
	return *i.Total - *i.Free, true
}

// Parse reads memory counters in the /proc/meminfo line format. Unrecognized
// keys are skipped, malformed values for recognized keys are logged and
// skipped. Content never fails the parse, it only leaves fields unset.
func Parse(data []byte) *Info {
	info := &Info{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := stringutil.ByteSlice2String(scanner.Bytes())

		var kv [2]string
		if stringutil.SplitN(line, ":", kv[:]) != 2 {
			continue
		}
		field := info.fieldFor(kv[0])
		if field == nil {
			continue
		}

		var parts [3]string
		if stringutil.FieldsN(kv[1], parts[:]) < 1 {
			log.Debugf("Memory counter %s has no value", kv[0])
			continue
		}
		value, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			log.Debugf("Failed to parse memory counter %s value '%s': %v",
				kv[0], parts[0], err)
			continue
		}

		inBytes := value * kiloByte
		*field = &inBytes
	}

	return info
}

func (i *Info) fieldFor(key string) **uint64 {
	switch key {
	case "MemTotal":
		return &i.Total
	case "MemFree":
		return &i.Free
	case "Active":
		return &i.Active
	case "Inactive":
		return &i.Inactive
	case "Cached":
		return &i.Cached
	case "Buffers":
		return &i.Buffers
	default:
		return nil
	}
}
