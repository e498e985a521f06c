// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

// Below are the keys of the metrics that we currently implement.
// To add a new metric, append an entry to metrics.json and add its key here.
const (
	// Total memory of the host in bytes.
	KeyMemTotal = "mem.total"

	// Free memory of the host in bytes.
	KeyMemFree = "mem.free"

	// Used memory of the host in bytes, derived as total minus free.
	KeyMemUsed = "mem.used"

	// Recently used memory in bytes.
	KeyMemActive = "mem.active"

	// Memory in bytes that has not been used recently.
	KeyMemInactive = "mem.inactive"

	// Page cache size in bytes.
	KeyMemCached = "mem.cached"

	// Raw block device buffer size in bytes.
	KeyMemBuffers = "mem.buffers"

	// System CPU usage: values are 0-100%.
	KeyCPUSystem = "cpu.system"

	// User CPU usage: values are 0-100%.
	KeyCPUUser = "cpu.user"

	// Idle CPU: values are 0-100%.
	KeyCPUIdle = "cpu.idle"

	// Inbound throughput of the primary interface: values are bytes/s.
	KeyNetInRate = "net.in.rate"

	// Outbound throughput of the primary interface: values are bytes/s.
	KeyNetOutRate = "net.out.rate"

	// Scheduler load average over 1 minute.
	KeyLoad1 = "load.1m"

	// Scheduler load average over 5 minutes.
	KeyLoad5 = "load.5m"

	// Scheduler load average over 15 minutes.
	KeyLoad15 = "load.15m"

	// Free space of the monitored filesystem in bytes.
	KeyDiskFree = "disk.free"

	// Space of the monitored filesystem available to unprivileged users in bytes.
	KeyDiskAvailable = "disk.available"

	// Used space of the monitored filesystem in bytes.
	KeyDiskUsed = "disk.used"

	// Size of the monitored filesystem in bytes.
	KeyDiskTotal = "disk.total"

	// Container runtime attributed to the closed sampling window in seconds.
	KeyContainerRuntime = "container.runtime"

	// Host uptime in seconds.
	KeyHostUptime = "host.uptime"

	// Absolute number of goroutines when the metric was collected.
	KeyAgentGoRoutines = "agent.goroutines"

	// Absolute number in bytes of allocated heap objects of the agent.
	KeyAgentHeapAlloc = "agent.heap.alloc"

	// Difference to previous user CPU time of the agent in Milliseconds.
	KeyAgentUTime = "agent.cpu.user"

	// Difference to previous system CPU time of the agent in Milliseconds.
	KeyAgentSTime = "agent.cpu.system"

	// Number of telemetry batches that could not be delivered.
	KeyPublishFailures = "publish.failures"
)
