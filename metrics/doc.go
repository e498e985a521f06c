// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package metrics is the export sink of the agent: it bridges the leaf metric
values of each sampling cycle to OTel instruments.

Every metric is declared once in metrics.json, which is embedded at build
time. One Float64 instrument per declaration is created when the Exporter is
built, so an export of an undeclared key can be detected and dropped at
runtime instead of silently creating instruments on the fly.

Example code to export one cycle's CPU reading:

	exporter, err := metrics.NewExporter()
	...
	exporter.Export(metrics.KeyCPUUser, usage.User)

# Directory Structure

The current directory structure looks like

	metrics
	├── selfmetrics/    // agent self monitoring
	├── doc.go          // this file
	├── keys.go         // the metric keys, kept in sync with metrics.json
	├── metrics.go      // implement NewExporter(), Export()
	├── metrics.json    // the metric declarations
	├── metrics_test.go // tests the metrics package
	└── types.go        // definitions of MetricDefinition and MetricType

# Conventions

Counters carry deltas since the previous cycle and are dropped when zero,
gauges carry absolute readings. Units follow UCUM ("By", "s", "ms", "%",
"By/s", "1") as is customary for OTel instruments.
*/
package metrics
