// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package metrics // import "github.com/nodemeter/nodemeter/metrics"

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/nodemeter/nodemeter/vc"
)

//go:embed metrics.json
var metricsJSON []byte

// Exporter bridges the per-cycle leaf metric values to OTel instruments.
// One instrument per entry in metrics.json is created up front; exporting an
// undefined key is a programming error that is logged and dropped.
type Exporter struct {
	// types is used in fallback checks, e.g. to avoid sending "counters"
	// with 0 values.
	types map[string]MetricType

	counters map[string]metric.Float64Counter
	gauges   map[string]metric.Float64Gauge
}

// NewExporter builds the instruments for all metric definitions.
func NewExporter() (*Exporter, error) {
	defs, err := GetDefinitions()
	if err != nil {
		return nil, err
	}

	meter := otel.Meter("github.com/nodemeter/nodemeter",
		metric.WithInstrumentationVersion(vc.Version()))

	e := &Exporter{
		types:    make(map[string]MetricType, len(defs)),
		counters: map[string]metric.Float64Counter{},
		gauges:   map[string]metric.Float64Gauge{},
	}
	for _, md := range defs {
		if _, ok := e.types[md.Name]; ok {
			return nil, fmt.Errorf("duplicate metric definition '%s'", md.Name)
		}
		e.types[md.Name] = md.Type

		switch typ := md.Type; typ {
		case MetricTypeCounter:
			counter, err := meter.Float64Counter(md.Name,
				metric.WithDescription(md.Description),
				metric.WithUnit(md.Unit))
			if err != nil {
				log.Errorf("Creating Float64Counter: %v", err)
				continue
			}
			e.counters[md.Name] = counter
		case MetricTypeGauge:
			gauge, err := meter.Float64Gauge(md.Name,
				metric.WithDescription(md.Description),
				metric.WithUnit(md.Unit))
			if err != nil {
				log.Errorf("Creating Float64Gauge: %v", err)
				continue
			}
			e.gauges[md.Name] = gauge
		default:
			return nil, fmt.Errorf("metric '%s' has an unknown type: %v", md.Name, typ)
		}
	}

	return e, nil
}

// Export records one leaf metric value of the current sampling cycle.
func (e *Exporter) Export(key string, value float64) {
	ctx := context.Background()

	switch typ := e.types[key]; typ {
	case MetricTypeCounter:
		if value == 0 {
			// Avoid sending counters with 0 values.
			return
		}
		if counter, ok := e.counters[key]; ok {
			counter.Add(ctx, value)
		}
	case MetricTypeGauge:
		if gauge, ok := e.gauges[key]; ok {
			gauge.Record(ctx, value)
		}
	default:
		log.Warnf("Invalid metric key '%s', skipping", key)
	}
}

// GetDefinitions returns the metric definitions from the embedded metrics.json file.
func GetDefinitions() ([]MetricDefinition, error) {
	var defs []MetricDefinition

	dec := json.NewDecoder(bytes.NewReader(metricsJSON))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&defs); err != nil {
		return nil, fmt.Errorf("extracting definitions from metrics.json: %w", err)
	}
	return defs, nil
}
