// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"encoding/json"
	"fmt"
)

// MetricType distinguishes how a metric's values accumulate.
type MetricType uint8

const (
	// MetricTypeInvalid guards against uninitialized definitions.
	MetricTypeInvalid MetricType = iota
	// MetricTypeCounter marks metrics whose values add up over time.
	MetricTypeCounter
	// MetricTypeGauge marks metrics whose values replace each other.
	MetricTypeGauge
)

// UnmarshalJSON decodes the textual type tag used in metrics.json.
func (t *MetricType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "counter":
		*t = MetricTypeCounter
	case "gauge":
		*t = MetricTypeGauge
	default:
		return fmt.Errorf("unknown metric type '%s'", s)
	}
	return nil
}

// MetricDefinition describes one metric from the embedded metrics.json file.
type MetricDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Type        MetricType `json:"type"`
	Unit        string     `json:"unit"`
}
