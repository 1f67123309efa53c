// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package observability provides structured timing and step logging for
// the validation pipeline. Components receive an observer; there is no
// global logger.
package observability

import (
	"encoding/json"
	"io"
	"time"
)

type Level int

const (
	LevelOff   Level = 0
	LevelDebug Level = 1
)

// Observer records pipeline operations as JSON lines when debug output is
// enabled. The zero-value-like Off observer is safe to share and discards
// everything.
type Observer struct {
	level  Level
	writer io.Writer
}

// NewObserver creates an observer writing to w at the given level.
func NewObserver(level Level, w io.Writer) *Observer {
	return &Observer{level: level, writer: w}
}

// Enabled reports whether debug output is active.
func (o *Observer) Enabled() bool {
	return o != nil && o.level >= LevelDebug && o.writer != nil
}

// StartTiming returns a completion function that logs the operation with
// its duration once called.
func (o *Observer) StartTiming(component, operation, source string) func(success bool, metadata map[string]interface{}) {
	start := time.Now()
	return func(success bool, metadata map[string]interface{}) {
		o.log(Record{
			Component:  component,
			Operation:  operation,
			Source:     source,
			DurationMs: time.Since(start).Milliseconds(),
			Success:    success,
			Metadata:   metadata,
		})
	}
}

// Step logs a single pipeline step without timing.
func (o *Observer) Step(component, operation, source string, metadata map[string]interface{}) {
	o.log(Record{Component: component, Operation: operation, Source: source, Success: true, Metadata: metadata})
}

func (o *Observer) log(r Record) {
	if !o.Enabled() {
		return
	}
	r.Time = time.Now().Format(time.RFC3339)
	json.NewEncoder(o.writer).Encode(r)
}

// Record is one logged pipeline operation.
type Record struct {
	Time       string                 `json:"time"`
	Component  string                 `json:"component"`
	Operation  string                 `json:"operation"`
	Source     string                 `json:"source,omitempty"`
	DurationMs int64                  `json:"duration_ms,omitempty"`
	Success    bool                   `json:"success"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}
