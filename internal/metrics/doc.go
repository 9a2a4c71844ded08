// Package metrics provides observability hooks for the admin backend.
//
// # Design Philosophy
//
// This package implements the Null Object pattern to enable metrics
// collection without explicit nil checks throughout the codebase. By
// default all components use NoopRecorder, which implements the Recorder
// interface with methods that inline to nothing.
//
// # Architecture
//
// The metrics system has three components:
//
//  1. Recorder interface - Defines all metrics operations
//  2. NoopRecorder - Default implementation that does nothing
//  3. PrometheusRecorder - Real implementation backed by a prometheus registry
//
// # Usage Pattern
//
// Components receive a Recorder through dependency injection:
//
//	type Service struct {
//	    recorder metrics.Recorder
//	}
//
// When metrics are enabled in config, main constructs a PrometheusRecorder
// and the server mounts the /metrics endpoint from Handler; otherwise
// everything runs against NoopRecorder.
package metrics
