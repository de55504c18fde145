/*
Package monitoring provides Prometheus metrics for the persistence engine.

# Overview

Collectors cover the durable store (write/read outcomes, payload sizes,
backup failures), the write-behind coalescer (debounced and superseded
writes, pending gauge, flush latency), schema migrations and session
restoration.

# Usage

	// Create the collector set against a registry
	metrics := monitoring.New(prometheus.DefaultRegisterer)

	// Hand it to components; a nil *Metrics disables recording
	store.SetMetrics(metrics)

	// Record points
	metrics.RecordWrite(len(payload), err)
	metrics.ObserveFlush(time.Since(start))

All recording methods are safe on a nil receiver, so wiring metrics is
optional everywhere.
*/
package monitoring
