// Package otel publishes session metrics through an OpenTelemetry Meter.
//
// Each counter becomes an Int64ObservableCounter and each latency bucket an
// Int64ObservableGauge; one callback reads the Manager snapshot per
// collection. Callers own the MeterProvider.
package otel
