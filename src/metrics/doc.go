// Package metrics exposes prometheus counters and gauges describing node
// activity. They are registered with the default registry and served by the
// service package under /metrics.
package metrics
