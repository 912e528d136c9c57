package bayesgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    fitCounter   prometheus.Counter
//	    fitHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordFit(method string, duration time.Duration, err error) {
//	    p.fitCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordFit is called after each fit.
	// method is "mcmc" or "map", duration is the total time taken,
	// err is nil if successful.
	RecordFit(method string, duration time.Duration, err error)

	// RecordSave is called after each artifact save.
	RecordSave(duration time.Duration, err error)

	// RecordLoad is called after each artifact load.
	RecordLoad(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFit(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordSave(time.Duration, error)        {}
func (NoopMetricsCollector) RecordLoad(time.Duration, error)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	FitCount       atomic.Int64
	FitErrors      atomic.Int64
	FitTotalNanos  atomic.Int64
	SaveCount      atomic.Int64
	SaveErrors     atomic.Int64
	SaveTotalNanos atomic.Int64
	LoadCount      atomic.Int64
	LoadErrors     atomic.Int64
	LoadTotalNanos atomic.Int64
}

func (c *BasicMetricsCollector) RecordFit(_ string, duration time.Duration, err error) {
	c.FitCount.Add(1)
	c.FitTotalNanos.Add(int64(duration))
	if err != nil {
		c.FitErrors.Add(1)
	}
}

func (c *BasicMetricsCollector) RecordSave(duration time.Duration, err error) {
	c.SaveCount.Add(1)
	c.SaveTotalNanos.Add(int64(duration))
	if err != nil {
		c.SaveErrors.Add(1)
	}
}

func (c *BasicMetricsCollector) RecordLoad(duration time.Duration, err error) {
	c.LoadCount.Add(1)
	c.LoadTotalNanos.Add(int64(duration))
	if err != nil {
		c.LoadErrors.Add(1)
	}
}
