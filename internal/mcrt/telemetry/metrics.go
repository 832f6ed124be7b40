// Package telemetry instruments emission segments for external
// observability. Sources and the source system never reference it; a run
// feeds it from its per-packet callback.
package telemetry

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LaunchCollector bundles the Prometheus metrics for one run:
// register-or-reuse against a caller-supplied registerer, defaulting to
// the global registry.
type LaunchCollector struct {
	gatherer prometheus.Gatherer

	SegmentsTotal      prometheus.Counter
	PacketsLaunched    *prometheus.CounterVec // labeled by source id
	ZeroWeightPackets  prometheus.Counter
	PrepareDuration    prometheus.Histogram
	SegmentDuration    prometheus.Histogram
	TotalWeightEmitted prometheus.Counter
}

// NewLaunchCollector registers the launch metrics against reg, defaulting
// to the global Prometheus registry when reg is nil.
func NewLaunchCollector(reg prometheus.Registerer) (*LaunchCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	segments, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mcrt_launch_segments_total",
		Help: "Total number of emission segments run.",
	}), "mcrt_launch_segments_total")
	if err != nil {
		return nil, err
	}

	packets := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mcrt_launch_packets_total",
		Help: "Total photon packets launched, labeled by source id.",
	}, []string{"source"})
	packets, err = registerCounterVec(reg, packets, "mcrt_launch_packets_total")
	if err != nil {
		return nil, err
	}

	zeroWeight, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mcrt_launch_zero_weight_packets_total",
		Help: "Total packets launched with zero weight (degenerate allocations).",
	}), "mcrt_launch_zero_weight_packets_total")
	if err != nil {
		return nil, err
	}

	prepareDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mcrt_prepare_for_launch_duration_seconds",
		Help:    "Duration of the serial PrepareForLaunch phase per segment.",
		Buckets: prometheus.DefBuckets,
	}), "mcrt_prepare_for_launch_duration_seconds")
	if err != nil {
		return nil, err
	}

	segmentDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mcrt_launch_segment_duration_seconds",
		Help:    "Wall-clock duration of an entire emission segment.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}), "mcrt_launch_segment_duration_seconds")
	if err != nil {
		return nil, err
	}

	totalWeight, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mcrt_launch_total_weight",
		Help: "Sum of packet weights launched, a proxy for total represented energy.",
	}), "mcrt_launch_total_weight")
	if err != nil {
		return nil, err
	}

	return &LaunchCollector{
		gatherer:           gatherer,
		SegmentsTotal:      segments,
		PacketsLaunched:    packets,
		ZeroWeightPackets:  zeroWeight,
		PrepareDuration:    prepareDuration,
		SegmentDuration:    segmentDuration,
		TotalWeightEmitted: totalWeight,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *LaunchCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}
