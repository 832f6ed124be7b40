package mcrt

import (
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/astroforge/mcrt/internal/mcrt/telemetry"
)

// MediumSummary reports one imported medium's aggregate queries at setup
// time: total effective mass, site count, and the optical depths along
// the principal axes at RefLambda (the geometric mean of the run's
// wavelength range).
type MediumSummary struct {
	ID               string
	Mass             Real
	Sites            int
	RefLambda        Real
	TauX, TauY, TauZ Real
}

// RunSummary reports the outcome of one emission segment.
type RunSummary struct {
	Packets         int
	ZeroWeight      int
	TotalWeight     Real
	SourceLuminosity Real
	Media           []MediumSummary
	Elapsed         time.Duration
	MetricsAddr     string
}

// Run loads cfgPath, builds the source system and imported media it
// describes, launches one full emission segment, and returns a summary
// plus the collector that recorded it. The media do not participate in
// the launch itself (propagation is a separate subsystem); Run builds
// them, reports their aggregate queries on the summary, and discards
// them with the rest of the segment state.
//
// The caller owns serving collector.Handler() (typically at
// cfg.MetricsAddr, returned as summary.MetricsAddr); Run only records
// metrics, it does not open a listener, so a caller that doesn't want a
// metrics server (tests, batch jobs) pays nothing for it.
func Run(cfgPath string, reg prometheus.Registerer) (RunSummary, *telemetry.LaunchCollector, error) {
	cfg, err := LoadConfig(cfgPath)
	if err != nil {
		return RunSummary{}, nil, err
	}

	collector, err := telemetry.NewLaunchCollector(reg)
	if err != nil {
		return RunSummary{}, nil, fmt.Errorf("mcrt: registering metrics: %w", err)
	}

	ss, err := cfg.BuildSourceSystem()
	if err != nil {
		return RunSummary{}, nil, err
	}

	media, err := cfg.BuildMedia()
	if err != nil {
		return RunSummary{}, nil, err
	}
	refLambda := math.Sqrt(cfg.LambdaMin * cfg.LambdaMax)
	mediumSummaries := make([]MediumSummary, len(media))
	for i, m := range media {
		mediumSummaries[i] = MediumSummary{
			ID:        cfg.Media[i].ID,
			Mass:      m.Mass(),
			Sites:     m.Number(),
			RefLambda: refLambda,
			TauX:      m.OpticalDepthX(refLambda),
			TauY:      m.OpticalDepthY(refLambda),
			TauZ:      m.OpticalDepthZ(refLambda),
		}
		DebugLog("medium %q: mass=%.6g sites=%d tau(%.3g um)=%.3g/%.3g/%.3g",
			cfg.Media[i].ID, m.Mass(), m.Number(), refLambda,
			mediumSummaries[i].TauX, mediumSummaries[i].TauY, mediumSummaries[i].TauZ)
	}

	n := cfg.EmissionCount()
	DebugLog("starting emission segment: numPackets=%d multiplier=%.3g n=%d sourceBias=%.3g",
		cfg.NumPackets, cfg.NumPacketsMultiplier, n, cfg.SourceBias)
	start := time.Now()
	res, err := LaunchSegment(ss, n, func(pp *PhotonPacket) {
		collector.PacketsLaunched.WithLabelValues(pp.SourceID).Inc()
		if pp.Weight == 0 {
			collector.ZeroWeightPackets.Inc()
		}
		collector.TotalWeightEmitted.Add(float64(pp.Weight))
	}, func(d time.Duration) {
		collector.PrepareDuration.Observe(d.Seconds())
	})
	elapsed := time.Since(start)
	collector.SegmentDuration.Observe(elapsed.Seconds())
	collector.SegmentsTotal.Inc()
	if err != nil {
		return RunSummary{}, nil, fmt.Errorf("mcrt: emission segment failed: %w", err)
	}

	DebugLog("emission segment complete: packets=%d zeroWeight=%d elapsed=%s", res.Count, res.ZeroWeightCount, elapsed)
	return RunSummary{
		Packets:          res.Count,
		ZeroWeight:       res.ZeroWeightCount,
		TotalWeight:      res.TotalWeight,
		SourceLuminosity: ss.Luminosity(),
		Media:            mediumSummaries,
		Elapsed:          elapsed,
		MetricsAddr:      cfg.MetricsAddr,
	}, collector, nil
}
