package mcrt

import (
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// defaultLaunchSeed is the fixed seed mixed with each history index to
// derive that packet's RNG when a SourceSystem isn't given a
// config-supplied one. It is a plain compile-time constant, never
// `hash/maphash`'s `MakeSeed()`: maphash seeds are deliberately
// randomized per process (for hash-flooding resistance), which would make
// a packet's randomness depend on hidden per-process state and break
// reproducibility across runs, not just across worker counts within one
// run.
const defaultLaunchSeed uint64 = 0x9e3779b97f4a7c15

// rngForHistory derives a deterministic RNG for history index h by mixing
// seed with h through splitmix64, a fixed, portable bit mixer (rather than,
// say, using h directly as the PRNG seed, which would hand rand.NewSource
// consecutive small integers and produce visibly correlated first draws).
func rngForHistory(seed uint64, h int) *rand.Rand {
	return rand.New(rand.NewSource(int64(splitMix64(seed ^ uint64(h)))))
}

// splitMix64 is the standard SplitMix64 bit mixer: a cheap, deterministic,
// platform-independent way to turn a 64-bit key into a well-distributed
// 64-bit output, used here instead of a randomized hash seed so that
// rngForHistory's output depends only on (seed, h).
func splitMix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// LaunchSegmentResult summarizes one emission segment.
type LaunchSegmentResult struct {
	Count            int
	ZeroWeightCount  int
	TotalWeight      Real
}

// LaunchSegment runs one full emission segment of n history indices
// against ss, calling onPacket for each resulting packet. Work is
// partitioned across NumCPU worker goroutines in contiguous chunks; each
// packet's RNG is derived from its history index alone, so the stream is
// identical for any worker count. Packets are delivered via callback so
// the propagation engine can consume them however it needs.
//
// onPacket is invoked concurrently from multiple goroutines and must be
// safe for concurrent use, or must do its own synchronization.
//
// onPrepare, if given, receives the wall-clock duration of the serial
// PrepareForLaunch phase, which always completes before any concurrent
// launch call starts. Callers that want to instrument it separately
// from the whole segment (telemetry.LaunchCollector's PrepareDuration
// histogram) pass one; omitting it changes nothing.
func LaunchSegment(ss *SourceSystem, n int, onPacket func(pp *PhotonPacket), onPrepare ...func(time.Duration)) (LaunchSegmentResult, error) {
	prepareStart := time.Now()
	err := ss.PrepareForLaunch(n)
	if len(onPrepare) > 0 && onPrepare[0] != nil {
		onPrepare[0](time.Since(prepareStart))
	}
	if err != nil {
		return LaunchSegmentResult{}, fmt.Errorf("mcrt: preparing launch segment: %w", err)
	}
	if n == 0 {
		return LaunchSegmentResult{}, nil
	}

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	var zeroWeight int64
	var totalWeight Real
	var weightMu sync.Mutex
	var firstErr error
	var errMu sync.Mutex

	seed := ss.Seed()
	base, rem := n/workers, n%workers
	var wg sync.WaitGroup
	start := 0
	for w := 0; w < workers; w++ {
		count := base
		if w < rem {
			count++
		}
		lo, hi := start, start+count
		start = hi
		if lo == hi {
			continue
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			scratch := NewThreadScratch()
			var pp PhotonPacket
			for h := lo; h < hi; h++ {
				rng := rngForHistory(seed, h)
				if err := ss.Launch(&pp, h, rng, scratch); err != nil {
					errMu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					errMu.Unlock()
					continue
				}
				if pp.Weight == 0 {
					atomic.AddInt64(&zeroWeight, 1)
				}
				weightMu.Lock()
				totalWeight += pp.Weight
				weightMu.Unlock()
				onPacket(&pp)
			}
		}(lo, hi)
	}
	wg.Wait()

	if firstErr != nil {
		return LaunchSegmentResult{}, firstErr
	}
	return LaunchSegmentResult{
		Count:           n,
		ZeroWeightCount: int(zeroWeight),
		TotalWeight:     totalWeight,
	}, nil
}
