package mcrt

// ThreadScratch is a worker goroutine's private scratch registry: the
// per-thread cache keyed by (source, thread), without a shared,
// lock-protected, globally-keyed cache behind it. Each worker goroutine
// owns one ThreadScratch, created when the worker starts processing a
// chunk and discarded when the chunk (and, in the driver here, the whole
// segment) completes. Nothing on the launch hot path takes a lock.
type ThreadScratch struct {
	subsourceCaches map[Source]*subsourceCache
}

// NewThreadScratch allocates an empty scratch registry for one worker.
func NewThreadScratch() *ThreadScratch {
	return &ThreadScratch{subsourceCaches: make(map[Source]*subsourceCache)}
}

// subsourceCache holds the currently-cached subsource index and its
// lazily-built spectral CDF for one (source, thread) pair.
type subsourceCache struct {
	index    int
	spectrum *CDF
}

// subsourceCacheFor returns (creating if necessary) this scratch's cache
// entry for src.
func (ts *ThreadScratch) subsourceCacheFor(src Source) *subsourceCache {
	c, ok := ts.subsourceCaches[src]
	if !ok {
		c = &subsourceCache{index: -1}
		ts.subsourceCaches[src] = c
	}
	return c
}

// advance swaps in a freshly-built spectrum for a new subsource index,
// releasing the previous one so at most one subsource's structures stay
// live per (source, thread) pair.
func (c *subsourceCache) advance(index int, spectrum *CDF) {
	c.index = index
	c.spectrum = spectrum
}
