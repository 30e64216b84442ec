// Package parmap provides a concurrent, in-memory hash map and hash
// set for workloads that mix heavy parallel insertion, point lookups
// and whole-table reduction on a shared-memory worker pool.
//
// The table is partitioned into lockable segments so writers touching
// different regions proceed without coarse serialization, while
// whole-table operations (traversal, rehash, map-reduce) exclude all
// writers by holding every segment. Rehashing migrates nodes in
// parallel on the same worker pool that serves callers, guarded by a
// second, independent lock domain.
package parmap

import (
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

const (
	// nInitialBuckets is the bucket count of a fresh or cleared table.
	nInitialBuckets = 11

	// segmentsPerThread dilutes lock contention: with a small prime
	// multiple of the worker count, two workers rarely hash to the
	// same segment.
	segmentsPerThread = 7

	defaultMaxLoadFactor = 1.0
)

// paddedMutex keeps neighboring segment locks on distinct cache lines.
type paddedMutex struct {
	sync.Mutex
	//lint:ignore U1000 prevents false sharing
	pad [(CacheLineSize - unsafe.Sizeof(sync.Mutex{})%CacheLineSize) % CacheLineSize]byte
}

// Config defines configurable Map and Set options.
type Config struct {
	initialBuckets int
	maxLoadFactor  float64
	threads        int
}

// WithPresize configures a new container with at least nBuckets
// buckets, avoiding early rehashes when the final size is known up
// front. Values that are zero, negative or below the default initial
// size are ignored.
func WithPresize(nBuckets int) func(*Config) {
	return func(c *Config) {
		c.initialBuckets = nBuckets
	}
}

// WithMaxLoadFactor configures the load factor beyond which an
// automatic rehash occurs. Non-positive values are ignored.
func WithMaxLoadFactor(f float64) func(*Config) {
	return func(c *Config) {
		if f > 0 {
			c.maxLoadFactor = f
		}
	}
}

// WithThreads configures the worker count used for parallel loops and
// the segment count derived from it. Defaults to runtime.GOMAXPROCS.
// Values below one are ignored.
func WithThreads(n int) func(*Config) {
	return func(c *Config) {
		if n > 0 {
			c.threads = n
		}
	}
}

// Map is a concurrent hash map from K to V.
//
// Keys hash through an injectable pure function (see NewMapWithHasher)
// and land in singly linked chains anchored in a bucket array. The
// array is partitioned into threads*7 segments, each guarded by its
// own mutex; single-key operations lock one segment, whole-table
// operations lock all of them in ascending order. A second lock
// domain of the same shape guards the destination table during
// rehash, which runs in parallel on the container's worker pool.
//
// A Map must be created with NewMap or NewMapWithHasher and must not
// be copied. All methods are safe for concurrent use.
type Map[K comparable, V any] struct {
	hasher    func(K) uint64
	nSegments uint64
	workers   *workerPool

	segmentLocks []paddedMutex
	rehashLocks  []paddedMutex

	nKeys         atomic.Int64
	maxLoadFactor atomic.Uint64 // float64 bits

	// nBuckets mirrors len(buckets). It is written only while every
	// primary segment lock is held; lock-free readers snapshot it and
	// re-check under the lock.
	nBuckets atomic.Uint64
	buckets  []*node[K, V]
}

// NewMap creates a Map with the built-in seeded hasher.
//
// Options: WithPresize, WithMaxLoadFactor, WithThreads.
func NewMap[K comparable, V any](options ...func(*Config)) *Map[K, V] {
	return NewMapWithHasher[K, V](nil, options...)
}

// NewMapWithHasher creates a Map with a custom hash function. The
// hasher must be pure and safe for concurrent use; nil selects the
// built-in seeded hasher.
func NewMapWithHasher[K comparable, V any](
	hasher func(K) uint64,
	options ...func(*Config),
) *Map[K, V] {
	c := Config{
		initialBuckets: nInitialBuckets,
		maxLoadFactor:  defaultMaxLoadFactor,
		threads:        runtime.GOMAXPROCS(0),
	}
	for _, opt := range options {
		opt(&c)
	}
	if hasher == nil {
		hasher = defaultHasher[K]()
	}

	initial, err := nextBucketCount(uint64(max(c.initialBuckets, nInitialBuckets)))
	if err != nil {
		panic("parmap: presize " + ErrCapacityExceeded.Error())
	}

	m := &Map[K, V]{
		hasher:       hasher,
		nSegments:    uint64(c.threads * segmentsPerThread),
		workers:      newWorkerPool(c.threads),
		segmentLocks: make([]paddedMutex, c.threads*segmentsPerThread),
		rehashLocks:  make([]paddedMutex, c.threads*segmentsPerThread),
		buckets:      make([]*node[K, V], initial),
	}
	m.nBuckets.Store(initial)
	m.maxLoadFactor.Store(math.Float64bits(c.maxLoadFactor))
	return m
}

// Close releases the worker pool. The map stays usable afterwards;
// whole-table operations simply run on the calling goroutine alone.
func (m *Map[K, V]) Close() {
	m.workers.release()
}

// NumKeys returns the number of keys. Lock-free: concurrent writers
// make the result a point-in-time approximation.
func (m *Map[K, V]) NumKeys() int {
	return int(m.nKeys.Load())
}

// NumBuckets returns the current bucket count.
func (m *Map[K, V]) NumBuckets() int {
	return int(m.nBuckets.Load())
}

// LoadFactor returns the ratio between keys and buckets.
func (m *Map[K, V]) LoadFactor() float64 {
	return float64(m.nKeys.Load()) / float64(m.nBuckets.Load())
}

// MaxLoadFactor returns the load factor beyond which an automatic
// rehash occurs.
func (m *Map[K, V]) MaxLoadFactor() float64 {
	return math.Float64frombits(m.maxLoadFactor.Load())
}

// SetMaxLoadFactor sets the automatic rehash threshold. Returns
// ErrInvalidLoadFactor for non-positive values.
func (m *Map[K, V]) SetMaxLoadFactor(f float64) error {
	if f <= 0 || math.IsNaN(f) {
		return ErrInvalidLoadFactor
	}
	m.maxLoadFactor.Store(math.Float64bits(f))
	return nil
}

// applyNode is the single-key operator: every point operation funnels
// through it. It resolves hash -> bucket -> segment, locks the
// segment and applies fn to the owning link of the key's node (or the
// trailing nil link when absent).
//
// The bucket count is snapshotted before the lock and re-checked
// under it: a rehash may complete between the two, in which case the
// computed bucket belongs to the old table and the operation retries
// against the new one.
func (m *Map[K, V]) applyNode(key K, fn func(**node[K, V])) {
	h := m.hasher(key)
	for {
		snapshot := m.nBuckets.Load()
		bucketID := h % snapshot
		lock := &m.segmentLocks[bucketID%m.nSegments]
		// The deferred unlock also covers a panicking handler.
		done := func() bool {
			lock.Lock()
			defer lock.Unlock()
			if m.nBuckets.Load() != snapshot {
				return false
			}
			chainApply(&m.buckets[bucketID], key, fn)
			return true
		}()
		if done {
			return
		}
	}
}

// bulkApply locks every primary segment in ascending order, applies
// fn to the owning link of every live node in parallel, then unlocks
// in reverse. Chains are visited post-order so fn may detach the node
// it receives. fn must not acquire primary segment locks and must not
// touch any node other than the one passed; distinct worker indices
// are never invoked concurrently with themselves.
func (m *Map[K, V]) bulkApply(fn func(worker int, slot **node[K, V])) {
	m.lockAllSegments()
	defer m.unlockAllSegments()
	m.bulkApplyLocked(fn)
}

func (m *Map[K, V]) bulkApplyLocked(fn func(worker int, slot **node[K, V])) {
	buckets := m.buckets
	stride := m.workers.n
	m.workers.run(func(worker int) {
		// Static stride schedule: with a decent hasher the chains are
		// short and uniform, so striding balances workers without a
		// shared cursor.
		var scratch []**node[K, V]
		for i := worker; i < len(buckets); i += stride {
			scratch = chainSlots(&buckets[i], scratch[:0])
			for j := len(scratch) - 1; j >= 0; j-- {
				fn(worker, scratch[j])
			}
		}
	})
}

func (m *Map[K, V]) lockAllSegments() {
	for i := range m.segmentLocks {
		m.segmentLocks[i].Lock()
	}
}

func (m *Map[K, V]) unlockAllSegments() {
	for i := len(m.segmentLocks) - 1; i >= 0; i-- {
		m.segmentLocks[i].Unlock()
	}
}

// Store sets key to value, inserting or overwriting.
func (m *Map[K, V]) Store(key K, value V) {
	var created bool
	m.applyNode(key, func(slot **node[K, V]) {
		if n := *slot; n != nil {
			n.value = value
			return
		}
		*slot = &node[K, V]{key: key, value: value}
		m.nKeys.Add(1)
		created = true
	})
	if created {
		m.maybeGrow()
	}
}

// Mutate applies fn to the value of key, inserting a zero value first
// when the key is absent.
func (m *Map[K, V]) Mutate(key K, fn func(*V)) {
	var zero V
	m.MutateWithDefault(key, fn, zero)
}

// MutateWithDefault applies fn to the value of key, inserting def
// first when the key is absent. fn runs under the key's segment lock,
// so it must be short and must not call back into the map.
func (m *Map[K, V]) MutateWithDefault(key K, fn func(*V), def V) {
	var created bool
	m.applyNode(key, func(slot **node[K, V]) {
		if n := *slot; n != nil {
			fn(&n.value)
			return
		}
		n := &node[K, V]{key: key, value: def}
		fn(&n.value)
		*slot = n
		m.nKeys.Add(1)
		created = true
	})
	if created {
		m.maybeGrow()
	}
}

// Delete removes key. No-op when absent.
func (m *Map[K, V]) Delete(key K) {
	m.applyNode(key, func(slot **node[K, V]) {
		if n := *slot; n != nil {
			*slot = n.next
			n.next = nil
			m.nKeys.Add(-1)
		}
	})
}

// Has reports whether key is present.
func (m *Map[K, V]) Has(key K) bool {
	var ok bool
	m.applyNode(key, func(slot **node[K, V]) {
		ok = *slot != nil
	})
	return ok
}

// LoadOrDefault returns a copy of the value of key, or def when
// absent.
func (m *Map[K, V]) LoadOrDefault(key K, def V) V {
	value := def
	m.applyNode(key, func(slot **node[K, V]) {
		if n := *slot; n != nil {
			value = n.value
		}
	})
	return value
}

// Apply invokes fn on the value of key, if present. fn runs under the
// key's segment lock.
func (m *Map[K, V]) Apply(key K, fn func(V)) {
	m.applyNode(key, func(slot **node[K, V]) {
		if n := *slot; n != nil {
			fn(n.value)
		}
	})
}

// ForEach invokes fn on every entry, in parallel across the worker
// pool. It holds every segment lock for the duration, so fn observes
// a consistent table with no concurrent writers and must not call
// back into the map. Order is unspecified. fn may be invoked
// concurrently with itself for entries handled by different workers.
func (m *Map[K, V]) ForEach(fn func(K, V)) {
	m.bulkApply(func(_ int, slot **node[K, V]) {
		n := *slot
		fn(n.key, n.value)
	})
}

// Reserve grows the table to at least minBuckets buckets, rehashing
// every present entry. The table never shrinks. Returns
// ErrCapacityExceeded when minBuckets is beyond the largest
// representable table.
func (m *Map[K, V]) Reserve(minBuckets int) error {
	if minBuckets <= 0 {
		return nil
	}
	return m.rehash(uint64(minBuckets))
}

// maybeGrow samples the counters after an insert created a node and
// triggers a rehash past the threshold. The sample is taken without
// locks: the check is advisory, and a stale or concurrent trigger is
// harmless because rehash re-evaluates under the full-segment lock.
func (m *Map[K, V]) maybeGrow() {
	mlf := m.MaxLoadFactor()
	keys := float64(m.nKeys.Load())
	if keys >= float64(m.nBuckets.Load())*mlf {
		// Growth failure is unreachable until the key count nears the
		// capacity ceiling; the table stays valid either way.
		_ = m.rehash(uint64(keys / mlf))
	}
}

// rehash grows the bucket array to at least minBuckets and migrates
// every node into it, without reallocating node storage.
//
// The caller's domain (primary) is held in full for the duration, so
// the migration owns the source table outright. Destination buckets
// are contended between migrating workers and are serialized through
// the second lock domain; reusing the primary domain here would
// self-deadlock. Source chains drain post-order, so a mover never
// dereferences a node already rehomed.
func (m *Map[K, V]) rehash(minBuckets uint64) error {
	target, err := nextBucketCount(minBuckets)
	if err != nil {
		return err
	}
	m.lockAllSegments()
	defer m.unlockAllSegments()
	if target <= m.nBuckets.Load() {
		// Raced with another trigger that already grew the table.
		return nil
	}

	dst := make([]*node[K, V], target)
	src := m.buckets
	stride := m.workers.n
	m.workers.run(func(worker int) {
		var scratch []**node[K, V]
		for i := worker; i < len(src); i += stride {
			scratch = chainSlots(&src[i], scratch[:0])
			for j := len(scratch) - 1; j >= 0; j-- {
				slot := scratch[j]
				n := *slot
				*slot = nil
				n.next = nil
				newBucket := m.hasher(n.key) % target
				lock := &m.rehashLocks[newBucket%m.nSegments]
				lock.Lock()
				chainApply(&dst[newBucket], n.key, func(dstSlot **node[K, V]) {
					*dstSlot = n
				})
				lock.Unlock()
			}
		}
	})

	m.buckets = dst
	m.nBuckets.Store(target)
	return nil
}

// Clear removes every key, resetting the table to the default initial
// bucket count (nInitialBuckets); a WithPresize size is not restored.
func (m *Map[K, V]) Clear() {
	m.lockAllSegments()
	m.buckets = make([]*node[K, V], nInitialBuckets)
	m.nBuckets.Store(nInitialBuckets)
	m.nKeys.Store(0)
	m.unlockAllSegments()
}

// MapValue returns mapper applied to the value of key, or def when
// absent. A package function because methods cannot introduce the
// result type parameter.
func MapValue[K comparable, V, W any](m *Map[K, V], key K, mapper func(V) W, def W) W {
	result := def
	m.applyNode(key, func(slot **node[K, V]) {
		if n := *slot; n != nil {
			result = mapper(n.value)
		}
	})
	return result
}

// MapReduce maps every entry through mapper and folds the results
// with reducer, returning def for an empty map.
//
// Each worker folds into its own accumulator seeded with def, and the
// per-worker accumulators are folded serially at the end, so for a
// non-empty map def participates in the fold once per worker plus
// once more; an empty map returns def unchanged. mapper
// and reducer run under the full-segment lock and must not call back
// into the map. reducer need not be commutative, but as mapping order
// is unspecified, order-sensitive reducers yield an unspecified (yet
// valid) result.
func MapReduce[K comparable, V, W any](
	m *Map[K, V],
	mapper func(K, V) W,
	reducer func(*W, W),
	def W,
) W {
	acc := make([]W, m.workers.n)
	for i := range acc {
		acc[i] = def
	}
	empty := func() bool {
		m.lockAllSegments()
		defer m.unlockAllSegments()
		// Exact under the full-segment lock.
		if m.nKeys.Load() == 0 {
			return true
		}
		m.bulkApplyLocked(func(worker int, slot **node[K, V]) {
			n := *slot
			reducer(&acc[worker], mapper(n.key, n.value))
		})
		return false
	}()
	if empty {
		return def
	}
	reduced := def
	for i := range acc {
		reducer(&reduced, acc[i])
	}
	return reduced
}
