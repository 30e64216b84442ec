package parmap

// Set is the keys-only sibling of Map: a concurrent hash set with the
// same segmented locking, parallel rehash and parallel reduction.
//
// A Set must be created with NewSet or NewSetWithHasher and must not
// be copied. All methods are safe for concurrent use.
type Set[K comparable] struct {
	m *Map[K, struct{}]
}

// NewSet creates a Set with the built-in seeded hasher.
//
// Options: WithPresize, WithMaxLoadFactor, WithThreads.
func NewSet[K comparable](options ...func(*Config)) *Set[K] {
	return &Set[K]{m: NewMap[K, struct{}](options...)}
}

// NewSetWithHasher creates a Set with a custom hash function; nil
// selects the built-in seeded hasher.
func NewSetWithHasher[K comparable](hasher func(K) uint64, options ...func(*Config)) *Set[K] {
	return &Set[K]{m: NewMapWithHasher[K, struct{}](hasher, options...)}
}

// Close releases the worker pool. The set stays usable afterwards;
// whole-table operations simply run on the calling goroutine alone.
func (s *Set[K]) Close() { s.m.Close() }

// Add inserts key. No-op when already present.
func (s *Set[K]) Add(key K) {
	s.m.Store(key, struct{}{})
}

// Remove deletes key. No-op when absent.
func (s *Set[K]) Remove(key K) {
	s.m.Delete(key)
}

// Has reports whether key is present.
func (s *Set[K]) Has(key K) bool {
	return s.m.Has(key)
}

// ForEach invokes fn on every key, in parallel under the full-segment
// lock. fn must not call back into the set.
func (s *Set[K]) ForEach(fn func(K)) {
	s.m.ForEach(func(key K, _ struct{}) {
		fn(key)
	})
}

// NumKeys returns the number of keys.
func (s *Set[K]) NumKeys() int { return s.m.NumKeys() }

// NumBuckets returns the current bucket count.
func (s *Set[K]) NumBuckets() int { return s.m.NumBuckets() }

// LoadFactor returns the ratio between keys and buckets.
func (s *Set[K]) LoadFactor() float64 { return s.m.LoadFactor() }

// MaxLoadFactor returns the automatic rehash threshold.
func (s *Set[K]) MaxLoadFactor() float64 { return s.m.MaxLoadFactor() }

// SetMaxLoadFactor sets the automatic rehash threshold. Returns
// ErrInvalidLoadFactor for non-positive values.
func (s *Set[K]) SetMaxLoadFactor(f float64) error { return s.m.SetMaxLoadFactor(f) }

// Reserve grows the table to at least minBuckets buckets.
func (s *Set[K]) Reserve(minBuckets int) error { return s.m.Reserve(minBuckets) }

// Clear removes every key, resetting the table to the default initial
// bucket count; a WithPresize size is not restored.
func (s *Set[K]) Clear() { s.m.Clear() }

// MapReduceKeys maps every key through mapper and folds the results
// with reducer, returning def for an empty set. Same contract as
// MapReduce.
func MapReduceKeys[K comparable, W any](
	s *Set[K],
	mapper func(K) W,
	reducer func(*W, W),
	def W,
) W {
	return MapReduce(s.m, func(key K, _ struct{}) W {
		return mapper(key)
	}, reducer, def)
}
