package parmap

import "hash/maphash"

// defaultHasher returns the built-in hash function for comparable
// keys, seeded per container so chain layouts differ between
// instances and across runs.
func defaultHasher[K comparable]() func(K) uint64 {
	seed := maphash.MakeSeed()
	return func(key K) uint64 {
		return maphash.Comparable(seed, key)
	}
}
