package parmap

import "cmp"

// Reducers for MapReduce and MapReduceKeys, in accumulator form:
// fold the new value into *acc.

// Sum adds v into the accumulator.
func Sum[W cmp.Ordered](acc *W, v W) {
	*acc += v
}

// Max keeps the larger of the accumulator and v.
func Max[W cmp.Ordered](acc *W, v W) {
	if v > *acc {
		*acc = v
	}
}

// Min keeps the smaller of the accumulator and v.
func Min[W cmp.Ordered](acc *W, v W) {
	if v < *acc {
		*acc = v
	}
}
