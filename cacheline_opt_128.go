//go:build parmap_opt_cachelinesize_128

package parmap

// CacheLineSize set manually via the build tag.
const CacheLineSize = 128
