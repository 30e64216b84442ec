//go:build parmap_opt_cachelinesize_64

package parmap

// CacheLineSize set manually via the build tag.
const CacheLineSize = 64
