package parmap

// bucketPrimes is a roughly doubling sequence of primes used as table
// sizes. Prime bucket counts keep the bucket index well distributed
// even for hashers that cluster in low bits.
var bucketPrimes = [...]uint64{
	5, 11, 23, 47, 97, 199, 409, 823,
	1741, 3469, 6949, 14033, 28411, 57557, 116731, 236897,
	480881, 976369, 1982627, 4026031, 8175383, 16601593, 33712729, 68460391,
	139022417, 282312799, 573292817, 1164186217, 2147483647,
}

// oversizeFactor extends the reachable range once past the top of
// bucketPrimes: such tables are sized as factor * prime.
const oversizeFactor uint64 = 817504253

// nextBucketCount returns the smallest representable bucket count that
// is >= n. Requests beyond factor * last prime fail with
// ErrCapacityExceeded.
func nextBucketCount(n uint64) (uint64, error) {
	last := bucketPrimes[len(bucketPrimes)-1]
	remaining := n
	factor := uint64(1)
	if remaining > last {
		// Round the quotient up so factor * prime never falls below n.
		q := remaining / oversizeFactor
		if remaining%oversizeFactor != 0 {
			q++
		}
		remaining = q
		factor = oversizeFactor
	}
	if remaining > last {
		return 0, ErrCapacityExceeded
	}
	lo, hi := 0, len(bucketPrimes)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if bucketPrimes[mid] < remaining {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return factor * bucketPrimes[lo], nil
}
