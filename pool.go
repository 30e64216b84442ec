package parmap

import (
	"sync"

	"github.com/panjf2000/ants/v2"
)

// workerPool drives the container's parallel loops: bulk traversal,
// rehash and map-reduce. It is a fixed set of n goroutines shared by
// outer (caller-initiated) and inner (rehash) loops, so submission is
// non-blocking: when every worker is busy the chunk runs inline on
// the submitting goroutine instead. A nested loop therefore always
// makes progress and can never wait on a pool slot held by its own
// caller.
type workerPool struct {
	n    int
	pool *ants.Pool
}

func newWorkerPool(n int) *workerPool {
	p, _ := ants.NewPool(n, ants.WithNonblocking(true))
	return &workerPool{n: n, pool: p}
}

// run invokes body(w) for every worker index 0 <= w < n and returns
// once all invocations complete. Worker 0 runs on the calling
// goroutine. Distinct worker indices never run the body concurrently
// with themselves, so per-worker state indexed by w needs no further
// synchronization.
func (p *workerPool) run(body func(worker int)) {
	if p.n <= 1 {
		body(0)
		return
	}
	var wg sync.WaitGroup
	for w := 1; w < p.n; w++ {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			body(w)
		}
		if p.pool.Submit(task) != nil {
			task()
		}
	}
	body(0)
	wg.Wait()
}

func (p *workerPool) release() {
	p.pool.Release()
}
