package compute

import "sync"

type job struct {
	fn     func(lo, hi int)
	lo, hi int
	wg     *sync.WaitGroup
}

type Pool struct {
	workers int
	jobs    []chan job
	once    sync.Once
}

// NewPool starts a pool with the given number of workers. Values below one
// are treated as one; a single-worker pool runs every region inline.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{workers: workers}
	if workers == 1 {
		return p
	}

	p.jobs = make([]chan job, workers)
	for w := range p.jobs {
		ch := make(chan job)
		p.jobs[w] = ch
		go work(ch)
	}
	return p
}

func work(jobs <-chan job) {
	for j := range jobs {
		j.fn(j.lo, j.hi)
		j.wg.Done()
	}
}

func (p *Pool) Workers() int { return p.workers }

// For calls fn over [0, n) split into at most Workers() contiguous chunks and
// waits for all of them. It must not be called after Close or concurrently
// with another For on the same pool.
func (p *Pool) For(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if p.workers == 1 || n == 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + p.workers - 1) / p.workers

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		start := w * chunkSize
		if start >= n {
			break
		}
		end := min(start+chunkSize, n)

		wg.Add(1)
		p.jobs[w] <- job{fn: fn, lo: start, hi: end, wg: &wg}
	}
	wg.Wait()
}

// Close stops the workers. It is safe to call more than once.
func (p *Pool) Close() {
	p.once.Do(func() {
		for _, ch := range p.jobs {
			close(ch)
		}
	})
}
