package systems

import (
	"runtime"
	"sync"
)

// DefaultParallelThreshold is the minimum row count to use the worker pool.
// Below this, single-threaded is faster due to goroutine overhead.
const DefaultParallelThreshold = 4096

// ChunkFunc processes rows [start, end) and returns a count to be summed.
type ChunkFunc func(start, end int) int

// workChunk represents a range of rows for a worker to process.
type workChunk struct {
	start, end int
	fn         ChunkFunc
}

// WorkerPool runs chunked row updates on persistent goroutines.
type WorkerPool struct {
	numWorkers int
	threshold  int

	workChan chan workChunk // sends work to workers
	doneChan chan int       // workers report chunk results
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// NewWorkerPool creates a pool. workers <= 0 uses GOMAXPROCS; threshold <= 0
// uses DefaultParallelThreshold. Workers start lazily on the first large Run.
func NewWorkerPool(workers, threshold int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}
	return &WorkerPool{
		numWorkers: workers,
		threshold:  threshold,
	}
}

// Workers returns the configured worker count.
func (p *WorkerPool) Workers() int {
	return p.numWorkers
}

// start launches persistent worker goroutines.
func (p *WorkerPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan int, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop signals all workers to exit and waits for them. Safe to call twice.
func (p *WorkerPool) Stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.doneChan <- chunk.fn(chunk.start, chunk.end)
		}
	}
}

// Run splits [0, n) into contiguous chunks, one per worker, and returns the
// sum of fn over all chunks. Small n runs inline on the caller's goroutine.
// Chunks never overlap, so fn may write its own rows without locking.
func (p *WorkerPool) Run(n int, fn ChunkFunc) int {
	if n <= 0 {
		return 0
	}
	if n < p.threshold || p.numWorkers == 1 {
		return fn(0, n)
	}

	if !p.running {
		p.start()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end, fn: fn}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	total := 0
	for i := 0; i < chunksDispatched; i++ {
		total += <-p.doneChan
	}
	return total
}
