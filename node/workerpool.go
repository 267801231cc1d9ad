package node

import (
	"github.com/theQRL/qrl-core-go/logger"
	"github.com/theQRL/qrl-core-go/util/panics"
)

// job is a unit of blocking compute (PoW candidate search) offloaded
// from the event loop, per §5: "blocking compute ... offloaded
// to a bounded worker pool".
type job func() interface{}

// workerPool is a fixed set of goroutines draining a shared job queue
// and posting each job's result back onto results, so the event loop
// never blocks on PoW search. Hand-rolled
// over channels rather than an imported fixed-pool package: no
// dependency in the teacher's own require block models this precisely
// (see DESIGN.md), and the shape mirrors the teacher's
// panics.GoroutineWrapperFunc-guarded spawn pattern used throughout
// netadapter.
type workerPool struct {
	jobs    chan job
	results chan interface{}
	spawn   func(func())
}

// newWorkerPool starts n worker goroutines. Callers post work with
// submit and receive completions over the pool's results channel.
func newWorkerPool(n int) *workerPool {
	if n <= 0 {
		n = 1
	}
	p := &workerPool{
		jobs:    make(chan job, n*4),
		results: make(chan interface{}, n*4),
		spawn:   panics.GoroutineWrapperFunc(logger.Node()),
	}
	for i := 0; i < n; i++ {
		p.spawn(p.runWorker)
	}
	return p
}

func (p *workerPool) runWorker() {
	for j := range p.jobs {
		p.results <- j()
	}
}

// submit enqueues j for execution by some worker; its return value
// arrives later on p.results.
func (p *workerPool) submit(j job) {
	p.jobs <- j
}

// close stops accepting new jobs. Workers finish draining the queue and
// exit; results are not drained further by the caller after this.
func (p *workerPool) close() {
	close(p.jobs)
}
