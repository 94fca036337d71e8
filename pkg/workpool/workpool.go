package workpool

import(
	"errors"
	"fmt"
	"sync"
)

const DefaultWorkers = 4

var ErrClosed = errors.New("workpool closed")

// Pool runs submitted jobs on a fixed number of goroutines. Submitting
// never blocks the caller; jobs wait in a FIFO until a worker is free.
type Pool struct {
	wg       sync.WaitGroup

	mu       sync.Mutex
	ready    *sync.Cond
	queue    []func()
	closed   bool
	nWorkers int
}

func New(nWorkers int) *Pool {
	if nWorkers < 1 {
		nWorkers = DefaultWorkers
	}
	p := &Pool{nWorkers: nWorkers}
	p.ready = sync.NewCond(&p.mu)

	for i:=0; i<nWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

func (p *Pool)String() string { return fmt.Sprintf("Pool[%d workers]", p.nWorkers) }

func (p *Pool)worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.ready.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		job := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		job()
	}
}

func (p *Pool)enqueue(job func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.queue = append(p.queue, job)
	p.ready.Signal()
	return true
}

// Pending is the number of jobs waiting for a worker.
func (p *Pool)Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Close stops accepting jobs and waits for the queued ones to finish.
func (p *Pool)Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.ready.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
}

// A Future is the pending result of a submitted job.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Submit queues fn on the pool and returns its future.
func Submit[T any](p *Pool, fn func() (T, error)) *Future[T] {
	f, job := newJob(fn)
	if !p.enqueue(job) {
		f.err = ErrClosed
		close(f.done)
	}
	return f
}

// Go runs fn on its own goroutine, outside any pool. Use it for jobs that
// themselves wait on pool jobs.
func Go[T any](fn func() (T, error)) *Future[T] {
	f, job := newJob(fn)
	go job()
	return f
}

func newJob[T any](fn func() (T, error)) (*Future[T], func()) {
	f := &Future[T]{done: make(chan struct{})}

	job := func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("job panicked: %v", r)
			}
		}()
		f.val, f.err = fn()
	}
	return f, job
}

// Done reports, without blocking, whether the result is ready.
func (f *Future[T])Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result waits for the job and returns its outcome.
func (f *Future[T])Result() (T, error) {
	<-f.done
	return f.val, f.err
}
