package workpool

import(
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitAndPoll(t *testing.T) {
	p := New(2)
	defer p.Close()

	release := make(chan struct{})
	f := Submit(p, func() (int, error) {
		<-release
		return 42, nil
	})

	if f.Done() {
		t.Fatalf("future done before the job ran")
	}
	close(release)

	v, err := f.Result()
	if err != nil || v != 42 {
		t.Errorf("Result = %d, %v", v, err)
	}
	if !f.Done() {
		t.Errorf("Done should be true after Result")
	}
}

func TestManyJobs(t *testing.T) {
	p := New(DefaultWorkers)
	var n int64
	futures := []*Future[bool]{}
	for i:=0; i<1000; i++ {
		futures = append(futures, Submit(p, func() (bool, error) {
			atomic.AddInt64(&n, 1)
			return true, nil
		}))
	}
	for _, f := range futures {
		f.Result()
	}
	p.Close()

	if n != 1000 {
		t.Errorf("ran %d jobs, want 1000", n)
	}
}

func TestPanicAndClosed(t *testing.T) {
	p := New(1)
	f := Submit(p, func() (int, error) { panic("boom") })
	if _, err := f.Result(); err == nil {
		t.Errorf("expected the panic to surface as an error")
	}
	p.Close()

	f = Submit(p, func() (int, error) { return 1, nil })
	select {
	case <-f.done:
	case <-time.After(time.Second):
		t.Fatalf("submit on a closed pool should complete immediately")
	}
	if _, err := f.Result(); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestGoCanWaitOnPool(t *testing.T) {
	p := New(1)
	defer p.Close()

	outer := Go(func() (int, error) {
		inner := Submit(p, func() (int, error) { return 2, nil })
		v, err := inner.Result()
		return v * 21, err
	})
	if v, err := outer.Result(); v != 42 || err != nil {
		t.Errorf("Result = %d, %v", v, err)
	}
}

func TestFixedConcurrency(t *testing.T) {
	p := New(4)
	var running, peak int64
	futures := []*Future[bool]{}
	for i:=0; i<400; i++ {
		futures = append(futures, Submit(p, func() (bool, error) {
			n := atomic.AddInt64(&running, 1)
			for {
				old := atomic.LoadInt64(&peak)
				if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt64(&running, -1)
			return true, nil
		}))
	}
	if p.Pending() == 0 {
		t.Errorf("expected jobs to be waiting behind 4 workers")
	}
	for _, f := range futures {
		f.Result()
	}
	p.Close()

	if peak > 4 {
		t.Errorf("peak concurrent jobs = %d, want <= 4", peak)
	}
	if peak < 1 {
		t.Errorf("no job ran")
	}
}

func TestCloseRunsQueuedJobs(t *testing.T) {
	p := New(1)
	var n int64
	block := make(chan struct{})
	Submit(p, func() (bool, error) { <-block; return true, nil })
	for i:=0; i<10; i++ {
		Submit(p, func() (bool, error) { atomic.AddInt64(&n, 1); return true, nil })
	}
	close(block)
	p.Close()

	if n != 10 {
		t.Errorf("Close left %d of 10 queued jobs unrun", 10-n)
	}
}
