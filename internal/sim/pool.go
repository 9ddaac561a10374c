package sim

import (
	"fmt"
	"sync"
)

type job struct {
	obj  Updater
	dt   float64
	err  *error
	done *sync.WaitGroup
}

// workerPool runs jobs on a fixed set of goroutines that live until close.
type workerPool struct {
	jobs chan job
	wg   sync.WaitGroup
}

func newWorkerPool(size int) *workerPool {
	p := &workerPool{jobs: make(chan job)}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.work()
	}
	return p
}

func (p *workerPool) work() {
	defer p.wg.Done()
	for j := range p.jobs {
		*j.err = runUpdate(j.obj, j.dt)
		j.done.Done()
	}
}

// close stops accepting jobs and waits for the workers to exit.
func (p *workerPool) close() {
	close(p.jobs)
	p.wg.Wait()
}

func runUpdate(obj Updater, dt float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("update panicked: %v", r)
		}
	}()
	return obj.UpdatePhysics(dt)
}
