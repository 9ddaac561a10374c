package sim

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/parallelphysics/internal/dynamo"
	"github.com/san-kum/parallelphysics/internal/physics"
	"github.com/san-kum/parallelphysics/internal/world"
)

func drifters(n int) ([]*world.Object, []Updater) {
	objs := make([]*world.Object, n)
	ups := make([]Updater, n)
	for i := range objs {
		objs[i] = world.NewObject("drifter")
		d := &world.Drifter{Object: objs[i]}
		d.PositionRate[2] = 0.1
		d.VelocityRate[2] = 0.05
		ups[i] = d
	}
	return objs, ups
}

var _ = Describe("Processor", func() {
	ctx := context.Background()

	Describe("construction", func() {
		It("rejects nil objects with a capability error", func() {
			_, ups := drifters(2)
			ups = append(ups, nil)

			_, err := New(ups)
			Expect(errors.Is(err, dynamo.ErrCapability)).To(BeTrue())

			var capErr *CapabilityError
			Expect(errors.As(err, &capErr)).To(BeTrue())
			Expect(capErr.Indices).To(Equal([]int{2}))
		})

		It("rejects typed nil objects", func() {
			var q *physics.Quantum
			_, err := New([]Updater{q})
			Expect(err).To(MatchError(dynamo.ErrCapability))
		})

		It("checks duck-typed values before the first frame", func() {
			_, ups := drifters(1)
			_, err := FromAny([]any{ups[0], "not physics", 42})
			Expect(errors.Is(err, dynamo.ErrCapability)).To(BeTrue())

			var capErr *CapabilityError
			Expect(errors.As(err, &capErr)).To(BeTrue())
			Expect(capErr.Indices).To(Equal([]int{1, 2}))
			Expect(capErr.Types).To(Equal([]string{"string", "int"}))
		})

		It("accepts duck-typed values that can update", func() {
			_, ups := drifters(2)
			p, err := FromAny([]any{ups[0], ups[1]})
			Expect(err).NotTo(HaveOccurred())
			defer p.Close()
			Expect(p.Len()).To(Equal(2))
		})

		It("caps the pool at the object count", func() {
			_, ups := drifters(3)
			p, err := New(ups, WithWorkers(64))
			Expect(err).NotTo(HaveOccurred())
			defer p.Close()
			Expect(p.Workers()).To(Equal(3))
		})

		It("defaults the pool to at least one worker", func() {
			p, err := New(nil)
			Expect(err).NotTo(HaveOccurred())
			defer p.Close()
			Expect(p.Workers()).To(Equal(1))
			Expect(p.ProcessAll(ctx, 0.016)).To(Succeed())
		})
	})

	Describe("ProcessAll", func() {
		It("advances every object once per frame", func() {
			objs, ups := drifters(3)
			p, err := New(ups)
			Expect(err).NotTo(HaveOccurred())
			defer p.Close()

			for i := 0; i < 3; i++ {
				Expect(p.ProcessAll(ctx, 0.016)).To(Succeed())
			}

			Expect(p.Frame()).To(Equal(3))
			for _, o := range objs {
				Expect(o.Position[2]).To(BeNumerically("~", 3*0.1*0.016, 1e-12))
				Expect(o.Velocity[2]).To(BeNumerically("~", 3*0.05*0.016, 1e-12))
			}
		})

		It("matches isolated updates regardless of pool size", func() {
			const n, frames = 16, 25

			run := func(workers int) []dynamo.Snapshot {
				qs := make([]*physics.Quantum, n)
				ups := make([]Updater, n)
				for i := range qs {
					q, err := physics.New(world.NewObject("q"), 5+float64(i), 10*float64(i))
					Expect(err).NotTo(HaveOccurred())
					qs[i] = q
					ups[i] = q
				}
				p, err := New(ups, WithWorkers(workers))
				Expect(err).NotTo(HaveOccurred())
				defer p.Close()

				for f := 0; f < frames; f++ {
					Expect(p.ProcessAll(ctx, 0.016)).To(Succeed())
				}
				out := make([]dynamo.Snapshot, n)
				for i, q := range qs {
					out[i] = q.Snapshot()
				}
				return out
			}

			isolated := make([]dynamo.Snapshot, n)
			for i := range isolated {
				q, _ := physics.New(world.NewObject("q"), 5+float64(i), 10*float64(i))
				for f := 0; f < frames; f++ {
					Expect(q.UpdatePhysics(0.016)).To(Succeed())
				}
				isolated[i] = q.Snapshot()
			}

			Expect(run(1)).To(Equal(isolated))
			Expect(run(n)).To(Equal(isolated))
		})

		It("never runs more updates at once than it has workers", func() {
			var active, peak int32
			ups := make([]Updater, 12)
			for i := range ups {
				ups[i] = UpdaterFunc(func(dt float64) error {
					cur := atomic.AddInt32(&active, 1)
					for {
						old := atomic.LoadInt32(&peak)
						if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
							break
						}
					}
					time.Sleep(2 * time.Millisecond)
					atomic.AddInt32(&active, -1)
					return nil
				})
			}

			p, err := New(ups, WithWorkers(3))
			Expect(err).NotTo(HaveOccurred())
			defer p.Close()

			Expect(p.ProcessAll(ctx, 0.016)).To(Succeed())
			Expect(atomic.LoadInt32(&peak)).To(BeNumerically("<=", 3))
			Expect(atomic.LoadInt32(&active)).To(BeZero())
		})

		It("aggregates failures and keeps the other updates", func() {
			objs, ups := drifters(4)
			boom := errors.New("boom")
			ups[1] = UpdaterFunc(func(float64) error { return boom })
			ups[3] = UpdaterFunc(func(float64) error { return dynamo.Domainf("bad value") })

			p, err := New(ups, WithWorkers(2))
			Expect(err).NotTo(HaveOccurred())
			defer p.Close()

			err = p.ProcessAll(ctx, 0.016)
			Expect(err).To(HaveOccurred())

			var frameErr *dynamo.FrameError
			Expect(errors.As(err, &frameErr)).To(BeTrue())
			Expect(frameErr.Frame).To(Equal(1))
			Expect(frameErr.Failed()).To(Equal([]int{1, 3}))
			Expect(errors.Is(err, boom)).To(BeTrue())
			Expect(errors.Is(err, dynamo.ErrNumericDomain)).To(BeTrue())

			Expect(objs[0].Position[2]).To(BeNumerically("~", 0.1*0.016, 1e-12))
			Expect(objs[2].Position[2]).To(BeNumerically("~", 0.1*0.016, 1e-12))
		})

		It("surfaces numeric errors from physics objects", func() {
			q, err := physics.New(world.NewObject("q"), 10, 50)
			Expect(err).NotTo(HaveOccurred())
			p, err := New([]Updater{q})
			Expect(err).NotTo(HaveOccurred())
			defer p.Close()

			err = p.ProcessAll(ctx, -1)
			Expect(errors.Is(err, dynamo.ErrNumericDomain)).To(BeTrue())

			var stepErr *dynamo.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Step).To(Equal("timestep"))
		})

		It("recovers panicking updates", func() {
			objs, ups := drifters(2)
			ups = append(ups, UpdaterFunc(func(float64) error { panic("kaboom") }))

			p, err := New(ups)
			Expect(err).NotTo(HaveOccurred())
			defer p.Close()

			err = p.ProcessAll(ctx, 0.016)
			Expect(err).To(MatchError(ContainSubstring("kaboom")))
			Expect(objs[0].Position[2]).To(BeNumerically(">", 0))

			Expect(p.ProcessAll(ctx, 0.016)).To(MatchError(ContainSubstring("object 2")))
		})

		It("skips undispatched objects once the context is done", func() {
			_, ups := drifters(3)
			p, err := New(ups)
			Expect(err).NotTo(HaveOccurred())
			defer p.Close()

			cctx, cancel := context.WithCancel(ctx)
			cancel()

			err = p.ProcessAll(cctx, 0.016)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())

			var frameErr *dynamo.FrameError
			Expect(errors.As(err, &frameErr)).To(BeTrue())
			Expect(frameErr.Objects).To(HaveLen(3))
		})

		It("serializes concurrent callers into whole frames", func() {
			const n = 8
			var mu sync.Mutex
			counts := make([]int, n)
			var inFrame int32
			var overlap atomic.Bool

			ups := make([]Updater, n)
			for i := range ups {
				idx := i
				ups[i] = UpdaterFunc(func(float64) error {
					mu.Lock()
					counts[idx]++
					mu.Unlock()
					return nil
				})
			}

			p, err := New(ups, WithWorkers(4), WithObserver(FrameObserverFunc(func(FrameStats) {
				if atomic.AddInt32(&inFrame, 1) != 1 {
					overlap.Store(true)
				}
				atomic.AddInt32(&inFrame, -1)
			})))
			Expect(err).NotTo(HaveOccurred())
			defer p.Close()

			var wg sync.WaitGroup
			for g := 0; g < 5; g++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					for f := 0; f < 10; f++ {
						Expect(p.ProcessAll(ctx, 0.016)).To(Succeed())
					}
				}()
			}
			wg.Wait()

			Expect(p.Frame()).To(Equal(50))
			Expect(overlap.Load()).To(BeFalse())
			for _, c := range counts {
				Expect(c).To(Equal(50))
			}
		})

		It("reports frame stats to observers", func() {
			_, ups := drifters(2)
			ups = append(ups, UpdaterFunc(func(float64) error { return errors.New("nope") }))

			var got []FrameStats
			p, err := New(ups, WithObserver(FrameObserverFunc(func(s FrameStats) { got = append(got, s) })))
			Expect(err).NotTo(HaveOccurred())
			defer p.Close()

			_ = p.ProcessAll(ctx, 0.02)
			Expect(got).To(HaveLen(1))
			Expect(got[0].Frame).To(Equal(1))
			Expect(got[0].Dt).To(Equal(0.02))
			Expect(got[0].Objects).To(Equal(3))
			Expect(got[0].Failed).To(Equal(1))
		})
	})

	Describe("Close", func() {
		It("rejects frames after close and is idempotent", func() {
			_, ups := drifters(2)
			p, err := New(ups)
			Expect(err).NotTo(HaveOccurred())

			Expect(p.Close()).To(Succeed())
			Expect(p.Close()).To(Succeed())
			Expect(p.ProcessAll(ctx, 0.016)).To(MatchError(dynamo.ErrClosed))
		})
	})
})
