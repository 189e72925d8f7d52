package sim

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r2"
)

var _ = Describe("Simulator", func() {
	var cfg Config

	BeforeEach(func() {
		cfg = Config{Steps: 10, Dt: 0.01, OutputFreq: 3, Diagnostics: true, ValidateState: true}
	})

	Describe("configuration", func() {
		DescribeTable("rejects invalid values",
			func(mutate func(*Config)) {
				s, err := newGenerated(4, 1)
				Expect(err).NotTo(HaveOccurred())
				defer s.Close()

				mutate(&cfg)
				_, err = s.Run(cfg)
				Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
			},
			Entry("zero dt", func(c *Config) { c.Dt = 0 }),
			Entry("negative dt", func(c *Config) { c.Dt = -0.1 }),
			Entry("NaN dt", func(c *Config) { c.Dt = math.NaN() }),
			Entry("negative steps", func(c *Config) { c.Steps = -1 }),
			Entry("zero output frequency", func(c *Config) { c.OutputFreq = 0 }),
		)

		It("accepts zero steps and reports only the initial state", func() {
			s, _ := newGenerated(3, 2)
			defer s.Close()
			cfg.Steps = 0

			res, err := s.Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StepsTaken).To(BeZero())
			Expect(res.Samples).To(HaveLen(1))
			Expect(res.Samples[0].Step).To(BeZero())
		})

		It("does not size its buffers from a huge step count", func() {
			s, _ := newGenerated(2, 1)
			defer s.Close()
			stop := errors.New("stop")
			s.AddObserver(&recorder{err: stop})
			cfg.Steps = math.MaxInt
			cfg.OutputFreq = 1

			var err error
			Expect(func() { _, err = s.Run(cfg) }).NotTo(Panic())
			Expect(err).To(MatchError(stop))
			Expect(s.StepsTaken()).To(BeZero())
		})
	})

	Describe("output cadence", func() {
		It("fires at step 0 and every k-th step", func() {
			s, _ := newGenerated(5, 2)
			defer s.Close()
			rec := &recorder{}
			s.AddObserver(rec)

			res, err := s.Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StepsTaken).To(Equal(10))

			steps := make([]int, 0, len(rec.samples))
			for _, sm := range rec.samples {
				steps = append(steps, sm.Step)
				Expect(sm.Time).To(BeNumerically("~", float64(sm.Step)*cfg.Dt, 1e-15))
				Expect(sm.Measured).To(BeTrue())
			}
			Expect(steps).To(Equal([]int{0, 3, 6, 9}))
			Expect(res.Samples).To(Equal(rec.samples))
		})

		It("skips energy when diagnostics are off", func() {
			s, _ := newGenerated(5, 1)
			defer s.Close()
			cfg.Diagnostics = false

			res, err := s.Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			for _, sm := range res.Samples {
				Expect(sm.Measured).To(BeFalse())
				Expect(sm.Energy).To(Equal(dynamo.EnergyReport{}))
			}
			Expect(res.EnergyDrift).To(BeZero())
		})

		It("aborts when an observer fails", func() {
			s, _ := newGenerated(3, 1)
			defer s.Close()
			boom := errors.New("disk full")
			s.AddObserver(&recorder{err: boom})

			res, err := s.Run(cfg)
			Expect(err).To(MatchError(boom))
			Expect(res.StepsTaken).To(BeZero())
		})
	})

	Describe("step semantics", func() {
		It("moves every particle by dt times its old velocity", func() {
			for _, n := range []int{2, 5, 33} {
				s, _ := newGenerated(n, 4)
				before := s.System().Snapshot()

				s.Step(0.5)

				for i, old := range before {
					p := s.System().At(i)
					Expect(p.Pos.X).To(Equal(old.Pos.X + 0.5*old.Vel.X))
					Expect(p.Pos.Y).To(Equal(old.Pos.Y + 0.5*old.Vel.Y))
				}
				s.Close()
			}
		})

		It("evaluates every force before moving any particle", func() {
			s, _ := newGenerated(40, 8)
			defer s.Close()

			ref := s.System().Clone()
			forces := make([]r2.Vec, ref.Len())
			physics.NewGravity(physics.G).Compute(ref, forces)
			euler := integrators.NewEuler()
			for i := range forces {
				euler.Advance(ref, i, forces[i], 0.01)
			}

			s.Step(0.01)
			Expect(s.System().Snapshot()).To(Equal(ref.Snapshot()))
			Expect(s.StepsTaken()).To(Equal(1))
		})

		It("keeps the two-body centre of mass at rest", func() {
			s, _ := newGenerated(2, 2)
			defer s.Close()
			rec := &recorder{}
			s.AddObserver(rec)
			cfg.Steps, cfg.OutputFreq = 2000, 1

			_, err := s.Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.comV).To(HaveLen(2001))
			for _, v := range rec.comV {
				Expect(r2.Norm(v)).To(BeNumerically("<", 1e-9))
			}
		})

		It("leaves a lone particle in uniform motion", func() {
			s, _ := newGenerated(1, 3)
			defer s.Close()
			start := s.System().At(0)
			cfg.Steps, cfg.OutputFreq = 100, 10

			res, err := s.Run(cfg)
			Expect(err).NotTo(HaveOccurred())

			end := s.System().At(0)
			Expect(end.Vel).To(Equal(start.Vel))
			Expect(end.Pos.Y).To(BeNumerically("~", 100*0.01*start.Vel.Y, 1e-6))
			for _, sm := range res.Samples {
				Expect(sm.Energy.Potential).To(BeZero())
			}
		})
	})

	Describe("determinism", func() {
		It("produces bit-identical trajectories for any worker count", func() {
			cfg.Steps, cfg.OutputFreq = 200, 20
			var reference *Result

			for _, workers := range []int{1, 2, 3, 7, 16} {
				s, err := newGenerated(37, workers)
				Expect(err).NotTo(HaveOccurred())

				res, err := s.Run(cfg)
				s.Close()
				Expect(err).NotTo(HaveOccurred())

				if reference == nil {
					reference = res
					continue
				}
				Expect(res.Final).To(Equal(reference.Final), "workers=%d", workers)
				Expect(res.Samples).To(Equal(reference.Samples), "workers=%d", workers)
			}
		})
	})

	Describe("state validation", func() {
		It("stops at the first non-finite state", func() {
			sys, _ := dynamo.NewSystem(physics.Generate(3, physics.DefaultGenerator()))
			s := New(sys, nanField{}, integrators.NewEuler(), physics.NewEnergyMonitor(physics.G), compute.NewPool(2))
			defer s.Close()

			res, err := s.Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StepsTaken).To(Equal(1))
			Expect(res.Errors).To(HaveLen(1))

			var simErr *dynamo.SimulationError
			Expect(errors.As(res.Errors[0], &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(1))
			Expect(res.Errors[0]).To(MatchError(dynamo.ErrInvalidState))
		})
	})

	Describe("metrics", func() {
		It("reports every metric by name", func() {
			s, _ := newGenerated(4, 2)
			defer s.Close()
			s.AddMetric(metrics.NewEnergyDrift())
			s.AddMetric(metrics.NewMomentum())

			res, err := s.Run(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Metrics).To(HaveKey("energy_drift"))
			Expect(res.Metrics).To(HaveKey("com_speed"))
			Expect(res.Metrics["energy_drift"]).To(BeNumerically(">=", res.EnergyDrift))
		})
	})
})
