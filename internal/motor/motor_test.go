package motor_test

import (
	"context"
	"errors"
	"math"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dcmotor/internal/dynamo"
	"github.com/san-kum/dcmotor/internal/motor"
	"github.com/san-kum/dcmotor/internal/waveform"
)

func referenceParams() motor.Parameters {
	return motor.Parameters{
		Motor: motor.Constants{R: 1, L: 0.5, KT: 0.1, Ke: 0.1, J: 0.01, B: 0.02},
		Input: waveform.Waveform{Kind: waveform.Step, Amplitude: 10, Frequency: 1, Duration: 5},
		TMax:  5,
		Dt:    0.001,
	}
}

func simulate(p motor.Parameters) *motor.Trace {
	tr, _, err := motor.Simulate(context.Background(), p)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return tr
}

var _ = Describe("Motor", func() {
	Describe("Derive", func() {
		It("is zero at rest without input", func() {
			m := motor.New(motor.DefaultConstants())
			dx := m.Derive(dynamo.State{0, 0}, dynamo.Control{0}, 0)
			Expect(dx).To(Equal(dynamo.State{0, 0}))
		})

		It("evaluates the coupled state equations", func() {
			m := motor.New(motor.Constants{R: 2, L: 0.5, KT: 0.3, Ke: 0.4, J: 0.1, B: 0.05})
			dx := m.Derive(dynamo.State{1.5, 10}, dynamo.Control{12}, 0)
			Expect(dx[0]).To(BeNumerically("~", (12-2*1.5-0.4*10)/0.5, 1e-12))
			Expect(dx[1]).To(BeNumerically("~", (0.3*1.5-0.05*10)/0.1, 1e-12))
		})

		It("treats a missing input as zero volts", func() {
			m := motor.New(motor.DefaultConstants())
			Expect(m.Derive(dynamo.State{1, 0}, nil, 0)).To(Equal(m.Derive(dynamo.State{1, 0}, dynamo.Control{0}, 0)))
		})

		It("reports torque and back-EMF", func() {
			m := motor.New(motor.DefaultConstants())
			Expect(m.Torque(dynamo.State{2, 0})).To(BeNumerically("~", 0.2, 1e-15))
			Expect(m.BackEMF(dynamo.State{0, 30})).To(BeNumerically("~", 3, 1e-12))
		})
	})

	Describe("Constants", func() {
		It("exposes the electrical and mechanical time constants", func() {
			c := motor.DefaultConstants()
			Expect(c.ElectricalTimeConstant()).To(BeNumerically("~", 0.5, 1e-15))
			Expect(c.MechanicalTimeConstant()).To(BeNumerically("~", 0.5, 1e-15))
		})

		DescribeTable("rejects constants the equations cannot use",
			func(mutate func(*motor.Constants)) {
				c := motor.DefaultConstants()
				mutate(&c)
				Expect(errors.Is(c.Validate(), dynamo.ErrParameterBounds)).To(BeTrue())
			},
			Entry("zero inductance", func(c *motor.Constants) { c.L = 0 }),
			Entry("negative inductance", func(c *motor.Constants) { c.L = -1 }),
			Entry("zero inertia", func(c *motor.Constants) { c.J = 0 }),
			Entry("NaN resistance", func(c *motor.Constants) { c.R = math.NaN() }),
			Entry("infinite damping", func(c *motor.Constants) { c.B = math.Inf(1) }),
		)
	})

	Describe("Simulate", func() {
		It("produces ceil(t_max/dt) aligned samples", func() {
			tr := simulate(referenceParams())
			Expect(tr.Len()).To(Equal(5000))
			Expect(tr.Voltage).To(HaveLen(5000))
			Expect(tr.Current).To(HaveLen(5000))
			Expect(tr.Omega).To(HaveLen(5000))
		})

		It("keeps sample 0 as the zero anchor", func() {
			p := referenceParams()
			p.Input = waveform.Waveform{Kind: waveform.Triangle, Amplitude: 5, Frequency: 3}
			tr := simulate(p)
			Expect(tr.Times[0]).To(BeZero())
			Expect(tr.Voltage[0]).To(BeZero())
			Expect(tr.Current[0]).To(BeZero())
			Expect(tr.Omega[0]).To(BeZero())
		})

		It("places samples on the uniform grid n*dt", func() {
			tr := simulate(referenceParams())
			for _, n := range []int{1, 17, 2500, 4999} {
				Expect(tr.Times[n]).To(Equal(float64(n) * 0.001))
			}
		})

		It("advances both states from the previous step", func() {
			tr := simulate(referenceParams())

			// step 1 sees i=0, ω=0
			Expect(tr.Voltage[1]).To(Equal(10.0))
			Expect(tr.Current[1]).To(BeNumerically("~", 0.001*10/0.5, 1e-15))
			Expect(tr.Omega[1]).To(BeZero())

			// step 2 sees the step 1 current but still ω=0
			i1 := tr.Current[1]
			Expect(tr.Current[2]).To(BeNumerically("~", i1+0.001*(10-i1)/0.5, 1e-15))
			Expect(tr.Omega[2]).To(BeNumerically("~", 0.001*0.1*i1/0.01, 1e-15))
		})

		It("settles towards the steady state of the reference scenario", func() {
			tr := simulate(referenceParams())
			current, omega := tr.Final()

			Expect(tr.Current[0]).To(BeZero())
			Expect(current).To(BeNumerically(">", 0))
			Expect(current).To(BeNumerically("<", 10))

			// i = V*B / (R*B + Ke*KT), ω = KT*i / B
			Expect(current).To(BeNumerically("~", 10*0.02/(0.02+0.01), 0.01))
			Expect(omega).To(BeNumerically("~", 0.1*(10*0.02/0.03)/0.02, 0.1))
		})

		It("removes the input at the step duration", func() {
			p := referenceParams()
			p.Input.Duration = 1
			tr := simulate(p)
			Expect(tr.Voltage[999]).To(Equal(10.0))
			Expect(tr.Voltage[1000]).To(BeZero())
			Expect(tr.Voltage[4999]).To(BeZero())
		})

		It("is deterministic", func() {
			p := referenceParams()
			p.Input = waveform.Waveform{Kind: waveform.Sinusoid, Amplitude: 7, Frequency: 2.5}
			Expect(simulate(p)).To(Equal(simulate(p)))
		})

		DescribeTable("stays at rest without forcing",
			func(kind waveform.Kind) {
				p := referenceParams()
				p.Input = waveform.Waveform{Kind: kind, Amplitude: 0, Frequency: 1, Duration: 5}
				tr := simulate(p)
				for n := range tr.Times {
					Expect(tr.Current[n]).To(BeNumerically("==", 0))
					Expect(tr.Omega[n]).To(BeNumerically("==", 0))
				}
			},
			Entry("step", waveform.Step),
			Entry("triangle", waveform.Triangle),
			Entry("sinusoid", waveform.Sinusoid),
			Entry("none", waveform.None),
		)

		It("lets a coarse step diverge without error", func() {
			p := referenceParams()
			p.Input.Duration = 1000
			p.Dt = 1.5
			p.TMax = 300
			tr := simulate(p)
			current, _ := tr.Final()
			Expect(math.Abs(current)).To(BeNumerically(">", 1e50))
		})

		It("does not clamp non-finite states", func() {
			p := referenceParams()
			p.Input.Duration = 1e9
			p.Dt = 50
			p.TMax = 50000
			tr := simulate(p)
			current, omega := tr.Final()
			Expect(dynamo.State{current, omega}.IsValid()).To(BeFalse())
		})

		It("reports a triangle without frequency", func() {
			p := referenceParams()
			p.Input = waveform.Waveform{Kind: waveform.Triangle, Amplitude: 5}
			_, _, err := motor.Simulate(context.Background(), p)
			Expect(errors.Is(err, waveform.ErrZeroFrequency)).To(BeTrue())
		})

		DescribeTable("rejects invalid integration controls",
			func(tmax, dt float64) {
				p := referenceParams()
				p.TMax, p.Dt = tmax, dt
				_, _, err := motor.Simulate(context.Background(), p)
				Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
			},
			Entry("zero dt", 5.0, 0.0),
			Entry("negative dt", 5.0, -0.001),
			Entry("zero t_max", 0.0, 0.001),
			Entry("dt too small for t_max", 1.0, 1e-300),
		)

		It("collects metrics observed during the run", func() {
			counter := &sampleCounter{}
			_, values, err := motor.Simulate(context.Background(), referenceParams(), counter)
			Expect(err).NotTo(HaveOccurred())
			Expect(values).To(HaveKeyWithValue("samples", 5000.0))
		})

		It("runs independent simulations concurrently", func() {
			amplitudes := []float64{1, 2, 3, 4, 5, 6, 7, 8}
			expected := make([]*motor.Trace, len(amplitudes))
			for k, a := range amplitudes {
				p := referenceParams()
				p.Input.Amplitude = a
				expected[k] = simulate(p)
			}

			got := make([]*motor.Trace, len(amplitudes))
			var wg sync.WaitGroup
			for k, a := range amplitudes {
				wg.Add(1)
				go func(k int, a float64) {
					defer wg.Done()
					defer GinkgoRecover()
					p := referenceParams()
					p.Input.Amplitude = a
					got[k] = simulate(p)
				}(k, a)
			}
			wg.Wait()

			Expect(got).To(Equal(expected))
		})
	})
})

type sampleCounter struct{ n int }

func (c *sampleCounter) Name() string { return "samples" }
func (c *sampleCounter) Observe(x dynamo.State, u dynamo.Control, t float64) {
	c.n++
}
func (c *sampleCounter) Value() float64 { return float64(c.n) }
func (c *sampleCounter) Reset()         { c.n = 0 }
