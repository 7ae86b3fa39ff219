package dbw_test

import (
	"bytes"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dbwsim/internal/control"
	"github.com/san-kum/dbwsim/internal/dbw"
	"github.com/san-kum/dbwsim/internal/logging"
)

const period = 0.02

var _ = Describe("Controller", func() {
	var (
		params dbw.VehicleParams
		tuning dbw.Tuning
		ctrl   *dbw.Controller
		now    float64
	)

	tick := func(in dbw.Inputs) dbw.Outputs {
		now += period
		return ctrl.Control(in, now)
	}

	BeforeEach(func() {
		params = dbw.DefaultVehicleParams()
		tuning = dbw.DefaultTuning()
		now = 100
		ctrl = dbw.New(params, tuning, now)
	})

	It("starts from the documented initial state", func() {
		st := ctrl.State()
		Expect(st.LastTime).To(Equal(100.0))
		Expect(st.MaxVel).To(Equal(0.001))
		Expect(st.LastThrottle).To(BeZero())
		Expect(st.LastBrake).To(Equal(100.0))
		Expect(st.LastSteering).To(BeZero())
	})

	Context("when drive-by-wire is disabled", func() {
		It("emits neutral output without touching controller state", func() {
			before := ctrl.State()
			out := ctrl.Control(dbw.Inputs{LinearVel: 20, AngularVel: 0.3, CurrentVel: 5, Enabled: false}, 101)
			Expect(out).To(Equal(dbw.Outputs{}))
			Expect(ctrl.State()).To(Equal(before))
		})

		It("resets the steering PID so no history leaks into re-engagement", func() {
			in := dbw.Inputs{LinearVel: 10, AngularVel: 0.2, CurrentVel: 10, CurrentAngularVel: 0.05, Enabled: true}
			for i := 0; i < 10; i++ {
				tick(in)
			}
			Expect(ctrl.SteeringPID().PrevError()).NotTo(BeZero())

			in.Enabled = false
			Expect(tick(in)).To(Equal(dbw.Outputs{}))
			Expect(ctrl.SteeringPID().PrevError()).To(BeZero())
			Expect(ctrl.SteeringPID().Integral()).To(BeZero())

			in.Enabled = true
			last := ctrl.State().LastTime
			tick(in)
			fresh := control.NewPID(tuning.SteerKp, tuning.SteerKi, tuning.SteerKd, -params.MaxSteerAngle, params.MaxSteerAngle)
			want := fresh.Step(0.15, now-last)
			Expect(ctrl.Diagnostics().PIDCorrection).To(BeNumerically("~", want, 1e-9))
		})

		It("clears an accumulated integral before re-engagement", func() {
			tuning.SteerKi = 0.5
			ctrl = dbw.New(params, tuning, now)

			in := dbw.Inputs{LinearVel: 10, AngularVel: 0.2, CurrentVel: 10, CurrentAngularVel: 0.05, Enabled: true}
			for i := 0; i < 10; i++ {
				tick(in)
			}
			Expect(ctrl.SteeringPID().Integral()).To(BeNumerically(">", 0))

			in.Enabled = false
			tick(in)
			Expect(ctrl.SteeringPID().Integral()).To(BeZero())

			in.Enabled = true
			last := ctrl.State().LastTime
			tick(in)
			fresh := control.NewPID(tuning.SteerKp, tuning.SteerKi, tuning.SteerKd, -params.MaxSteerAngle, params.MaxSteerAngle)
			want := fresh.Step(0.15, now-last)
			Expect(ctrl.Diagnostics().PIDCorrection).To(BeNumerically("~", want, 1e-9))
			Expect(ctrl.SteeringPID().Integral()).To(BeNumerically("~", fresh.Integral(), 1e-12))
		})

		It("logs engagement transitions", func() {
			var buf bytes.Buffer
			ctrl.SetLogger(logging.New(&buf, logging.INFO))
			tick(dbw.Inputs{LinearVel: 5, CurrentVel: 5, Enabled: true})
			tick(dbw.Inputs{Enabled: false})
			Expect(buf.String()).To(ContainSubstring("dbw engaged"))
			Expect(buf.String()).To(ContainSubstring("dbw disengaged"))
		})
	})

	Context("full stop", func() {
		It("holds the vehicle with 700 N*m once the brake ramp completes", func() {
			in := dbw.Inputs{LinearVel: 0, CurrentVel: 0.05, Enabled: true}
			out := tick(in)
			Expect(out.Throttle).To(BeZero())
			Expect(out.Brake).To(Equal(120.0))

			for i := 0; i < 40; i++ {
				out = tick(in)
				Expect(out.Throttle).To(BeZero())
			}
			Expect(out.Brake).To(Equal(700.0))
			Expect(ctrl.Diagnostics().Holding).To(BeTrue())
		})
	})

	Context("deceleration", func() {
		It("brakes with torque derived from the clamped deceleration", func() {
			in := dbw.Inputs{LinearVel: 5, CurrentVel: 8, Enabled: true}
			full := math.Abs(math.Max((25-64)*tuning.DecelGain, params.DecelLimit)) * params.VehicleMass * params.WheelRadius

			out := tick(in)
			Expect(out.Throttle).To(BeZero())
			Expect(out.Brake).To(BeNumerically("~", 120, 1e-9))
			Expect(ctrl.Diagnostics().Braking).To(BeTrue())

			prev := out.Brake
			for i := 0; i < 200; i++ {
				out = tick(in)
				Expect(out.Brake - prev).To(BeNumerically("<=", 20+1e-9))
				prev = out.Brake
			}
			Expect(out.Brake).To(BeNumerically("~", full, 1e-6))
		})

		It("applies the deceleration floor before the global limit", func() {
			st := dbw.DefaultTuning()
			st.InitialBrake = 0
			c := dbw.New(params, st, 0)
			out := c.Control(dbw.Inputs{LinearVel: 5, CurrentVel: 8, Enabled: true}, period)
			// decel branch clamps to 100, the global limit re-clamps to 20
			Expect(out.Brake).To(Equal(20.0))
		})
	})

	Context("throttle shaping", func() {
		It("ramps up slowly from rest", func() {
			in := dbw.Inputs{LinearVel: 10, CurrentVel: 0, Enabled: true}
			out := tick(in)
			Expect(out.Throttle).To(BeNumerically("~", 0.005, 1e-12))
			out = tick(in)
			Expect(out.Throttle).To(BeNumerically("~", 0.0075, 1e-12))
		})

		It("never exceeds the throttle ceiling", func() {
			in := dbw.Inputs{LinearVel: 40, CurrentVel: 0, Enabled: true, MaxThrottle: 0.3}
			for i := 0; i < 500; i++ {
				out := tick(in)
				Expect(out.Throttle).To(BeNumerically("<=", 0.3))
			}
		})

		It("ignores the cross-track error", func() {
			other := dbw.New(params, tuning, now)
			for i := 0; i < 50; i++ {
				now += period
				a := ctrl.Control(dbw.Inputs{LinearVel: 10, AngularVel: 0.1, CurrentVel: 8, Enabled: true}, now)
				b := other.Control(dbw.Inputs{LinearVel: 10, AngularVel: 0.1, CurrentVel: 8, Enabled: true, CTE: 3.5}, now)
				Expect(a).To(Equal(b))
			}
		})
	})

	Context("steady state", func() {
		It("converges to a fixed point without oscillation", func() {
			in := dbw.Inputs{LinearVel: 10, AngularVel: 0.1, CurrentVel: 10, CurrentAngularVel: 0.1, Enabled: true}
			var outs []dbw.Outputs
			for i := 0; i < 300; i++ {
				outs = append(outs, tick(in))
			}
			final := outs[len(outs)-1]
			for _, o := range outs[len(outs)-50:] {
				Expect(o.Throttle).To(BeNumerically("~", final.Throttle, 1e-12))
				Expect(o.Brake).To(BeNumerically("~", final.Brake, 1e-12))
				Expect(o.Steering).To(BeNumerically("~", final.Steering, 1e-12))
			}
			Expect(final.Throttle).To(BeNumerically("~", 10*tuning.ThrottleSpeedBias, 1e-9))
			Expect(final.Brake).To(BeZero())
		})
	})

	Context("under arbitrary input sequences", func() {
		It("keeps every rate limit and the max velocity invariant", func() {
			rng := rand.New(rand.NewSource(7))
			prev := dbw.Outputs{}
			prevMax := ctrl.State().MaxVel
			lastBrake := ctrl.State().LastBrake

			for i := 0; i < 5000; i++ {
				in := dbw.Inputs{
					LinearVel:         math.Max(0, rng.Float64()*25-3),
					AngularVel:        rng.NormFloat64() * 0.3,
					CurrentVel:        rng.Float64() * 25,
					CurrentAngularVel: rng.NormFloat64() * 0.3,
					Enabled:           true,
				}
				out := tick(in)

				Expect(math.Abs(out.Steering - prev.Steering)).To(BeNumerically("<=", 0.2+1e-12))
				Expect(math.Abs(out.Steering)).To(BeNumerically("<=", params.MaxSteerAngle+0.2))
				Expect(out.Brake - lastBrake).To(BeNumerically("<=", 20+1e-9))
				Expect(out.Brake).To(BeNumerically(">=", 0))
				if out.Throttle > 0.005 {
					Expect(prev.Throttle - out.Throttle).To(BeNumerically("<=", 0.05+1e-12))
				}
				Expect(out.Throttle).To(BeNumerically(">=", 0))
				Expect(out.Throttle).To(BeNumerically("<=", params.MaxThrottle))

				st := ctrl.State()
				Expect(st.MaxVel).To(BeNumerically(">=", prevMax))
				Expect(st.MaxVel).NotTo(BeZero())
				prevMax = st.MaxVel
				lastBrake = out.Brake
				prev = out
			}
		})

		It("stays finite when ticks arrive late or out of order", func() {
			in := dbw.Inputs{LinearVel: 10, AngularVel: 0.2, CurrentVel: 9, CurrentAngularVel: 0, Enabled: true}
			for _, t := range []float64{100.02, 100.02, 100.01, 99.0, 105.0} {
				out := ctrl.Control(in, t)
				Expect(math.IsNaN(out.Steering) || math.IsInf(out.Steering, 0)).To(BeFalse())
				Expect(math.IsNaN(out.Throttle)).To(BeFalse())
				Expect(ctrl.Diagnostics().Dt).To(BeNumerically(">", 0))
			}
		})

		It("returns bounded steering at standstill", func() {
			out := tick(dbw.Inputs{LinearVel: 0, AngularVel: 0.5, CurrentVel: 0, Enabled: true})
			Expect(math.IsNaN(out.Steering)).To(BeFalse())
			Expect(math.Abs(out.Steering)).To(BeNumerically("<=", 0.2))
		})
	})
})

var _ = Describe("VehicleParams", func() {
	It("accepts the reference vehicle", func() {
		Expect(dbw.DefaultVehicleParams().Validate()).To(Succeed())
	})

	DescribeTable("rejects broken invariants",
		func(mutate func(*dbw.VehicleParams)) {
			p := dbw.DefaultVehicleParams()
			mutate(&p)
			Expect(p.Validate()).To(MatchError(dbw.ErrInvalidParams))
		},
		Entry("zero steer angle", func(p *dbw.VehicleParams) { p.MaxSteerAngle = 0 }),
		Entry("positive decel", func(p *dbw.VehicleParams) { p.DecelLimit = 1 }),
		Entry("zero accel", func(p *dbw.VehicleParams) { p.AccelLimit = 0 }),
		Entry("zero mass", func(p *dbw.VehicleParams) { p.VehicleMass = 0 }),
	)
})
