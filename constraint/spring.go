package constraint

import "math"

// SpringMode selects how a constraint part turns its raw inverse effective
// mass into a (possibly softened) one.
type SpringMode int

const (
	// SpringModeHard disables softness: gamma = 0, the stored bias is used as-is.
	SpringModeHard SpringMode = iota
	// SpringModeFrequencyDamping derives stiffness/damping from a frequency (Hz) and a damping ratio.
	SpringModeFrequencyDamping
	// SpringModeStiffnessDamping takes stiffness and damping coefficients directly.
	SpringModeStiffnessDamping
)

// SpringSettings configures the spring part (C1) embedded in a constraint part.
type SpringSettings struct {
	Mode SpringMode

	Frequency float64 // Hz, SpringModeFrequencyDamping
	Damping   float64 // damping ratio (FrequencyDamping) or coefficient c (StiffnessDamping)
	Stiffness float64 // k, SpringModeStiffnessDamping
}

// HardSpring is the zero-value-equivalent settings for a non-soft constraint.
var HardSpring = SpringSettings{Mode: SpringModeHard}

// Spring is C1: the softness/bias state shared by every constraint part.
// It is reinitialized every setup and never outlives the part that embeds it.
type Spring struct {
	gamma float64
	bias  float64
}

// Setup computes gamma and the stored bias from the part's raw (pre-softening)
// inverse effective mass k, the current constraint error errC, an externally
// supplied bias b, and the time step, returning the effective mass to use for
// the rest of this step's solve.
func (s *Spring) Setup(settings SpringSettings, k, errC, biasB, dt float64) float64 {
	switch settings.Mode {
	case SpringModeFrequencyDamping:
		if settings.Frequency <= 0 {
			return s.setupHard(k, biasB)
		}
		m := 1.0 / k
		omega := 2 * math.Pi * settings.Frequency
		springK := m * omega * omega
		springC := 2 * m * settings.Damping * omega
		return s.setupSoft(k, springK, springC, errC, biasB, dt)
	case SpringModeStiffnessDamping:
		if settings.Stiffness <= 0 {
			return s.setupHard(k, biasB)
		}
		return s.setupSoft(k, settings.Stiffness, settings.Damping, errC, biasB, dt)
	default:
		return s.setupHard(k, biasB)
	}
}

func (s *Spring) setupHard(k, biasB float64) float64 {
	s.gamma = 0
	s.bias = biasB
	return 1.0 / k
}

func (s *Spring) setupSoft(k, springK, springC, errC, biasB, dt float64) float64 {
	s.gamma = 1.0 / (dt * (springC + dt*springK))
	beta := dt * springK * s.gamma
	s.bias = biasB + beta*errC
	return 1.0 / (k + s.gamma)
}

// TotalBias returns gamma*lambdaTotal + bias, the soft-constraint
// accumulation term added to Jv on every velocity iteration
// (deltaLambda = -effectiveMass * (Jv + TotalBias)).
func (s *Spring) TotalBias(lambdaTotal float64) float64 {
	return s.gamma*lambdaTotal + s.bias
}

// Reset clears the spring state, used when a part deactivates.
func (s *Spring) Reset() {
	s.gamma = 0
	s.bias = 0
}
