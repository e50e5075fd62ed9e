package synth

import "math"

// SmoothedParameter is a one-pole target follower used to avoid clicks
// when a control-rate value (like filter cutoff) jumps on a hot-swapped
// preset, per §4.F. It follows the exponential-smoothing branch of
// vst3go's param.Smoother, specialized to the one coefficient formula
// this engine needs.
type SmoothedParameter struct {
	sampleRate float64
	coeff      float64
	current    float64
	target     float64
}

// NewSmoothedParameter creates a smoother starting at init, with a
// smoothing time of timeMs milliseconds.
func NewSmoothedParameter(sampleRate, timeMs, init float64) *SmoothedParameter {
	s := &SmoothedParameter{sampleRate: sampleRate, current: init, target: init}
	s.SetTime(timeMs)
	return s
}

// SetTime updates the smoothing time constant: c = 1 - exp(-1/(T*1e-3*Fs)).
func (s *SmoothedParameter) SetTime(timeMs float64) {
	if timeMs <= 0 {
		s.coeff = 1
		return
	}
	s.coeff = 1 - math.Exp(-1/(timeMs*1e-3*s.sampleRate))
}

// SetTarget sets the value the smoother ramps toward.
func (s *SmoothedParameter) SetTarget(target float64) { s.target = target }

// SetImmediate sets both current and target to v, skipping the ramp.
func (s *SmoothedParameter) SetImmediate(v float64) {
	s.current = v
	s.target = v
}

// Next advances the smoother by one sample and returns the new current value.
func (s *SmoothedParameter) Next() float64 {
	s.current += s.coeff * (s.target - s.current)
	return s.current
}

// Value returns the current value without advancing the smoother.
func (s *SmoothedParameter) Value() float64 { return s.current }
