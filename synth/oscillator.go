package synth

import "math"

// Oscillator generates a single band-limited waveform for one voice. Phase
// and increment are kept in double precision so that very low frequencies
// don't lose resolution, following the teacher's osc struct in synth.go
// but replacing its naive waveform generators with PolyBLEP-corrected ones.
type Oscillator struct {
	sampleRate float64
	wave       Waveform

	phase float64
	delta float64

	// triangle leaky integrator state
	triState float64
}

// NewOscillator creates an oscillator for the given sample rate.
func NewOscillator(sampleRate float64) *Oscillator {
	return &Oscillator{
		sampleRate: sampleRate,
		wave:       WaveSaw,
	}
}

// SetWaveform selects the waveform this oscillator produces.
func (o *Oscillator) SetWaveform(w Waveform) { o.wave = w }

// SetFrequency recomputes the phase increment for freq, clamping to
// Nyquist so the increment never produces an alias-folding step.
func (o *Oscillator) SetFrequency(freq float64) {
	nyquist := o.sampleRate / 2
	if freq > nyquist {
		freq = nyquist
	}
	if freq < 0 {
		freq = 0
	}
	o.delta = freq / o.sampleRate
}

// Reset zeros phase and any integrator state. Voice.Configure calls it
// when loading a preset into an inactive voice, so a new note starts
// from a consistent attack transient.
func (o *Oscillator) Reset() {
	o.phase = 0
	o.triState = 0
}

// Process returns the next sample in [-1, 1].
func (o *Oscillator) Process() float64 {
	var out float64
	switch o.wave {
	case WaveSine:
		out = math.Cos(2 * math.Pi * o.phase)
	case WaveSaw:
		out = o.sawSample()
	case WaveSquare:
		out = o.squareSample()
	case WaveTriangle:
		out = o.triangleSample()
	}
	o.phase += o.delta
	if o.phase >= 1 {
		o.phase -= 1
	}
	return out
}

func (o *Oscillator) sawSample() float64 {
	naive := 2*o.phase - 1
	return naive - polyBLEP(o.phase, o.delta)
}

// squareSample generates a symmetric (50% duty cycle) square wave, two
// BLEPs corrected, one at each discontinuity (§4.A).
func (o *Oscillator) squareSample() float64 {
	const dutyCycle = 0.5

	var naive float64
	if o.phase < dutyCycle {
		naive = 1
	} else {
		naive = -1
	}
	out := naive + polyBLEP(o.phase, o.delta)

	wrapped := o.phase - dutyCycle
	if wrapped < 0 {
		wrapped += 1
	}
	out -= polyBLEP(wrapped, o.delta)
	return out
}

// triangleSample integrates a band-limited square wave, as a leaky
// integrator, to keep DC drift and amplitude scaling bounded across
// pitches (§4.A). The integrator starts from zero, so its first
// half-cycle overshoots; the returned sample is clamped to [-1, 1].
func (o *Oscillator) triangleSample() float64 {
	square := o.squareSample()
	o.triState = o.triState*(1-o.delta) + 4*o.delta*square
	return clamp(o.triState, -1, 1)
}

// polyBLEP returns the PolyBLEP residual for the discontinuity crossing
// at phase t with per-step increment dt, per §4.A.
func polyBLEP(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	switch {
	case t < dt:
		tau := t / dt
		return tau + tau - tau*tau - 1
	case t > 1-dt:
		tau := (t - 1) / dt
		return tau*tau + 2*tau + 1
	default:
		return 0
	}
}
