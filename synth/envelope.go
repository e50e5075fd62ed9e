package synth

import "math"

// EnvelopeState is one of the five stages an Envelope moves through.
type EnvelopeState int

const (
	EnvIdle EnvelopeState = iota
	EnvAttack
	EnvDecay
	EnvSustain
	EnvRelease
)

const envFloor = 1e-3

// Envelope is a four-stage exponential ADSR: level tracks a one-pole
// approach toward a per-stage target, following §4.D. This generalizes
// the teacher's linear-ramp envelope — the stage machine and
// retrigger/release semantics are the same shape, but each stage now
// approaches its target exponentially instead of linearly, and release
// simply continues from whatever level it was cut short at (no
// re-anchoring) rather than assuming a full attack happened first.
type Envelope struct {
	sampleRate float64

	attack  float64
	decay   float64
	sustain float64
	release float64

	state EnvelopeState
	level float64

	attackCoeff  float64
	decayCoeff   float64
	releaseCoeff float64
}

func NewEnvelope(sampleRate float64) *Envelope {
	return &Envelope{sampleRate: sampleRate}
}

// Configure sets the stage times (seconds) and sustain level (0..1).
// It does not touch state or level — an in-flight envelope keeps
// running and picks up the new shape at its current stage, per the
// mid-playback safety contract in §4.H.
func (e *Envelope) Configure(p EnvelopeParams) {
	e.attack = p.Attack
	e.decay = p.Decay
	e.sustain = p.Sustain
	e.release = p.Release
	e.attackCoeff = stageCoeff(e.attack, e.sampleRate)
	e.decayCoeff = stageCoeff(e.decay, e.sampleRate)
	e.releaseCoeff = stageCoeff(e.release, e.sampleRate)
}

// stageCoeff computes the one-pole coefficient for a stage lasting T
// seconds: c = 1 - exp(-5/(T*Fs)); a stage with T <= 1e-4 is instant.
func stageCoeff(t, sampleRate float64) float64 {
	if t <= 1e-4 {
		return 1
	}
	return 1 - math.Exp(-5/(t*sampleRate))
}

// NoteOn forces the envelope into Attack regardless of current state,
// producing a retrigger rather than a smooth continuation.
func (e *Envelope) NoteOn() {
	e.state = EnvAttack
}

// NoteOff forces Release from any non-idle state. The level is not
// re-anchored to any assumed curve — release proceeds exponentially
// toward zero from whatever level NoteOff found it at. Calling NoteOff
// twice in a row is a no-op the second time, since the state is
// already Release.
func (e *Envelope) NoteOff() {
	if e.state != EnvIdle {
		e.state = EnvRelease
	}
}

// Process advances the envelope by one sample and returns its level.
func (e *Envelope) Process() float64 {
	switch e.state {
	case EnvIdle:
		return 0
	case EnvAttack:
		e.level += e.attackCoeff * (1 - e.level)
		if e.level >= 0.999 {
			e.level = 1
			e.state = EnvDecay
		}
	case EnvDecay:
		e.level += e.decayCoeff * (e.sustain - e.level)
		if math.Abs(e.level-e.sustain) < 1e-3 {
			e.level = e.sustain
			e.state = EnvSustain
		}
	case EnvSustain:
		e.level = e.sustain
	case EnvRelease:
		e.level += e.releaseCoeff * (0 - e.level)
		if e.level < envFloor {
			e.level = 0
			e.state = EnvIdle
		}
	}
	return e.level
}

// IsActive reports whether the envelope is producing any output.
func (e *Envelope) IsActive() bool { return e.state != EnvIdle }

// IsInRelease reports whether the envelope is in its release stage.
func (e *Envelope) IsInRelease() bool { return e.state == EnvRelease }

// Level returns the envelope's current level without advancing it.
func (e *Envelope) Level() float64 { return e.level }

// Reset forces the envelope back to Idle with a zero level, used when
// (re)configuring an inactive voice.
func (e *Envelope) Reset() {
	e.state = EnvIdle
	e.level = 0
}
