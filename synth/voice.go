package synth

import "math"

// controlRateInterval is the number of audio-rate samples between
// control-rate recomputations of oscillator pitch and filter coefficient
// targets (§4.H step 2, §2 table row L's "control rate" concept).
const controlRateInterval = 32

// Voice composes an oscillator pair, a noise source, a filter, two
// envelopes, two LFOs, and a modulation matrix into one monophonic
// signal chain, following §4.H. It generalizes the teacher's
// synthVoice in synth.go — the same "configure once, note_on/off many
// times, process per sample" shape, but with the full A-G signal graph
// instead of two bare oscillators and a biquad.
type Voice struct {
	sampleRate float64

	osc1  *Oscillator
	osc2  *Oscillator
	noise *Noise

	filter *Filter

	ampEnv    *Envelope
	filterEnv *Envelope

	lfo1 *LFO
	lfo2 *LFO

	matrix *ModMatrix

	cutoffSmoother *SmoothedParameter
	resSmoother    *SmoothedParameter

	// copied from the preset at configure time
	osc1Level, osc2Level, noiseLevel float64
	osc2Semitones                    int
	osc2Detune                       float64
	baseCutoff, baseResonance        float64
	filterEnvAmount                  float64
	velocityToFilter                 float64
	lfo1ToFilter                     float64

	// mutable per-note state
	noteNumber  int
	baseFreq    float64
	velocity    float64
	gain        float64
	pan         float64
	active      bool
	noteOnTime  uint32
	priority    int
	pitchBend   float64

	controlCounter int
	currentLevel   float64
}

// NewVoice allocates one voice's full signal chain. Voices are created
// once at engine init and reused forever — see Pool.
func NewVoice(sampleRate float64) *Voice {
	return &Voice{
		sampleRate:     sampleRate,
		osc1:           NewOscillator(sampleRate),
		osc2:           NewOscillator(sampleRate),
		noise:          NewNoise(),
		filter:         NewFilter(sampleRate),
		ampEnv:         NewEnvelope(sampleRate),
		filterEnv:      NewEnvelope(sampleRate),
		lfo1:           NewLFO(sampleRate),
		lfo2:           NewLFO(sampleRate),
		matrix:         NewModMatrix(),
		cutoffSmoother: NewSmoothedParameter(sampleRate, 5, 1000),
		resSmoother:    NewSmoothedParameter(sampleRate, 5, 0),
	}
}

// Configure loads preset into the voice. If the voice is inactive, its
// DSP history (filter integrators, oscillator phase, smoothers) is
// reset first; the preset's values are copied unconditionally either
// way. This is the mid-playback safety contract of §4.H: a voice that
// is currently sounding only has its *values* changed, never its
// *state* discarded.
func (v *Voice) Configure(p *Preset) {
	if !v.active {
		v.osc1.Reset()
		v.osc2.Reset()
		v.noise.Reset()
		v.filter.Reset()
		v.cutoffSmoother.SetImmediate(p.FilterCutoff)
		v.resSmoother.SetImmediate(p.FilterResonance)
		v.ampEnv.Reset()
		v.filterEnv.Reset()
		v.lfo1.Reset()
		v.lfo2.Reset()
	}

	v.osc1Level = p.Osc1Level
	v.osc2Level = p.Osc2Level
	v.noiseLevel = p.NoiseLevel
	v.osc1.SetWaveform(p.Osc1Wave)
	v.osc2.SetWaveform(p.Osc2Wave)
	v.noise.SetPink(p.NoisePink)
	v.osc2Semitones = p.Osc2Semitones
	v.osc2Detune = p.Osc2Detune

	v.baseCutoff = p.FilterCutoff
	v.baseResonance = p.FilterResonance
	v.filterEnvAmount = p.FilterEnvAmount
	v.velocityToFilter = p.VelocityToFilter
	v.lfo1ToFilter = p.LFO1ToFilter

	v.ampEnv.Configure(p.AmpEnv)
	v.filterEnv.Configure(p.FilterEnv)

	v.lfo1.SetWaveform(p.LFO1Wave)
	v.lfo1.SetFrequency(p.LFO1Rate)
	v.lfo2.SetWaveform(p.LFO2Wave)
	v.lfo2.SetFrequency(p.LFO2Rate)
	v.matrix.SetPresetRoutes(p.Routes)

	v.priority = p.Priority
}

// NoteOn starts a new note. stamp is the dispatcher's monotonic
// counter value at submission time, used for age-based voice stealing.
func (v *Voice) NoteOn(pitch int, velocity, gain, pan float64, stamp uint32) {
	v.noteNumber = pitch
	v.velocity = velocity
	v.gain = gain
	v.pan = pan
	v.noteOnTime = stamp

	v.baseFreq = 440 * math.Pow(2, float64(pitch-69)/12)
	v.osc1.SetFrequency(v.baseFreq)
	v.osc2.SetFrequency(v.osc2Frequency(0))
	v.osc1.phase = 0
	v.osc2.phase = 0

	v.ampEnv.NoteOn()
	v.filterEnv.NoteOn()
	v.matrix.SetSource(SrcVelocity, velocity)

	v.controlCounter = 0
	v.active = true
}

// osc2Frequency returns oscillator 2's frequency given an additional
// pitch modulation in semitones, per the Osc2 tuning rule in §4.H:
// ratio = 2^((semitones + detune + pitchMod)/12).
func (v *Voice) osc2Frequency(pitchModSemis float64) float64 {
	ratio := math.Pow(2, (float64(v.osc2Semitones)+v.osc2Detune+pitchModSemis)/12)
	return v.baseFreq * ratio
}

// NoteOff releases the voice's envelopes. Calling NoteOff on an
// already-releasing or idle voice is a no-op (Envelope.NoteOff is
// itself idempotent).
func (v *Voice) NoteOff() {
	v.ampEnv.NoteOff()
	v.filterEnv.NoteOff()
}

// SetPitchBend propagates the engine-wide pitch bend scalar (§5) into
// this voice. The audio agent calls this once per block.
func (v *Voice) SetPitchBend(semitones float64) { v.pitchBend = semitones }

// Process advances every sub-component by one sample and returns the
// voice's mono output, following the four-step procedure in §4.H.
func (v *Voice) Process() float64 {
	lfo1Val := v.lfo1.Process()
	lfo2Val := v.lfo2.Process()
	filterEnvVal := v.filterEnv.Process()
	ampEnvVal := v.ampEnv.Process()

	v.matrix.SetSource(SrcLFO1, lfo1Val)
	v.matrix.SetSource(SrcLFO2, lfo2Val)
	v.matrix.SetSource(SrcFilterEnv, filterEnvVal)
	v.matrix.SetSource(SrcAmpEnv, ampEnvVal)

	v.controlCounter++
	if v.controlCounter >= controlRateInterval {
		v.controlCounter = 0
		v.runControlRate(filterEnvVal)
	}

	sum := v.osc1.Process()*v.osc1Level +
		v.osc2.Process()*v.osc2Level +
		v.noise.Process()*v.noiseLevel

	cutoff := v.cutoffSmoother.Next()
	resonance := v.resSmoother.Next()
	filtered := v.filter.Process(sum, cutoff, resonance)

	out := filtered * ampEnvVal * v.velocity * v.gain

	v.currentLevel = math.Abs(out)
	if !v.ampEnv.IsActive() {
		v.active = false
	}
	return out
}

func (v *Voice) runControlRate(filterEnvVal float64) {
	v.matrix.Process()

	pitchMod := v.matrix.Dest(DestPitch) + v.pitchBend
	v.osc1.SetFrequency(v.baseFreq * math.Pow(2, pitchMod/12))
	v.osc2.SetFrequency(v.osc2Frequency(pitchMod + v.matrix.Dest(DestOsc2Pitch)))

	// filterEnvVal and v.velocity feed cutoff directly here, scaled by
	// filterEnvAmount/velocityToFilter; the matrix carries no default
	// route to DestFilterCutoff (see ModMatrix's doc comment), so
	// matrixCutoffMod below is only whatever a preset routed there
	// itself (typically an LFO) and never double-counts those two terms.
	matrixCutoffMod := v.matrix.Dest(DestFilterCutoff)
	cutoff := v.baseCutoff +
		filterEnvVal*v.filterEnvAmount +
		matrixCutoffMod*v.lfo1ToFilter +
		v.velocity*v.velocityToFilter
	cutoff = clamp(cutoff, 20, 0.45*v.sampleRate)

	resonance := clamp(v.baseResonance+v.matrix.Dest(DestFilterRes), 0, 1)

	v.cutoffSmoother.SetTarget(cutoff)
	v.resSmoother.SetTarget(resonance)
}

// ProcessStereo returns the voice's mono output panned with a
// constant-power law, per §4.H.
func (v *Voice) ProcessStereo() (left, right float64) {
	mono := v.Process()
	left = mono * math.Cos(v.pan*math.Pi/2)
	right = mono * math.Sin(v.pan*math.Pi/2)
	return left, right
}

func (v *Voice) IsActive() bool        { return v.active }
func (v *Voice) IsInRelease() bool     { return v.ampEnv.IsInRelease() }
func (v *Voice) CurrentLevel() float64 { return v.currentLevel }
func (v *Voice) NoteOnTime() uint32    { return v.noteOnTime }
func (v *Voice) Priority() int         { return v.priority }
func (v *Voice) NoteNumber() int       { return v.noteNumber }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
