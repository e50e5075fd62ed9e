package synth

import "fmt"

// Waveform selects the shape an Oscillator generates.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveTriangle
)

func (w Waveform) String() string {
	switch w {
	case WaveSine:
		return "sine"
	case WaveSaw:
		return "saw"
	case WaveSquare:
		return "square"
	case WaveTriangle:
		return "triangle"
	default:
		return "unknown"
	}
}

// ParseWaveform converts a preset-authoring string into a Waveform.
func ParseWaveform(s string) (Waveform, error) {
	switch s {
	case "sine":
		return WaveSine, nil
	case "saw":
		return WaveSaw, nil
	case "square":
		return WaveSquare, nil
	case "triangle":
		return WaveTriangle, nil
	default:
		return 0, fmt.Errorf("synth: not a valid waveform: %q", s)
	}
}

// EnvelopeParams is the four-stage shape shared by the amp and filter
// envelopes of a Preset.
type EnvelopeParams struct {
	Attack  float64 // seconds
	Decay   float64 // seconds
	Sustain float64 // level, 0..1
	Release float64 // seconds
}

// Preset is an immutable parameter bundle consumed at trigger time. A
// Preset is never mutated once handed to the engine; Voice.Configure
// copies its fields rather than holding a reference into mutable state.
type Preset struct {
	Name string

	Osc1Level  float64
	Osc2Level  float64
	NoiseLevel float64
	Osc1Wave   Waveform
	Osc2Wave   Waveform
	NoisePink  bool

	// Osc2Semitones and Osc2Detune together tune oscillator 2 relative to
	// oscillator 1. Osc2Detune is treated as a fractional-semitone amount,
	// not cents — see the Open Question note in DESIGN.md.
	Osc2Semitones int
	Osc2Detune    float64

	FilterCutoff     float64 // Hz
	FilterResonance  float64 // 0..1
	FilterEnvAmount  float64 // Hz, signed
	VelocityToFilter float64 // Hz, signed
	LFO1ToFilter     float64 // Hz, signed

	AmpEnv    EnvelopeParams
	FilterEnv EnvelopeParams

	// LFO1Rate/LFO2Rate (Hz) and LFO1Wave/LFO2Wave drive the two LFOs
	// §4.E describes but §3's original field list omits; a zero rate
	// freezes the LFO at its phase-0 value (delta stays 0), so it
	// outputs a constant (1 for a sine) rather than a modulation.
	LFO1Rate float64
	LFO2Rate float64
	LFO1Wave LFOWaveform
	LFO2Wave LFOWaveform

	// Routes is the complete set of modulation routes the voice's
	// matrix carries for this preset; this is how a preset reaches
	// LFO1/LFO2 into a destination such as Pitch or FilterRes without a
	// code change per preset. The matrix installs no default routes of
	// its own: there is no FilterEnv -> FilterCutoff or Velocity ->
	// FilterCutoff route unless a preset lists one here (those two
	// sources reach cutoff only through Voice.runControlRate's direct
	// filterEnvAmount/velocityToFilter terms).
	Routes []ModRoute

	Priority    int // 0..10, higher is harder to steal
	DefaultNote int
}

// PresetLibrary is a read-only catalog of presets, looked up by stable
// name. It is built once at startup and treated as an immutable catalog
// during playback: the trigger dispatcher only ever reads from it after
// commands referencing it start flowing, per the concurrency model.
type PresetLibrary struct {
	byName map[string]*Preset
}

func NewPresetLibrary() *PresetLibrary {
	return &PresetLibrary{byName: make(map[string]*Preset)}
}

// Add registers a preset under its Name. Add must only be called before
// the library starts being referenced by in-flight commands.
func (l *PresetLibrary) Add(p *Preset) {
	l.byName[p.Name] = p
}

// Lookup resolves a preset by name. Failing to find one is an input
// validation error, not a fatal one: the caller drops the triggering
// command and continues.
func (l *PresetLibrary) Lookup(name string) (*Preset, bool) {
	p, ok := l.byName[name]
	return p, ok
}

var factoryPresets = []*Preset{
	{
		Name:       "init",
		Osc1Level:  1.0,
		Osc2Level:  0,
		NoiseLevel: 0,
		Osc1Wave:   WaveSaw,
		Osc2Wave:   WaveSaw,

		FilterCutoff:    8000,
		FilterResonance: 0.1,
		FilterEnvAmount: 0,

		AmpEnv:    EnvelopeParams{Attack: 0.01, Decay: 0.1, Sustain: 0.7, Release: 0.2},
		FilterEnv: EnvelopeParams{Attack: 0.01, Decay: 0.1, Sustain: 0.7, Release: 0.2},

		Priority:    5,
		DefaultNote: 60,
	},
	{
		Name:       "lame-bass",
		Osc1Level:  1.0,
		Osc2Level:  0.6,
		NoiseLevel: 0,
		Osc1Wave:   WaveSaw,
		Osc2Wave:   WaveSaw,
		Osc2Semitones: -12,

		FilterCutoff:     900,
		FilterResonance:  0.2,
		FilterEnvAmount:  0,
		VelocityToFilter: 2000,

		AmpEnv:    EnvelopeParams{Attack: 0.002, Decay: 0.1, Sustain: 0.0, Release: 0.05},
		FilterEnv: EnvelopeParams{Attack: 0.002, Decay: 0.15, Sustain: 0.0, Release: 0.05},

		Priority:    5,
		DefaultNote: 36,
	},
	{
		Name:       "filter-sweep-lead",
		Osc1Level:  1.0,
		Osc2Level:  0,
		NoiseLevel: 0,
		Osc1Wave:   WaveSaw,
		Osc2Wave:   WaveSaw,

		FilterCutoff:    200,
		FilterResonance: 0.3,
		FilterEnvAmount: 8000,
		LFO1ToFilter:    0,

		AmpEnv:    EnvelopeParams{Attack: 0.01, Decay: 0.3, Sustain: 0.6, Release: 0.3},
		FilterEnv: EnvelopeParams{Attack: 0.01, Decay: 0.5, Sustain: 0.3, Release: 0.4},

		Priority:    5,
		DefaultNote: 60,
	},
	{
		Name:       "vibrato-pad",
		Osc1Level:  0.8,
		Osc2Level:  0.8,
		NoiseLevel: 0,
		Osc1Wave:   WaveTriangle,
		Osc2Wave:   WaveTriangle,
		Osc2Semitones: 0,
		Osc2Detune:    0.15,

		FilterCutoff:    3000,
		FilterResonance: 0.15,
		FilterEnvAmount: 1500,

		AmpEnv:    EnvelopeParams{Attack: 0.4, Decay: 0.3, Sustain: 0.8, Release: 0.6},
		FilterEnv: EnvelopeParams{Attack: 0.5, Decay: 0.4, Sustain: 0.6, Release: 0.5},

		// LFO1 runs at 5 Hz and is routed into pitch for a gentle
		// vibrato; amount 0.15 semitones keeps the wobble subtle.
		LFO1Rate: 5,
		LFO1Wave: LFOSine,
		Routes:   []ModRoute{{Source: SrcLFO1, Dest: DestPitch, Amount: 0.15}},

		Priority:    4,
		DefaultNote: 60,
	},
}

// NewFactoryLibrary returns a library pre-populated with a small set of
// built-in presets, useful for demos and tests.
func NewFactoryLibrary() *PresetLibrary {
	l := NewPresetLibrary()
	for _, p := range factoryPresets {
		l.Add(p)
	}
	return l
}
