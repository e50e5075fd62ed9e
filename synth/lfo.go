package synth

import (
	"math"
	"math/rand"
)

// LFOWaveform selects an LFO's output shape.
type LFOWaveform int

const (
	LFOSine LFOWaveform = iota
	LFOTriangle
	LFOSaw
	LFOSquare
	LFOSampleHold
)

// LFO is a unipolar-phase low frequency oscillator producing control-rate
// modulation in [-1, 1], following §4.E. It mirrors the shape of
// vst3go's modulation.LFO, trimmed to the five waveforms this engine
// needs and driven once per sample from Voice.Process rather than
// pre-rendered into a buffer.
type LFO struct {
	sampleRate float64
	wave       LFOWaveform
	freq       float64
	phase      float64
	delta      float64
	held       float64
	rng        *rand.Rand
}

func NewLFO(sampleRate float64) *LFO {
	return &LFO{sampleRate: sampleRate, wave: LFOSine, rng: rand.New(rand.NewSource(1))}
}

// SetWaveform selects the LFO's waveform.
func (l *LFO) SetWaveform(w LFOWaveform) { l.wave = w }

// SetFrequency sets the LFO rate in Hz.
func (l *LFO) SetFrequency(freq float64) {
	l.freq = freq
	l.delta = freq / l.sampleRate
}

// Reset zeros phase, so a retriggered voice starts its LFO from a known point.
func (l *LFO) Reset() {
	l.phase = 0
	l.held = 0
}

// Process advances the LFO by one sample and returns its value.
func (l *LFO) Process() float64 {
	var out float64
	switch l.wave {
	case LFOSine:
		out = math.Cos(2 * math.Pi * l.phase)
	case LFOTriangle:
		if l.phase < 0.5 {
			out = 4*l.phase - 1
		} else {
			out = -4*l.phase + 3
		}
	case LFOSaw:
		out = 2*l.phase - 1
	case LFOSquare:
		if l.phase < 0.5 {
			out = 1
		} else {
			out = -1
		}
	case LFOSampleHold:
		if l.phase < l.delta {
			l.held = l.rng.Float64()*2 - 1
		}
		out = l.held
	}

	l.phase += l.delta
	if l.phase >= 1 {
		l.phase -= 1
	}
	return out
}
