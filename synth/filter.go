package synth

import "math"

// FilterMode selects which tap of the state-variable filter is returned.
type FilterMode int

const (
	FilterLowpass FilterMode = iota
	FilterHighpass
	FilterBandpass
	FilterNotch
)

// Filter is a zero-delay-feedback state-variable filter, following the
// topology-preserving-transform formulation in §4.C (and mirroring
// vst3go's pkg/dsp/filter.SVF, generalized from per-channel slices to a
// single voice's scalar state since each Voice owns its own filter).
type Filter struct {
	sampleRate float64
	mode       FilterMode

	ic1, ic2 float64
}

func NewFilter(sampleRate float64) *Filter {
	return &Filter{sampleRate: sampleRate, mode: FilterLowpass}
}

// SetMode selects the output tap.
func (f *Filter) SetMode(m FilterMode) { f.mode = m }

// Reset zeros the integrator state.
func (f *Filter) Reset() {
	f.ic1 = 0
	f.ic2 = 0
}

// Process runs one sample through the filter at the given cutoff (Hz)
// and resonance (0..1), recomputing coefficients every call since both
// are expected to be modulated at control rate (§4.C, §4.H step 2).
func (f *Filter) Process(x, cutoff, resonance float64) float64 {
	g := svfG(cutoff, f.sampleRate)
	k := 2 * (1 - 0.99*resonance)

	a1 := 1 / (1 + g*(g+k))
	a2 := g * a1
	a3 := g * a2

	v3 := x - f.ic2
	v1 := a1*f.ic1 + a2*v3
	v2 := f.ic2 + a2*f.ic1 + a3*v3
	f.ic1 = 2*v1 - f.ic1
	f.ic2 = 2*v2 - f.ic2

	switch f.mode {
	case FilterHighpass:
		return x - k*v1 - v2
	case FilterBandpass:
		return v1
	case FilterNotch:
		return x - k*v1
	default:
		return v2
	}
}

// svfG computes the ZDF frequency coefficient g = tan(pi*f/Fs). A
// Taylor approximation (w + w^3/3) may be substituted for tan to avoid
// the real tan call on hot paths; cutoff is clamped below the Nyquist
// singularity either way so the filter never produces NaN (§4.C, §7.3).
func svfG(cutoff, sampleRate float64) float64 {
	maxCutoff := 0.49 * sampleRate
	if cutoff > maxCutoff {
		cutoff = maxCutoff
	}
	if cutoff < 0 {
		cutoff = 0
	}
	w := math.Pi * cutoff / sampleRate
	return math.Tan(w)
}
