package synth

// ModSource identifies a modulation source feeding the matrix.
type ModSource int

const (
	SrcVelocity ModSource = iota
	SrcLFO1
	SrcLFO2
	SrcFilterEnv
	SrcAmpEnv
	SrcModWheel
	SrcAftertouch
	numModSources
)

// ModDest identifies a modulation destination the matrix accumulates into.
type ModDest int

const (
	DestPitch ModDest = iota
	DestFilterCutoff
	DestFilterRes
	DestOsc2Pitch
	DestPWM
	DestAmplitude
	numModDests
)

const maxRoutes = 32

// ModRoute is one entry of the modulation matrix: source, destination,
// a scalar amount, and whether the route is currently live.
type ModRoute struct {
	Source      ModSource
	Dest        ModDest
	Amount      float64
	Active      bool
}

// ModMatrix implements the fixed source/destination routing described
// in §4.G: up to 32 routes, each scaling a source by an amount and
// accumulating into a destination slot. PWM is declared as a
// destination but, per the Open Question in §9, no default route is
// installed for it and no oscillator parameter currently reads
// DestPWM — a future pulse-width-modulation feature would wire an
// oscillator's pulse width to it.
//
// FilterEnv and Velocity feed the filter cutoff directly, as explicit
// terms in Voice.runControlRate's cutoff formula (scaled there by
// filterEnvAmount/velocityToFilter), not through the matrix — the
// matrix carries no default routes, so DestFilterCutoff reflects only
// whatever a preset adds via SetPresetRoutes (typically an LFO). A
// FilterEnv/Velocity default route here would double-count those two
// sources once runControlRate also reads DestFilterCutoff.
type ModMatrix struct {
	routes  [maxRoutes]ModRoute
	numUsed int

	sources [numModSources]float64
	dests   [numModDests]float64
}

// NewModMatrix creates a matrix with no routes installed. Every route
// comes from a preset via SetPresetRoutes.
func NewModMatrix() *ModMatrix {
	return &ModMatrix{}
}

// AddRoute installs a new active route, if there is capacity. It
// silently does nothing once all 32 slots are in use — the matrix
// never allocates past construction.
func (m *ModMatrix) AddRoute(src ModSource, dest ModDest, amount float64) {
	if m.numUsed >= maxRoutes {
		return
	}
	m.routes[m.numUsed] = ModRoute{Source: src, Dest: dest, Amount: amount, Active: true}
	m.numUsed++
}

// SetPresetRoutes replaces every route with extra. Safe to call on
// every Configure without allocating: the fixed-capacity array is
// simply truncated to zero and refilled.
func (m *ModMatrix) SetPresetRoutes(extra []ModRoute) {
	m.numUsed = 0
	for _, r := range extra {
		if m.numUsed >= maxRoutes {
			break
		}
		r.Active = true
		m.routes[m.numUsed] = r
		m.numUsed++
	}
}

// SetSource updates one source's current value, to be read by Process.
func (m *ModMatrix) SetSource(src ModSource, value float64) {
	m.sources[src] = value
}

// Process zeros the destination accumulator, then sums active routes'
// source*amount into their destination, per §4.G.
func (m *ModMatrix) Process() {
	for i := range m.dests {
		m.dests[i] = 0
	}
	for i := 0; i < m.numUsed; i++ {
		r := m.routes[i]
		if !r.Active {
			continue
		}
		m.dests[r.Dest] += m.sources[r.Source] * r.Amount
	}
}

// Dest returns the accumulated modulation for a destination, valid
// until the next Process call.
func (m *ModMatrix) Dest(d ModDest) float64 { return m.dests[d] }
