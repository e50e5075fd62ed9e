package synth

import "math/rand"

// Noise generates white or pink noise in [-1, 1]. Pink noise uses Paul
// Kellett's six-tap one-pole filter bank, gain-compensated by 0.11 to
// roughly match white noise's perceived level (§4.B).
type Noise struct {
	pink bool
	rng  *rand.Rand
	taps [6]float64
	b6   float64
}

func NewNoise() *Noise {
	return &Noise{rng: rand.New(rand.NewSource(1))}
}

// SetPink selects pink (true) or white (false) noise.
func (n *Noise) SetPink(pink bool) { n.pink = pink }

// Reset clears the pink noise filter state.
func (n *Noise) Reset() {
	for i := range n.taps {
		n.taps[i] = 0
	}
	n.b6 = 0
}

// Process returns the next noise sample.
func (n *Noise) Process() float64 {
	white := n.rng.Float64()*2 - 1
	if !n.pink {
		return white
	}
	return n.pinkFromWhite(white)
}

func (n *Noise) pinkFromWhite(white float64) float64 {
	n.taps[0] = 0.99886*n.taps[0] + white*0.0555179
	n.taps[1] = 0.99332*n.taps[1] + white*0.0750759
	n.taps[2] = 0.96900*n.taps[2] + white*0.1538520
	n.taps[3] = 0.86650*n.taps[3] + white*0.3104856
	n.taps[4] = 0.55000*n.taps[4] + white*0.5329522
	n.taps[5] = -0.7616*n.taps[5] - white*0.0168980

	pink := n.taps[0] + n.taps[1] + n.taps[2] + n.taps[3] + n.taps[4] + n.taps[5] + n.b6 + white*0.5362
	n.b6 = white * 0.115926
	return pink * 0.11
}
