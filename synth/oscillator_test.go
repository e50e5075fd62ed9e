package synth

import (
	"math"
	"testing"
)

func TestOscillatorOutputsBoundedForAllWaveforms(t *testing.T) {
	const sampleRate = 48000
	for _, wave := range []Waveform{WaveSine, WaveSaw, WaveSquare, WaveTriangle} {
		o := NewOscillator(sampleRate)
		o.SetWaveform(wave)
		o.SetFrequency(220)
		for i := 0; i < sampleRate; i++ {
			v := o.Process()
			if v < -1.01 || v > 1.01 {
				t.Fatalf("waveform %v sample %d: %v out of [-1,1]", wave, i, v)
			}
		}
	}
}

func TestOscillatorFrequencyClampedToNyquist(t *testing.T) {
	o := NewOscillator(48000)
	o.SetFrequency(48000) // well above Nyquist (24000)
	if o.delta != 0.5 {
		t.Errorf("want delta clamped to Nyquist (0.5), got %v", o.delta)
	}
}

func TestOscillatorAtNyquistOverHalfRemainsBoundedAndDCFree(t *testing.T) {
	const sampleRate = 48000.0
	o := NewOscillator(sampleRate)
	o.SetWaveform(WaveSaw)
	o.SetFrequency(sampleRate / 4) // Nyquist/2
	var sum float64
	const n = sampleRate // 1 second
	for i := 0; i < n; i++ {
		v := o.Process()
		if v < -1.5 || v > 1.5 {
			t.Fatalf("sample %d: %v out of bounds", i, v)
		}
		sum += v
	}
	if mean := sum / n; math.Abs(mean) > 0.05 {
		t.Errorf("expected near-zero DC after 1s, got mean %v", mean)
	}
}

func TestOscillatorResetZeroesPhase(t *testing.T) {
	o := NewOscillator(48000)
	o.SetFrequency(440)
	for i := 0; i < 100; i++ {
		o.Process()
	}
	if o.phase == 0 {
		t.Fatal("expected phase to have advanced")
	}
	o.Reset()
	if o.phase != 0 {
		t.Errorf("want phase 0 after Reset, got %v", o.phase)
	}
}

func TestPolyBLEPZeroAwayFromDiscontinuity(t *testing.T) {
	if got := polyBLEP(0.5, 0.01); got != 0 {
		t.Errorf("want 0 residual away from the discontinuity, got %v", got)
	}
}

func TestPolyBLEPNonZeroNearWrap(t *testing.T) {
	if got := polyBLEP(0.001, 0.01); got == 0 {
		t.Error("want non-zero residual just after phase wrap")
	}
	if got := polyBLEP(0.999, 0.01); got == 0 {
		t.Error("want non-zero residual just before phase wrap")
	}
}

func TestSineIsCosExact(t *testing.T) {
	o := NewOscillator(48000)
	o.SetWaveform(WaveSine)
	o.SetFrequency(0)
	if got := o.Process(); got != 1 {
		t.Errorf("sine at phase 0 should be cos(0) = 1, got %v", got)
	}
}
