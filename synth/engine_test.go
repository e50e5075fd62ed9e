package synth

import (
	"math"
	"testing"
)

func testLibrary() *PresetLibrary {
	lib := NewPresetLibrary()
	lib.Add(&Preset{
		Name:            "sine",
		Osc1Level:       1,
		Osc1Wave:        WaveSine,
		Osc2Wave:        WaveSine,
		FilterCutoff:    20000,
		FilterResonance: 0,
		AmpEnv:          EnvelopeParams{Attack: 0.01, Decay: 0.1, Sustain: 0.7, Release: 0.2},
		FilterEnv:       EnvelopeParams{Attack: 0.01, Decay: 0.1, Sustain: 0.7, Release: 0.2},
		Priority:        5,
		DefaultNote:     60,
	})
	lib.Add(&Preset{
		Name:            "sweep",
		Osc1Level:       1,
		Osc1Wave:        WaveSaw,
		Osc2Wave:        WaveSaw,
		FilterCutoff:    200,
		FilterEnvAmount: 8000,
		AmpEnv:          EnvelopeParams{Attack: 0.01, Decay: 0.5, Sustain: 0.3, Release: 0.3},
		FilterEnv:       EnvelopeParams{Attack: 0.01, Decay: 0.5, Sustain: 0.3, Release: 0.4},
		Priority:        5,
		DefaultNote:     60,
	})
	return lib
}

func mustEngine(t *testing.T, poolSize int, sampleRate float64) *Engine {
	t.Helper()
	e, err := NewEngine(poolSize, sampleRate, testLibrary())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func renderStereo(e *Engine, frames int) (left, right []float32) {
	left = make([]float32, frames)
	right = make([]float32, frames)
	e.Process([][]float32{left, right})
	return left, right
}

func TestNewEngineRejectsInvalidConstruction(t *testing.T) {
	lib := testLibrary()
	if _, err := NewEngine(0, 48000, lib); err == nil {
		t.Error("want error for zero pool size")
	}
	if _, err := NewEngine(8, 0, lib); err == nil {
		t.Error("want error for zero sample rate")
	}
	if _, err := NewEngine(8, 48000, nil); err == nil {
		t.Error("want error for nil preset library")
	}
}

// Scenario 1: sine on/off (§8).
func TestEngineSineOnOff(t *testing.T) {
	const sampleRate = 48000
	e := mustEngine(t, 8, sampleRate)
	if !e.Fire("sine", 69, 1.0, 1.0, 0.5, 0) {
		t.Fatal("Fire returned overflow unexpectedly")
	}

	left, _ := renderStereo(e, 512)
	var peak float32
	for _, s := range left[:480] {
		if math.Abs(float64(s)) > math.Abs(float64(peak)) {
			peak = s
		}
	}
	if e.ActiveVoiceCount() != 1 {
		t.Fatalf("want 1 active voice after Fire, got %d", e.ActiveVoiceCount())
	}

	e.AllOff()
	renderStereo(e, 512) // let AllOff drain and enter release

	found := false
	for i := 0; i < e.PoolSize(); i++ {
		if e.Voice(i).IsActive() && e.Voice(i).IsInRelease() {
			found = true
		}
	}
	if !found {
		t.Error("want the fired voice to be in Release after AllOff")
	}

	// render out the release tail; output should settle near silence.
	for block := 0; block < 40; block++ {
		renderStereo(e, 512)
	}
	if e.ActiveVoiceCount() != 0 {
		t.Errorf("want 0 active voices once the release tail completes, got %d", e.ActiveVoiceCount())
	}
}

// Scenario 3: voice stealing (§8).
func TestEngineVoiceStealingOldestWins(t *testing.T) {
	e := mustEngine(t, 2, 48000)
	e.Fire("sine", 60, 1, 1, 0.5, 0)
	renderStereo(e, 4)
	e.Fire("sine", 64, 1, 1, 0.5, 0)
	renderStereo(e, 4)

	firstStamp := e.Voice(0).NoteOnTime()
	if e.Voice(1).NoteNumber() != 64 {
		t.Fatalf("want voice 1 holding pitch 64, got %d", e.Voice(1).NoteNumber())
	}

	e.Fire("sine", 67, 1, 1, 0.5, 0)
	renderStereo(e, 4)

	// the oldest voice (stamp 1, pitch 60) must have been stolen; the
	// voice holding pitch 64 must remain untouched.
	stolen := -1
	for i := 0; i < 2; i++ {
		if e.Voice(i).NoteNumber() == 67 {
			stolen = i
		}
	}
	if stolen == -1 {
		t.Fatal("want one voice now holding the newly fired pitch 67")
	}
	if e.Voice(stolen).NoteOnTime() == firstStamp {
		t.Error("stolen voice's stamp should have been overwritten with the new trigger's stamp")
	}

	foundPitch64 := false
	for i := 0; i < 2; i++ {
		if e.Voice(i).NoteNumber() == 64 {
			foundPitch64 = true
		}
	}
	if !foundPitch64 {
		t.Error("want the voice holding pitch 64 to survive the steal")
	}
}

// Scenario 4: sustain collision (§8).
func TestEngineSustainCollision(t *testing.T) {
	e := mustEngine(t, 4, 48000)
	e.SustainStart(1, "sine", 60, 1, 1, 0.5)
	renderStereo(e, 4)

	var firstIdx = -1
	for i := 0; i < e.PoolSize(); i++ {
		if e.Voice(i).NoteNumber() == 60 && e.Voice(i).IsActive() {
			firstIdx = i
		}
	}
	if firstIdx == -1 {
		t.Fatal("want a voice holding pitch 60 after the first SustainStart")
	}

	e.SustainStart(1, "sine", 64, 1, 1, 0.5)
	renderStereo(e, 4)

	if !e.Voice(firstIdx).IsInRelease() {
		t.Error("want the first voice released on sustain key collision")
	}

	secondFound := false
	for i := 0; i < e.PoolSize(); i++ {
		if e.Voice(i).NoteNumber() == 64 && e.Voice(i).IsActive() && !e.Voice(i).IsInRelease() {
			secondFound = true
		}
	}
	if !secondFound {
		t.Error("want a second, non-releasing voice holding pitch 64")
	}
}

func TestEngineSustainReleaseOfUnknownKeyIsNoop(t *testing.T) {
	e := mustEngine(t, 4, 48000)
	e.SustainRelease(999) // no matching key; must not panic
	renderStereo(e, 4)
	if e.ActiveVoiceCount() != 0 {
		t.Errorf("want no voices active, got %d", e.ActiveVoiceCount())
	}
}

// Scenario 5: AllOff (§8).
func TestEngineAllOffReleasesEveryVoiceAndClearsTables(t *testing.T) {
	e := mustEngine(t, 8, 48000)
	for i, pitch := range []int{60, 62, 64, 65, 67} {
		e.SustainStart(uint64(i), "sine", pitch, 1, 1, 0.5)
	}
	renderStereo(e, 4)
	if e.ActiveVoiceCount() != 5 {
		t.Fatalf("want 5 active voices, got %d", e.ActiveVoiceCount())
	}

	e.AllOff()
	renderStereo(e, 4)

	for i := 0; i < e.PoolSize(); i++ {
		v := e.Voice(i)
		if v.IsActive() && !v.IsInRelease() {
			t.Errorf("voice %d: want Release or inactive after AllOff, still sustaining", i)
		}
	}
	if e.sustain.Len() != 0 {
		t.Errorf("want sustain table cleared after AllOff, len=%d", e.sustain.Len())
	}
	if e.timed.Len() != 0 {
		t.Errorf("want timed table cleared after AllOff, len=%d", e.timed.Len())
	}
}

// Scenario 6: auto-off (§8).
func TestEngineAutoOff(t *testing.T) {
	const sampleRate = 48000
	e := mustEngine(t, 4, sampleRate)
	e.Fire("sine", 60, 1, 1, 0.5, 0.25) // 0.25s auto-off

	var idx = -1
	// render in small blocks so we can observe the transition.
	const block = 64
	total := 0
	released := false
	for total < int(sampleRate*0.4) {
		renderStereo(e, block)
		total += block
		for i := 0; i < e.PoolSize(); i++ {
			if e.Voice(i).IsActive() && e.Voice(i).NoteNumber() == 60 {
				idx = i
			}
		}
		if idx != -1 && e.Voice(idx).IsInRelease() {
			released = true
			break
		}
	}
	if !released {
		t.Fatal("want the voice to enter Release once its auto-off duration elapses")
	}
	if total < int(sampleRate*0.2) {
		t.Errorf("auto-off fired suspiciously early, at sample %d", total)
	}
}

func TestEngineUnknownPresetIsDroppedWithDiagnostic(t *testing.T) {
	e := mustEngine(t, 4, 48000)
	before := e.Diagnostics().DroppedUnknownPreset()
	e.Fire("does-not-exist", 60, 1, 1, 0.5, 0)
	renderStereo(e, 4)
	if e.ActiveVoiceCount() != 0 {
		t.Error("want no voice consumed for an unknown preset")
	}
	if got := e.Diagnostics().DroppedUnknownPreset(); got != before+1 {
		t.Errorf("want DroppedUnknownPreset incremented, got %d -> %d", before, got)
	}
}

func TestEngineInvalidFieldsAreDropped(t *testing.T) {
	e := mustEngine(t, 4, 48000)
	before := e.Diagnostics().DroppedInvalid()
	e.Fire("sine", 60, math.NaN(), 1, 0.5, 0)
	renderStereo(e, 4)
	if e.ActiveVoiceCount() != 0 {
		t.Error("want no voice consumed for a command with a NaN field")
	}
	if got := e.Diagnostics().DroppedInvalid(); got != before+1 {
		t.Errorf("want DroppedInvalid incremented, got %d -> %d", before, got)
	}
}

func TestEngineQueueOverflowIsReported(t *testing.T) {
	e := mustEngine(t, 4, 48000) // queue capacity = nextPow2(4*8) = 32
	ok := true
	for ok {
		ok = e.Fire("sine", 60, 1, 1, 0.5, 0)
	}
	if e.Diagnostics().QueueOverflow() == 0 {
		t.Error("want QueueOverflow counter incremented once the queue fills")
	}
}

// §8 invariant: output stays within [-1,1] after soft clipping, even
// with the pool saturated and full-velocity voices summed together.
func TestEngineOutputStaysBoundedUnderSaturation(t *testing.T) {
	const sampleRate = 48000
	e := mustEngine(t, 16, sampleRate)
	for i := 0; i < 16; i++ {
		e.Fire("sweep", 40+i, 1, 1, 0.5, 0)
	}
	for block := 0; block < 20; block++ {
		left, right := renderStereo(e, 512)
		for i, s := range left {
			if math.Abs(float64(s)) > 1.0001 {
				t.Fatalf("block %d sample %d: left %v exceeds [-1,1]", block, i, s)
			}
			if math.Abs(float64(right[i])) > 1.0001 {
				t.Fatalf("block %d sample %d: right %v exceeds [-1,1]", block, i, right[i])
			}
		}
	}
}

// §8 determinism: identical command input must produce bit-identical
// output across independent engine instances.
func TestEngineDeterministicGivenSameInput(t *testing.T) {
	run := func() []float32 {
		e := mustEngine(t, 8, 48000)
		e.Fire("sweep", 60, 0.8, 1, 0.5, 0)
		e.Fire("sine", 64, 0.6, 1, 0.3, 0)
		var out []float32
		for block := 0; block < 10; block++ {
			left, _ := renderStereo(e, 256)
			out = append(out, left...)
		}
		return out
	}

	a := run()
	b := run()
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestEngineActiveVoiceCountNeverExceedsPoolSize(t *testing.T) {
	const poolSize = 4
	e := mustEngine(t, poolSize, 48000)
	for i := 0; i < poolSize*3; i++ {
		e.Fire("sine", 40+i, 1, 1, 0.5, 0)
		renderStereo(e, 16)
		if n := e.ActiveVoiceCount(); n > poolSize {
			t.Fatalf("active voice count %d exceeds pool size %d", n, poolSize)
		}
	}
}

func TestEngineSpatializationDerivesGainAndPan(t *testing.T) {
	e := mustEngine(t, 4, 48000)
	e.Params().SetSpatialRolloff(0.1)
	e.Params().SetSpatialStrength(0.5)
	e.FireAt("sine", 60, 1, SpatialPosition{X: 1, Y: 0, Z: 0}, 0)
	renderStereo(e, 4)

	var v *Voice
	for i := 0; i < e.PoolSize(); i++ {
		if e.Voice(i).IsActive() {
			v = e.Voice(i)
		}
	}
	if v == nil {
		t.Fatal("expected a voice to have started")
	}
	wantGain := 1.0 / (1.0 + 1.0*0.1)
	wantPan := math.Min(1, 0.5+1*0.5)
	if math.Abs(v.gain-wantGain) > 1e-9 {
		t.Errorf("want gain %v, got %v", wantGain, v.gain)
	}
	if math.Abs(v.pan-wantPan) > 1e-9 {
		t.Errorf("want pan %v, got %v", wantPan, v.pan)
	}
}

func TestSoftClipClampsBeyondKnee(t *testing.T) {
	if got := softClip(10, 1); got != 1 {
		t.Errorf("want hard clamp to 1 for large positive input, got %v", got)
	}
	if got := softClip(-10, 1); got != -1 {
		t.Errorf("want hard clamp to -1 for large negative input, got %v", got)
	}
	if got := softClip(0, 1); got != 0 {
		t.Errorf("want 0 for 0 input, got %v", got)
	}
}

func TestNextPow2(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 4, 5: 8, 16: 16, 17: 32}
	for in, want := range cases {
		if got := nextPow2(in); got != want {
			t.Errorf("nextPow2(%d): want %d, got %d", in, want, got)
		}
	}
}
