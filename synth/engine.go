package synth

import (
	"fmt"
	"log"
	"math"
	"sync/atomic"
)

// activeVoiceRebuildInterval is the periodic fallback rebuild period for
// the active-voice cache, in samples (§4.K step 2).
const activeVoiceRebuildInterval = 1024

// Engine owns the voice pool, the command queue, the sustain/timed
// tables, and the scalar engine parameters, and implements the trigger
// dispatcher (§4.J) and master mixer (§4.K) that tie them together. It
// generalizes the teacher's Instrument — same "drain events, find/steal
// a voice, sum active voices into the callback buffer" shape from
// audio/instrument.go — but replaces the teacher's single free-voice
// scan with the full priority/age-aware stealer in Pool, and replaces
// its flat event struct with the tagged TriggerCommand union.
//
// Engine satisfies the Source interface expected by Sink, so it can be
// registered directly with a PortAudio or oto output stream.
type Engine struct {
	sampleRate float64

	pool    *Pool
	library *PresetLibrary
	queue   *CommandQueue
	params  *EngineParams
	diag    *EngineDiagnostics

	sustain *sustainTable
	timed   *timedTable

	sampleClock uint64

	active              []int
	activeDirty         bool
	samplesSinceRebuild uint64
}

// NewEngine constructs an engine with a fixed-size pool of poolSize
// voices, all running at sampleRate, triggered from presets in library.
// Construction is the only point at which the engine can fail (§7.4).
func NewEngine(poolSize int, sampleRate float64, library *PresetLibrary) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("synth: sample rate must be positive, got %v", sampleRate)
	}
	if poolSize <= 0 {
		return nil, fmt.Errorf("synth: pool size must be positive, got %v", poolSize)
	}
	if library == nil {
		return nil, fmt.Errorf("synth: preset library must not be nil")
	}
	queueCap := nextPow2(poolSize * 8)
	if queueCap < 16 {
		queueCap = 16
	}
	return &Engine{
		sampleRate:  sampleRate,
		pool:        NewPool(poolSize, sampleRate),
		library:     library,
		queue:       NewCommandQueue(queueCap),
		params:      newEngineParams(),
		diag:        &EngineDiagnostics{},
		sustain:     newSustainTable(poolSize),
		timed:       newTimedTable(poolSize),
		active:      make([]int, 0, poolSize),
		activeDirty: true,
	}, nil
}

// Params returns the engine-wide scalar parameters (master volume,
// headroom, pitch bend, spatialization knobs), safe to read and write
// from the control thread at any time.
func (e *Engine) Params() *EngineParams { return e.params }

// Diagnostics returns the counters the audio agent bumps when it
// silently drops a recoverable failure (§7.1), queryable without
// locking from the control thread.
func (e *Engine) Diagnostics() *EngineDiagnostics { return e.diag }

// PoolSize returns the fixed number of voices in the engine's pool.
func (e *Engine) PoolSize() int { return e.pool.Size() }

// SampleRate returns the sample rate the engine was constructed with.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// ActiveVoiceCount returns how many voices are currently active,
// scanning the pool directly rather than relying on the (periodically
// stale) mixer cache.
func (e *Engine) ActiveVoiceCount() int {
	n := 0
	for i := 0; i < e.pool.Size(); i++ {
		if e.pool.Voice(i).IsActive() {
			n++
		}
	}
	return n
}

// Voice exposes a pool voice by index, for inspection by callers such
// as tests; it must not be mutated outside the audio agent.
func (e *Engine) Voice(i int) *Voice { return e.pool.Voice(i) }

// submit pushes cmd onto the SPSC queue, bumping the overflow counter
// on failure. It is safe to call only from the control agent.
func (e *Engine) submit(cmd TriggerCommand) bool {
	ok := e.queue.Push(cmd)
	if !ok {
		e.diag.recordQueueOverflow()
	}
	return ok
}

// Fire submits a one-shot note trigger with a precomputed gain/pan.
// pitch < 0 means "use the preset's default note". duration <= 0 means
// no auto-off is scheduled. Returns false on queue overflow.
func (e *Engine) Fire(preset string, pitch int, velocity, gain, pan, duration float64) bool {
	return e.submit(TriggerCommand{
		Kind:       CmdFire,
		PresetName: preset,
		Pitch:      pitch,
		Velocity:   velocity,
		Gain:       gain,
		Pan:        pan,
		Duration:   duration,
	})
}

// FireAt submits a one-shot note trigger whose gain and pan are derived
// from a listener-local 3D position via the spatialization hook (§6).
func (e *Engine) FireAt(preset string, pitch int, velocity float64, pos SpatialPosition, duration float64) bool {
	return e.submit(TriggerCommand{
		Kind:        CmdFire,
		PresetName:  preset,
		Pitch:       pitch,
		Velocity:    velocity,
		HasPosition: true,
		Position:    pos,
		Duration:    duration,
	})
}

// SustainStart submits a held-note trigger under key. A prior holder of
// the same key is released first (§4.J sustain key collision).
func (e *Engine) SustainStart(key uint64, preset string, pitch int, velocity, gain, pan float64) bool {
	return e.submit(TriggerCommand{
		Kind:       CmdSustainStart,
		PresetName: preset,
		Pitch:      pitch,
		Velocity:   velocity,
		Gain:       gain,
		Pan:        pan,
		SustainKey: key,
	})
}

// SustainRelease submits a release for the voice held under key. A key
// with no holder is a no-op.
func (e *Engine) SustainRelease(key uint64) bool {
	return e.submit(TriggerCommand{Kind: CmdSustainRelease, SustainKey: key})
}

// AllOff submits a command that releases every active voice and clears
// the sustain and timed tables.
func (e *Engine) AllOff() bool {
	return e.submit(TriggerCommand{Kind: CmdAllOff})
}

// CancelableFire is like Fire but returns a token the producer can flip
// to cancel the command any time before it drains (§5 cancellation).
func (e *Engine) CancelableFire(preset string, pitch int, velocity, gain, pan, duration float64) (*atomic.Bool, bool) {
	token := NewCancelToken()
	ok := e.submit(TriggerCommand{
		Kind:       CmdFire,
		PresetName: preset,
		Pitch:      pitch,
		Velocity:   velocity,
		Gain:       gain,
		Pan:        pan,
		Duration:   duration,
		Inert:      token,
	})
	return token, ok
}

// Process renders one block of audio, implementing the Source
// interface. samples holds one slice per channel (length 1 for mono,
// 2 for stereo per §6); each channel slice must have the same length.
// Process never blocks, allocates, or logs on its hot path; it drains
// the command queue, rebuilds the active-voice cache if needed, then
// sums and soft-clips every active voice into samples, adding to
// whatever the buffer already held.
func (e *Engine) Process(samples [][]float32) {
	if len(samples) == 0 || len(samples[0]) == 0 {
		return
	}
	n := uint64(len(samples[0]))

	e.drainCommands(n)
	if e.activeDirty || e.samplesSinceRebuild >= activeVoiceRebuildInterval {
		e.rebuildActive()
	}

	pitchBend := e.params.PitchBend()
	for _, idx := range e.active {
		e.pool.Voice(idx).SetPitchBend(pitchBend)
	}

	volume := e.params.MasterVolume()
	headroom := e.params.Headroom()
	scale := volume / math.Sqrt(float64(e.pool.Size()))

	if len(samples) >= 2 {
		left, right := samples[0], samples[1]
		for i := range left {
			var l, r float64
			for _, idx := range e.active {
				vl, vr := e.pool.Voice(idx).ProcessStereo()
				l += vl
				r += vr
			}
			left[i] += float32(softClip(l*scale, headroom))
			right[i] += float32(softClip(r*scale, headroom))
			e.sampleClock++
		}
	} else {
		mono := samples[0]
		for i := range mono {
			var sum float64
			for _, idx := range e.active {
				sum += e.pool.Voice(idx).Process()
			}
			mono[i] += float32(softClip(sum*scale, headroom))
			e.sampleClock++
		}
	}

	e.samplesSinceRebuild += n
}

// drainCommands empties the command queue into voice mutations, then
// fires any auto-off whose scheduled sample index falls before the end
// of this block (§4.J, §5 auto-off ordering by sample index).
func (e *Engine) drainCommands(blockFrames uint64) {
	e.queue.Drain(func(cmd TriggerCommand) {
		switch cmd.Kind {
		case CmdFire:
			e.handleFire(cmd)
		case CmdSustainStart:
			e.handleSustainStart(cmd)
		case CmdSustainRelease:
			e.handleSustainRelease(cmd)
		case CmdAllOff:
			e.handleAllOff()
		}
	})

	until := e.sampleClock + blockFrames
	e.timed.DrainDue(until, func(voice int) {
		e.pool.Voice(voice).NoteOff()
	})
}

// handleFire resolves preset, applies the spatialization hook if the
// command carries a position, steals a voice, and starts the note. It
// returns the stolen voice's index, or -1 if the command was dropped
// (§7.1 input validation, unknown preset).
func (e *Engine) handleFire(cmd TriggerCommand) int {
	if !validFireFields(cmd) {
		e.diag.recordInvalid()
		log.Printf("synth: dropping Fire with invalid fields for preset %q", cmd.PresetName)
		return -1
	}
	preset, ok := e.library.Lookup(cmd.PresetName)
	if !ok {
		e.diag.recordUnknownPreset()
		log.Printf("synth: dropping trigger for unknown preset %q", cmd.PresetName)
		return -1
	}

	pitch := cmd.Pitch
	if pitch < 0 {
		pitch = preset.DefaultNote
	}
	if pitch < 0 || pitch > 127 {
		e.diag.recordInvalid()
		log.Printf("synth: dropping trigger with out-of-range pitch %d", pitch)
		return -1
	}

	gain, pan := cmd.Gain, cmd.Pan
	if cmd.HasPosition {
		gain, pan = spatialize(cmd.Position, e.params.SpatialRolloff(), e.params.SpatialStrength())
	}

	idx := e.pool.Steal(preset.Priority)
	stamp := e.pool.NextStamp()
	voice := e.pool.Voice(idx)
	voice.Configure(preset)
	voice.NoteOn(pitch, cmd.Velocity, gain, pan, stamp)
	e.activeDirty = true

	if cmd.Duration > 0 {
		offset := uint64(math.Round(cmd.Duration * e.sampleRate))
		e.timed.Insert(e.sampleClock+offset, idx)
	}
	return idx
}

// handleSustainStart releases any prior holder of cmd.SustainKey, then
// fires a new voice and records it under the key (§4.J sustain key
// collision: "the previous holder is released before the new one starts").
func (e *Engine) handleSustainStart(cmd TriggerCommand) {
	if prev, ok := e.sustain.Lookup(cmd.SustainKey); ok {
		e.pool.Voice(prev).NoteOff()
	}
	idx := e.handleFire(cmd)
	if idx == -1 {
		return
	}
	e.sustain.Insert(cmd.SustainKey, idx)
}

// handleSustainRelease releases the voice held under cmd.SustainKey, if
// any. A release that finds no key is a no-op (§3 invariant).
func (e *Engine) handleSustainRelease(cmd TriggerCommand) {
	idx, ok := e.sustain.Lookup(cmd.SustainKey)
	if !ok {
		return
	}
	e.pool.Voice(idx).NoteOff()
	e.sustain.Remove(cmd.SustainKey)
}

// handleAllOff releases every active voice and clears both tables.
func (e *Engine) handleAllOff() {
	for i := 0; i < e.pool.Size(); i++ {
		v := e.pool.Voice(i)
		if v.IsActive() {
			v.NoteOff()
		}
	}
	e.sustain.Clear()
	e.timed.Clear()
}

// rebuildActive recomputes the active-voice cache by a linear scan of
// the pool, per §4.K step 2. Called after any command drain that may
// have changed membership, and periodically as a fallback.
func (e *Engine) rebuildActive() {
	e.active = e.active[:0]
	e.active = e.pool.ActiveIndices(e.active)
	e.activeDirty = false
	e.samplesSinceRebuild = 0
}

// validFireFields rejects NaN/Inf command fields per §7.1, independent
// of whether the referenced preset exists.
func validFireFields(cmd TriggerCommand) bool {
	if isBadFloat(cmd.Velocity) || isBadFloat(cmd.Duration) {
		return false
	}
	if cmd.HasPosition {
		p := cmd.Position
		if isBadFloat(p.X) || isBadFloat(p.Y) || isBadFloat(p.Z) {
			return false
		}
	} else if isBadFloat(cmd.Gain) || isBadFloat(cmd.Pan) {
		return false
	}
	return true
}

func isBadFloat(f float64) bool { return math.IsNaN(f) || math.IsInf(f, 0) }

// spatialize computes (gain, pan) from a listener-local position, per
// §6: gain = 1/(1+d^2*rolloff), pan = clamp(0.5+x*strength, 0, 1).
func spatialize(pos SpatialPosition, rolloff, strength float64) (gain, pan float64) {
	d2 := pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z
	gain = 1 / (1 + d2*rolloff)
	pan = clamp(0.5+pos.X*strength, 0, 1)
	return gain, pan
}

// softClip approximates tanh(x) with a rational function, clamped at
// +-1 once |x| exceeds 3, per §4.K: x*(27+x^2)/(27+9*x^2). headroom
// scales the input before clipping, giving extra margin before the
// curve's knee.
func softClip(x, headroom float64) float64 {
	x *= headroom
	if x > 3 {
		return 1
	}
	if x < -3 {
		return -1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

// nextPow2 returns the smallest power of 2 that is >= n.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
