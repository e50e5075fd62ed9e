package synth

import "sync/atomic"

const (
	propMasterVolume    = "master_volume"
	propHeadroom        = "headroom"
	propPitchBend       = "pitch_bend"
	propSpatialRolloff  = "spatial_rolloff"
	propSpatialStrength = "spatial_strength"
)

// EngineParams holds the scalar parameters shared between the control
// agent and the audio agent: the control thread updates them with
// relaxed semantics, the audio thread loads each one once per block (§5).
// It is built on Props, so every update is validated on the control
// thread and stored lock-free for the audio thread to pick up.
type EngineParams struct {
	*Props
	masterVolume    *atomic.Value
	headroom        *atomic.Value
	pitchBend       *atomic.Value
	spatialRolloff  *atomic.Value
	spatialStrength *atomic.Value
}

func newEngineParams() *EngineParams {
	props := NewProps()
	return &EngineParams{
		Props:           props,
		masterVolume:    props.MustRegister(propMasterVolume, setFloat64(0, 2), 1.0),
		headroom:        props.MustRegister(propHeadroom, setFloat64(0.1, 4), 1.0),
		pitchBend:       props.MustRegister(propPitchBend, setFloat64(-48, 48), 0.0),
		spatialRolloff:  props.MustRegister(propSpatialRolloff, setFloat64(0, 10), 0.1),
		spatialStrength: props.MustRegister(propSpatialStrength, setFloat64(0, 2), 0.5),
	}
}

func (p *EngineParams) MasterVolume() float64    { return p.masterVolume.Load().(float64) }
func (p *EngineParams) Headroom() float64        { return p.headroom.Load().(float64) }
func (p *EngineParams) PitchBend() float64       { return p.pitchBend.Load().(float64) }
func (p *EngineParams) SpatialRolloff() float64  { return p.spatialRolloff.Load().(float64) }
func (p *EngineParams) SpatialStrength() float64 { return p.spatialStrength.Load().(float64) }

// SetMasterVolume updates the master volume (0..2, 1.0 is unity gain).
func (p *EngineParams) SetMasterVolume(v float64) error { return p.Set(propMasterVolume, v) }

// SetHeadroom updates the soft-clip headroom knob.
func (p *EngineParams) SetHeadroom(v float64) error { return p.Set(propHeadroom, v) }

// SetPitchBend updates the global pitch bend, in semitones.
func (p *EngineParams) SetPitchBend(v float64) error { return p.Set(propPitchBend, v) }

// SetSpatialRolloff updates the distance-attenuation rolloff used by the
// spatialization hook (§6), default ~0.1.
func (p *EngineParams) SetSpatialRolloff(v float64) error { return p.Set(propSpatialRolloff, v) }

// SetSpatialStrength updates the pan strength used by the spatialization
// hook (§6), default ~0.5.
func (p *EngineParams) SetSpatialStrength(v float64) error { return p.Set(propSpatialStrength, v) }
