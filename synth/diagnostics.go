package synth

import "sync/atomic"

// EngineDiagnostics accumulates counters the audio agent bumps when it
// silently absorbs a recoverable failure, queryable from the control
// thread without locking (§7: "optional diagnostic counters queried
// from the control thread"). This is new — the distilled spec calls
// for the counters but the teacher has no equivalent failure surface,
// since its Instrument just logs and drops (see the deleted TODO in
// the former instrument.go).
type EngineDiagnostics struct {
	droppedUnknownPreset atomic.Uint64
	droppedInvalid       atomic.Uint64
	queueOverflow        atomic.Uint64
}

func (d *EngineDiagnostics) recordUnknownPreset() { d.droppedUnknownPreset.Add(1) }
func (d *EngineDiagnostics) recordInvalid()       { d.droppedInvalid.Add(1) }
func (d *EngineDiagnostics) recordQueueOverflow() { d.queueOverflow.Add(1) }

// DroppedUnknownPreset reports how many commands referenced a preset
// name absent from the library.
func (d *EngineDiagnostics) DroppedUnknownPreset() uint64 { return d.droppedUnknownPreset.Load() }

// DroppedInvalid reports how many commands failed field validation
// (NaN/Inf fields, or a pitch outside 0..127).
func (d *EngineDiagnostics) DroppedInvalid() uint64 { return d.droppedInvalid.Load() }

// QueueOverflow reports how many command submissions found the SPSC
// queue full. This is bumped by the control agent at submission time,
// not the audio agent, but lives here so all three counters are
// queried from one place.
func (d *EngineDiagnostics) QueueOverflow() uint64 { return d.queueOverflow.Load() }
