package synth

import "sync/atomic"

// CommandKind discriminates the four variants a TriggerCommand can
// carry, per §3's "discriminated value" description.
type CommandKind int

const (
	CmdFire CommandKind = iota
	CmdSustainStart
	CmdSustainRelease
	CmdAllOff
)

// SpatialPosition is an optional world-space position a Fire or
// SustainStart command may carry instead of a precomputed gain/pan,
// per §5's spatialization hook.
type SpatialPosition struct {
	X, Y, Z float64
}

// TriggerCommand is one value submitted through the lock-free queue.
// It is a flat struct rather than an interface or a tagged union with
// pointer payloads, so the queue can store it by value and never
// allocates on push.
type TriggerCommand struct {
	Kind CommandKind

	PresetName string
	// Pitch is the MIDI-style note number. A negative value means the
	// trigger omitted a pitch; the preset's DefaultNote is used instead.
	Pitch    int
	Velocity float64

	// Either Gain/Pan are used directly, or HasPosition selects the
	// spatialization hook to derive them from Position.
	Gain        float64
	Pan         float64
	HasPosition bool
	Position    SpatialPosition

	// Duration > 0 schedules an internal auto-off this many seconds
	// after the note starts (Fire only).
	Duration float64

	// SustainKey identifies the held note for SustainStart/SustainRelease.
	SustainKey uint64

	// Inert, if non-nil, lets the producer cancel this command any
	// time before it drains; Drain discards a command whose Inert
	// flag is true instead of invoking f for it (§5 "a command may be
	// tagged inert before drain").
	Inert *atomic.Bool
}

// NewCancelToken returns a fresh inert-flag for a cancelable command.
func NewCancelToken() *atomic.Bool { return new(atomic.Bool) }

// CommandQueue is a lock-free single-producer/single-consumer ring
// buffer of TriggerCommand, generalizing the teacher's eventBuffer in
// event_buffer.go from a narrow {pitch, offset, velocity, duration}
// event to the full command set in §3. Unlike the teacher's push,
// which busy-waits on a full queue, CommandQueue.Push is non-blocking
// and reports overflow — per §5's "one function per variant, each
// non-blocking and returning success/overflow."
type CommandQueue struct {
	commands    []TriggerCommand
	read, write *uint32
}

// NewCommandQueue creates a queue of the given capacity, which must be
// a power of 2.
func NewCommandQueue(capacity int) *CommandQueue {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		panic("command queue capacity must be a power of 2")
	}
	return &CommandQueue{
		commands: make([]TriggerCommand, capacity),
		read:     new(uint32),
		write:    new(uint32),
	}
}

// Push attempts to enqueue cmd. It returns false if the queue is full
// (overflow); the caller decides whether to retry or drop.
func (q *CommandQueue) Push(cmd TriggerCommand) bool {
	read := atomic.LoadUint32(q.read)
	write := atomic.LoadUint32(q.write)
	if write-read == uint32(len(q.commands)) {
		return false
	}
	q.commands[write%uint32(len(q.commands))] = cmd
	atomic.StoreUint32(q.write, write+1)
	return true
}

// Drain calls f for every command enqueued since the last Drain, in
// order, then advances the read cursor. Called once per block by the
// audio agent before mixing (§4.J).
func (q *CommandQueue) Drain(f func(TriggerCommand)) {
	read := atomic.LoadUint32(q.read)
	write := atomic.LoadUint32(q.write)
	for read != write {
		cmd := q.commands[read%uint32(len(q.commands))]
		if cmd.Inert == nil || !cmd.Inert.Load() {
			f(cmd)
		}
		read++
	}
	atomic.StoreUint32(q.read, read)
}
