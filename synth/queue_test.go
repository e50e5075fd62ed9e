package synth

import "testing"

func TestCommandQueuePushDrain(t *testing.T) {
	q := NewCommandQueue(8)
	for i := 0; i < 3; i++ {
		if !q.Push(TriggerCommand{Kind: CmdFire, Pitch: i}) {
			t.Fatalf("push %d: unexpected overflow", i)
		}
	}

	var got []int
	q.Drain(func(cmd TriggerCommand) {
		got = append(got, cmd.Pitch)
	})
	if want := 3; len(got) != want {
		t.Fatalf("expected %d commands, got %d", want, len(got))
	}
	for i, pitch := range got {
		if pitch != i {
			t.Errorf("command %d: want pitch %d, got %d", i, i, pitch)
		}
	}

	// a second drain with nothing pushed should see no commands.
	var second []int
	q.Drain(func(cmd TriggerCommand) { second = append(second, cmd.Pitch) })
	if len(second) != 0 {
		t.Errorf("expected no commands on second drain, got %v", second)
	}
}

func TestCommandQueueOverflow(t *testing.T) {
	q := NewCommandQueue(4)
	for i := 0; i < 4; i++ {
		if !q.Push(TriggerCommand{Kind: CmdFire}) {
			t.Fatalf("push %d: unexpected overflow before capacity reached", i)
		}
	}
	if q.Push(TriggerCommand{Kind: CmdFire}) {
		t.Fatal("expected overflow once the queue is full")
	}

	var drained int
	q.Drain(func(TriggerCommand) { drained++ })
	if drained != 4 {
		t.Fatalf("expected 4 commands drained, got %d", drained)
	}

	// after draining, the queue has room again.
	if !q.Push(TriggerCommand{Kind: CmdFire}) {
		t.Fatal("expected push to succeed after drain freed capacity")
	}
}

func TestCommandQueueDiscardsCancelled(t *testing.T) {
	q := NewCommandQueue(4)
	token := NewCancelToken()
	q.Push(TriggerCommand{Kind: CmdFire, Pitch: 1, Inert: token})
	q.Push(TriggerCommand{Kind: CmdFire, Pitch: 2})
	token.Store(true)

	var got []int
	q.Drain(func(cmd TriggerCommand) { got = append(got, cmd.Pitch) })
	if want := []int{2}; len(got) != 1 || got[0] != want[0] {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestNewCommandQueueRequiresPowerOfTwo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-power-of-two capacity")
		}
	}()
	NewCommandQueue(3)
}
