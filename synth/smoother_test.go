package synth

import "testing"

func TestSmoothedParameterApproachesTarget(t *testing.T) {
	s := NewSmoothedParameter(48000, 5, 0)
	s.SetTarget(1)
	var last float64
	for i := 0; i < 48000; i++ {
		v := s.Next()
		if v < last {
			t.Fatalf("sample %d: value decreased (%v -> %v) approaching a higher target", i, last, v)
		}
		last = v
	}
	if last < 0.999 {
		t.Errorf("expected smoother to converge near 1.0 after 1s, got %v", last)
	}
}

func TestSmoothedParameterSetImmediateSkipsRamp(t *testing.T) {
	s := NewSmoothedParameter(48000, 50, 0)
	s.SetTarget(1)
	s.SetImmediate(0.75)
	if got := s.Value(); got != 0.75 {
		t.Errorf("want 0.75 immediately after SetImmediate, got %v", got)
	}
	if got := s.Next(); got != 0.75 {
		t.Errorf("want Next() to hold at 0.75 since target was also set, got %v", got)
	}
}

func TestSmoothedParameterZeroTimeIsInstant(t *testing.T) {
	s := NewSmoothedParameter(48000, 0, 0)
	s.SetTarget(1)
	if got := s.Next(); got != 1 {
		t.Errorf("want instant jump to target with a zero smoothing time, got %v", got)
	}
}
