package audio

import "testing"

func ramp(start, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(start + i)
	}
	return out
}

func TestWindow_AppendWithinCapacity(t *testing.T) {
	w := NewWindow(10)

	w.Append(ramp(0, 4))
	if w.Len() != 4 {
		t.Errorf("expected len 4, got %d", w.Len())
	}

	w.Append(ramp(4, 3))
	if w.Len() != 7 {
		t.Errorf("expected len 7, got %d", w.Len())
	}

	snap := w.Snapshot(7)
	for i, v := range snap {
		if v != float32(i) {
			t.Fatalf("sample %d: expected %d, got %v", i, i, v)
		}
	}
}

func TestWindow_EvictsOldestFirst(t *testing.T) {
	w := NewWindow(5)

	w.Append(ramp(0, 4))
	w.Append(ramp(4, 4)) // total 8, capacity 5 -> oldest 3 evicted

	if w.Len() != 5 {
		t.Fatalf("expected len 5, got %d", w.Len())
	}

	snap := w.Snapshot(5)
	for i, v := range snap {
		want := float32(3 + i)
		if v != want {
			t.Errorf("sample %d: expected %v, got %v", i, want, v)
		}
	}
}

func TestWindow_NeverExceedsCapacity(t *testing.T) {
	w := NewWindow(100)

	// Uneven chunk sizes summing well past capacity.
	for _, n := range []int{1, 7, 33, 100, 260, 99, 3} {
		w.Append(ramp(0, n))
		if w.Len() > 100 {
			t.Fatalf("window exceeded capacity: len=%d", w.Len())
		}
	}
}

func TestWindow_OversizedAppendKeepsTail(t *testing.T) {
	w := NewWindow(4)
	w.Append(ramp(0, 10))

	if w.Len() != 4 {
		t.Fatalf("expected len 4, got %d", w.Len())
	}
	snap := w.Snapshot(4)
	for i, v := range snap {
		want := float32(6 + i)
		if v != want {
			t.Errorf("sample %d: expected %v, got %v", i, want, v)
		}
	}
}

func TestWindow_EmptyAppendIsNoop(t *testing.T) {
	w := NewWindow(8)
	w.Append(ramp(0, 3))

	w.Append(nil)
	w.Append([]float32{})

	if w.Len() != 3 {
		t.Errorf("expected len 3 after empty appends, got %d", w.Len())
	}
}

func TestWindow_SnapshotBounds(t *testing.T) {
	w := NewWindow(8)
	w.Append(ramp(0, 3))

	if got := w.Snapshot(0); got != nil {
		t.Errorf("expected nil snapshot for n=0, got %v", got)
	}
	if got := w.Snapshot(10); len(got) != 3 {
		t.Errorf("expected 3 samples when n exceeds len, got %d", len(got))
	}
}

func TestWindow_SnapshotIsACopy(t *testing.T) {
	w := NewWindow(8)
	w.Append(ramp(0, 4))

	snap := w.Snapshot(4)
	snap[0] = 999

	again := w.Snapshot(4)
	if again[0] != 0 {
		t.Error("snapshot mutation leaked into the window")
	}
}
