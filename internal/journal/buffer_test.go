package journal

import (
	"testing"
)

func TestBufferSendReceive(t *testing.T) {
	buf := NewBuffer[int](10)

	for i := 0; i < 5; i++ {
		if !buf.Send(i) {
			t.Fatalf("Send(%d) returned false", i)
		}
	}

	if buf.Len() != 5 {
		t.Errorf("Len() = %d, want 5", buf.Len())
	}

	for i := 0; i < 5; i++ {
		val, ok := buf.TryReceive()
		if !ok {
			t.Fatalf("TryReceive() returned false for item %d", i)
		}
		if val != i {
			t.Errorf("received %d, want %d", val, i)
		}
	}

	if _, ok := buf.TryReceive(); ok {
		t.Error("TryReceive() on empty buffer returned true")
	}
}

func TestBufferGrowsUnderLoad(t *testing.T) {
	buf := NewBuffer[int](4)

	for i := 0; i < 100; i++ {
		if !buf.Send(i) {
			t.Fatalf("Send(%d) returned false", i)
		}
	}

	stats := buf.Stats()
	if stats.Count != 100 {
		t.Errorf("Count = %d, want 100", stats.Count)
	}
	if stats.ResizeCount < 3 {
		t.Errorf("ResizeCount = %d, expected at least 3 resizes", stats.ResizeCount)
	}

	// Order must survive growth, including the wrapped case.
	for i := 0; i < 100; i++ {
		val, ok := buf.TryReceive()
		if !ok {
			t.Fatalf("TryReceive() returned false for item %d", i)
		}
		if val != i {
			t.Errorf("received %d, want %d", val, i)
		}
	}
}

func TestBufferGrowWhileWrapped(t *testing.T) {
	buf := NewBuffer[int](8)

	// Advance head so the ring wraps before growing.
	for i := 0; i < 4; i++ {
		buf.Send(i)
	}
	for i := 0; i < 4; i++ {
		buf.TryReceive()
	}
	for i := 4; i < 30; i++ {
		buf.Send(i)
	}

	for i := 4; i < 30; i++ {
		val, ok := buf.TryReceive()
		if !ok {
			t.Fatalf("TryReceive() returned false for item %d", i)
		}
		if val != i {
			t.Errorf("received %d, want %d", val, i)
		}
	}
}

func TestBufferDrainTo(t *testing.T) {
	buf := NewBuffer[int](10)
	for i := 0; i < 6; i++ {
		buf.Send(i)
	}

	first := buf.DrainTo(4)
	if len(first) != 4 {
		t.Fatalf("DrainTo(4) returned %d items, want 4", len(first))
	}
	for i, v := range first {
		if v != i {
			t.Errorf("drained[%d] = %d, want %d", i, v, i)
		}
	}

	rest := buf.DrainTo(0)
	if len(rest) != 2 {
		t.Fatalf("DrainTo(0) returned %d items, want 2", len(rest))
	}
	if buf.Len() != 0 {
		t.Errorf("Len() = %d after full drain, want 0", buf.Len())
	}
	if buf.DrainTo(0) != nil {
		t.Error("DrainTo on empty buffer should return nil")
	}
}

func TestBufferClose(t *testing.T) {
	buf := NewBuffer[int](10)
	buf.Send(1)
	buf.Close()

	if buf.Send(2) {
		t.Error("Send after Close returned true")
	}

	// Queued items stay drainable.
	val, ok := buf.TryReceive()
	if !ok || val != 1 {
		t.Errorf("TryReceive after Close = (%d, %v), want (1, true)", val, ok)
	}
}
