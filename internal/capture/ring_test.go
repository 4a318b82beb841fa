package capture

import (
	"sync"
	"testing"
)

func frameWithSeq(seq uint64) Frame {
	return Frame{Data: []byte{byte(seq)}, Seq: seq}
}

func seqsOf(frames []Frame) []uint64 {
	out := make([]uint64, len(frames))
	for i, f := range frames {
		out[i] = f.Seq
	}
	return out
}

func TestNewRingBuffer_InvalidCapacityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for non-positive capacity")
		}
	}()
	NewRingBuffer(0)
}

func TestRingBuffer_FillsToCapacity(t *testing.T) {
	r := NewRingBuffer(4)
	for i := uint64(0); i < 3; i++ {
		r.Append(frameWithSeq(i))
	}

	if r.Len() != 3 {
		t.Errorf("expected length 3, got %d", r.Len())
	}
	got := seqsOf(r.Snapshot())
	want := []uint64{0, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d: expected seq %d, got %d", i, want[i], got[i])
		}
	}
}

func TestRingBuffer_EvictsOldestWhenFull(t *testing.T) {
	r := NewRingBuffer(3)
	for i := uint64(0); i < 7; i++ {
		r.Append(frameWithSeq(i))
	}

	if r.Len() != 3 {
		t.Errorf("expected length capped at 3, got %d", r.Len())
	}
	got := seqsOf(r.Snapshot())
	want := []uint64{4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d: expected seq %d, got %d", i, want[i], got[i])
		}
	}
}

// A buffer at capacity keeps sliding forward as new frames arrive during
// the post-trigger delay window: five appends into a full 40-slot buffer
// leave 40 frames whose oldest five are gone.
func TestRingBuffer_SlidesDuringDelayWindow(t *testing.T) {
	r := NewRingBuffer(40)
	for i := uint64(0); i < 40; i++ {
		r.Append(frameWithSeq(i))
	}
	for i := uint64(40); i < 45; i++ {
		r.Append(frameWithSeq(i))
	}

	got := seqsOf(r.Snapshot())
	if len(got) != 40 {
		t.Fatalf("expected 40 frames, got %d", len(got))
	}
	if got[0] != 5 {
		t.Errorf("expected oldest seq 5 after sliding, got %d", got[0])
	}
	if got[39] != 44 {
		t.Errorf("expected newest seq 44, got %d", got[39])
	}
	for i := 1; i < len(got); i++ {
		if got[i] != got[i-1]+1 {
			t.Errorf("snapshot not contiguous at index %d: %d after %d", i, got[i], got[i-1])
		}
	}
}

func TestRingBuffer_SnapshotEmptyBuffer(t *testing.T) {
	r := NewRingBuffer(8)
	if got := r.Snapshot(); len(got) != 0 {
		t.Errorf("expected empty snapshot, got %d frames", len(got))
	}
}

func TestRingBuffer_SnapshotIsIndependentCopy(t *testing.T) {
	r := NewRingBuffer(2)
	r.Append(frameWithSeq(0))
	r.Append(frameWithSeq(1))

	snap := r.Snapshot()
	r.Append(frameWithSeq(2))
	r.Append(frameWithSeq(3))

	got := seqsOf(snap)
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("snapshot mutated by later appends: %v", got)
	}
}

func TestRingBuffer_SnapshotIdempotentWithoutAppends(t *testing.T) {
	r := NewRingBuffer(5)
	for i := uint64(0); i < 9; i++ {
		r.Append(frameWithSeq(i))
	}

	first := seqsOf(r.Snapshot())
	second := seqsOf(r.Snapshot())
	if len(first) != len(second) {
		t.Fatalf("snapshot lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("index %d: first %d, second %d", i, first[i], second[i])
		}
	}
}

func TestRingBuffer_ConcurrentSnapshots(t *testing.T) {
	r := NewRingBuffer(16)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := uint64(0); i < 5000; i++ {
			r.Append(frameWithSeq(i))
		}
		close(stop)
	}()

	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := r.Snapshot()
				if len(snap) > 16 {
					t.Errorf("snapshot larger than capacity: %d", len(snap))
					return
				}
				for i := 1; i < len(snap); i++ {
					if snap[i].Seq != snap[i-1].Seq+1 {
						t.Errorf("out-of-order snapshot: seq %d after %d", snap[i].Seq, snap[i-1].Seq)
						return
					}
				}
			}
		}()
	}

	wg.Wait()
}
