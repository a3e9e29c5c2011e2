package arcreplacer_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/arcreplacer/arcreplacer"
)

func TestReplacer(t *testing.T) {
	t.Run("invalid capacity", invalidCapacity)
	t.Run("miss pins new frame", missPinsNewFrame)
	t.Run("promotion on re-hit", promotionOnReHit)
	t.Run("repeat hit reorders within T2", repeatHitReordersT2)
	t.Run("unknown frame", unknownFrame)
	t.Run("set evictable idempotent", setEvictableIdempotent)
	t.Run("remove unknown frame is silent", removeUnknownFrame)
	t.Run("remove pinned frame fails", removePinnedFrame)
	t.Run("remove creates no ghost", removeCreatesNoGhost)
	t.Run("evict on empty replacer", evictOnEmpty)
	t.Run("evict with nothing evictable", evictNothingEvictable)
	t.Run("ghost hit on B1 grows target", ghostHitGrowsTarget)
	t.Run("ghost hit on B2", ghostHitOnB2)
	t.Run("pin fallback", pinFallback)
}

func invalidCapacity(t *testing.T) {
	for _, capacity := range []int{-1, 0} {
		t.Run(fmt.Sprintf("%d", capacity), func(t *testing.T) {
			replacer, err := arcreplacer.New(capacity)
			if replacer != nil || err == nil {
				t.Fatalf("New(%d) should fail", capacity)
			}
			if !errors.Is(err, arcreplacer.ErrInvalidCapacity) {
				t.Fatalf("expected ErrInvalidCapacity, got: %v", err)
			}
		})
	}
}

func missPinsNewFrame(t *testing.T) {
	replacer := newReplacer(t, 3)
	replacer.RecordAccess(0, 100, arcreplacer.AccessRead)
	checkSize(t, replacer, 0, "new frame is born pinned")

	if err := replacer.SetEvictable(0, true); err != nil {
		t.Fatalf("SetEvictable: %v", err)
	}
	checkSize(t, replacer, 1, "after marking evictable")
}

func promotionOnReHit(t *testing.T) {
	replacer := newReplacer(t, 3)
	replacer.RecordAccess(0, 100, arcreplacer.AccessRead)
	mustSetEvictable(t, replacer, 0, true)
	replacer.RecordAccess(0, 100, arcreplacer.AccessRead)
	checkSize(t, replacer, 1, "re-access should not change size")

	if err := replacer.Remove(0); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}

func repeatHitReordersT2(t *testing.T) {
	replacer := newReplacer(t, 3)
	for frame := arcreplacer.FrameID(0); frame < 2; frame++ {
		replacer.RecordAccess(frame, arcreplacer.PageID(frame), arcreplacer.AccessRead)
		mustSetEvictable(t, replacer, frame, true)
		replacer.RecordAccess(frame, arcreplacer.PageID(frame), arcreplacer.AccessRead) // promote to T2
	}
	// Re-hitting frame 0 should not change the evictable population.
	replacer.RecordAccess(0, 0, arcreplacer.AccessRead)
	checkSize(t, replacer, 2, "reordering within T2 must not change size")

	// T1 is empty and p is 0, so Evict falls back to T2 and takes its tail,
	// which after the re-hit is frame 1, not frame 0.
	if victim, ok := replacer.Evict(); !ok || victim != 1 {
		t.Fatalf("expected frame 1 at the T2 tail after re-hitting frame 0, got %d, %t", victim, ok)
	}
}

func unknownFrame(t *testing.T) {
	replacer := newReplacer(t, 3)
	err := replacer.SetEvictable(7, true)
	if !errors.Is(err, arcreplacer.ErrUnknownFrame) {
		t.Fatalf("expected ErrUnknownFrame, got: %v", err)
	}
}

func setEvictableIdempotent(t *testing.T) {
	replacer := newReplacer(t, 3)
	replacer.RecordAccess(0, 100, arcreplacer.AccessRead)
	mustSetEvictable(t, replacer, 0, true)
	checkSize(t, replacer, 1, "first toggle")
	mustSetEvictable(t, replacer, 0, true)
	checkSize(t, replacer, 1, "repeated toggle must be a no-op")
}

func removeUnknownFrame(t *testing.T) {
	replacer := newReplacer(t, 3)
	if err := replacer.Remove(42); err != nil {
		t.Fatalf("Remove on unknown frame should be silent, got: %v", err)
	}
}

func removePinnedFrame(t *testing.T) {
	replacer := newReplacer(t, 3)
	replacer.RecordAccess(0, 100, arcreplacer.AccessRead)
	err := replacer.Remove(0)
	if !errors.Is(err, arcreplacer.ErrNotEvictable) {
		t.Fatalf("expected ErrNotEvictable, got: %v", err)
	}
}

func removeCreatesNoGhost(t *testing.T) {
	replacer := newReplacer(t, 3)
	replacer.RecordAccess(0, 100, arcreplacer.AccessRead)
	mustSetEvictable(t, replacer, 0, true)
	if err := replacer.Remove(0); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	checkSize(t, replacer, 0, "after remove")

	// If Remove had created a ghost, re-recording page 100 on a fresh
	// frame would be a ghost hit and land the frame straight in T2 with
	// curr_size incremented without a SetEvictable call.
	replacer.RecordAccess(1, 100, arcreplacer.AccessRead)
	checkSize(t, replacer, 0, "removed page must not leave a ghost behind")
}

func evictOnEmpty(t *testing.T) {
	replacer := newReplacer(t, 3)
	if _, ok := replacer.Evict(); ok {
		t.Fatal("Evict on an empty replacer should report no victim")
	}
}

func evictNothingEvictable(t *testing.T) {
	replacer := newReplacer(t, 2)
	replacer.RecordAccess(0, 100, arcreplacer.AccessRead)
	replacer.RecordAccess(1, 200, arcreplacer.AccessRead)
	// Both frames stay pinned (born pinned, never marked evictable).
	if _, ok := replacer.Evict(); ok {
		t.Fatal("Evict should report no victim when every frame is pinned")
	}
}

func ghostHitGrowsTarget(t *testing.T) {
	const capacity = 3
	replacer := newReplacer(t, capacity)
	replacer.RecordAccess(0, 100, arcreplacer.AccessRead)
	mustSetEvictable(t, replacer, 0, true)
	victim, ok := replacer.Evict()
	if !ok || victim != 0 {
		t.Fatalf("expected to evict frame 0, got %d, %t", victim, ok)
	}
	// Page 100 is now a B1 ghost. Re-recording it on a new frame is a
	// ghost hit: it lands in T2, evictable, and curr_size increments
	// without a SetEvictable call.
	replacer.RecordAccess(1, 100, arcreplacer.AccessRead)
	checkSize(t, replacer, 1, "ghost hit should mark the frame evictable")

	// p is not visible through the public API, so observe it through Evict's
	// choice of side. A second B1 ghost hit raises p to 2; with |T1| = 1 < p,
	// Evict must then prefer T2 and take its tail (frame 1) over T1's frame 2.
	replacer.RecordAccess(0, 200, arcreplacer.AccessRead)
	mustSetEvictable(t, replacer, 0, true)
	if victim, ok := replacer.Evict(); !ok || victim != 0 {
		t.Fatalf("expected to evict frame 0 from T1, got %d, %t", victim, ok)
	}
	replacer.RecordAccess(0, 200, arcreplacer.AccessRead) // B1 ghost hit, p = 2
	replacer.RecordAccess(2, 300, arcreplacer.AccessRead)
	mustSetEvictable(t, replacer, 2, true)
	if victim, ok := replacer.Evict(); !ok || victim != 1 {
		t.Fatalf("expected Evict to prefer T2 once p exceeds |T1|, got %d, %t", victim, ok)
	}
}

func ghostHitOnB2(t *testing.T) {
	const capacity = 2
	replacer := newReplacer(t, capacity)
	// Frame 0 / page 100: promote into T2.
	replacer.RecordAccess(0, 100, arcreplacer.AccessRead)
	mustSetEvictable(t, replacer, 0, true)
	replacer.RecordAccess(0, 100, arcreplacer.AccessRead) // T1 -> T2
	// Frame 1 / page 200: stays pinned in T1, forcing pin fallback to
	// evict page 100 out of T2 and into B2.
	replacer.RecordAccess(1, 200, arcreplacer.AccessRead)

	victim, ok := replacer.Evict()
	if !ok || victim != 0 {
		t.Fatalf("expected pin fallback to evict frame 0 from T2, got %d, %t", victim, ok)
	}

	// Page 100 is now a B2 ghost. Re-recording it on the reclaimed frame 0 is
	// a case-3 ghost hit: it lands in T2, evictable, without SetEvictable.
	replacer.RecordAccess(0, 100, arcreplacer.AccessRead)
	mustSetEvictable(t, replacer, 1, true)
	checkSize(t, replacer, 2, "B2 ghost hit should mark the frame evictable")
}

func pinFallback(t *testing.T) {
	const capacity = 3
	replacer := newReplacer(t, capacity)
	// Frames 0 and 1 land in T1, pinned.
	replacer.RecordAccess(0, 100, arcreplacer.AccessRead)
	replacer.RecordAccess(1, 200, arcreplacer.AccessRead)
	// Frame 2: miss into T1, then unpinned and re-accessed to promote to T2.
	replacer.RecordAccess(2, 300, arcreplacer.AccessRead)
	mustSetEvictable(t, replacer, 2, true)
	replacer.RecordAccess(2, 300, arcreplacer.AccessRead) // promote to T2

	victim, ok := replacer.Evict()
	if !ok {
		t.Fatal("expected pin fallback to find frame 2")
	}
	if victim != 2 {
		t.Fatalf("expected pin fallback to evict frame 2, got %d", victim)
	}
}

func newReplacer(tb testing.TB, capacity int) *arcreplacer.Replacer {
	tb.Helper()
	replacer, err := arcreplacer.New(capacity)
	if err != nil {
		tb.Fatalf("New(%d): %v", capacity, err)
	}
	return replacer
}

func mustSetEvictable(tb testing.TB, replacer *arcreplacer.Replacer, frame arcreplacer.FrameID, evictable bool) {
	tb.Helper()
	if err := replacer.SetEvictable(frame, evictable); err != nil {
		tb.Fatalf("SetEvictable(%d, %t): %v", frame, evictable, err)
	}
}

func checkSize(tb testing.TB, replacer *arcreplacer.Replacer, want int, msg string) {
	tb.Helper()
	if got := replacer.Size(); got != want {
		tb.Fatalf("%s\n\tgot: %d\n\twant: %d", msg, got, want)
	}
}
