package arcreplacer

import (
	"log"
	"sync"

	"github.com/arcreplacer/arcreplacer/internal/catalog"
)

// MinimumCapacity is the lowest value accepted by New.
const MinimumCapacity = 1

type (
	// FrameID identifies a resident frame in the buffer pool. It is a
	// dense integer in [0, capacity) assigned by the caller and stable for
	// the lifetime of the Replacer.
	FrameID int
	// PageID identifies a logical page. It is opaque to the replacer and
	// unique per page; the same page may occupy different frames over time.
	PageID int64
	// AccessType is advisory metadata describing why a frame was accessed.
	// The core algorithm ignores it; it exists for policy extensions and
	// diagnostics.
	AccessType string
)

// Recognized AccessType values. Any string is accepted; these are the ones
// a caller is expected to use.
const (
	AccessRead  AccessType = "read"
	AccessWrite AccessType = "write"
	AccessScan  AccessType = "scan"
)

type residentTier uint8

const (
	tierMRU residentTier = iota // T1
	tierMFU                     // T2
)

type ghostTier uint8

const (
	ghostMRU ghostTier = iota // B1
	ghostMFU                  // B2
)

type residentEntry struct {
	pageID    PageID
	frameID   FrameID
	evictable bool
	tier      residentTier
}

type ghostEntry struct {
	pageID PageID
	tier   ghostTier
}

// Replacer is an Adaptive Replacement Cache frame replacer. It decides,
// among the resident frames a buffer pool owns, which evictable frame to
// reclaim next, using feedback from ghost entries to self-tune between
// recency and frequency. See the package doc comment for the algorithm.
//
// A Replacer is safe for concurrent use by multiple goroutines.
type Replacer struct {
	mu sync.Mutex

	capacity int
	t1, t2   catalog.List[*residentEntry]
	b1, b2   catalog.List[*ghostEntry]
	alive    map[FrameID]*catalog.Node[*residentEntry]
	ghost    map[PageID]*catalog.Node[*ghostEntry]

	currSize int
	p        int

	logger *log.Logger
}

// New creates a Replacer with the given capacity, the number of resident
// frames the owning buffer pool manages. Capacity must be at least
// MinimumCapacity.
func New(capacity int, opts ...Option) (*Replacer, error) {
	if capacity < MinimumCapacity {
		return nil, minCapacityError(capacity)
	}
	r := &Replacer{
		capacity: capacity,
		alive:    make(map[FrameID]*catalog.Node[*residentEntry], capacity),
		ghost:    make(map[PageID]*catalog.Node[*ghostEntry], capacity),
		logger:   discardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RecordAccess records that frameID (holding pageID) was accessed. It
// performs the ARC case analysis (hit, ghost hit, or miss) and updates p
// accordingly, but never evicts; see Evict for reclaiming a frame.
//
// accessType is advisory and otherwise ignored by the core algorithm.
func (r *Replacer) RecordAccess(frameID FrameID, pageID PageID, accessType AccessType) {
	_ = accessType
	r.mu.Lock()
	defer r.mu.Unlock()

	if node, ok := r.alive[frameID]; ok {
		r.recordHit(frameID, node)
	} else if gnode, ok := r.ghost[pageID]; ok {
		r.recordGhostHit(frameID, pageID, gnode)
	} else {
		r.recordMiss(frameID, pageID)
	}
	if debugging {
		r.checkInvariants()
	}
}

// recordHit implements spec case 1: a hit on a resident entry.
func (r *Replacer) recordHit(frameID FrameID, node *catalog.Node[*residentEntry]) {
	entry := node.Value
	switch entry.tier {
	case tierMRU:
		r.t1.Remove(node)
		entry.tier = tierMFU
		r.alive[frameID] = r.t2.PushFront(entry)
	case tierMFU:
		r.t2.Remove(node)
		r.alive[frameID] = r.t2.PushFront(entry)
	}
}

// recordGhostHit implements spec cases 2 and 3: a hit on B1 or B2.
func (r *Replacer) recordGhostHit(frameID FrameID, pageID PageID, node *catalog.Node[*ghostEntry]) {
	entry := node.Value
	switch entry.tier {
	case ghostMRU:
		r.growTarget()
		r.b1.Remove(node)
	case ghostMFU:
		r.shrinkTarget()
		r.b2.Remove(node)
	}
	delete(r.ghost, pageID)

	resident := &residentEntry{
		pageID:    pageID,
		frameID:   frameID,
		evictable: true,
		tier:      tierMFU,
	}
	r.alive[frameID] = r.t2.PushFront(resident)
	r.currSize++
}

// growTarget adjusts p upward after a B1 ghost hit.
func (r *Replacer) growTarget() {
	b1Len, b2Len := r.b1.Len(), r.b2.Len()
	delta := 1
	if b1Len < b2Len {
		delta = b2Len / max(b1Len, 1)
	}
	r.p = min(r.capacity, r.p+delta)
}

// shrinkTarget adjusts p downward after a B2 ghost hit.
func (r *Replacer) shrinkTarget() {
	b1Len, b2Len := r.b1.Len(), r.b2.Len()
	delta := 1
	if b2Len < b1Len {
		delta = b1Len / max(b2Len, 1)
	}
	r.p = max(0, r.p-delta)
}

// recordMiss implements spec case 4: the access hit neither a resident
// entry nor a ghost. New entries are born pinned; the caller must call
// SetEvictable once the frame's contents are coherent.
func (r *Replacer) recordMiss(frameID FrameID, pageID PageID) {
	switch {
	case r.t1.Len()+r.b1.Len() == r.capacity:
		if r.t1.Len() < r.capacity {
			r.trimGhostTail(&r.b1)
		} else {
			r.forceTrimResidentTail(&r.t1)
		}
	case r.t1.Len()+r.b1.Len() < r.capacity &&
		r.t1.Len()+r.t2.Len()+r.b1.Len()+r.b2.Len() == 2*r.capacity:
		r.trimGhostTail(&r.b2)
	}

	entry := &residentEntry{
		pageID:    pageID,
		frameID:   frameID,
		evictable: false,
		tier:      tierMRU,
	}
	r.alive[frameID] = r.t1.PushFront(entry)
}

// trimGhostTail drops the least-recently-evicted ghost from list, freeing
// capacity for a new entry. No-op on an empty list.
func (r *Replacer) trimGhostTail(list *catalog.List[*ghostEntry]) {
	entry, ok := list.RemoveBack()
	if !ok {
		return
	}
	delete(r.ghost, entry.pageID)
}

// forceTrimResidentTail drops the tail of a resident catalog that has
// filled its entire share of capacity with no ghost headroom. This only
// exists to preserve invariants if a caller forces an insertion without
// first evicting; under normal operation T1 never reaches capacity while
// still receiving misses.
func (r *Replacer) forceTrimResidentTail(list *catalog.List[*residentEntry]) {
	entry, ok := list.RemoveBack()
	if !ok {
		return
	}
	delete(r.alive, entry.frameID)
	if entry.evictable {
		r.currSize--
	}
}

// SetEvictable marks frameID as evictable or pinned. It fails with
// ErrUnknownFrame if frameID was never recorded, or has since been removed.
func (r *Replacer) SetEvictable(frameID FrameID, evictable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.alive[frameID]
	if !ok {
		return unknownFrameError(frameID)
	}
	entry := node.Value
	if entry.evictable == evictable {
		return nil
	}
	entry.evictable = evictable
	if evictable {
		r.currSize++
	} else {
		r.currSize--
	}
	if debugging {
		r.checkInvariants()
	}
	return nil
}

// Evict picks a frame to reclaim, following the primary-side-with-pin-
// fallback rule described in the package doc comment, and returns its
// frame id. The second result is false if there is no evictable frame.
func (r *Replacer) Evict() (FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currSize == 0 {
		return 0, false
	}

	primary := tierMRU
	if r.t1.Len() < r.p {
		primary = tierMFU
	}

	node := findEvictableFromTail(r.listFor(primary))
	side := primary
	if node == nil {
		node = findEvictableFromTail(r.listFor(otherTier(primary)))
		side = otherTier(primary)
		if node == nil {
			if debugging {
				assert(false, "curr_size nonzero but no evictable frame found on either side")
			}
			r.logger.Printf("arcreplacer: evict found no victim with curr_size=%d", r.currSize)
			return 0, false
		}
		r.logger.Printf("arcreplacer: pin fallback, evicting from opposite side")
	}

	frameID := r.commitEviction(side, node)
	if debugging {
		r.checkInvariants()
	}
	return frameID, true
}

// findEvictableFromTail scans list from tail toward head for the first
// evictable entry.
func findEvictableFromTail(list *catalog.List[*residentEntry]) *catalog.Node[*residentEntry] {
	for n := list.Back(); n != nil; n = n.Prev() {
		if n.Value.evictable {
			return n
		}
	}
	return nil
}

// commitEviction detaches node from side's catalog, records its page id in
// the corresponding ghost catalog, and returns its frame id.
func (r *Replacer) commitEviction(side residentTier, node *catalog.Node[*residentEntry]) FrameID {
	entry := node.Value
	r.listFor(side).Remove(node)
	delete(r.alive, entry.frameID)

	ghost := &ghostEntry{pageID: entry.pageID, tier: ghostTierFor(side)}
	r.ghost[entry.pageID] = r.ghostListFor(side).PushFront(ghost)

	r.currSize--
	return entry.frameID
}

// Remove drops frameID from the replacer unconditionally, without
// recording a ghost entry. It is a silent no-op if frameID is unknown, and
// fails with ErrNotEvictable if the frame is currently pinned.
func (r *Replacer) Remove(frameID FrameID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.alive[frameID]
	if !ok {
		return nil
	}
	entry := node.Value
	if !entry.evictable {
		return notEvictableError(frameID)
	}

	r.listFor(entry.tier).Remove(node)
	delete(r.alive, frameID)
	r.currSize--
	if debugging {
		r.checkInvariants()
	}
	return nil
}

// Size returns the number of currently evictable resident frames.
func (r *Replacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currSize
}

func (r *Replacer) listFor(t residentTier) *catalog.List[*residentEntry] {
	if t == tierMRU {
		return &r.t1
	}
	return &r.t2
}

func (r *Replacer) ghostListFor(t residentTier) *catalog.List[*ghostEntry] {
	if t == tierMRU {
		return &r.b1
	}
	return &r.b2
}

func ghostTierFor(t residentTier) ghostTier {
	if t == tierMRU {
		return ghostMRU
	}
	return ghostMFU
}

func otherTier(t residentTier) residentTier {
	if t == tierMRU {
		return tierMFU
	}
	return tierMRU
}

// checkInvariants asserts the properties spec.md requires to hold after
// every public call. It is only called when debugging is true, i.e. with the
// arcreplacer_debug build tag; without the tag assert is a no-op. See
// replacer_debug.go and replacer_release.go.
func (r *Replacer) checkInvariants() {
	assert(r.currSize >= 0, "curr_size went negative")
	assert(r.currSize <= r.t1.Len()+r.t2.Len(), "curr_size exceeds resident entries")
	assert(r.t1.Len()+r.t2.Len() <= r.capacity, "resident entries exceed capacity")
	assert(r.t1.Len()+r.b1.Len() <= r.capacity, "T1+B1 exceeds capacity")
	assert(r.t2.Len()+r.b2.Len() <= r.capacity, "T2+B2 exceeds capacity")
	assert(r.t1.Len()+r.t2.Len()+r.b1.Len()+r.b2.Len() <= 2*r.capacity, "total catalog population exceeds 2C")
	assert(len(r.alive) == r.t1.Len()+r.t2.Len(), "alive index diverged from T1 union T2")
	assert(len(r.ghost) == r.b1.Len()+r.b2.Len(), "ghost index diverged from B1 union B2")
	assert(r.p >= 0 && r.p <= r.capacity, "p out of range")
}
