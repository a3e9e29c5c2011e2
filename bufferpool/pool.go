// Package bufferpool is a minimal demonstration buffer-pool manager built
// on top of arcreplacer.Replacer. It exists to exercise the replacer
// against something shaped like its real caller (spec.md's caller
// contract), not to be a production storage manager: there is no disk
// backing, no write-ahead log, and no page wire format. Persisting or
// moving page bytes is explicitly out of scope for the replacer itself
// (see the module's design notes) and this harness does not add it either
// — FetchFunc is the caller's stand-in for real I/O.
package bufferpool

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/arcreplacer/arcreplacer"
)

type (
	// PageID identifies a logical page, same as arcreplacer.PageID.
	PageID = arcreplacer.PageID
	// FrameID identifies a resident frame, same as arcreplacer.FrameID.
	FrameID = arcreplacer.FrameID
)

type constError string

func (e constError) Error() string { return string(e) }

const (
	// ErrPoolExhausted is returned when every frame is pinned and no
	// victim can be reclaimed.
	ErrPoolExhausted = constError("buffer pool exhausted: all frames pinned")
	// ErrPageNotResident is returned by UnpinPage for a page the pool does
	// not currently hold.
	ErrPageNotResident = constError("page is not resident")
)

// page is the pool's placeholder resident entry: a byte buffer, not a real
// on-disk page format.
type page struct {
	id   PageID
	data []byte
}

// FetchFunc loads page content on a miss, standing in for the disk I/O a
// real buffer pool would perform.
type FetchFunc func(id PageID) ([]byte, error)

// Pool is a minimal buffer-pool manager driving an arcreplacer.Replacer
// through the caller contract: RecordAccess on every pin, SetEvictable on
// unpin, Evict to reclaim a frame on a miss with none free.
type Pool struct {
	mu       sync.Mutex
	replacer *arcreplacer.Replacer
	frames   []page
	pageOf   map[PageID]FrameID
	pinCount map[FrameID]int
	free     []FrameID
	fetch    FetchFunc
	group    singleflight.Group
}

// New creates a Pool with capacity frames, using fetch to load page
// content on a miss.
func New(capacity int, fetch FetchFunc) (*Pool, error) {
	replacer, err := arcreplacer.New(capacity)
	if err != nil {
		return nil, err
	}
	free := make([]FrameID, capacity)
	for i := range free {
		free[i] = FrameID(capacity - 1 - i)
	}
	return &Pool{
		replacer: replacer,
		frames:   make([]page, capacity),
		pageOf:   make(map[PageID]FrameID, capacity),
		pinCount: make(map[FrameID]int, capacity),
		free:     free,
		fetch:    fetch,
	}, nil
}

// FetchPage pins id's page, loading it via fetch on a miss, and returns a
// copy of its content. Every call increments id's pin count and must be
// paired with an UnpinPage, regardless of whether it was a hit or a miss.
// Concurrent misses for the same id share a single underlying fetch call
// via singleflight, but each caller still receives and must release its
// own pin — singleflight collapses the I/O, not the pin bookkeeping.
func (p *Pool) FetchPage(ctx context.Context, id PageID) ([]byte, error) {
	p.mu.Lock()
	if frame, ok := p.pageOf[id]; ok {
		p.replacer.RecordAccess(frame, id, arcreplacer.AccessRead)
		p.pinLocked(frame)
		data := cloneBytes(p.frames[frame].data)
		p.mu.Unlock()
		return data, nil
	}
	frame, err := p.allocateLocked()
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%d", id)
	v, err, _ := p.group.Do(key, func() (any, error) {
		return p.fetch(id)
	})
	if err != nil {
		p.mu.Lock()
		p.free = append(p.free, frame)
		p.mu.Unlock()
		return nil, err
	}
	data := v.([]byte)

	p.mu.Lock()
	defer p.mu.Unlock()
	if winner, ok := p.pageOf[id]; ok {
		// Another goroutine installed id first while we were loading;
		// return our reserved frame and pin the winner's instead.
		p.free = append(p.free, frame)
		p.replacer.RecordAccess(winner, id, arcreplacer.AccessRead)
		p.pinLocked(winner)
		return cloneBytes(p.frames[winner].data), nil
	}
	p.replacer.RecordAccess(frame, id, arcreplacer.AccessRead)
	p.frames[frame] = page{id: id, data: data}
	p.pageOf[id] = frame
	p.pinCount[frame] = 0
	p.pinLocked(frame)
	return cloneBytes(data), nil
}

// allocateLocked returns a frame to hold a new page, evicting if necessary.
// Caller holds p.mu.
func (p *Pool) allocateLocked() (FrameID, error) {
	if n := len(p.free); n > 0 {
		frame := p.free[n-1]
		p.free = p.free[:n-1]
		return frame, nil
	}
	victim, ok := p.replacer.Evict()
	if !ok {
		return 0, ErrPoolExhausted
	}
	for id, frame := range p.pageOf {
		if frame == victim {
			delete(p.pageOf, id)
			break
		}
	}
	delete(p.pinCount, victim)
	return victim, nil
}

// pinLocked increments frame's pin count, marking it pinned (not evictable)
// in the replacer when the count goes from zero to one. Caller holds p.mu.
func (p *Pool) pinLocked(frame FrameID) {
	if p.pinCount[frame] == 0 {
		// Error ignored: frame was just recorded by RecordAccess above, so
		// it is always known to the replacer at this point.
		_ = p.replacer.SetEvictable(frame, false)
	}
	p.pinCount[frame]++
}

// UnpinPage releases one pin on id's page. Once its pin count reaches
// zero, the underlying frame becomes eligible for eviction.
func (p *Pool) UnpinPage(id PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	frame, ok := p.pageOf[id]
	if !ok {
		return ErrPageNotResident
	}
	if p.pinCount[frame] == 0 {
		return nil
	}
	p.pinCount[frame]--
	if p.pinCount[frame] == 0 {
		return p.replacer.SetEvictable(frame, true)
	}
	return nil
}

// DeletePage drops id's page without going through the replacer's ghost
// bookkeeping. It is a no-op if the page is not resident, and fails with
// arcreplacer.ErrNotEvictable while the page is still pinned.
func (p *Pool) DeletePage(id PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	frame, ok := p.pageOf[id]
	if !ok {
		return nil
	}
	if err := p.replacer.Remove(frame); err != nil {
		return err
	}
	delete(p.pageOf, id)
	delete(p.pinCount, frame)
	p.free = append(p.free, frame)
	return nil
}

// Size returns the number of currently evictable (unpinned) frames.
func (p *Pool) Size() int {
	return p.replacer.Size()
}

func cloneBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}
