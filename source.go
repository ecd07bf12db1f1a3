package raymarch

import (
	"context"
	"sync"
)

// Snapshot is an immutable (grid, camera) pair consumed whole by one frame.
//
// Generation orders snapshots of one origin: a frame rendered from
// generation g of a Source is abandoned once the Source reports a
// generation greater than g. A zero Generation passed to Dispatcher.Render
// is assigned automatically.
type Snapshot struct {
	Grid       *VoxelGrid
	Camera     *Camera
	Generation uint64
}

// Source supplies snapshots to a Dispatcher.
type Source interface {
	// TryNext returns the newest snapshot without blocking, or ErrNotReady
	// if none has been supplied yet.
	TryNext() (Snapshot, error)

	// Next blocks until a snapshot newer than the last one returned by
	// Next or TryNext is available, or ctx is done.
	Next(ctx context.Context) (Snapshot, error)

	// Latest returns the newest generation supplied so far, 0 if none.
	Latest() uint64
}

// Mailbox is an in-process latest-wins Source. Publishing replaces any
// snapshot that has not been consumed yet; there is no backlog.
//
// Mailbox is safe for concurrent use by one or more producers and
// consumers.
type Mailbox struct {
	mu       sync.Mutex
	snap     Snapshot
	gen      uint64
	consumed uint64
	dropped  uint64
	wake     chan struct{}
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{wake: make(chan struct{})}
}

// Publish stores a new snapshot and returns its generation. The camera is
// copied; the grid must not be modified afterwards.
func (m *Mailbox) Publish(grid *VoxelGrid, cam Camera) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen > m.consumed {
		m.dropped++
	}
	m.gen++
	m.snap = Snapshot{Grid: grid, Camera: &cam, Generation: m.gen}

	close(m.wake)
	m.wake = make(chan struct{})
	return m.gen
}

// TryNext returns the newest snapshot, consumed or not.
func (m *Mailbox) TryNext() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen == 0 {
		return Snapshot{}, ErrNotReady
	}
	m.consumed = m.gen
	return m.snap, nil
}

// Next waits for an unconsumed snapshot.
func (m *Mailbox) Next(ctx context.Context) (Snapshot, error) {
	for {
		m.mu.Lock()
		if m.gen > m.consumed {
			m.consumed = m.gen
			s := m.snap
			m.mu.Unlock()
			return s, nil
		}
		wake := m.wake
		m.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
}

// Latest returns the newest published generation.
func (m *Mailbox) Latest() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// Dropped returns how many snapshots were replaced before being consumed.
func (m *Mailbox) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}
