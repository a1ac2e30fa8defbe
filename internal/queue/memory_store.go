package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	rec         Record
	running     bool
	dead        bool
	lockedUntil time.Time
	seq         int64
}

// MemoryStore keeps jobs in process memory. It honours the Store contract but
// is not durable; it backs local development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*memoryEntry
	seq     int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[uuid.UUID]*memoryEntry)}
}

func (s *MemoryStore) Insert(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[rec.ID]; ok {
		return fmt.Errorf("job %s already exists", rec.ID)
	}
	s.seq++
	s.entries[rec.ID] = &memoryEntry{rec: *rec, seq: s.seq}
	return nil
}

func (s *MemoryStore) Claim(_ context.Context, queue string, now time.Time, lease time.Duration) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next *memoryEntry
	for _, e := range s.entries {
		if e.rec.Queue != queue || e.dead {
			continue
		}
		runnable := (!e.running && !e.rec.RunAt.After(now)) || (e.running && e.lockedUntil.Before(now))
		if !runnable {
			continue
		}
		if next == nil || e.rec.RunAt.Before(next.rec.RunAt) ||
			(e.rec.RunAt.Equal(next.rec.RunAt) && e.seq < next.seq) {
			next = e
		}
	}
	if next == nil {
		return nil, nil
	}

	next.running = true
	next.lockedUntil = now.Add(lease)
	next.rec.Attempt++
	rec := next.rec
	return &rec, nil
}

func (s *MemoryStore) Complete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Retry(_ context.Context, id uuid.UUID, runAt time.Time, lastErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	e.running = false
	e.rec.RunAt = runAt
	e.rec.LastError = lastErr
	return nil
}

func (s *MemoryStore) Bury(_ context.Context, id uuid.UUID, lastErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	e.running = false
	e.dead = true
	e.rec.LastError = lastErr
	return nil
}

func (s *MemoryStore) Release(_ context.Context, id uuid.UUID, runAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	e.running = false
	e.rec.RunAt = runAt
	if e.rec.Attempt > 0 {
		e.rec.Attempt--
	}
	return nil
}

// Pending counts jobs of the queue that are neither finished nor dead.
func (s *MemoryStore) Pending(queue string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.entries {
		if e.rec.Queue == queue && !e.dead {
			n++
		}
	}
	return n
}

// Dead returns the buried jobs of the queue.
func (s *MemoryStore) Dead(queue string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, e := range s.entries {
		if e.rec.Queue == queue && e.dead {
			out = append(out, e.rec)
		}
	}
	return out
}
