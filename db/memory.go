package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"flood-rescue/types"
)

// MemoryStore is an in-process implementation of CaseStore and
// CenterStore. It backs the test suite and local development without
// Firebase credentials. Conditional writes hold the store lock across
// check and apply, mirroring the transactional semantics of the
// Firestore implementation.
type MemoryStore struct {
	mu      sync.Mutex
	cases   map[string]*types.Case
	centers map[string]*types.EvacuationCenter

	subSeq int
	subs   map[int]chan CaseEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cases:   make(map[string]*types.Case),
		centers: make(map[string]*types.EvacuationCenter),
		subs:    make(map[int]chan CaseEvent),
	}
}

func cloneCase(c *types.Case) *types.Case {
	out := *c
	if c.Location != nil {
		loc := *c.Location
		out.Location = &loc
	}
	if c.Address != nil {
		addr := *c.Address
		out.Address = &addr
	}
	if c.Analysis != nil {
		an := *c.Analysis
		an.Needs = append([]string(nil), c.Analysis.Needs...)
		out.Analysis = &an
	}
	if c.AssignedOfficer != nil {
		as := *c.AssignedOfficer
		out.AssignedOfficer = &as
	}
	return &out
}

func cloneCenter(c *types.EvacuationCenter) *types.EvacuationCenter {
	out := *c
	out.Facilities = append([]string(nil), c.Facilities...)
	out.Residents = append([]types.Resident(nil), c.Residents...)
	return &out
}

// broadcast must be called with the lock held. Sends are non-blocking;
// a subscriber that cannot keep up loses events, which is within the
// feed's best-effort contract (the cron sweep covers missed deliveries).
func (s *MemoryStore) broadcast(ev CaseEvent) {
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *MemoryStore) applyFields(c *types.Case, fields map[string]interface{}) error {
	for path, value := range fields {
		switch path {
		case "status":
			switch v := value.(type) {
			case types.Status:
				c.Status = v
			case string:
				c.Status = types.Status(v)
			default:
				return fmt.Errorf("memory store: bad value type for status: %T", value)
			}
		case "isBlackCase":
			b, ok := value.(bool)
			if !ok {
				return fmt.Errorf("memory store: bad value type for isBlackCase: %T", value)
			}
			c.IsBlackCase = b
		case "ai_analysis":
			r, ok := value.(*types.TriageResult)
			if !ok {
				return fmt.Errorf("memory store: bad value type for ai_analysis: %T", value)
			}
			c.Analysis = r
		case "assignedOfficer":
			a, ok := value.(*types.Assignment)
			if !ok {
				return fmt.Errorf("memory store: bad value type for assignedOfficer: %T", value)
			}
			c.AssignedOfficer = a
		default:
			return fmt.Errorf("memory store: unsupported field path %q", path)
		}
	}
	return nil
}

func (s *MemoryStore) Create(ctx context.Context, c *types.Case) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneCase(c)
	stored.ID = uuid.NewString()
	s.cases[stored.ID] = stored
	s.broadcast(CaseEvent{Type: EventAdded, ID: stored.ID, Case: cloneCase(stored)})
	return stored.ID, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*types.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[id]
	if !ok {
		return nil, fmt.Errorf("%w: case %s", ErrNotFound, id)
	}
	return cloneCase(c), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*types.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cases := make([]*types.Case, 0, len(s.cases))
	for _, c := range s.cases {
		cases = append(cases, cloneCase(c))
	}
	return cases, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return s.UpdateIf(ctx, id, func(*types.Case) error { return nil }, fields)
}

func (s *MemoryStore) UpdateIf(ctx context.Context, id string, check func(*types.Case) error, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[id]
	if !ok {
		return fmt.Errorf("%w: case %s", ErrNotFound, id)
	}
	if err := check(cloneCase(c)); err != nil {
		return err
	}
	updated := cloneCase(c)
	if err := s.applyFields(updated, fields); err != nil {
		return err
	}
	s.cases[id] = updated
	s.broadcast(CaseEvent{Type: EventModified, ID: id, Case: cloneCase(updated)})
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	return s.DeleteIf(ctx, id, func(*types.Case) error { return nil })
}

func (s *MemoryStore) DeleteIf(ctx context.Context, id string, check func(*types.Case) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[id]
	if !ok {
		return fmt.Errorf("%w: case %s", ErrNotFound, id)
	}
	if err := check(cloneCase(c)); err != nil {
		return err
	}
	delete(s.cases, id)
	s.broadcast(CaseEvent{Type: EventRemoved, ID: id})
	return nil
}

// Subscribe replays the current collection as "added" events, matching
// the initial snapshot Firestore delivers, then streams live changes
// until ctx is done.
func (s *MemoryStore) Subscribe(ctx context.Context, handler func(CaseEvent)) error {
	s.mu.Lock()
	s.subSeq++
	id := s.subSeq
	ch := make(chan CaseEvent, 256)
	s.subs[id] = ch
	backlog := make([]CaseEvent, 0, len(s.cases))
	for _, c := range s.cases {
		backlog = append(backlog, CaseEvent{Type: EventAdded, ID: c.ID, Case: cloneCase(c)})
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}()

	for _, ev := range backlog {
		handler(ev)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-ch:
			handler(ev)
		}
	}
}

func (s *MemoryStore) CreateCenter(ctx context.Context, c *types.EvacuationCenter) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneCenter(c)
	stored.ID = uuid.NewString()
	s.centers[stored.ID] = stored
	return stored.ID, nil
}

func (s *MemoryStore) GetCenter(ctx context.Context, id string) (*types.EvacuationCenter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.centers[id]
	if !ok {
		return nil, fmt.Errorf("%w: center %s", ErrNotFound, id)
	}
	return cloneCenter(c), nil
}

func (s *MemoryStore) ListCenters(ctx context.Context) ([]*types.EvacuationCenter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	centers := make([]*types.EvacuationCenter, 0, len(s.centers))
	for _, c := range s.centers {
		centers = append(centers, cloneCenter(c))
	}
	return centers, nil
}

func (s *MemoryStore) AppendResident(ctx context.Context, centerID string, r types.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.centers[centerID]
	if !ok {
		return fmt.Errorf("%w: center %s", ErrNotFound, centerID)
	}
	c.Residents = append(c.Residents, r)
	c.CurrentPeople++
	return nil
}
