package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jwhan-dev/robofleet/core/model"
)

// MemoryRobotStore keeps the fleet in memory. It backs tests and single-node
// deployments that do not need durability.
type MemoryRobotStore struct {
	mu     sync.RWMutex
	robots map[string]model.Robot
}

// NewMemoryRobotStore creates an empty store.
func NewMemoryRobotStore() *MemoryRobotStore {
	return &MemoryRobotStore{robots: map[string]model.Robot{}}
}

func (s *MemoryRobotStore) Register(_ context.Context, r model.Robot) error {
	s.mu.Lock()
	s.robots[r.ID] = r
	s.mu.Unlock()
	return nil
}

func (s *MemoryRobotStore) Get(_ context.Context, id string) (model.Robot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.robots[id]
	if !ok {
		return model.Robot{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryRobotStore) List(_ context.Context) ([]model.Robot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Robot, 0, len(s.robots))
	for _, r := range s.robots {
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *MemoryRobotStore) ListIdleAboveBattery(_ context.Context, threshold float64) ([]model.Robot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []model.Robot
	for _, r := range s.robots {
		if r.Dispatchable(threshold) {
			res = append(res, r)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *MemoryRobotStore) CompareAndSetStatus(_ context.Context, id string, expected, next model.RobotStatus, extra RobotUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.robots[id]
	if !ok {
		return false, ErrNotFound
	}
	if r.Status != expected {
		return false, nil
	}
	r.Status = next
	applyRobotUpdate(&r, extra)
	s.robots[id] = r
	return true, nil
}

func (s *MemoryRobotStore) Update(_ context.Context, id string, upd RobotUpdate) (model.Robot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.robots[id]
	if !ok {
		return model.Robot{}, ErrNotFound
	}
	if upd.Status != nil {
		r.Status = *upd.Status
	}
	applyRobotUpdate(&r, upd)
	s.robots[id] = r
	return r, nil
}

func applyRobotUpdate(r *model.Robot, upd RobotUpdate) {
	if upd.Battery != nil {
		r.Battery = *upd.Battery
	}
	if upd.Position != nil {
		r.Position = *upd.Position
	}
	if upd.TaskID != nil {
		r.CurrentTaskID = *upd.TaskID
	}
}

// MemoryTaskStore keeps tasks in memory, ordered by creation.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]model.Task
	order []string
}

// NewMemoryTaskStore creates an empty store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: map[string]model.Task{}}
}

func (s *MemoryTaskStore) Create(_ context.Context, t model.Task) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	s.tasks[t.ID] = t
	s.order = append(s.order, t.ID)
	return t, nil
}

func (s *MemoryTaskStore) Get(_ context.Context, id string) (model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryTaskStore) Update(_ context.Context, id string, upd TaskUpdate) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	if upd.Status != nil {
		t.Status = *upd.Status
	}
	if upd.RobotID != nil {
		t.RobotID = *upd.RobotID
	}
	if upd.CompletedAt != nil && *upd.CompletedAt {
		now := time.Now().UTC()
		t.CompletedAt = &now
	}
	s.tasks[id] = t
	return t, nil
}

func (s *MemoryTaskStore) ListByStatus(_ context.Context, status model.TaskStatus) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []model.Task
	for _, id := range s.order {
		if t := s.tasks[id]; t.Status == status {
			res = append(res, t)
		}
	}
	return res, nil
}
