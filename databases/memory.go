package databases

import (
	"context"
	"sync"
)

// MemoryStore is an in-process ChatStore used by tests and local development.
// All operations take the store lock, which gives it the same atomicity as
// the Redis MULTI/EXEC pipelines it stands in for.
type MemoryStore struct {
	mu    sync.Mutex
	lists map[string][]string
	sets  map[string]map[string]struct{}
	keys  map[string]string
}

// NewMemoryStore returns an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lists: make(map[string][]string),
		sets:  make(map[string]map[string]struct{}),
		keys:  make(map[string]string),
	}
}

// AppendTrim appends value and drops the oldest entries beyond cap
func (m *MemoryStore) AppendTrim(_ context.Context, key, value string, cap int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append(m.lists[key], value)
	if int64(len(list)) > cap {
		list = list[int64(len(list))-cap:]
	}
	m.lists[key] = list
	return nil
}

// Range returns the list slice between start and stop, negative indexes
// counting from the tail, Redis LRANGE style
func (m *MemoryStore) Range(_ context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return nil, nil
	}
	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}

// Length returns the list length
func (m *MemoryStore) Length(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.lists[key])), nil
}

// RemoveValue removes the first occurrence of value, returning how many were
// removed (0 or 1)
func (m *MemoryStore) RemoveValue(_ context.Context, key, value string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key]
	for i, v := range list {
		if v == value {
			m.lists[key] = append(append([]string{}, list[:i]...), list[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// AddMember adds member to the set at key
func (m *MemoryStore) AddMember(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sets[key] == nil {
		m.sets[key] = make(map[string]struct{})
	}
	m.sets[key][member] = struct{}{}
	return nil
}

// IsMember reports set membership
func (m *MemoryStore) IsMember(_ context.Context, key, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sets[key][member]
	return ok, nil
}

// Members returns all members of the set at key
func (m *MemoryStore) Members(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	members := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

// ReplaceMembers swaps the set at key wholesale
func (m *MemoryStore) ReplaceMembers(_ context.Context, key string, members []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(map[string]struct{}, len(members))
	for _, member := range members {
		set[member] = struct{}{}
	}
	m.sets[key] = set
	return nil
}

// Get returns the string value at key, empty when unset
func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key], nil
}

// Set stores value at key
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = value
	return nil
}
