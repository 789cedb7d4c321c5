package cache

import (
	"sync"

	"github.com/timewinder-dev/kclvm/vm"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[Hash][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[Hash][]byte),
	}
}

func (m *MemoryStore) getValue(h Hash) (bool, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[h]
	if !ok {
		return false, nil, nil
	}
	return true, v, nil
}

func (m *MemoryStore) Has(h Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[h]
	return ok
}

func (m *MemoryStore) Put(h Hash, p *vm.Program) error {
	data, err := vm.MarshalProgram(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[h] = data
	return nil
}

func (m *MemoryStore) Get(h Hash) (*vm.Program, bool, error) {
	return get(m, h)
}

// Len is the number of stored programs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func get(s directStore, h Hash) (*vm.Program, bool, error) {
	has, data, err := s.getValue(h)
	if err != nil || !has {
		return nil, false, err
	}
	p, err := vm.UnmarshalProgram(data)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}
