package topology

import (
	"sync"

	cm "github.com/mosaicnetworks/weave/src/common"
)

// InmemStore implements the Store interface with a map.
type InmemStore struct {
	sync.RWMutex
	decls map[uint32]Declaration
}

// NewInmemStore ...
func NewInmemStore() *InmemStore {
	return &InmemStore{
		decls: make(map[uint32]Declaration),
	}
}

// Put implements the Store interface.
func (s *InmemStore) Put(d Declaration) error {
	s.Lock()
	defer s.Unlock()
	s.decls[d.ID] = NewDeclaration(d.ID, d.Children)
	return nil
}

// Get implements the Store interface.
func (s *InmemStore) Get(id uint32) (Declaration, error) {
	s.RLock()
	defer s.RUnlock()
	d, ok := s.decls[id]
	if !ok {
		return Declaration{}, cm.NewNodeErr("InmemStore", cm.NodeNotFound, id)
	}
	return d, nil
}

// Delete implements the Store interface.
func (s *InmemStore) Delete(id uint32) error {
	s.Lock()
	defer s.Unlock()
	delete(s.decls, id)
	return nil
}

// Declarations implements the Store interface.
func (s *InmemStore) Declarations() ([]Declaration, error) {
	s.RLock()
	defer s.RUnlock()
	res := make([]Declaration, 0, len(s.decls))
	for _, d := range s.decls {
		res = append(res, d)
	}
	SortDeclarations(res)
	return res, nil
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}
