package registry

import (
	"sort"
	"sync"

	cm "github.com/mosaicnetworks/weave/src/common"
)

// Handle is what a caller needs to address a node: its id and the address of
// its transport.
type Handle struct {
	ID   uint32 `json:"id"`
	Addr string `json:"addr"`
}

// Registry maps node ids to handles. It is safe for concurrent use. Nodes
// never read it; it serves whoever issues commands.
type Registry struct {
	sync.RWMutex
	handles map[uint32]Handle
}

// NewRegistry ...
func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[uint32]Handle),
	}
}

// Register adds a handle. It fails with NodeExists if the id is taken.
func (r *Registry) Register(h Handle) error {
	r.Lock()
	defer r.Unlock()

	if _, ok := r.handles[h.ID]; ok {
		return cm.NewNodeErr("Registry", cm.NodeExists, h.ID)
	}
	r.handles[h.ID] = h

	return nil
}

// Lookup returns the handle of a node. It fails with NodeNotFound if the id is
// unknown.
func (r *Registry) Lookup(id uint32) (Handle, error) {
	r.RLock()
	defer r.RUnlock()

	h, ok := r.handles[id]
	if !ok {
		return Handle{}, cm.NewNodeErr("Registry", cm.NodeNotFound, id)
	}

	return h, nil
}

// Remove deletes the handle of a node. It fails with NodeNotFound if the id
// is unknown.
func (r *Registry) Remove(id uint32) error {
	r.Lock()
	defer r.Unlock()

	if _, ok := r.handles[id]; !ok {
		return cm.NewNodeErr("Registry", cm.NodeNotFound, id)
	}
	delete(r.handles, id)

	return nil
}

// IDs returns the registered ids in increasing order.
func (r *Registry) IDs() []uint32 {
	r.RLock()
	defer r.RUnlock()

	res := make([]uint32, 0, len(r.handles))
	for id := range r.handles {
		res = append(res, id)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })

	return res
}

// Handles returns the registered handles sorted by id.
func (r *Registry) Handles() []Handle {
	r.RLock()
	defer r.RUnlock()

	res := make([]Handle, 0, len(r.handles))
	for _, h := range r.handles {
		res = append(res, h)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })

	return res
}

// Len ...
func (r *Registry) Len() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.handles)
}
