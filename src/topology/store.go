package topology

// Store keeps the declared topology across restarts. Only declarations are
// stored; resolved edges are runtime state.
type Store interface {
	Put(Declaration) error
	Get(id uint32) (Declaration, error)
	Delete(id uint32) error
	Declarations() ([]Declaration, error)
	Close() error
}
