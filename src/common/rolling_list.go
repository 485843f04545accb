package common

// RollingList keeps the last items added to it. It holds between size and
// 2*size items and counts every item ever added.
type RollingList[T any] struct {
	size  int
	tot   int
	items []T
}

// NewRollingList ...
func NewRollingList[T any](size int) *RollingList[T] {
	return &RollingList[T]{
		size:  size,
		items: make([]T, 0, 2*size),
	}
}

// Get returns a copy of the cached window and the total number of items added.
func (r *RollingList[T]) Get() (lastWindow []T, tot int) {
	res := make([]T, len(r.items))
	copy(res, r.items)
	return res, r.tot
}

// Add appends an item, rolling the window when it is full.
func (r *RollingList[T]) Add(item T) {
	if r.size <= 0 {
		r.tot++
		return
	}
	if len(r.items) >= 2*r.size {
		r.Roll()
	}
	r.items = append(r.items, item)
	r.tot++
}

// Roll drops the oldest half of the window.
func (r *RollingList[T]) Roll() {
	newList := make([]T, 0, 2*r.size)
	newList = append(newList, r.items[r.size:]...)
	r.items = newList
}
