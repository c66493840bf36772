package asm

// Pool is an ordered, deduplicating table that assigns stable indices to
// values in first-seen order.
type Pool[T comparable] struct {
	values []T
	index  map[T]int
}

// NewPool returns a pool seeded with the given values, in order. Repeated
// seed values are registered once.
func NewPool[T comparable](seed ...T) *Pool[T] {
	p := &Pool[T]{index: make(map[T]int, len(seed))}
	for _, v := range seed {
		p.Register(v)
	}
	return p
}

// Register returns the index of value, appending it first if it is not yet
// present.
func (p *Pool[T]) Register(value T) int {
	if i, ok := p.index[value]; ok {
		return i
	}
	i := len(p.values)
	p.values = append(p.values, value)
	p.index[value] = i
	return i
}

// Index returns the index of value without registering it.
func (p *Pool[T]) Index(value T) (int, bool) {
	i, ok := p.index[value]
	return i, ok
}

// Len returns the number of registered values.
func (p *Pool[T]) Len() int {
	return len(p.values)
}

// Values returns a copy of the registered values in index order.
func (p *Pool[T]) Values() []T {
	values := make([]T, len(p.values))
	copy(values, p.values)
	return values
}
