// Package journal provides in-memory tables with undo journaling. Stores built on
// these tables take part in a transaction: writes made between Begin and Commit are
// recorded and reverted in reverse order by Rollback, so a failed operation leaves
// no partial mutation behind.
package journal

import "sync"

// Journaled is implemented by anything that can take part in a transaction.
type Journaled interface {
	Begin()
	Commit()
	Rollback()
}

// Group drives several journaled participants as one transaction.
type Group []Journaled

func (g Group) Begin() {
	for _, j := range g {
		j.Begin()
	}
}

func (g Group) Commit() {
	for _, j := range g {
		j.Commit()
	}
}

func (g Group) Rollback() {
	for i := len(g) - 1; i >= 0; i-- {
		g[i].Rollback()
	}
}

type change[K comparable, V any] struct {
	key     K
	prev    V
	existed bool
}

// Table is a keyed map whose writes are journaled while a transaction is open.
// Values are stored by value; callers must not retain pointers into them.
type Table[K comparable, V any] struct {
	mu     sync.RWMutex
	rows   map[K]V
	undo   []change[K, V]
	active bool
}

func NewTable[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{rows: make(map[K]V)}
}

func (t *Table[K, V]) Get(key K) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[key]
	return v, ok
}

func (t *Table[K, V]) Has(key K) bool {
	_, ok := t.Get(key)
	return ok
}

func (t *Table[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Put inserts or replaces the value under key.
func (t *Table[K, V]) Put(key K, value V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(key)
	t.rows[key] = value
}

// Delete removes key. Deleting a missing key is a no-op.
func (t *Table[K, V]) Delete(key K) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[key]; !ok {
		return
	}
	t.record(key)
	delete(t.rows, key)
}

// Range calls fn for every row until fn returns false. Iteration order is
// unspecified; stores that expose ordered listings sort the result.
func (t *Table[K, V]) Range(fn func(K, V) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for k, v := range t.rows {
		if !fn(k, v) {
			return
		}
	}
}

// Reset replaces every row. Used when restoring from a snapshot; it is not
// journaled and must not be called inside a transaction.
func (t *Table[K, V]) Reset(rows map[K]V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = make(map[K]V, len(rows))
	for k, v := range rows {
		t.rows[k] = v
	}
	t.undo = nil
	t.active = false
}

func (t *Table[K, V]) Begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = true
	t.undo = t.undo[:0]
}

func (t *Table[K, V]) Commit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
	t.undo = t.undo[:0]
}

func (t *Table[K, V]) Rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		c := t.undo[i]
		if c.existed {
			t.rows[c.key] = c.prev
		} else {
			delete(t.rows, c.key)
		}
	}
	t.active = false
	t.undo = t.undo[:0]
}

func (t *Table[K, V]) record(key K) {
	if !t.active {
		return
	}
	prev, ok := t.rows[key]
	t.undo = append(t.undo, change[K, V]{key: key, prev: prev, existed: ok})
}

// Cell is a single journaled value.
type Cell[T any] struct {
	mu     sync.RWMutex
	value  T
	undo   []T
	active bool
}

func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

func (c *Cell[T]) Load() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

func (c *Cell[T]) Store(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		c.undo = append(c.undo, c.value)
	}
	c.value = v
}

func (c *Cell[T]) Begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = true
	c.undo = c.undo[:0]
}

func (c *Cell[T]) Commit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
	c.undo = c.undo[:0]
}

func (c *Cell[T]) Rollback() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.undo) > 0 {
		c.value = c.undo[0]
	}
	c.active = false
	c.undo = c.undo[:0]
}
