package grid

import (
	"fmt"
	"sync"
)

// FieldEntry describes one registered side-centered field.
type FieldEntry struct {
	Name    string
	Context string
	Ghost   int
}

func (fe FieldEntry) Key() string { return fe.Name + "::" + fe.Context }

// FieldDatabase maps (name, context) pairs to the integer indices used to
// address patch data. It is shared by all ranks of a hierarchy.
type FieldDatabase struct {
	mu      sync.Mutex
	entries []FieldEntry
	byKey   map[string]int
}

func NewFieldDatabase() *FieldDatabase {
	return &FieldDatabase{byKey: make(map[string]int)}
}

// Register returns the index of (name, context), creating it with the given
// ghost width if it does not exist. An existing registration keeps its
// original ghost width.
func (db *FieldDatabase) Register(name, context string, ghost int) (idx int, created bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	fe := FieldEntry{Name: name, Context: context, Ghost: ghost}
	var ok bool
	if idx, ok = db.byKey[fe.Key()]; ok {
		return
	}
	idx = len(db.entries)
	db.entries = append(db.entries, fe)
	db.byKey[fe.Key()] = idx
	created = true
	return
}

func (db *FieldDatabase) Lookup(name, context string) (idx int, ok bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	idx, ok = db.byKey[FieldEntry{Name: name, Context: context}.Key()]
	return
}

func (db *FieldDatabase) Entry(idx int) FieldEntry {
	db.mu.Lock()
	defer db.mu.Unlock()
	if idx < 0 || idx >= len(db.entries) {
		panic(fmt.Errorf("field index %d is not registered", idx))
	}
	return db.entries[idx]
}

func (db *FieldDatabase) Ghost(idx int) int { return db.Entry(idx).Ghost }

func (db *FieldDatabase) Len() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.entries)
}
