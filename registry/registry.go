package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-memdb"
)

var (
	// ErrExists is returned when the label is already registered.
	ErrExists = errors.New("label already registered")

	// ErrNotFound is returned when the label is not registered.
	ErrNotFound = errors.New("label not registered")
)

// Registry is a memory-backed store of label-keyed tables.
type Registry struct {
	db *memdb.MemDB
}

// New creates an empty Registry.
func New() *Registry {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		panic(err)
	}
	return &Registry{db: db}
}

// Insert registers value under label if the label is free.
func (r *Registry) Insert(tbl, label string, value any) error {
	txn := r.db.Txn(true)
	defer txn.Abort()
	existing, err := txn.First(tbl, idxLabel, key(label))
	if err != nil {
		return fmt.Errorf("find %s by label: %w", tbl, err)
	}
	if existing != nil {
		return fmt.Errorf("%s: %w", label, ErrExists)
	}
	if err := txn.Insert(tbl, &entry{Key: key(label), Label: label, Value: value}); err != nil {
		return fmt.Errorf("insert %s: %w", tbl, err)
	}
	txn.Commit()
	return nil
}

// Get returns the value registered under label.
func (r *Registry) Get(tbl, label string) (any, bool) {
	txn := r.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(tbl, idxLabel, key(label))
	if err != nil || raw == nil {
		return nil, false
	}
	return raw.(*entry).Value, true
}

// Delete removes label and returns the value it held.
func (r *Registry) Delete(tbl, label string) (any, error) {
	txn := r.db.Txn(true)
	defer txn.Abort()
	raw, err := txn.First(tbl, idxLabel, key(label))
	if err != nil {
		return nil, fmt.Errorf("find %s by label: %w", tbl, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%s: %w", label, ErrNotFound)
	}
	if err := txn.Delete(tbl, raw); err != nil {
		return nil, fmt.Errorf("delete %s: %w", tbl, err)
	}
	txn.Commit()
	return raw.(*entry).Value, nil
}

// Labels returns the registered labels of tbl in sorted order.
func (r *Registry) Labels(tbl string) []string {
	entries := r.entries(tbl)
	labels := make([]string, 0, len(entries))
	for _, e := range entries {
		labels = append(labels, e.Label)
	}
	sort.Strings(labels)
	return labels
}

// Clear empties tbl and returns the values it held.
func (r *Registry) Clear(tbl string) []any {
	txn := r.db.Txn(true)
	defer txn.Abort()
	it, err := txn.Get(tbl, idxLabel)
	if err != nil {
		return nil
	}
	var values []any
	for raw := it.Next(); raw != nil; raw = it.Next() {
		values = append(values, raw.(*entry).Value)
	}
	if _, err := txn.DeleteAll(tbl, idxLabel); err != nil {
		return nil
	}
	txn.Commit()
	return values
}

func (r *Registry) entries(tbl string) []*entry {
	txn := r.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(tbl, idxLabel)
	if err != nil {
		return nil
	}
	var out []*entry
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*entry))
	}
	return out
}
