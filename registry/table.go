package registry

// Table is a typed view over one registry table.
type Table[T any] struct {
	registry *Registry
	name     string
}

// NewTable returns a typed view of the named table.
func NewTable[T any](r *Registry, name string) Table[T] {
	return Table[T]{registry: r, name: name}
}

// Insert registers value under label. It fails with ErrExists for a taken label.
func (t Table[T]) Insert(label string, value T) error {
	return t.registry.Insert(t.name, label, value)
}

// Get returns the value under label.
func (t Table[T]) Get(label string) (T, bool) {
	var zero T
	raw, ok := t.registry.Get(t.name, label)
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Delete removes label. It fails with ErrNotFound for an absent label.
func (t Table[T]) Delete(label string) (T, error) {
	var zero T
	raw, err := t.registry.Delete(t.name, label)
	if err != nil {
		return zero, err
	}
	v, _ := raw.(T)
	return v, nil
}

// Labels returns the registered labels in sorted order.
func (t Table[T]) Labels() []string {
	return t.registry.Labels(t.name)
}

// Clear removes every entry and returns the removed values.
func (t Table[T]) Clear() []T {
	raw := t.registry.Clear(t.name)
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		if v, ok := r.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
