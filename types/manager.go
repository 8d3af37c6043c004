package types

// Manager interns the types a module uses and remembers the order they were
// first requested in. Backends that must declare every type once walk
// Manager.All.
type Manager struct {
	types []Type
	index map[Type]int
}

// NewManager creates an empty type manager.
func NewManager() *Manager {
	return &Manager{
		types: make([]Type, 0, 16),
		index: make(map[Type]int, 16),
	}
}

// Get returns the canonical instance of t, registering t and every type it
// is built from.
func (m *Manager) Get(t Type) Type {
	if t == nil {
		return nil
	}

	if i, ok := m.index[t]; ok {
		return m.types[i]
	}

	switch t := t.(type) {
	case Vector:
		m.Get(t.Elem)
	case Matrix:
		m.Get(t.Column())
	case Array:
		m.Get(t.Elem)
	case *Struct:
		for _, mem := range t.Members {
			m.Get(mem.Type)
		}
	case Pointer:
		m.Get(t.Elem)
	}

	m.index[t] = len(m.types)
	m.types = append(m.types, t)

	return t
}

// Has reports whether t was registered.
func (m *Manager) Has(t Type) bool {
	_, ok := m.index[t]
	return ok
}

// All returns registered types in registration order. Dependencies come
// before the types built from them.
func (m *Manager) All() []Type { return m.types }

// Count returns the number of registered types.
func (m *Manager) Count() int { return len(m.types) }

// Structs returns the registered struct types in order.
func (m *Manager) Structs() []*Struct {
	var res []*Struct

	for _, t := range m.types {
		if s, ok := t.(*Struct); ok {
			res = append(res, s)
		}
	}

	return res
}
