package constant

// Manager deduplicates constant values by structure.
type Manager struct {
	values []Value
	index  map[string]int
}

// NewManager creates an empty constant manager.
func NewManager() *Manager {
	return &Manager{index: make(map[string]int)}
}

// Get returns the canonical instance of v.
func (m *Manager) Get(v Value) Value {
	k := Key(v)

	if i, ok := m.index[k]; ok {
		return m.values[i]
	}

	m.index[k] = len(m.values)
	m.values = append(m.values, v)

	return v
}

// All returns the interned values in registration order.
func (m *Manager) All() []Value { return m.values }

// Count returns the number of interned values.
func (m *Manager) Count() int { return len(m.values) }
