package reference

import "context"

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	Prices Prices
	Saves  int
	// LoadErr, when set, is returned by Load.
	LoadErr error
	// SaveErr, when set, is returned by Save.
	SaveErr error
}

// NewMemoryStore creates a MemoryStore seeded with a copy of initial.
func NewMemoryStore(initial Prices) *MemoryStore {
	return &MemoryStore{Prices: initial.Clone()}
}

func (m *MemoryStore) Load(_ context.Context) (Prices, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.Prices.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, prices Prices) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saves++
	m.Prices = prices.Clone()
	return nil
}
