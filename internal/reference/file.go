package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

// FileStore keeps the mapping in a single JSON file of the form
// {"NVDA_reference": 181.5, ...}. Saves overwrite the file in place.
type FileStore struct {
	Path string
}

// NewFileStore creates a FileStore backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the mapping. Returns an empty mapping if the file doesn't exist.
func (s *FileStore) Load(_ context.Context) (Prices, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Prices{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}

	var raw map[string]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.Path, err)
	}

	prices := make(Prices, len(raw))
	for key, num := range raw {
		ticker, ok := TickerFromKey(key)
		if !ok {
			log.Printf("[WARN] ignoring reference key %q in %s", key, s.Path)
			continue
		}
		price, err := decimal.NewFromString(num.String())
		if err != nil || !price.IsPositive() {
			return nil, fmt.Errorf("%w: %s: bad price %q for %s", ErrCorrupt, s.Path, num, key)
		}
		prices[ticker] = price
	}
	return prices, nil
}

// Save writes the full mapping to the file.
func (s *FileStore) Save(_ context.Context, prices Prices) error {
	raw := make(map[string]json.Number, len(prices))
	for ticker, price := range prices {
		raw[Key(ticker)] = json.Number(price.String())
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return os.WriteFile(s.Path, data, 0644)
}
