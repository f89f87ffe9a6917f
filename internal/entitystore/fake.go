package entitystore

import (
	"context"
	"sync"
)

// Fake is a deterministic in-memory Store for tests, grounded on
// RezaEskandarii-GoFire/client/test's mock conventions. No production
// adapter ships here — the real entity store is an external collaborator.
type Fake struct {
	mu      sync.Mutex
	records map[string][]Record
	err     error
}

func NewFake() *Fake {
	return &Fake{records: make(map[string][]Record)}
}

func (f *Fake) Seed(tenantID string, records ...Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[tenantID] = records
}

func (f *Fake) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *Fake) RecordsFor(ctx context.Context, tenantID string) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.records[tenantID], nil
}
