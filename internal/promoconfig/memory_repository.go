package promoconfig

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository used by tests and by the
// default "memory" backend for local development. Unlike the Mongo and
// Postgres repositories, Get never returns ErrNotFound: it lazily seeds
// itself with Default() (or whatever SeedDefault overrides it with) on
// first call, so the memory backend is always immediately usable. One
// consequence: SeedIfEmpty's YAML seed never applies against a memory
// repository, since Get() already succeeds before SeedIfEmpty runs.
type MemoryRepository struct {
	mu      sync.Mutex
	cfg     *PromoConfig
	audit   []AuditRecord
	seeded  func() PromoConfig
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{seeded: Default}
}

// SeedDefault overrides the value returned the first time Get is called
// with no document saved yet.
func (r *MemoryRepository) SeedDefault(fn func() PromoConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seeded = fn
}

func (r *MemoryRepository) Get(_ context.Context) (PromoConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg == nil {
		cfg := r.seeded()
		r.cfg = &cfg
	}
	return *r.cfg, nil
}

func (r *MemoryRepository) Save(_ context.Context, cfg PromoConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cfg = &cfg
	return nil
}

func (r *MemoryRepository) AppendAudit(_ context.Context, rec AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	r.audit = append(r.audit, rec)
	return nil
}

func (r *MemoryRepository) ListAudit(_ context.Context) ([]AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]AuditRecord, len(r.audit))
	for i, rec := range r.audit {
		out[len(r.audit)-1-i] = rec
	}
	return out, nil
}

func (r *MemoryRepository) Close() error { return nil }
