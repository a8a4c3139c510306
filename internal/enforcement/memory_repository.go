package enforcement

import (
	"context"
	"sync"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	records []BlockedCredentials
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Create(_ context.Context, rec BlockedCredentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *MemoryRepository) ExistsByNINOrEmailOrPhone(_ context.Context, nin, email, phone string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if nin != "" && rec.NIN == nin {
			return true, nil
		}
		if email != "" && rec.Email == email {
			return true, nil
		}
		if phone != "" && rec.PhoneNumber == phone {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) Close() error { return nil }
