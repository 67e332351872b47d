package keys

import (
	"bytes"
	"context"
	"sync"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]models.KeyPairRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]models.KeyPairRecord)}
}

func (r *MemoryRepository) Get(_ context.Context, userID string) (*models.KeyPairRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(rec), nil
}

func (r *MemoryRepository) PutIfAbsent(_ context.Context, rec *models.KeyPairRecord) (*models.KeyPairRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[rec.UserID]; ok {
		return clone(existing), false, nil
	}
	r.records[rec.UserID] = *clone(*rec)
	return clone(*rec), true, nil
}

// Len reports how many records are stored.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func clone(rec models.KeyPairRecord) *models.KeyPairRecord {
	rec.PublicKey = bytes.Clone(rec.PublicKey)
	rec.PrivateKeyEncrypted = bytes.Clone(rec.PrivateKeyEncrypted)
	return &rec
}
