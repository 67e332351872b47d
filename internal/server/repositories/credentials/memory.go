package credentials

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

// MemoryRepository keeps credentials in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]models.Credential
	userIDs map[string]struct{}
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byEmail: make(map[string]models.Credential),
		userIDs: make(map[string]struct{}),
	}
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (r *MemoryRepository) Create(_ context.Context, c *models.Credential) error {
	email := NormalizeEmail(c.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[email]; ok {
		return common.ErrorAlreadyExists
	}
	if _, ok := r.userIDs[c.UserID]; ok {
		return common.ErrorAlreadyExists
	}

	stored := *c
	stored.Email = email
	r.byEmail[email] = stored
	r.userIDs[c.UserID] = struct{}{}
	return nil
}
