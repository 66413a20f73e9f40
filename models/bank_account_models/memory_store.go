package bank_account_models

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps one account per user in process.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]BankAccount
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: map[uuid.UUID]BankAccount{}}
}

func (m *MemoryStore) GetByUser(_ context.Context, userID uuid.UUID) (*BankAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[userID]
	if !ok {
		return nil, nil
	}
	return &acc, nil
}

func (m *MemoryStore) Upsert(_ context.Context, acc *BankAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if cur, ok := m.accounts[acc.UserID]; ok {
		acc.BankID = cur.BankID
		acc.CreatedAt = cur.CreatedAt
	} else {
		if acc.BankID == uuid.Nil {
			acc.BankID = uuid.New()
		}
		acc.CreatedAt = now
	}
	acc.UpdatedAt = now
	m.accounts[acc.UserID] = *acc
	return nil
}
