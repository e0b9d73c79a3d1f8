package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verdantapp/backend/internal/model"
)

// MemoryStore implements the Store interface with in-memory storage. Used
// for local development and tests.
type MemoryStore struct {
	mu sync.RWMutex

	profiles     map[string]*model.Profile
	transactions map[string]map[string]*model.Transaction // userID -> txID -> tx
	insights     map[string]map[string]*model.Insight     // userID -> insightID -> insight
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:     make(map[string]*model.Profile),
		transactions: make(map[string]map[string]*model.Transaction),
		insights:     make(map[string]map[string]*model.Insight),
	}
}

func (m *MemoryStore) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *profile
	return &copied, nil
}

func (m *MemoryStore) UpdateProfile(ctx context.Context, userID string, patch model.ProfilePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile, ok := m.profiles[userID]
	if !ok {
		profile = &model.Profile{UID: userID}
		m.profiles[userID] = profile
	}
	if patch.DisplayName != nil {
		profile.DisplayName = *patch.DisplayName
	}
	if patch.Email != nil {
		profile.Email = *patch.Email
	}
	if patch.PhotoURL != nil {
		profile.PhotoURL = *patch.PhotoURL
	}
	if patch.Balance != nil {
		profile.Balance = *patch.Balance
	}
	if patch.Timezone != nil {
		profile.Timezone = *patch.Timezone
	}
	return nil
}

func (m *MemoryStore) CreateTransaction(ctx context.Context, userID string, tx *model.Transaction) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.transactions[userID] == nil {
		m.transactions[userID] = make(map[string]*model.Transaction)
	}

	created := *tx
	created.ID = uuid.New().String()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}
	m.transactions[userID][created.ID] = &created

	result := created
	return &result, nil
}

func (m *MemoryStore) GetTransaction(ctx context.Context, userID, transactionID string) (*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.transactions[userID][transactionID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *tx
	return &copied, nil
}

func (m *MemoryStore) UpdateTransaction(ctx context.Context, userID, transactionID string, patch TransactionPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.transactions[userID][transactionID]
	if !ok {
		return ErrNotFound
	}
	if patch.Description != nil {
		tx.Description = *patch.Description
	}
	if patch.Amount != nil {
		tx.Amount = *patch.Amount
	}
	if patch.Date != nil {
		tx.Date = *patch.Date
	}
	if patch.Category != nil {
		tx.Category = *patch.Category
	}
	return nil
}

func (m *MemoryStore) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transactions[userID][transactionID]; !ok {
		return ErrNotFound
	}
	delete(m.transactions[userID], transactionID)
	return nil
}

func (m *MemoryStore) ListTransactions(ctx context.Context, userID string, pageSize int32, pageToken string) ([]*model.Transaction, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*model.Transaction, 0, len(m.transactions[userID]))
	for _, tx := range m.transactions[userID] {
		copied := *tx
		all = append(all, &copied)
	}

	// Most recent first; equal dates tie-break on ID to keep cursors stable.
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		return all[i].ID < all[j].ID
	})

	startIdx := 0
	if pageToken != "" {
		cursorID, err := DecodePageToken(pageToken)
		if err != nil {
			return nil, "", err
		}
		for i, tx := range all {
			if tx.ID == cursorID {
				startIdx = i + 1
				break
			}
		}
	}
	all = all[startIdx:]

	var nextToken string
	if pageSize > 0 && int32(len(all)) > pageSize {
		all = all[:pageSize]
		nextToken = EncodePageToken(all[pageSize-1].ID)
	}

	return all, nextToken, nil
}

func (m *MemoryStore) CountTransactions(ctx context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transactions[userID]), nil
}

func (m *MemoryStore) CreateInsight(ctx context.Context, userID string, insight *model.Insight) (*model.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insights[userID] == nil {
		m.insights[userID] = make(map[string]*model.Insight)
	}

	created := *insight
	created.ID = uuid.New().String()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}
	m.insights[userID][created.ID] = &created

	result := created
	return &result, nil
}

func (m *MemoryStore) ListInsights(ctx context.Context, userID string) ([]*model.Insight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	insights := make([]*model.Insight, 0, len(m.insights[userID]))
	for _, in := range m.insights[userID] {
		copied := *in
		insights = append(insights, &copied)
	}

	sort.Slice(insights, func(i, j int) bool {
		if !insights[i].CreatedAt.Equal(insights[j].CreatedAt) {
			return insights[i].CreatedAt.After(insights[j].CreatedAt)
		}
		return insights[i].ID < insights[j].ID
	})

	return insights, nil
}

func (m *MemoryStore) DeleteInsight(ctx context.Context, userID, insightID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.insights[userID][insightID]; !ok {
		return ErrNotFound
	}
	delete(m.insights[userID], insightID)
	return nil
}
