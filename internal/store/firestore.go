package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/verdantapp/backend/internal/model"
)

// FirestoreStore implements the Store interface using Firestore.
//
// Writes are per-document only. There is deliberately no cross-document
// transaction here: the ledger's two-step balance protocol is specified as
// independent writes, and its failure modes are part of the contract.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) Store {
	return &FirestoreStore{
		client: client,
	}
}

func (s *FirestoreStore) userDoc(userID string) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(userID)
}

func (s *FirestoreStore) transactions(userID string) *firestore.CollectionRef {
	return s.userDoc(userID).Collection("transactions")
}

func (s *FirestoreStore) insights(userID string) *firestore.CollectionRef {
	return s.userDoc(userID).Collection("insights")
}

// GetProfile retrieves a user profile. Returns ErrNotFound if the user has
// never had a profile write.
func (s *FirestoreStore) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	doc, err := s.userDoc(userID).Get(ctx)
	if err != nil {
		if doc != nil && !doc.Exists() {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var profile model.Profile
	if err := doc.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	profile.UID = userID
	return &profile, nil
}

// UpdateProfile merge-writes the non-nil patch fields, creating the profile
// document on first write.
func (s *FirestoreStore) UpdateProfile(ctx context.Context, userID string, patch model.ProfilePatch) error {
	data := map[string]interface{}{}
	if patch.DisplayName != nil {
		data["displayName"] = *patch.DisplayName
	}
	if patch.Email != nil {
		data["email"] = *patch.Email
	}
	if patch.PhotoURL != nil {
		data["photoURL"] = *patch.PhotoURL
	}
	if patch.Balance != nil {
		data["balance"] = *patch.Balance
	}
	if patch.Timezone != nil {
		data["timezone"] = *patch.Timezone
	}
	if len(data) == 0 {
		return nil
	}

	_, err := s.userDoc(userID).Set(ctx, data, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// CreateTransaction writes a new transaction document with an auto-assigned ID.
func (s *FirestoreStore) CreateTransaction(ctx context.Context, userID string, tx *model.Transaction) (*model.Transaction, error) {
	ref, _, err := s.transactions(userID).Add(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	created := *tx
	created.ID = ref.ID
	return &created, nil
}

// GetTransaction retrieves one transaction by ID.
func (s *FirestoreStore) GetTransaction(ctx context.Context, userID, transactionID string) (*model.Transaction, error) {
	doc, err := s.transactions(userID).Doc(transactionID).Get(ctx)
	if err != nil {
		if doc != nil && !doc.Exists() {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	var tx model.Transaction
	if err := doc.DataTo(&tx); err != nil {
		return nil, fmt.Errorf("failed to parse transaction: %w", err)
	}
	tx.ID = doc.Ref.ID
	return &tx, nil
}

// UpdateTransaction applies the non-nil patch fields to an existing
// transaction document.
func (s *FirestoreStore) UpdateTransaction(ctx context.Context, userID, transactionID string, patch TransactionPatch) error {
	var updates []firestore.Update
	if patch.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *patch.Description})
	}
	if patch.Amount != nil {
		updates = append(updates, firestore.Update{Path: "amount", Value: *patch.Amount})
	}
	if patch.Date != nil {
		updates = append(updates, firestore.Update{Path: "date", Value: *patch.Date})
	}
	if patch.Category != nil {
		updates = append(updates, firestore.Update{Path: "category", Value: *patch.Category})
	}
	if len(updates) == 0 {
		return nil
	}

	_, err := s.transactions(userID).Doc(transactionID).Update(ctx, updates)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// DeleteTransaction deletes one transaction document.
func (s *FirestoreStore) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	_, err := s.transactions(userID).Doc(transactionID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// ListTransactions lists transactions most recent first. Equal dates are
// tie-broken on document ID so cursors stay stable across pages.
func (s *FirestoreStore) ListTransactions(ctx context.Context, userID string, pageSize int32, pageToken string) ([]*model.Transaction, string, error) {
	query := s.transactions(userID).
		OrderBy("date", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Asc)

	if pageToken != "" {
		docID, err := DecodePageToken(pageToken)
		if err != nil {
			return nil, "", fmt.Errorf("invalid page token: %w", err)
		}
		// Fetch the cursor document to get its date value for the
		// composite StartAfter.
		cursorDoc, err := s.transactions(userID).Doc(docID).Get(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("failed to fetch cursor document: %w", err)
		}
		query = query.StartAfter(cursorDoc.Data()["date"], docID)
	}

	if pageSize > 0 {
		query = query.Limit(int(pageSize) + 1) // +1 to detect next page
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list transactions: %w", err)
	}

	var nextPageToken string
	if pageSize > 0 && len(docs) > int(pageSize) {
		docs = docs[:pageSize]
		nextPageToken = EncodePageToken(docs[pageSize-1].Ref.ID)
	}

	transactions := make([]*model.Transaction, 0, len(docs))
	for _, doc := range docs {
		var tx model.Transaction
		if err := doc.DataTo(&tx); err != nil {
			return nil, "", fmt.Errorf("failed to parse transaction: %w", err)
		}
		tx.ID = doc.Ref.ID
		transactions = append(transactions, &tx)
	}

	return transactions, nextPageToken, nil
}

// CountTransactions returns the number of stored transactions for a user.
func (s *FirestoreStore) CountTransactions(ctx context.Context, userID string) (int, error) {
	// Key-only query: document contents are not needed for the count.
	docs, err := s.transactions(userID).Select().Documents(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return len(docs), nil
}

// CreateInsight writes a new insight document with an auto-assigned ID.
func (s *FirestoreStore) CreateInsight(ctx context.Context, userID string, insight *model.Insight) (*model.Insight, error) {
	ref, _, err := s.insights(userID).Add(ctx, insight)
	if err != nil {
		return nil, fmt.Errorf("failed to create insight: %w", err)
	}
	created := *insight
	created.ID = ref.ID
	return &created, nil
}

// ListInsights lists insights newest first.
func (s *FirestoreStore) ListInsights(ctx context.Context, userID string) ([]*model.Insight, error) {
	docs, err := s.insights(userID).OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}

	insights := make([]*model.Insight, 0, len(docs))
	for _, doc := range docs {
		var in model.Insight
		if err := doc.DataTo(&in); err != nil {
			return nil, fmt.Errorf("failed to parse insight: %w", err)
		}
		in.ID = doc.Ref.ID
		insights = append(insights, &in)
	}

	return insights, nil
}

// DeleteInsight deletes one insight document.
func (s *FirestoreStore) DeleteInsight(ctx context.Context, userID, insightID string) error {
	_, err := s.insights(userID).Doc(insightID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete insight: %w", err)
	}
	return nil
}
