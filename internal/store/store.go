package store

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/verdantapp/backend/internal/model"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=store

// ErrNotFound is returned when a requested document does not exist. Callers
// that treat an absent profile as "balance 0" rely on this sentinel.
var ErrNotFound = errors.New("not found")

// TransactionPatch is a partial transaction update. Nil fields are left
// untouched.
type TransactionPatch struct {
	Description *string
	Amount      *float64
	Date        *time.Time
	Category    *string
}

// Store defines the interface for all database operations used by the
// service. Documents live under users/{userId} with transactions and
// insights as subcollections.
type Store interface {
	// Profile operations. UpdateProfile is a merge write: it creates the
	// profile document if absent and only touches non-nil patch fields.
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, userID string, patch model.ProfilePatch) error

	// Transaction operations. CreateTransaction assigns the ID.
	CreateTransaction(ctx context.Context, userID string, tx *model.Transaction) (*model.Transaction, error)
	GetTransaction(ctx context.Context, userID, transactionID string) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, transactionID string, patch TransactionPatch) error
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
	// ListTransactions returns transactions in descending occurrence-date
	// order. pageSize <= 0 returns the full history with an empty token.
	ListTransactions(ctx context.Context, userID string, pageSize int32, pageToken string) ([]*model.Transaction, string, error)
	CountTransactions(ctx context.Context, userID string) (int, error)

	// Insight operations. CreateInsight stamps CreatedAt with the write
	// time when the caller leaves it zero. ListInsights returns newest
	// first; the set is bounded (retention 7) so it is never paginated.
	CreateInsight(ctx context.Context, userID string, insight *model.Insight) (*model.Insight, error)
	ListInsights(ctx context.Context, userID string) ([]*model.Insight, error)
	DeleteInsight(ctx context.Context, userID, insightID string) error
}

// EncodePageToken encodes a document ID into a page token.
func EncodePageToken(docID string) string {
	if docID == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(docID))
}

// DecodePageToken decodes a page token back to a document ID.
func DecodePageToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
