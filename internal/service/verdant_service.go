package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"

	"github.com/verdantapp/backend/internal/auth"
	"github.com/verdantapp/backend/internal/avatar"
	"github.com/verdantapp/backend/internal/insights"
	"github.com/verdantapp/backend/internal/ledger"
	"github.com/verdantapp/backend/internal/model"
	"github.com/verdantapp/backend/internal/store"
)

// Assistant is the slice of the AI client the service depends on.
type Assistant interface {
	Categorize(ctx context.Context, details string) (*model.CategorizedTransaction, error)
	BulkCategorize(ctx context.Context, bulkText string) ([]*model.CategorizedTransaction, error)
	Ask(ctx context.Context, question string, txns []*model.Transaction, insights []*model.Insight) (string, error)
}

// Cadence gates insight generation.
type Cadence interface {
	Evaluate(ctx context.Context, userID string) (*insights.Result, error)
}

// VerdantService implements the RPC surface of the app: transaction entry
// (manual, AI-parsed, bulk), profile management, insights and Q&A.
type VerdantService struct {
	store     store.Store
	ledger    *ledger.Reconciler
	cadence   Cadence
	assistant Assistant
	avatars   avatar.Store
	log       zerolog.Logger
}

func NewVerdantService(s store.Store, rec *ledger.Reconciler, cadence Cadence, assistant Assistant, avatars avatar.Store, log zerolog.Logger) *VerdantService {
	return &VerdantService{
		store:     s,
		ledger:    rec,
		cadence:   cadence,
		assistant: assistant,
		avatars:   avatars,
		log:       log.With().Str("component", "service").Logger(),
	}
}

// CategorizeTransaction parses a natural language description into a
// structured transaction and applies it to the ledger in one step.
func (s *VerdantService) CategorizeTransaction(ctx context.Context, req *connect.Request[CategorizeTransactionRequest]) (*connect.Response[CategorizeTransactionResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if len(req.Msg.TransactionDetails) < 5 {
		return nil, invalidArgument("Please provide more details about the transaction.")
	}

	categorized, err := s.assistant.Categorize(ctx, req.Msg.TransactionDetails)
	if err != nil {
		return nil, rpcError(err)
	}

	result, err := s.ledger.ApplyCategorized(ctx, claims.UID, categorized)
	if err != nil {
		return nil, rpcError(err)
	}

	return connect.NewResponse(&CategorizeTransactionResponse{
		Success:     true,
		Message:     result.Message,
		Categorized: categorized,
		Transaction: result.Transaction,
		NewBalance:  result.NewBalance,
	}), nil
}

// AddTransaction records a manually entered expense.
func (s *VerdantService) AddTransaction(ctx context.Context, req *connect.Request[AddTransactionRequest]) (*connect.Response[AddTransactionResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	date, err := ledger.ParseDate(req.Msg.Date)
	if err != nil {
		return nil, invalidArgument("Date is required.")
	}

	result, err := s.ledger.ApplyManual(ctx, claims.UID, req.Msg.Description, req.Msg.Amount, date, req.Msg.Category)
	if err != nil {
		return nil, rpcError(err)
	}

	return connect.NewResponse(&AddTransactionResponse{
		Success:     true,
		Message:     "Transaction added successfully.",
		Transaction: result.Transaction,
		NewBalance:  result.NewBalance,
	}), nil
}

// UpdateTransaction edits a transaction record. The cached balance is not
// recomputed for edits.
func (s *VerdantService) UpdateTransaction(ctx context.Context, req *connect.Request[UpdateTransactionRequest]) (*connect.Response[UpdateTransactionResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.TransactionID == "" {
		return nil, invalidArgument("Invalid transaction data.")
	}

	patch := store.TransactionPatch{
		Description: req.Msg.Description,
		Amount:      req.Msg.Amount,
		Category:    req.Msg.Category,
	}
	if req.Msg.Date != nil {
		date, err := ledger.ParseDate(*req.Msg.Date)
		if err != nil {
			return nil, invalidArgument("Invalid transaction data.")
		}
		patch.Date = &date
	}

	if err := s.ledger.ApplyEdit(ctx, claims.UID, req.Msg.TransactionID, patch); err != nil {
		return nil, rpcError(err)
	}

	return connect.NewResponse(&UpdateTransactionResponse{
		Success: true,
		Message: "Transaction updated successfully.",
	}), nil
}

// DeleteTransaction removes a transaction record. The cached balance is not
// adjusted for deletes.
func (s *VerdantService) DeleteTransaction(ctx context.Context, req *connect.Request[DeleteTransactionRequest]) (*connect.Response[DeleteTransactionResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.TransactionID == "" {
		return nil, invalidArgument("Invalid user or transaction ID.")
	}

	if err := s.ledger.ApplyDelete(ctx, claims.UID, req.Msg.TransactionID); err != nil {
		return nil, rpcError(err)
	}

	return connect.NewResponse(&DeleteTransactionResponse{
		Success: true,
		Message: "Transaction deleted.",
	}), nil
}

// ListTransactions returns the user's transactions newest first. A page
// size of zero returns the full history.
func (s *VerdantService) ListTransactions(ctx context.Context, req *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	txns, nextToken, err := s.store.ListTransactions(ctx, claims.UID, auth.NormalizePageSize(req.Msg.PageSize), req.Msg.PageToken)
	if err != nil {
		return nil, rpcError(fmt.Errorf("list transactions: %w", err))
	}

	return connect.NewResponse(&ListTransactionsResponse{
		Transactions:  txns,
		NextPageToken: nextToken,
	}), nil
}

// GetProfile returns the user's profile. A user who has never written a
// profile gets an empty one with a zero balance.
func (s *VerdantService) GetProfile(ctx context.Context, req *connect.Request[GetProfileRequest]) (*connect.Response[GetProfileResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.store.GetProfile(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return connect.NewResponse(&GetProfileResponse{
				Profile: &model.Profile{UID: claims.UID},
			}), nil
		}
		return nil, rpcError(fmt.Errorf("get profile: %w", err))
	}

	return connect.NewResponse(&GetProfileResponse{Profile: profile}), nil
}

// UpdateProfile merge-updates display name, photo, balance and timezone.
// Photo uploads arrive as data URLs and are offloaded to the avatar store.
func (s *VerdantService) UpdateProfile(ctx context.Context, req *connect.Request[UpdateProfileRequest]) (*connect.Response[UpdateProfileResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.DisplayName != nil && len(*req.Msg.DisplayName) < 2 {
		return nil, invalidArgument("Name must be at least 2 characters.")
	}

	patch := model.ProfilePatch{
		DisplayName: req.Msg.DisplayName,
		Balance:     req.Msg.Balance,
		Timezone:    req.Msg.Timezone,
	}
	if req.Msg.PhotoDataURL != nil && *req.Msg.PhotoDataURL != "" {
		photoURL, err := s.avatars.Save(ctx, claims.UID, *req.Msg.PhotoDataURL)
		if err != nil {
			return nil, invalidArgument("Invalid data provided.")
		}
		patch.PhotoURL = &photoURL
	}

	if err := s.store.UpdateProfile(ctx, claims.UID, patch); err != nil {
		return nil, rpcError(fmt.Errorf("update profile: %w", err))
	}

	profile, err := s.store.GetProfile(ctx, claims.UID)
	if err != nil {
		return nil, rpcError(fmt.Errorf("reload profile: %w", err))
	}

	return connect.NewResponse(&UpdateProfileResponse{
		Success: true,
		Message: "Profile updated successfully.",
		Profile: profile,
	}), nil
}

// BulkCategorize parses a free-form text blob into proposed transactions
// for the user to review before importing.
func (s *VerdantService) BulkCategorize(ctx context.Context, req *connect.Request[BulkCategorizeRequest]) (*connect.Response[BulkCategorizeResponse], error) {
	if _, err := auth.RequireAuth(ctx); err != nil {
		return nil, err
	}
	if len(req.Msg.BulkText) < 10 {
		return nil, invalidArgument("Please provide more text to analyze.")
	}

	parsed, err := s.assistant.BulkCategorize(ctx, req.Msg.BulkText)
	if err != nil {
		return nil, rpcError(err)
	}

	return connect.NewResponse(&BulkCategorizeResponse{
		Success:      true,
		Transactions: parsed,
	}), nil
}

// BulkAddTransactions imports previously reviewed transactions in one
// sequential pass and settles the balance once at the end.
func (s *VerdantService) BulkAddTransactions(ctx context.Context, req *connect.Request[BulkAddTransactionsRequest]) (*connect.Response[BulkAddTransactionsResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if len(req.Msg.Transactions) == 0 {
		return nil, invalidArgument("Invalid data provided.")
	}

	result, err := s.ledger.ApplyBulkImport(ctx, claims.UID, req.Msg.Transactions)
	if err != nil {
		return nil, rpcError(err)
	}

	return connect.NewResponse(&BulkAddTransactionsResponse{
		Success:    true,
		Message:    result.Message,
		Added:      result.Added,
		NewBalance: result.NewBalance,
	}), nil
}

// GetInsights runs the cadence controller and returns the insights to show.
func (s *VerdantService) GetInsights(ctx context.Context, req *connect.Request[GetInsightsRequest]) (*connect.Response[GetInsightsResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.cadence.Evaluate(ctx, claims.UID)
	if err != nil {
		return nil, rpcError(err)
	}

	return connect.NewResponse(&GetInsightsResponse{
		Insights:  result.Insights,
		Generated: result.Generated,
	}), nil
}

// Ask answers a free-form question over the user's transaction and insight
// history.
func (s *VerdantService) Ask(ctx context.Context, req *connect.Request[AskRequest]) (*connect.Response[AskResponse], error) {
	claims, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.Question == "" {
		return nil, invalidArgument("Please ask a question.")
	}

	txns, _, err := s.store.ListTransactions(ctx, claims.UID, 0, "")
	if err != nil {
		return nil, rpcError(fmt.Errorf("list transactions: %w", err))
	}
	history, err := s.store.ListInsights(ctx, claims.UID)
	if err != nil {
		return nil, rpcError(fmt.Errorf("list insights: %w", err))
	}

	answer, err := s.assistant.Ask(ctx, req.Msg.Question, txns, history)
	if err != nil {
		return nil, rpcError(err)
	}

	return connect.NewResponse(&AskResponse{Answer: answer}), nil
}
