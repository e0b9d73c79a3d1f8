package service

import "github.com/verdantapp/backend/internal/model"

// Request and response shapes for the VerdantService procedures. These are
// plain JSON types; the wire format is the Connect protocol with the JSON
// codec.

type CategorizeTransactionRequest struct {
	TransactionDetails string `json:"transactionDetails"`
}

type CategorizeTransactionResponse struct {
	Success     bool                          `json:"success"`
	Message     string                        `json:"message"`
	Categorized *model.CategorizedTransaction `json:"categorized,omitempty"`
	Transaction *model.Transaction            `json:"transaction,omitempty"`
	NewBalance  float64                       `json:"newBalance"`
}

type AddTransactionRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
}

type AddTransactionResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	Transaction *model.Transaction `json:"transaction,omitempty"`
	NewBalance  float64            `json:"newBalance"`
}

type UpdateTransactionRequest struct {
	TransactionID string   `json:"transactionId"`
	Description   *string  `json:"description,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	Date          *string  `json:"date,omitempty"`
	Category      *string  `json:"category,omitempty"`
}

type UpdateTransactionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type DeleteTransactionRequest struct {
	TransactionID string `json:"transactionId"`
}

type DeleteTransactionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ListTransactionsRequest struct {
	PageSize  int32  `json:"pageSize"`
	PageToken string `json:"pageToken"`
}

type ListTransactionsResponse struct {
	Transactions  []*model.Transaction `json:"transactions"`
	NextPageToken string               `json:"nextPageToken,omitempty"`
}

type GetProfileRequest struct{}

type GetProfileResponse struct {
	Profile *model.Profile `json:"profile"`
}

type UpdateProfileRequest struct {
	DisplayName  *string  `json:"displayName,omitempty"`
	PhotoDataURL *string  `json:"photoDataUrl,omitempty"`
	Balance      *float64 `json:"balance,omitempty"`
	Timezone     *string  `json:"timezone,omitempty"`
}

type UpdateProfileResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Profile *model.Profile `json:"profile,omitempty"`
}

type BulkCategorizeRequest struct {
	BulkText string `json:"bulkText"`
}

type BulkCategorizeResponse struct {
	Success      bool                            `json:"success"`
	Message      string                          `json:"message"`
	Transactions []*model.CategorizedTransaction `json:"transactions"`
}

type BulkAddTransactionsRequest struct {
	Transactions []*model.CategorizedTransaction `json:"transactions"`
}

type BulkAddTransactionsResponse struct {
	Success    bool    `json:"success"`
	Message    string  `json:"message"`
	Added      int     `json:"added"`
	NewBalance float64 `json:"newBalance"`
}

type GetInsightsRequest struct{}

type GetInsightsResponse struct {
	Insights  []*model.Insight `json:"insights"`
	Generated bool             `json:"generated"`
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}
