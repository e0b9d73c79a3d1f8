// Package model defines the domain types shared by the store, ledger and
// service layers. Timestamps are time.Time in memory and Firestore, and
// ISO-8601 strings at the JSON boundary.
package model

import "time"

// Transaction is a single persisted expense (or bulk-imported income) line
// item. Amounts are stored as positive magnitudes; whether money came in or
// went out is decided at categorization time, not by the sign.
type Transaction struct {
	ID          string    `json:"id" firestore:"-"`
	Date        time.Time `json:"date" firestore:"date"`
	Description string    `json:"description" firestore:"description"`
	Amount      float64   `json:"amount" firestore:"amount"`
	Category    string    `json:"category" firestore:"category"`
	CreatedAt   time.Time `json:"createdAt,omitempty" firestore:"createdAt,serverTimestamp"`
}

// Profile is the per-user record holding display metadata and the cached
// running balance. The balance is a derived value maintained incrementally
// by the ledger; it is never recomputed from the transaction set.
type Profile struct {
	UID         string  `json:"uid" firestore:"-"`
	DisplayName string  `json:"displayName,omitempty" firestore:"displayName"`
	Email       string  `json:"email,omitempty" firestore:"email"`
	PhotoURL    string  `json:"photoURL,omitempty" firestore:"photoURL"`
	Balance     float64 `json:"balance" firestore:"balance"`
	// Timezone is an IANA identifier such as "Asia/Kolkata". It drives the
	// insight cadence day boundary.
	Timezone string `json:"timezone,omitempty" firestore:"timezone"`
}

// ProfilePatch is a partial profile update. Nil fields are left untouched;
// the store applies it as a merge write so a patch also creates the profile
// document on first use.
type ProfilePatch struct {
	DisplayName *string
	Email       *string
	PhotoURL    *string
	Balance     *float64
	Timezone    *string
}

// Insight is an AI-generated spending analysis. Immutable once created.
// CreatedAt is assigned by the store on create; the cadence day-boundary
// check and the newest-first listing both depend on it being set.
type Insight struct {
	ID               string    `json:"id" firestore:"-"`
	CreatedAt        time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	Summary          string    `json:"summary" firestore:"summary"`
	DetailedAnalysis string    `json:"detailedAnalysis" firestore:"detailedAnalysis"`
}

// CategorizedTransaction is the structured guess returned by the
// categorization service for one parsed transaction. Date is kept as the
// ISO string the model produced; the ledger parses and validates it.
type CategorizedTransaction struct {
	IsIncome    bool    `json:"isIncome"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}
