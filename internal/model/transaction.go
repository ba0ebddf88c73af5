package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// CategorySuggested is set on the response that filled Category from the
// classifier; it is not stored.
type Transaction struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	AssetID           string          `json:"asset_id,omitempty"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	FormattedAmount   string          `json:"formatted_amount,omitempty"`
	Type              TransactionType `json:"type"`
	Category          string          `json:"category,omitempty"`
	CategorySuggested bool            `json:"category_suggested,omitempty"`
	OccurredAt        time.Time       `json:"occurred_at"`
	SoftDeleted       bool            `json:"soft_deleted"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Signed returns the amount with expenses negated.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TransactionExpense {
		return t.Amount.Abs().Neg()
	}
	return t.Amount.Abs()
}

type TransactionQuery struct {
	UserID         string
	AssetID        string
	Type           TransactionType
	From           *time.Time
	To             *time.Time
	IncludeDeleted bool
	Page           int
	Limit          int
}
