package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
	Role     string `json:"role" validate:"omitempty,oneof=admin member"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CreateAssetRequest struct {
	Name     string          `json:"name" validate:"required"`
	Type     AssetType       `json:"type" validate:"omitempty,oneof=cash bank stock crypto real_estate other"`
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency" validate:"omitempty,len=3,alpha"`
}

type UpdateAssetRequest struct {
	Name     *string          `json:"name,omitempty"`
	Type     *AssetType       `json:"type,omitempty" validate:"omitempty,oneof=cash bank stock crypto real_estate other"`
	Value    *decimal.Decimal `json:"value,omitempty"`
	Currency *string          `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
}

type CreateTransactionRequest struct {
	AssetID     string          `json:"asset_id" validate:"omitempty,uuid"`
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" validate:"omitempty,len=3,alpha"`
	Type        TransactionType `json:"type" validate:"required,oneof=income expense"`
	Category    string          `json:"category"`
	OccurredAt  *time.Time      `json:"occurred_at,omitempty"`
}

type UpdateTransactionRequest struct {
	Description *string          `json:"description,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Currency    *string          `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Type        *TransactionType `json:"type,omitempty" validate:"omitempty,oneof=income expense"`
	Category    *string          `json:"category,omitempty"`
	OccurredAt  *time.Time       `json:"occurred_at,omitempty"`
}

type ClassifyRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}

type UpdatePreferencesRequest struct {
	Currency string `json:"currency" validate:"omitempty,len=3,alpha"`
	Locale   string `json:"locale" validate:"omitempty,max=35"`
}

// DeletionActionRequest is what a websocket client sends from a toast.
type DeletionActionRequest struct {
	Action string       `json:"action"`
	Kind   DeletionKind `json:"kind"`
	ID     string       `json:"id"`
}
