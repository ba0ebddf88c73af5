package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type AssetType string

const (
	AssetTypeCash       AssetType = "cash"
	AssetTypeBank       AssetType = "bank"
	AssetTypeStock      AssetType = "stock"
	AssetTypeCrypto     AssetType = "crypto"
	AssetTypeRealEstate AssetType = "real_estate"
	AssetTypeOther      AssetType = "other"
)

func (t AssetType) Valid() bool {
	switch t {
	case AssetTypeCash, AssetTypeBank, AssetTypeStock, AssetTypeCrypto, AssetTypeRealEstate, AssetTypeOther:
		return true
	}
	return false
}

// Asset is a tracked holding. SoftDeleted hides it from listings while a
// deletion countdown is running or after a failed permanent delete.
type Asset struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Name           string          `json:"name"`
	Type           AssetType       `json:"type"`
	Value          decimal.Decimal `json:"value"`
	Currency       string          `json:"currency"`
	FormattedValue string          `json:"formatted_value,omitempty"`
	SoftDeleted    bool            `json:"soft_deleted"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type AssetQuery struct {
	UserID         string
	Type           AssetType
	IncludeDeleted bool
	Page           int
	Limit          int
}
