package repository

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Money columns are read as text so NUMERIC precision survives the round trip.
func parseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return d, nil
}

func offset(page int, limit int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * limit
}
