package model

import "time"

type Preferences struct {
	UserID    string    `json:"user_id"`
	Currency  string    `json:"currency"`
	Locale    string    `json:"locale"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
