package core

import (
	"time"
)

const (
	Income  Type = "income"
	Expense Type = "expense"
)

type (
	// Type discriminates income from expense records.
	Type string

	// Transaction is one recorded income or expense event. ID and Timestamp
	// are assigned at creation and never change; UpdatedAt is nil until the
	// record is edited for the first time.
	Transaction struct {
		ID          string     `json:"id"`
		Type        Type       `json:"type"`
		Date        string     `json:"date"`
		Description string     `json:"description"`
		Category    string     `json:"category"`
		Amount      float64    `json:"amount"`
		Timestamp   time.Time  `json:"timestamp"`
		UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	}

	// Input carries raw field values as collected at the boundary, before
	// sanitization and validation.
	Input struct {
		Type        string `json:"type"`
		Date        string `json:"date"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Amount      string `json:"amount"`
	}
)

// Valid reports whether t is one of the two allowed transaction types.
func (t Type) Valid() bool {
	return t == Income || t == Expense
}

// DateLayout is the calendar-date format transactions carry, ISO 8601.
const DateLayout = "2006-01-02"

// ParseDate parses a transaction date. It accepts the plain calendar form
// first and falls back to RFC 3339 for values produced by older exports.
func ParseDate(value string) (time.Time, error) {
	if d, err := time.Parse(DateLayout, value); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, value)
}
