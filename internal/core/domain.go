package core

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeDebit  = "Debit"
	TypeCredit = "Credit"

	UnknownMerchant = "Unknown"
	Uncategorized   = "Uncategorized"
	UnknownDay      = "Unknown"
)

type (
	// Transaction is one canonical statement line. Instances are never
	// mutated after normalization.
	Transaction struct {
		ID       string          `json:"id"`
		Date     time.Time       `json:"date"`
		Merchant string          `json:"merchant"`
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
		Type     string          `json:"type"`
	}

	// RawRow is a parsed table row keyed by lower-cased header name.
	// Columns missing from a short row are absent from the map.
	RawRow map[string]string
)

// ErrEmptyID is returned by Validate for a transaction without an id.
var ErrEmptyID = errors.New("empty transaction id")

// Lookup returns the value for key only when it is present and non-empty.
func (r RawRow) Lookup(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// IsCredit reports whether the transaction counts as income.
func (t Transaction) IsCredit() bool {
	return strings.EqualFold(strings.TrimSpace(t.Type), TypeCredit)
}

// HasDate reports whether the transaction carries a usable date.
func (t Transaction) HasDate() bool {
	return !t.Date.IsZero()
}

// DayKey returns the UTC calendar day of the transaction.
func (t Transaction) DayKey() string {
	return DayKey(t.Date)
}

// ContentHash identifies a transaction by day, merchant and amount.
func (t Transaction) ContentHash() string {
	h := sha256.New()
	h.Write([]byte(t.DayKey()))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(t.Merchant))))
	h.Write([]byte{0})
	h.Write([]byte(t.Amount.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// Validate checks the fields a store relies on. Every other field has a
// usable default.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	return nil
}

// DayKey formats a time as YYYY-MM-DD in UTC, or UnknownDay for the zero time.
func DayKey(ts time.Time) string {
	if ts.IsZero() {
		return UnknownDay
	}
	return ts.UTC().Format(time.DateOnly)
}
