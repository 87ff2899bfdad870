/**
 * @description
 * AccountSnapshot is the locally cached mirror of a user's account record as
 * last fetched from the banking API. The server record is the source of
 * truth; the snapshot is a derived read-through cache and is never merged.
 * A conflicting fetch replaces it wholesale.
 */
package domain

import (
	"github.com/shopspring/decimal"
)

// AccountSnapshot holds the last-known authoritative account state for one
// PAN. At most one snapshot is cached at a time, keyed by the current
// session's PAN.
type AccountSnapshot struct {
	PAN            string          `json:"pan"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Email          string          `json:"email"`
	Address        string          `json:"address"`
	CardNumber     string          `json:"card_number"`
	Balance        decimal.Decimal `json:"balance"`
	OverdraftTotal decimal.Decimal `json:"overdraft_total"`
	OverdraftState string          `json:"overdraft_state"`
	Opened         string          `json:"opened"`
	Status         string          `json:"status"`
}

// Equal reports whether two snapshots carry the same account state.
// Monetary fields compare by numeric value, so "42.50" and "42.5" are the
// same balance and do not trigger a cache rewrite.
func (a AccountSnapshot) Equal(b AccountSnapshot) bool {
	return a.PAN == b.PAN &&
		a.FirstName == b.FirstName &&
		a.LastName == b.LastName &&
		a.Email == b.Email &&
		a.Address == b.Address &&
		a.CardNumber == b.CardNumber &&
		a.Balance.Equal(b.Balance) &&
		a.OverdraftTotal.Equal(b.OverdraftTotal) &&
		a.OverdraftState == b.OverdraftState &&
		a.Opened == b.Opened &&
		a.Status == b.Status
}
