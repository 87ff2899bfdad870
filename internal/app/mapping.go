package app

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ALTER-2357/bank-app-thing/internal/domain"
	"github.com/ALTER-2357/bank-app-thing/pkg/bankclient"
)

// snapshotFromUserDetails converts the wire record into a domain snapshot.
// The backend serializes every field as a string; monetary fields are parsed
// here so an unparsable balance is rejected before anything is committed.
func snapshotFromUserDetails(details *bankclient.UserDetails) (*domain.AccountSnapshot, error) {
	balance, err := parseAmount(details.Balance)
	if err != nil {
		return nil, &domain.DecodingError{Err: fmt.Errorf("balance %q: %w", details.Balance, err)}
	}
	overdraftTotal, err := parseAmount(details.OverdraftTotal)
	if err != nil {
		return nil, &domain.DecodingError{Err: fmt.Errorf("overdraft total %q: %w", details.OverdraftTotal, err)}
	}

	return &domain.AccountSnapshot{
		PAN:            details.PAN,
		FirstName:      details.FirstName,
		LastName:       details.LastName,
		Email:          details.Email,
		Address:        details.Address,
		CardNumber:     details.CardNumber,
		Balance:        balance,
		OverdraftTotal: overdraftTotal,
		OverdraftState: details.OverdraftState,
		Opened:         details.Opened,
		Status:         details.Status,
	}, nil
}

// parseAmount treats a missing amount as zero; accounts fresh from
// registration come back with empty monetary fields.
func parseAmount(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(trimmed)
}
