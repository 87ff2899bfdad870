package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSessionIsAuthenticated(t *testing.T) {
	if (Session{}).IsAuthenticated() {
		t.Fatal("empty session must not be authenticated")
	}
	if !(Session{PAN: "1000000123"}).IsAuthenticated() {
		t.Fatal("session with PAN must be authenticated")
	}
}

func TestAccountSnapshotEqual(t *testing.T) {
	base := AccountSnapshot{
		PAN:            "1000000123",
		FirstName:      "Jane",
		Balance:        decimal.RequireFromString("42.50"),
		OverdraftTotal: decimal.RequireFromString("100"),
	}

	same := base
	same.Balance = decimal.RequireFromString("42.5")
	if !base.Equal(same) {
		t.Fatal("equivalent balances must compare equal")
	}

	changed := base
	changed.Balance = decimal.RequireFromString("10.00")
	if base.Equal(changed) {
		t.Fatal("different balances must not compare equal")
	}

	renamed := base
	renamed.FirstName = "Janet"
	if base.Equal(renamed) {
		t.Fatal("different names must not compare equal")
	}
}
