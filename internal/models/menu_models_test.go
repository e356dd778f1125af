package models

import (
	"testing"
	"time"
)

func TestDealRecomputeSavings(t *testing.T) {
	deal := Deal{
		Items: DealItemList{
			{MenuItemID: 1, Quantity: 2, StandardPrice: 150},
			{MenuItemID: 2, Quantity: 1, StandardPrice: 700},
		},
		DealPrice: 800,
	}
	deal.RecomputeSavings()

	if deal.OriginalPrice != 1000 {
		t.Errorf("original = %v, want 1000", deal.OriginalPrice)
	}
	if deal.Savings != 200 {
		t.Errorf("savings = %v, want 200", deal.Savings)
	}
	if deal.SavingsPercent != 20 {
		t.Errorf("savings percent = %v, want 20", deal.SavingsPercent)
	}

	deal.Items = nil
	deal.RecomputeSavings()
	if deal.SavingsPercent != 0 {
		t.Errorf("empty deal savings percent = %v, want 0", deal.SavingsPercent)
	}
}

func TestDealIsCurrentlyActive(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)

	cases := []struct {
		name string
		deal Deal
		want bool
	}{
		{"active without window", Deal{IsActive: true}, true},
		{"inactive flag", Deal{IsActive: false}, false},
		{"inside window", Deal{IsActive: true, StartDate: &yesterday, EndDate: &tomorrow}, true},
		{"before start", Deal{IsActive: true, StartDate: &tomorrow}, false},
		{"after end", Deal{IsActive: true, EndDate: &yesterday}, false},
	}
	for _, tc := range cases {
		if got := tc.deal.IsCurrentlyActive(now); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}
