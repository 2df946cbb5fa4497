package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/thandzin/ordering/internal/domain"
)

func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:             "order-1",
		CustomerID:     "user-1",
		CustomerName:   "Sipho",
		CollectionTime: now.Add(time.Hour),
		Lines: []domain.CartLine{
			{ItemID: "burger", Name: "Burger", UnitPriceMinor: 3000, Quantity: 2},
		},
		TotalMinor: 6000,
		Status:     domain.OrderStatusPending,
		CreatedAt:  now,
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_AccumulatesAllErrors(t *testing.T) {
	order := makeOrder()
	order.CustomerName = "   "
	order.CollectionTime = time.Time{}

	errs := order.ValidateInvariants()
	if len(errs) < 2 {
		t.Fatalf("expected both field errors at once, got %v", errs)
	}

	var gotName, gotTime bool
	for _, err := range errs {
		if errors.Is(err, domain.ErrCustomerNameRequired) {
			gotName = true
		}
		if errors.Is(err, domain.ErrCollectionTimeRequired) {
			gotTime = true
		}
	}
	if !gotName || !gotTime {
		t.Fatalf("expected name and time errors together, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
		want error
	}{
		{
			name: "no lines",
			mut: func(o *domain.Order) {
				o.Lines = nil
				o.TotalMinor = 0
			},
			want: domain.ErrCartEmpty,
		},
		{
			name: "total mismatch",
			mut: func(o *domain.Order) {
				o.TotalMinor = 123
			},
			want: domain.ErrOrderTotalMismatch,
		},
		{
			name: "total must use summary rounding",
			mut: func(o *domain.Order) {
				// 29.99 per unit counts as 30.00 in the summary total.
				o.Lines[0].UnitPriceMinor = 2999
				o.TotalMinor = 2 * 2999
			},
			want: domain.ErrOrderTotalMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)

			errs := order.ValidateInvariants()
			if len(errs) == 0 {
				t.Fatal("expected validation errors")
			}
			found := false
			for _, err := range errs {
				if errors.Is(err, tc.want) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %v among %v", tc.want, errs)
			}
		})
	}
}
