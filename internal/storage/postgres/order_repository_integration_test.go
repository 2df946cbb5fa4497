package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/thandzin/ordering/internal/domain"
)

func integrationOrder(id string, createdAt time.Time) domain.Order {
	return domain.Order{
		ID:             id,
		CustomerID:     "cust-1",
		CustomerName:   "Thandi",
		CollectionTime: createdAt.Add(2 * time.Hour),
		Lines: []domain.CartLine{
			{ItemID: "burger", Name: "Classic Burger", UnitPriceMinor: 4999, Quantity: 1},
		},
		TotalMinor: 5000,
		Status:     domain.OrderStatusPending,
		CreatedAt:  createdAt,
	}
}

func TestOrderRepositoryIntegration_CreateList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	id, err := repo.Create(ctx, integrationOrder("", now))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if id == "" {
		t.Fatal("create must assign an id")
	}

	orders, err := repo.ListByCustomer(ctx, "cust-1", 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	order := orders[0]
	if order.CustomerName != "Thandi" || order.TotalMinor != 5000 {
		t.Fatalf("unexpected order: %+v", order)
	}
	if len(order.Lines) != 1 || order.Lines[0].ItemID != "burger" {
		t.Fatalf("lines must round-trip through jsonb: %+v", order.Lines)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("unexpected status %q", order.Status)
	}
}

func TestOrderRepositoryIntegration_ListNewestFirstWithLimit(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	for i, id := range []string{"o-1", "o-2", "o-3"} {
		if _, err := repo.Create(ctx, integrationOrder(id, now.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	orders, err := repo.ListByCustomer(ctx, "cust-1", 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(orders))
	}
	if orders[0].ID != "o-3" || orders[1].ID != "o-2" {
		t.Fatalf("expected newest-first ordering, got %s then %s", orders[0].ID, orders[1].ID)
	}
}
