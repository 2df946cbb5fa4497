package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thandzin/ordering/internal/domain"
	"github.com/thandzin/ordering/internal/storage/memory"
)

func newDocument() domain.CartDocument {
	return domain.CartDocument{
		Lines: []domain.CartLine{
			{ItemID: "burger", Name: "Classic Burger", UnitPriceMinor: 4999, Quantity: 2},
		},
		TotalMinor: 10000,
		UpdatedAt:  time.Now().UTC(),
	}
}

func TestCartRepository_SaveLoad(t *testing.T) {
	repo := memory.NewCartRepository()
	ctx := context.Background()

	if err := repo.Save(ctx, "cust-1", newDocument()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	doc, err := repo.Load(ctx, "cust-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(doc.Lines) != 1 || doc.Lines[0].ItemID != "burger" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestCartRepository_LoadMissing(t *testing.T) {
	repo := memory.NewCartRepository()

	_, err := repo.Load(context.Background(), "nobody")
	if !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestCartRepository_LastWriteWins(t *testing.T) {
	repo := memory.NewCartRepository()
	ctx := context.Background()

	if err := repo.Save(ctx, "cust-1", newDocument()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := repo.Save(ctx, "cust-1", domain.CartDocument{TotalMinor: 0}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	doc, err := repo.Load(ctx, "cust-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(doc.Lines) != 0 || doc.TotalMinor != 0 {
		t.Fatalf("second write must replace the document wholesale: %+v", doc)
	}
}

func TestCartRepository_LoadReturnsCopy(t *testing.T) {
	repo := memory.NewCartRepository()
	ctx := context.Background()

	if err := repo.Save(ctx, "cust-1", newDocument()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	doc, _ := repo.Load(ctx, "cust-1")
	doc.Lines[0].Quantity = 99

	again, _ := repo.Load(ctx, "cust-1")
	if again.Lines[0].Quantity != 2 {
		t.Fatal("mutating a loaded document must not affect the stored one")
	}
}
