package domain_test

import (
	"testing"

	"github.com/thandzin/ordering/internal/domain"
)

func TestSelectionModeValid(t *testing.T) {
	if !domain.SelectionSingle.Valid() || !domain.SelectionMultiple.Valid() {
		t.Fatal("declared modes must be valid")
	}
	if domain.SelectionMode("radio").Valid() {
		t.Fatal("raw source mode names are not valid domain modes")
	}
}

func TestMenuItemValidateInvariants(t *testing.T) {
	item := domain.MenuItem{
		Name:       "Burger",
		PriceMinor: 2500,
		Options: []domain.OptionGroup{
			{ID: "size", Name: "Size", Mode: domain.SelectionSingle, Required: true, Choices: []domain.Choice{{ID: "s", Name: "Small"}}},
		},
	}
	if errs := item.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected valid item, got %v", errs)
	}

	bad := domain.MenuItem{
		PriceMinor: -1,
		Options: []domain.OptionGroup{
			{ID: "size", Mode: domain.SelectionMode("weird")},
		},
	}
	errs := bad.ValidateInvariants()
	if len(errs) != 4 {
		// name, negative price, invalid mode, empty choices
		t.Fatalf("expected 4 violations, got %v", errs)
	}
}

func TestMenuItemLookup(t *testing.T) {
	menu := domain.Menu{Categories: []domain.Category{
		{ID: "mains", Name: "Mains", Items: []domain.MenuItem{{ID: "burger", Name: "Burger"}}},
		{ID: "drinks", Name: "Drinks", Items: []domain.MenuItem{{ID: "coffee", Name: "Coffee"}}},
	}}

	if _, ok := menu.Item("coffee"); !ok {
		t.Fatal("expected to find coffee")
	}
	if _, ok := menu.Item("pizza"); ok {
		t.Fatal("did not expect to find pizza")
	}

	item, _ := menu.Item("burger")
	if _, ok := item.Group("size"); ok {
		t.Fatal("burger has no option groups")
	}
}
