package services

import (
	"testing"

	"restropos_backend/internal/models"
)

type resolverFixture struct {
	resolver  *ConsumptionResolver
	catalog   *fakeCatalogRepo
	inventory *fakeInventoryRepo
}

func newResolverFixture() *resolverFixture {
	catalog := newFakeCatalogRepo()
	inventory := newFakeInventoryRepo()
	tx := &fakeTxManager{stores: []snapshotter{inventory}}
	return &resolverFixture{
		resolver:  NewConsumptionResolver(catalog, inventory, tx),
		catalog:   catalog,
		inventory: inventory,
	}
}

func orderWith(items ...models.OrderItem) *models.Order {
	return &models.Order{ID: 1, OrderNumber: "ORD-20260828-TEST0001", Items: items}
}

func menuLine(menuItemID int64, name string, quantity float64) models.OrderItem {
	id := menuItemID
	return models.OrderItem{LineType: models.LineTypeMenuItem, MenuItemID: &id, Name: name, Quantity: quantity}
}

func TestRecipeConsumption(t *testing.T) {
	f := newResolverFixture()
	f.inventory.addItem(1, "Fish", 10, "kg", 1)
	f.catalog.menuItems[1] = models.MenuItem{
		ID: 1, Name: "Grilled Fish", SoldByWeight: false, IsActive: true,
		RecipeMapping: models.RecipeList{
			{InventoryItemID: 1, InventoryItemName: "Fish", QuantityUsed: 0.3, Unit: "kg"},
		},
	}

	err := f.resolver.Consume(orderWith(menuLine(1, "Grilled Fish", 2)), testActor, testNow)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}

	if got := f.inventory.items[1].CurrentStock; got != 9.4 {
		t.Errorf("fish stock = %v, want 9.4", got)
	}
	if len(f.inventory.adjustments) != 1 {
		t.Fatalf("adjustments = %d, want 1", len(f.inventory.adjustments))
	}
	adj := f.inventory.adjustments[0]
	if adj.Quantity != -0.6 || adj.AdjustmentType != models.AdjustmentConsumption || adj.Unit != "kg" {
		t.Errorf("adjustment = %+v", adj)
	}
}

func TestDealExpansion(t *testing.T) {
	f := newResolverFixture()
	f.inventory.addItem(1, "Drink Bottle", 100, "pcs", 10)
	f.inventory.addItem(2, "Fish", 50, "kg", 5)
	f.catalog.menuItems[10] = models.MenuItem{ID: 10, Name: "Drink", IsActive: true, PreparedItemID: ptrInt64(1)}
	f.catalog.menuItems[11] = models.MenuItem{
		ID: 11, Name: "Grilled Fish", IsActive: true,
		RecipeMapping: models.RecipeList{
			{InventoryItemID: 2, InventoryItemName: "Fish", QuantityUsed: 1, Unit: "kg"},
		},
	}

	dealID := int64(5)
	dealItem := models.OrderItem{
		LineType: models.LineTypeDeal,
		DealID:   &dealID,
		Name:     "Family Deal",
		Quantity: 3,
		DealItems: models.DealItemList{
			{MenuItemID: 10, MenuItemName: "Drink", Quantity: 2},
			{MenuItemID: 11, MenuItemName: "Grilled Fish", Quantity: 1},
		},
	}

	if err := f.resolver.Consume(orderWith(dealItem), testActor, testNow); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	// {2x Drink, 1x Fish} sold 3 times: 6 drinks, 3kg fish.
	if got := f.inventory.items[1].CurrentStock; got != 94 {
		t.Errorf("drink stock = %v, want 94", got)
	}
	if got := f.inventory.items[2].CurrentStock; got != 47 {
		t.Errorf("fish stock = %v, want 47", got)
	}
}

func TestPreparedItemAndRecipeBothApply(t *testing.T) {
	f := newResolverFixture()
	f.inventory.addItem(1, "Kebab Skewer", 40, "pcs", 4)
	f.inventory.addItem(2, "Naan Dough", 40, "pcs", 4)
	f.catalog.menuItems[1] = models.MenuItem{
		ID: 1, Name: "Kebab Roll", IsActive: true,
		PreparedItemID: ptrInt64(1),
		RecipeMapping: models.RecipeList{
			{InventoryItemID: 2, InventoryItemName: "Naan Dough", QuantityUsed: 1, Unit: "pcs"},
		},
	}

	if err := f.resolver.Consume(orderWith(menuLine(1, "Kebab Roll", 2)), testActor, testNow); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if f.inventory.items[1].CurrentStock != 38 {
		t.Errorf("skewer stock = %v, want 38", f.inventory.items[1].CurrentStock)
	}
	if f.inventory.items[2].CurrentStock != 38 {
		t.Errorf("dough stock = %v, want 38", f.inventory.items[2].CurrentStock)
	}
}

func TestNoInventoryImpactItem(t *testing.T) {
	f := newResolverFixture()
	f.catalog.menuItems[1] = models.MenuItem{ID: 1, Name: "Service Charge", IsActive: true}

	if err := f.resolver.Consume(orderWith(menuLine(1, "Service Charge", 1)), testActor, testNow); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(f.inventory.adjustments) != 0 {
		t.Errorf("adjustments = %d, want 0", len(f.inventory.adjustments))
	}
}

func TestPlanningFailureDoesNotAbortOthers(t *testing.T) {
	f := newResolverFixture()
	f.inventory.addItem(1, "Fish", 10, "kg", 1)
	f.catalog.menuItems[1] = models.MenuItem{
		ID: 1, Name: "Grilled Fish", IsActive: true,
		RecipeMapping: models.RecipeList{
			{InventoryItemID: 1, InventoryItemName: "Fish", QuantityUsed: 0.5, Unit: "kg"},
		},
	}
	// Menu item 99 is gone from the catalog.

	err := f.resolver.Consume(orderWith(
		menuLine(99, "Removed Item", 1),
		menuLine(1, "Grilled Fish", 2),
	), testActor, testNow)

	partial, ok := err.(*PartialConsumptionError)
	if !ok {
		t.Fatalf("want PartialConsumptionError, got %v", err)
	}
	if len(partial.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(partial.Failures))
	}
	// The resolvable line was still consumed.
	if f.inventory.items[1].CurrentStock != 9 {
		t.Errorf("fish stock = %v, want 9", f.inventory.items[1].CurrentStock)
	}
}

func TestApplyFailureIsolation(t *testing.T) {
	f := newResolverFixture()
	f.inventory.addItem(1, "Fish", 10, "kg", 1)
	f.inventory.addItem(2, "Rice", 30, "kg", 3)
	f.inventory.failForItemIDs[1] = true
	f.catalog.menuItems[1] = models.MenuItem{
		ID: 1, Name: "Fish Biryani", IsActive: true,
		RecipeMapping: models.RecipeList{
			{InventoryItemID: 1, InventoryItemName: "Fish", QuantityUsed: 0.2, Unit: "kg"},
			{InventoryItemID: 2, InventoryItemName: "Rice", QuantityUsed: 0.4, Unit: "kg"},
		},
	}

	err := f.resolver.Consume(orderWith(menuLine(1, "Fish Biryani", 5)), testActor, testNow)
	partial, ok := err.(*PartialConsumptionError)
	if !ok {
		t.Fatalf("want PartialConsumptionError, got %v", err)
	}
	if len(partial.Failures) != 1 || partial.Failures[0].InventoryItemID != 1 {
		t.Errorf("failures = %+v", partial.Failures)
	}
	if f.inventory.items[1].CurrentStock != 10 {
		t.Errorf("fish stock = %v, want 10 (failed write must not apply)", f.inventory.items[1].CurrentStock)
	}
	if f.inventory.items[2].CurrentStock != 28 {
		t.Errorf("rice stock = %v, want 28", f.inventory.items[2].CurrentStock)
	}
}

func TestStockInvariantUnderManyAdjustments(t *testing.T) {
	f := newResolverFixture()
	f.inventory.addItem(1, "Oil", 100, "l", 10)
	f.catalog.menuItems[1] = models.MenuItem{
		ID: 1, Name: "Fried Item", IsActive: true,
		RecipeMapping: models.RecipeList{
			{InventoryItemID: 1, InventoryItemName: "Oil", QuantityUsed: 0.25, Unit: "l"},
		},
	}

	for i := 0; i < 8; i++ {
		if err := f.resolver.Consume(orderWith(menuLine(1, "Fried Item", 2)), testActor, testNow); err != nil {
			t.Fatalf("Consume %d: %v", i, err)
		}
	}

	var sum float64
	for _, adj := range f.inventory.adjustments {
		sum += adj.Quantity
	}
	if got, want := f.inventory.items[1].CurrentStock, 100+sum; got != want {
		t.Errorf("stock = %v, want initial + adjustment sum = %v", got, want)
	}
}

func ptrInt64(v int64) *int64 { return &v }
