package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantdesk/dms/internal/domain"
	"github.com/plantdesk/dms/internal/service"
	"github.com/plantdesk/dms/internal/testutil"
)

func TestPlaceOrder_DebitsWalletAndDeductsStock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	sku := testutil.SeedSKU(t, db, "Amber Ale 500ml", decimal.NewFromInt(100))
	testutil.SeedStock(t, db, domain.PlantLocationID, sku.ID, 50)
	ref := domain.DistributorRef(d.ID)
	rechargeWallet(t, svcs, ref, 1000)

	order, err := svcs.orders.Place(ctx, service.PlaceOrderRequest{
		DistributorID: d.ID,
		PlacedBy:      "admin",
		Items:         []service.OrderItemRequest{{SKUID: sku.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.True(t, decimal.NewFromInt(300).Equal(order.TotalAmount), "total %s", order.TotalAmount)

	balance := testutil.GetWalletBalance(t, db, ref)
	assert.True(t, decimal.NewFromInt(700).Equal(balance), "balance %s", balance)

	quantity, reserved := testutil.GetStockLevel(t, db, domain.PlantLocationID, sku.ID)
	assert.Equal(t, int64(47), quantity)
	assert.Equal(t, int64(0), reserved)

	txns := accountTransactions(t, db, ref)
	require.Len(t, txns, 2)
	payment := txns[1]
	assert.Equal(t, domain.TransactionTypeOrderPayment, payment.Type)
	assert.True(t, decimal.NewFromInt(-300).Equal(payment.Amount), "amount %s", payment.Amount)
	assert.True(t, decimal.NewFromInt(700).Equal(payment.BalanceAfter), "balance_after %s", payment.BalanceAfter)
	require.NotNil(t, payment.OrderID)
	assert.Equal(t, order.ID, *payment.OrderID)

	sale := findMovement(locationMovements(t, db, domain.PlantLocationID), domain.MovementTypeSale)
	require.NotNil(t, sale)
	assert.Equal(t, int64(-3), sale.QuantityChange)
	assert.Equal(t, int64(47), sale.QuantityAfter)

	assert.Contains(t, auditActions(t, db, "order", order.ID.String()), "order.place")
	assert.Contains(t, pendingNotificationTypes(t, db), domain.NotificationTypeOrderPlaced)
}

func TestPlaceOrder_InsufficientFundsRollsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	sku := testutil.SeedSKU(t, db, "Amber Ale 500ml", decimal.NewFromInt(100))
	testutil.SeedStock(t, db, domain.PlantLocationID, sku.ID, 50)
	ref := domain.DistributorRef(d.ID)
	rechargeWallet(t, svcs, ref, 100)

	_, err := svcs.orders.Place(ctx, service.PlaceOrderRequest{
		DistributorID: d.ID,
		PlacedBy:      "admin",
		Items:         []service.OrderItemRequest{{SKUID: sku.ID, Quantity: 3}},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	balance := testutil.GetWalletBalance(t, db, ref)
	assert.True(t, decimal.NewFromInt(100).Equal(balance), "balance %s", balance)
	assert.Equal(t, 1, testutil.CountTransactions(t, db, ref))

	quantity, _ := testutil.GetStockLevel(t, db, domain.PlantLocationID, sku.ID)
	assert.Equal(t, int64(50), quantity)

	var orderCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&orderCount))
	assert.Equal(t, 0, orderCount)

	// the rejection itself is recorded for ops follow-up
	assert.Contains(t, pendingNotificationTypes(t, db), domain.NotificationTypeOrderFailed)
}

func TestPlaceOrder_CreditLimitCoversShortfall(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.NewFromInt(500))
	sku := testutil.SeedSKU(t, db, "Amber Ale 500ml", decimal.NewFromInt(100))
	testutil.SeedStock(t, db, domain.PlantLocationID, sku.ID, 50)
	ref := domain.DistributorRef(d.ID)
	rechargeWallet(t, svcs, ref, 100)

	_, err := svcs.orders.Place(ctx, service.PlaceOrderRequest{
		DistributorID: d.ID,
		PlacedBy:      "admin",
		Items:         []service.OrderItemRequest{{SKUID: sku.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	balance := testutil.GetWalletBalance(t, db, ref)
	assert.True(t, decimal.NewFromInt(-200).Equal(balance), "balance %s", balance)

	// the wallet dipped below the floor, so a critical alert is queued
	var walletAlert *domain.Notification
	for _, n := range pendingNotifications(t, db) {
		if n.Type == domain.NotificationTypeWalletLow {
			walletAlert = &n
			break
		}
	}
	require.NotNil(t, walletAlert)
	assert.Equal(t, domain.SeverityCritical, walletAlert.Severity)
	require.NotNil(t, walletAlert.DistributorID)
	assert.Equal(t, d.ID, *walletAlert.DistributorID)
}

func TestPlaceOrder_InsufficientStockRollsBack(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	sku := testutil.SeedSKU(t, db, "Amber Ale 500ml", decimal.NewFromInt(100))
	testutil.SeedStock(t, db, domain.PlantLocationID, sku.ID, 2)
	ref := domain.DistributorRef(d.ID)
	rechargeWallet(t, svcs, ref, 1000)

	_, err := svcs.orders.Place(ctx, service.PlaceOrderRequest{
		DistributorID: d.ID,
		PlacedBy:      "admin",
		Items:         []service.OrderItemRequest{{SKUID: sku.ID, Quantity: 3}},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	balance := testutil.GetWalletBalance(t, db, ref)
	assert.True(t, decimal.NewFromInt(1000).Equal(balance), "balance %s", balance)
	assert.Equal(t, 1, testutil.CountTransactions(t, db, ref))

	quantity, _ := testutil.GetStockLevel(t, db, domain.PlantLocationID, sku.ID)
	assert.Equal(t, int64(2), quantity)

	var orderCount int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&orderCount))
	assert.Equal(t, 0, orderCount)
}

func TestPlaceOrder_FreebieLinesCostNothing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	sku := testutil.SeedSKU(t, db, "Amber Ale 500ml", decimal.NewFromInt(100))
	testutil.SeedStock(t, db, domain.PlantLocationID, sku.ID, 50)
	ref := domain.DistributorRef(d.ID)
	rechargeWallet(t, svcs, ref, 1000)

	order, err := svcs.orders.Place(ctx, service.PlaceOrderRequest{
		DistributorID: d.ID,
		PlacedBy:      "admin",
		Items: []service.OrderItemRequest{
			{SKUID: sku.ID, Quantity: 2},
			{SKUID: sku.ID, Quantity: 1, IsFreebie: true},
		},
	})
	require.NoError(t, err)

	// only the paid line is billed, but all three units leave the plant
	assert.True(t, decimal.NewFromInt(200).Equal(order.TotalAmount), "total %s", order.TotalAmount)
	quantity, _ := testutil.GetStockLevel(t, db, domain.PlantLocationID, sku.ID)
	assert.Equal(t, int64(47), quantity)
}

func TestPlaceOrder_RejectsInactiveSKU(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	sku := testutil.SeedSKU(t, db, "Amber Ale 500ml", decimal.NewFromInt(100))
	testutil.SeedStock(t, db, domain.PlantLocationID, sku.ID, 50)
	rechargeWallet(t, svcs, domain.DistributorRef(d.ID), 1000)

	_, err := db.Exec(`UPDATE skus SET status = $1 WHERE id = $2`, domain.SKUStatusInactive, sku.ID)
	require.NoError(t, err)

	_, err = svcs.orders.Place(ctx, service.PlaceOrderRequest{
		DistributorID: d.ID,
		PlacedBy:      "admin",
		Items:         []service.OrderItemRequest{{SKUID: sku.ID, Quantity: 1}},
	})
	require.ErrorIs(t, err, domain.ErrSKUInactive)
}

func TestPlaceOrder_ValidatesItems(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	sku := testutil.SeedSKU(t, db, "Amber Ale 500ml", decimal.NewFromInt(100))

	_, err := svcs.orders.Place(ctx, service.PlaceOrderRequest{
		DistributorID: d.ID,
		PlacedBy:      "admin",
	})
	require.ErrorIs(t, err, domain.ErrEmptyItems)

	_, err = svcs.orders.Place(ctx, service.PlaceOrderRequest{
		DistributorID: d.ID,
		PlacedBy:      "admin",
		Items:         []service.OrderItemRequest{{SKUID: sku.ID, Quantity: 0}},
	})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svcs.orders.Place(ctx, service.PlaceOrderRequest{
		DistributorID: d.ID,
		PlacedBy:      "admin",
		Items:         []service.OrderItemRequest{{SKUID: uuid.New(), Quantity: 1}},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancelOrder_RefundsAndRestocks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	sku := testutil.SeedSKU(t, db, "Amber Ale 500ml", decimal.NewFromInt(100))
	testutil.SeedStock(t, db, domain.PlantLocationID, sku.ID, 50)
	ref := domain.DistributorRef(d.ID)
	rechargeWallet(t, svcs, ref, 1000)

	order, err := svcs.orders.Place(ctx, service.PlaceOrderRequest{
		DistributorID: d.ID,
		PlacedBy:      "admin",
		Items:         []service.OrderItemRequest{{SKUID: sku.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	remarks := "damaged in transit"
	cancelled, err := svcs.orders.Cancel(ctx, order.ID, "admin", &remarks)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledDate)

	balance := testutil.GetWalletBalance(t, db, ref)
	assert.True(t, decimal.NewFromInt(1000).Equal(balance), "balance %s", balance)

	quantity, reserved := testutil.GetStockLevel(t, db, domain.PlantLocationID, sku.ID)
	assert.Equal(t, int64(50), quantity)
	assert.Equal(t, int64(0), reserved)

	txns := accountTransactions(t, db, ref)
	require.Len(t, txns, 3)
	refund := txns[2]
	assert.Equal(t, domain.TransactionTypeOrderRefund, refund.Type)
	assert.True(t, decimal.NewFromInt(300).Equal(refund.Amount), "amount %s", refund.Amount)
	assert.True(t, decimal.NewFromInt(1000).Equal(refund.BalanceAfter), "balance_after %s", refund.BalanceAfter)
	require.NotNil(t, refund.OrderID)
	assert.Equal(t, order.ID, *refund.OrderID)

	adjustment := findMovement(locationMovements(t, db, domain.PlantLocationID), domain.MovementTypeAdjustment)
	require.NotNil(t, adjustment)
	assert.Equal(t, int64(3), adjustment.QuantityChange)
	assert.Equal(t, int64(50), adjustment.QuantityAfter)
}

func TestCancelOrder_OnlyPendingIsRefundable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	sku := testutil.SeedSKU(t, db, "Amber Ale 500ml", decimal.NewFromInt(100))
	testutil.SeedStock(t, db, domain.PlantLocationID, sku.ID, 50)
	rechargeWallet(t, svcs, domain.DistributorRef(d.ID), 1000)

	order, err := svcs.orders.Place(ctx, service.PlaceOrderRequest{
		DistributorID: d.ID,
		PlacedBy:      "admin",
		Items:         []service.OrderItemRequest{{SKUID: sku.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svcs.orders.Deliver(ctx, order.ID, "admin")
	require.NoError(t, err)

	_, err = svcs.orders.Cancel(ctx, order.ID, "admin", nil)
	require.ErrorIs(t, err, domain.ErrOrderNotRefundable)
}

func TestDeliverOrder_MovesStatusOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	d := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	sku := testutil.SeedSKU(t, db, "Amber Ale 500ml", decimal.NewFromInt(100))
	testutil.SeedStock(t, db, domain.PlantLocationID, sku.ID, 50)
	rechargeWallet(t, svcs, domain.DistributorRef(d.ID), 1000)

	order, err := svcs.orders.Place(ctx, service.PlaceOrderRequest{
		DistributorID: d.ID,
		PlacedBy:      "admin",
		Items:         []service.OrderItemRequest{{SKUID: sku.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	delivered, err := svcs.orders.Deliver(ctx, order.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredDate)

	_, err = svcs.orders.Deliver(ctx, order.ID, "admin")
	require.ErrorIs(t, err, domain.ErrOrderNotPending)

	got, err := svcs.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, got.Status)
	require.Len(t, got.Items, 1)
	assert.Equal(t, sku.ID, got.Items[0].SKUID)
}

func TestListOrders_PagesPerDistributor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svcs := setupServices(t, db)
	ctx := context.Background()

	a := testutil.SeedDistributor(t, db, "Deepak Agencies", decimal.Zero)
	b := testutil.SeedDistributor(t, db, "Kaveri Traders", decimal.Zero)
	sku := testutil.SeedSKU(t, db, "Amber Ale 500ml", decimal.NewFromInt(100))
	testutil.SeedStock(t, db, domain.PlantLocationID, sku.ID, 50)
	rechargeWallet(t, svcs, domain.DistributorRef(a.ID), 1000)
	rechargeWallet(t, svcs, domain.DistributorRef(b.ID), 1000)

	placed := make(map[uuid.UUID]bool, 3)
	for range 3 {
		order, err := svcs.orders.Place(ctx, service.PlaceOrderRequest{
			DistributorID: a.ID,
			PlacedBy:      "admin",
			Items:         []service.OrderItemRequest{{SKUID: sku.ID, Quantity: 1}},
		})
		require.NoError(t, err)
		placed[order.ID] = true
	}
	_, err := svcs.orders.Place(ctx, service.PlaceOrderRequest{
		DistributorID: b.ID,
		PlacedBy:      "admin",
		Items:         []service.OrderItemRequest{{SKUID: sku.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	page, err := svcs.orders.ListByDistributor(ctx, a.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	rest, err := svcs.orders.ListByDistributor(ctx, a.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)

	for _, o := range append(page, rest...) {
		assert.True(t, placed[o.ID], "order %s not placed by %s", o.ID, a.Name)
		assert.Equal(t, a.ID, o.DistributorID)
	}
}
