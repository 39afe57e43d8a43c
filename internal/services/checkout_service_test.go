package services_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dormstore/internal/domain"
	"dormstore/internal/services"
)

func TestPricingTotals(t *testing.T) {
	cases := []struct {
		subtotal, tax, shipping, total string
	}{
		{"69.98", "9.10", "9.99", "89.07"},
		{"100.00", "13.00", "0.00", "113.00"},
		{"0", "0.00", "0.00", "0.00"},
		{"12.00", "1.56", "9.99", "23.55"},
	}
	for _, tc := range cases {
		t.Run(tc.subtotal, func(t *testing.T) {
			got := testPricing.Totals(dec(tc.subtotal))
			assert.True(t, got.Tax.Equal(dec(tc.tax)), "tax %s", got.Tax)
			assert.True(t, got.Shipping.Equal(dec(tc.shipping)), "shipping %s", got.Shipping)
			assert.True(t, got.Total.Equal(dec(tc.total)), "total %s", got.Total)
		})
	}
}

func TestCheckoutSuccess(t *testing.T) {
	s := newStore(t)
	alice := domain.UserScope("u-alice")
	s.addProduct(t, alice, "sheets-txl", 2) // 69.98

	res, err := s.checkout.Place("u-alice", validCheckout())
	require.NoError(t, err)

	o := res.Order
	assert.Regexp(t, `^ORD-\d{14}-[0-9A-F]{8}$`, o.OrderNumber)
	assert.True(t, o.Subtotal.Equal(dec("69.98")))
	assert.True(t, o.Tax.Equal(dec("9.10")))
	assert.True(t, o.Shipping.Equal(dec("9.99")))
	assert.True(t, o.Total.Equal(dec("89.07")))
	assert.Equal(t, domain.OrderPending, o.OrderStatus)
	assert.Equal(t, domain.PaymentPaid, o.PaymentStatus)
	assert.Equal(t, "M5S 1A1", o.PostalCode)
	assert.Equal(t, "12 College Ave", o.BillingAddress)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Twin XL Sheet Set", o.Items[0].ProductName)
	assert.Equal(t, 2, o.Items[0].Quantity)

	assert.True(t, res.Balance.Balance.Equal(dec("910.93")), "balance %s", res.Balance.Balance)
	assert.True(t, res.Balance.TotalSpent.Equal(dec("89.07")))
	assert.False(t, res.Mismatch)

	assert.Empty(t, s.cart.Reconcile(alice).Items)
	assert.Equal(t, 38, s.productStock(t, "sheets-txl"))

	txns, err := s.balance.History("u-alice", 10)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, domain.TxnDebit, txns[0].Kind)
	require.NotNil(t, txns[0].OrderID)
	assert.Equal(t, o.ID, *txns[0].OrderID)
}

func TestCheckoutBalanceArithmetic(t *testing.T) {
	s := newStore(t)
	alice := domain.UserScope("u-alice")

	before, err := s.balance.Get("u-alice")
	require.NoError(t, err)

	for _, id := range []string{"lamp-clip", "towel-bath"} {
		s.addProduct(t, alice, id, 1)
		res, err := s.checkout.Place("u-alice", validCheckout())
		require.NoError(t, err)
		assert.True(t, res.Balance.Balance.Equal(before.Balance.Sub(res.Order.Total)))
		assert.True(t, res.Balance.TotalSpent.Equal(before.TotalSpent.Add(res.Order.Total)))
		before = res.Balance
	}
}

func TestCheckoutPackageUpdatesStock(t *testing.T) {
	s := newStore(t)
	alice := domain.UserScope("u-alice")
	s.addPackage(t, alice, "kit-bath", 2) // 2 towels + 1 caddy each

	res, err := s.checkout.Place("u-alice", validCheckout())
	require.NoError(t, err)
	require.Len(t, res.Order.Packages, 1)
	assert.Equal(t, "Bath Bundle", res.Order.Packages[0].PackageName)

	assert.Equal(t, 56, s.productStock(t, "towel-bath"))
	assert.Equal(t, 28, s.productStock(t, "caddy-shower"))
	assert.Equal(t, 28, s.packageStock(t, "kit-bath"))
	assert.Equal(t, 25, s.packageStock(t, "kit-essentials"))

	got := map[string]int{}
	for _, p := range res.Packages {
		got[p.ID] = p.Stock
	}
	assert.Equal(t, 28, got["kit-bath"])
}

func TestCheckoutInsufficientFundsRollsBack(t *testing.T) {
	s := newStore(t)
	alice := domain.UserScope("u-alice")
	_, err := s.balance.Get("u-alice")
	require.NoError(t, err)
	require.NoError(t, s.balances.Save("u-alice", dec("50.00"), dec("0")))
	s.addProduct(t, alice, "fridge-mini", 1)

	_, err = s.checkout.Place("u-alice", validCheckout())
	var fe *services.InsufficientFundsError
	require.ErrorAs(t, err, &fe)
	assert.True(t, fe.Balance.Equal(dec("50")))
	assert.True(t, fe.Required.Equal(dec("213.57")))
	assert.True(t, fe.Shortfall.Equal(dec("163.57")))

	assert.Zero(t, s.count(t, "orders"))
	assert.Zero(t, s.count(t, "order_items"))
	assert.Zero(t, s.count(t, "order_packages"))
	b, err := s.balance.Get("u-alice")
	require.NoError(t, err)
	assert.True(t, b.Balance.Equal(dec("50")))
	assert.True(t, b.TotalSpent.IsZero())
	assert.Equal(t, 5, s.productStock(t, "fridge-mini"))
	assert.Len(t, s.cart.Reconcile(alice).Items, 1)
}

func TestCheckoutSharedComponentShortageRollsBack(t *testing.T) {
	s := newStore(t)
	alice := domain.UserScope("u-alice")
	_, err := s.inv.SetProductStock("caddy-shower", 5)
	require.NoError(t, err)
	s.addProduct(t, alice, "caddy-shower", 3)
	s.addPackage(t, alice, "kit-bath", 3)
	before, err := s.balance.Get("u-alice")
	require.NoError(t, err)

	// each line fits on its own; together they need 6 caddies
	_, err = s.checkout.Place("u-alice", validCheckout())
	var se *services.InsufficientStockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Bath Bundle", se.Name)
	assert.Equal(t, 3, se.Requested)
	assert.Equal(t, 2, se.Available)

	assert.Zero(t, s.count(t, "orders"))
	assert.Zero(t, s.count(t, "order_items"))
	assert.Zero(t, s.count(t, "order_packages"))
	assert.Zero(t, s.count(t, "balance_transactions"))
	assert.Equal(t, 5, s.productStock(t, "caddy-shower"))
	assert.Equal(t, 60, s.productStock(t, "towel-bath"))
	assert.Equal(t, 5, s.packageStock(t, "kit-bath"))
	after, err := s.balance.Get("u-alice")
	require.NoError(t, err)
	assert.True(t, after.Balance.Equal(before.Balance))
	assert.True(t, after.TotalSpent.IsZero())
	assert.Len(t, s.cart.Reconcile(alice).Items, 2)
}

func TestCheckoutFirstUseCreatesNoBalanceOnFailure(t *testing.T) {
	s := newStore(t)
	alice := domain.UserScope("u-alice")
	s.addProduct(t, alice, "fridge-mini", 5)
	s.addProduct(t, alice, "hoodie-campus", 22) // well past the starting credit

	_, err := s.checkout.Place("u-alice", validCheckout())
	var fe *services.InsufficientFundsError
	require.ErrorAs(t, err, &fe)
	assert.Zero(t, s.count(t, "user_balances"))
	assert.Zero(t, s.count(t, "balance_transactions"))
}

func TestCheckoutValidation(t *testing.T) {
	s := newStore(t)
	alice := domain.UserScope("u-alice")

	_, err := s.checkout.Place("", validCheckout())
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	req := validCheckout()
	req.City = ""
	req.PostalCode = " "
	_, err = s.checkout.Place("u-alice", req)
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"city", "postalCode"}, ve.Fields)
	assert.Contains(t, ve.Msg, "Missing required fields")

	req = validCheckout()
	req.PostalCode = "not-a-code"
	_, err = s.checkout.Place("u-alice", req)
	assert.ErrorAs(t, err, &ve)

	// empty cart
	_, err = s.checkout.Place("u-alice", validCheckout())
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "cart is empty", ve.Msg)

	s.addProduct(t, alice, "fridge-mini", 6) // stock 5
	_, err = s.checkout.Place("u-alice", validCheckout())
	var se *services.InsufficientStockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 5, se.Available)
	assert.Zero(t, s.count(t, "orders"))
}

func TestCheckoutUnavailableItem(t *testing.T) {
	s := newStore(t)
	alice := domain.UserScope("u-alice")
	s.addProduct(t, alice, "hamper-pop", 1)
	require.NoError(t, s.inv.DeleteProduct("hamper-pop"))

	_, err := s.checkout.Place("u-alice", validCheckout())
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Msg, "no longer available")
}

func TestCheckoutFlagsClientTotalMismatch(t *testing.T) {
	s := newStore(t)
	alice := domain.UserScope("u-alice")
	s.addProduct(t, alice, "lamp-clip", 1)

	req := validCheckout()
	req.ClientTotals = &services.Totals{Total: dec("1.00")}
	res, err := s.checkout.Place("u-alice", req)
	require.NoError(t, err)
	assert.True(t, res.Mismatch)
	// the server total is what was charged
	assert.True(t, res.Order.Total.Equal(dec("32.03")), "total %s", res.Order.Total)
}

func TestCheckoutRetriesOrderNumberCollision(t *testing.T) {
	s := newStore(t)
	alice := domain.UserScope("u-alice")
	fixed := time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)
	s.checkout.Now = func() time.Time { return fixed }

	calls := 0
	s.checkout.OrderNumber = func(time.Time) string {
		calls++
		if calls <= 3 {
			return "ORD-20250830120000-AAAAAAAA"
		}
		return fmt.Sprintf("ORD-20250830120000-%08d", calls)
	}

	s.addProduct(t, alice, "lamp-clip", 1)
	first, err := s.checkout.Place("u-alice", validCheckout())
	require.NoError(t, err)
	assert.Equal(t, "ORD-20250830120000-AAAAAAAA", first.Order.OrderNumber)

	s.addProduct(t, alice, "lamp-clip", 1)
	second, err := s.checkout.Place("u-alice", validCheckout())
	require.NoError(t, err)
	assert.Equal(t, "ORD-20250830120000-00000004", second.Order.OrderNumber)
	assert.Equal(t, 4, calls)
}

func TestCheckoutGivesUpAfterRepeatedCollisions(t *testing.T) {
	s := newStore(t)
	alice := domain.UserScope("u-alice")
	s.checkout.OrderNumber = func(time.Time) string { return "ORD-20250830120000-BBBBBBBB" }

	s.addProduct(t, alice, "lamp-clip", 1)
	_, err := s.checkout.Place("u-alice", validCheckout())
	require.NoError(t, err)

	s.addProduct(t, alice, "towel-bath", 1)
	before, err := s.balance.Get("u-alice")
	require.NoError(t, err)
	_, err = s.checkout.Place("u-alice", validCheckout())
	var se *services.StorageError
	require.ErrorAs(t, err, &se)

	after, err := s.balance.Get("u-alice")
	require.NoError(t, err)
	assert.True(t, before.Balance.Equal(after.Balance))
	assert.Equal(t, 1, s.count(t, "orders"))
	assert.Len(t, s.cart.Reconcile(alice).Items, 1)
}
