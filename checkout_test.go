package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func customerClaims(userID int64, username string) *TokenClaims {
	return &TokenClaims{UserID: userID, Username: username, Role: string(RoleCustomer)}
}

func TestPurchase(t *testing.T) {
	s := NewMemStore()
	carts := NewCartStore()
	g := mustCreateGuitar(t, s, Guitar{Name: "Stratocaster", Brand: "Fender", Type: TypeElectric, Price: 100, Stock: 5, DiscountPercent: 25})

	require.NoError(t, carts.With(1, func(c *ShoppingCart) error { return c.AddItem(g, 2) }))

	result, err := Purchase(s, carts, customerClaims(1, "alice"))
	require.NoError(t, err)
	assert.Equal(t, 150.0, result.Total)

	// stock decremented
	got, err := s.GetGuitar(g.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)

	// order persisted with the discounted unit price frozen
	orders, err := s.OrdersByUser(1)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, result.OrderID, orders[0].ID)
	assert.Equal(t, StatusPending, orders[0].Status)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Fender Stratocaster", orders[0].Items[0].GuitarName)
	assert.Equal(t, 75.0, orders[0].Items[0].PriceAtPurchase)
	assert.Equal(t, 2, orders[0].Items[0].Quantity)

	// one unread notification for the admin dashboard
	notes, err := s.ListNotifications(true)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, result.OrderID, notes[0].OrderID)
	assert.Equal(t, "alice", notes[0].Username)
	assert.Equal(t, 150.0, notes[0].Total)

	// cart cleared
	_ = carts.With(1, func(c *ShoppingCart) error {
		assert.True(t, c.IsEmpty())
		return nil
	})
}

func TestPurchaseEmptyCart(t *testing.T) {
	s := NewMemStore()
	carts := NewCartStore()

	_, err := Purchase(s, carts, customerClaims(1, "alice"))
	require.Error(t, err)
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 400, re.Status)
}

func TestPurchaseAdminForbidden(t *testing.T) {
	s := NewMemStore()
	carts := NewCartStore()

	_, err := Purchase(s, carts, &TokenClaims{UserID: 1, Username: "admin", Role: string(RoleAdmin)})
	require.Error(t, err)
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 403, re.Status)
}

func TestPurchaseAllOrNothing(t *testing.T) {
	s := NewMemStore()
	carts := NewCartStore()
	g1 := mustCreateGuitar(t, s, Guitar{Name: "Stratocaster", Brand: "Fender", Type: TypeElectric, Price: 100, Stock: 5})
	g2 := mustCreateGuitar(t, s, Guitar{Name: "D-28", Brand: "Martin", Type: TypeAcoustic, Price: 300, Stock: 4})

	require.NoError(t, carts.With(1, func(c *ShoppingCart) error {
		if err := c.AddItem(g1, 2); err != nil {
			return err
		}
		return c.AddItem(g2, 4)
	}))

	// someone else takes the last Martins before checkout
	ok, err := s.AdjustStock(g2.ID, -2)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = Purchase(s, carts, customerClaims(1, "alice"))
	require.Error(t, err)
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 409, re.Status)
	assert.Contains(t, re.Message, "insufficient stock")

	// nothing was written: no order, no notification, stock of the first
	// guitar untouched, cart intact
	orders, err := s.ListOrders()
	require.NoError(t, err)
	assert.Empty(t, orders)

	notes, err := s.ListNotifications(false)
	require.NoError(t, err)
	assert.Empty(t, notes)

	got, err := s.GetGuitar(g1.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)

	_ = carts.With(1, func(c *ShoppingCart) error {
		assert.Equal(t, 6, c.ItemCount())
		return nil
	})
}

func TestPurchaseRemovedGuitar(t *testing.T) {
	s := NewMemStore()
	carts := NewCartStore()
	g := mustCreateGuitar(t, s, Guitar{Name: "SG", Brand: "Gibson", Type: TypeElectric, Price: 1500, Stock: 2})

	require.NoError(t, carts.With(1, func(c *ShoppingCart) error { return c.AddItem(g, 1) }))
	require.NoError(t, s.DeleteGuitar(g.ID))

	_, err := Purchase(s, carts, customerClaims(1, "alice"))
	require.Error(t, err)
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 409, re.Status)
	assert.Contains(t, re.Message, "no longer available")
}

func TestPurchasePricesAtCheckoutTime(t *testing.T) {
	s := NewMemStore()
	carts := NewCartStore()
	g := mustCreateGuitar(t, s, Guitar{Name: "Stratocaster", Brand: "Fender", Type: TypeElectric, Price: 100, Stock: 5})

	require.NoError(t, carts.With(1, func(c *ShoppingCart) error { return c.AddItem(g, 1) }))

	// a discount applied after the item went in still reaches the order
	ok, err := s.SetGuitarDiscount(g.ID, 50)
	require.NoError(t, err)
	require.True(t, ok)

	result, err := Purchase(s, carts, customerClaims(1, "alice"))
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.Total)
}
