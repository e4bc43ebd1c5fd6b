package main

import (
	"log"

	"github.com/shopspring/decimal"
)

// PurchaseResult is what a successful checkout returns to the caller.
type PurchaseResult struct {
	OrderID int64   `json:"order_id"`
	Total   float64 `json:"total"`
}

// Purchase checks out the user's cart: every line is re-validated against
// live stock before anything is written, the order and its items are
// persisted as one unit, a single admin notification is emitted, stock is
// decremented, and the cart is cleared. Nothing mutates unless all lines
// pass.
func Purchase(store Store, carts *CartStore, claims *TokenClaims) (PurchaseResult, error) {
	if claims.Role == string(RoleAdmin) {
		return PurchaseResult{}, errForbidden("this action is only available for customers")
	}

	var result PurchaseResult
	err := carts.With(claims.UserID, func(cart *ShoppingCart) error {
		if cart.IsEmpty() {
			return errValidation("cart is empty")
		}

		// re-fetch every line against live stock: all or nothing
		var items []OrderItem
		total := decimal.Zero
		for _, line := range cart.Items() {
			live, err := store.GetGuitar(line.Guitar.ID)
			if err != nil {
				if err == ErrNotFound {
					return errConflict("%s %s is no longer available", line.Guitar.Brand, line.Guitar.Name)
				}
				return err
			}
			if live.Stock < line.Quantity {
				return errConflict("insufficient stock for %s %s: %d requested, %d available",
					live.Brand, live.Name, line.Quantity, live.Stock)
			}
			unit := live.EffectivePrice()
			items = append(items, OrderItem{
				GuitarID:        live.ID,
				GuitarName:      live.Brand + " " + live.Name,
				Quantity:        line.Quantity,
				PriceAtPurchase: unit,
			})
			total = total.Add(decimal.NewFromFloat(unit).Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		orderTotal := total.Round(2).InexactFloat64()

		orderID, err := store.CreateOrder(claims.UserID, orderTotal, items)
		if err != nil {
			return err
		}

		if _, err := store.CreateNotification(Notification{
			OrderID:  orderID,
			UserID:   claims.UserID,
			Username: claims.Username,
			Total:    orderTotal,
		}); err != nil {
			log.Printf("purchase: notification for order %d failed: %v", orderID, err)
		}

		for _, item := range items {
			ok, err := store.AdjustStock(item.GuitarID, -item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				log.Printf("purchase: stock decrement refused for guitar %d on order %d", item.GuitarID, orderID)
			}
		}

		cart.Clear()
		result = PurchaseResult{OrderID: orderID, Total: orderTotal}
		return nil
	})
	return result, err
}
