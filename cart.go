package main

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// CartItem pairs a snapshot of the guitar with the requested quantity.
type CartItem struct {
	Guitar   Guitar `json:"guitar"`
	Quantity int    `json:"quantity"`
}

// Subtotal is the discount-adjusted line total at the time of the call.
func (ci CartItem) Subtotal() float64 {
	unit := decimal.NewFromFloat(ci.Guitar.EffectivePrice())
	return unit.Mul(decimal.NewFromInt(int64(ci.Quantity))).Round(2).InexactFloat64()
}

// ShoppingCart is one user's mutable set of (guitar, quantity) lines.
// It is not safe for concurrent use on its own; CartStore serializes
// access per user.
type ShoppingCart struct {
	items map[int64]*CartItem
}

func NewShoppingCart() *ShoppingCart {
	return &ShoppingCart{items: make(map[int64]*CartItem)}
}

// AddItem puts a guitar in the cart, combining with an existing line.
// The combined quantity may never exceed the guitar's stock; on failure
// the cart is left unchanged.
func (c *ShoppingCart) AddItem(g Guitar, quantity int) error {
	if quantity <= 0 {
		return errValidation("quantity must be positive")
	}
	if quantity > g.Stock {
		return errConflict("only %d of %s %s available in stock", g.Stock, g.Brand, g.Name)
	}
	if existing, ok := c.items[g.ID]; ok {
		combined := existing.Quantity + quantity
		if combined > g.Stock {
			return errConflict("cannot add more: only %d of %s %s available", g.Stock, g.Brand, g.Name)
		}
		existing.Guitar = g
		existing.Quantity = combined
		return nil
	}
	c.items[g.ID] = &CartItem{Guitar: g, Quantity: quantity}
	return nil
}

// UpdateQuantity sets the line quantity, re-validated against the guitar's
// current stock. Zero or negative removes the line.
func (c *ShoppingCart) UpdateQuantity(g Guitar, quantity int) error {
	item, ok := c.items[g.ID]
	if !ok {
		return errNotFound("item not in cart")
	}
	if quantity <= 0 {
		delete(c.items, g.ID)
		return nil
	}
	if quantity > g.Stock {
		return errConflict("only %d of %s %s available in stock", g.Stock, g.Brand, g.Name)
	}
	item.Guitar = g
	item.Quantity = quantity
	return nil
}

// RemoveItem drops a line; removing an absent id is a no-op.
func (c *ShoppingCart) RemoveItem(guitarID int64) {
	delete(c.items, guitarID)
}

// Items returns the cart lines ordered by guitar id.
func (c *ShoppingCart) Items() []CartItem {
	out := make([]CartItem, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Guitar.ID < out[j].Guitar.ID })
	return out
}

// Total sums each line's discount-adjusted subtotal, never cached.
func (c *ShoppingCart) Total() float64 {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(decimal.NewFromFloat(item.Subtotal()))
	}
	return total.Round(2).InexactFloat64()
}

// ItemCount is the total number of units across all lines.
func (c *ShoppingCart) ItemCount() int {
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

func (c *ShoppingCart) Clear()        { c.items = make(map[int64]*CartItem) }
func (c *ShoppingCart) IsEmpty() bool { return len(c.items) == 0 }

type userCart struct {
	mu   sync.Mutex
	cart *ShoppingCart
}

// CartStore owns every user's cart. Carts are created lazily on first use
// and live in process memory only; they are lost on restart. Operations on
// one user's cart are serialized by a per-user lock.
type CartStore struct {
	mu    sync.Mutex
	carts map[int64]*userCart
}

func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[int64]*userCart)}
}

func (s *CartStore) get(userID int64) *userCart {
	s.mu.Lock()
	defer s.mu.Unlock()
	uc, ok := s.carts[userID]
	if !ok {
		uc = &userCart{cart: NewShoppingCart()}
		s.carts[userID] = uc
	}
	return uc
}

// With runs fn with exclusive access to the user's cart.
func (s *CartStore) With(userID int64, fn func(c *ShoppingCart) error) error {
	uc := s.get(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return fn(uc.cart)
}

// Drop discards a user's cart entirely (logout).
func (s *CartStore) Drop(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}
