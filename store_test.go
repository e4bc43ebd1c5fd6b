package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCreateGuitar(t *testing.T, s Store, g Guitar) Guitar {
	t.Helper()
	id, err := s.CreateGuitar(g)
	require.NoError(t, err)
	created, err := s.GetGuitar(id)
	require.NoError(t, err)
	return created
}

func TestMemStoreSeedsCategories(t *testing.T) {
	s := NewMemStore()
	cats, err := s.ListCategories()
	require.NoError(t, err)
	require.Len(t, cats, 4)

	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"Electric", "Acoustic", "Bass", "Classical"}, names)
}

func TestCreateGuitarAutoCategory(t *testing.T) {
	s := NewMemStore()
	g := mustCreateGuitar(t, s, Guitar{Name: "SG", Brand: "Gibson", Type: TypeElectric, Price: 1499, Stock: 3})

	electric, err := s.GetCategoryByName("Electric")
	require.NoError(t, err)
	assert.Equal(t, electric.ID, g.CategoryID)
	assert.True(t, g.Available)
	assert.False(t, g.CreatedAt.IsZero())
}

func TestCreateGuitarUnknownCategory(t *testing.T) {
	s := NewMemStore()
	_, err := s.CreateGuitar(Guitar{Name: "SG", Brand: "Gibson", Type: TypeElectric, Price: 1499, Stock: 3, CategoryID: 999})
	require.Error(t, err)
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 400, re.Status)
}

func TestListGuitarsFilters(t *testing.T) {
	s := NewMemStore()
	mustCreateGuitar(t, s, Guitar{Name: "Stratocaster", Brand: "Fender", Type: TypeElectric, Price: 1200, Stock: 5})
	mustCreateGuitar(t, s, Guitar{Name: "D-28", Brand: "Martin", Type: TypeAcoustic, Price: 3100, Stock: 0})
	mustCreateGuitar(t, s, Guitar{Name: "Jazz Bass", Brand: "Fender", Type: TypeBass, Price: 1350, Stock: 2})

	t.Run("by type", func(t *testing.T) {
		got, err := s.ListGuitars(GuitarFilter{Type: "electric"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Stratocaster", got[0].Name)
	})

	t.Run("by brand substring, case-insensitive", func(t *testing.T) {
		got, err := s.ListGuitars(GuitarFilter{Brand: "fend"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("by price range", func(t *testing.T) {
		min, max := 1300.0, 3200.0
		got, err := s.ListGuitars(GuitarFilter{MinPrice: &min, MaxPrice: &max})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("in stock only", func(t *testing.T) {
		got, err := s.ListGuitars(GuitarFilter{InStock: true})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		for _, g := range got {
			assert.True(t, g.Available)
		}
	})

	t.Run("newest first", func(t *testing.T) {
		got, err := s.ListGuitars(GuitarFilter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "Jazz Bass", got[0].Name)
	})
}

func TestUpdateGuitarPatch(t *testing.T) {
	s := NewMemStore()
	g := mustCreateGuitar(t, s, Guitar{Name: "Telecaster", Brand: "Fender", Type: TypeElectric, Price: 1100, Stock: 4})

	price := 999.99
	desc := "workhorse"
	require.NoError(t, s.UpdateGuitar(g.ID, GuitarPatch{Price: &price, Description: &desc}))

	got, err := s.GetGuitar(g.ID)
	require.NoError(t, err)
	assert.Equal(t, 999.99, got.Price)
	assert.Equal(t, "workhorse", got.Description)
	assert.Equal(t, "Telecaster", got.Name)

	bad := "theremin"
	err = s.UpdateGuitar(g.ID, GuitarPatch{Type: &bad})
	require.Error(t, err)

	assert.ErrorIs(t, s.UpdateGuitar(999, GuitarPatch{Price: &price}), ErrNotFound)
}

func TestUpdateGuitarRejectedPatchLeavesRecordUntouched(t *testing.T) {
	s := NewMemStore()
	g := mustCreateGuitar(t, s, Guitar{Name: "Telecaster", Brand: "Fender", Type: TypeElectric, Price: 1100, Stock: 4})

	name := "Renamed"
	badType := "theremin"
	err := s.UpdateGuitar(g.ID, GuitarPatch{Name: &name, Type: &badType})
	require.Error(t, err)

	got, err := s.GetGuitar(g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Telecaster", got.Name)
	assert.Equal(t, TypeElectric, got.Type)

	price := 50.0
	badCategory := int64(999)
	err = s.UpdateGuitar(g.ID, GuitarPatch{Price: &price, CategoryID: &badCategory})
	require.Error(t, err)

	got, err = s.GetGuitar(g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1100.0, got.Price)
}

func TestAdjustStockFloor(t *testing.T) {
	s := NewMemStore()
	g := mustCreateGuitar(t, s, Guitar{Name: "Les Paul", Brand: "Gibson", Type: TypeElectric, Price: 2500, Stock: 3})

	ok, err := s.AdjustStock(g.ID, -2)
	require.NoError(t, err)
	assert.True(t, ok)

	// would go negative, refused and untouched
	ok, err = s.AdjustStock(g.ID, -2)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.GetGuitar(g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)

	ok, err = s.AdjustStock(999, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiscounts(t *testing.T) {
	s := NewMemStore()
	strat := mustCreateGuitar(t, s, Guitar{Name: "Stratocaster", Brand: "Fender", Type: TypeElectric, Price: 1200, Stock: 5})
	tele := mustCreateGuitar(t, s, Guitar{Name: "Telecaster", Brand: "Fender", Type: TypeElectric, Price: 1100, Stock: 5})
	martin := mustCreateGuitar(t, s, Guitar{Name: "D-28", Brand: "Martin", Type: TypeAcoustic, Price: 3100, Stock: 2})

	t.Run("single guitar", func(t *testing.T) {
		ok, err := s.SetGuitarDiscount(strat.ID, 25)
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := s.GetGuitar(strat.ID)
		require.NoError(t, err)
		assert.Equal(t, 25.0, got.DiscountPercent)
		assert.Equal(t, 900.0, got.EffectivePrice())

		ok, err = s.SetGuitarDiscount(999, 25)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("by brand, case-insensitive", func(t *testing.T) {
		n, err := s.SetBrandDiscount("fender", 10)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		got, err := s.GetGuitar(tele.ID)
		require.NoError(t, err)
		assert.Equal(t, 10.0, got.DiscountPercent)
	})

	t.Run("by type", func(t *testing.T) {
		n, err := s.SetTypeDiscount(TypeAcoustic, 15)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("listing", func(t *testing.T) {
		got, err := s.ListDiscountedGuitars()
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("clear counts only discounted rows", func(t *testing.T) {
		require.NoError(t, s.UpdateGuitar(martin.ID, GuitarPatch{DiscountPercent: float64Ptr(0)}))
		n, err := s.ClearAllDiscounts()
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		got, err := s.ListDiscountedGuitars()
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestEffectivePriceBoundaries(t *testing.T) {
	g := Guitar{Price: 100}
	assert.Equal(t, 100.0, g.EffectivePrice())

	g.DiscountPercent = 100
	assert.Equal(t, 0.0, g.EffectivePrice())

	g.Price = 19.99
	g.DiscountPercent = 33
	assert.Equal(t, 13.39, g.EffectivePrice())
}

func TestCategoryLifecycle(t *testing.T) {
	s := NewMemStore()

	id, err := s.CreateCategory(Category{Name: "Ukulele", Description: "four strings"})
	require.NoError(t, err)

	_, err = s.CreateCategory(Category{Name: "ukulele"})
	require.Error(t, err)
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 409, re.Status)

	name := "Ukuleles"
	require.NoError(t, s.UpdateCategory(id, CategoryPatch{Name: &name}))
	got, err := s.GetCategory(id)
	require.NoError(t, err)
	assert.Equal(t, "Ukuleles", got.Name)

	require.NoError(t, s.DeleteCategory(id))
	_, err = s.GetCategory(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserLifecycle(t *testing.T) {
	s := NewMemStore()

	id, err := s.CreateUser(User{Username: "alice", Email: "alice@example.com", PasswordHash: HashPassword("Passw0rd"), Role: RoleCustomer})
	require.NoError(t, err)

	_, err = s.CreateUser(User{Username: "ALICE", Email: "other@example.com"})
	require.Error(t, err)
	_, err = s.CreateUser(User{Username: "bob", Email: "Alice@Example.com"})
	require.Error(t, err)

	require.NoError(t, s.SetUserOnline(id, true))
	u, err := s.GetUser(id)
	require.NoError(t, err)
	assert.True(t, u.Online)
	assert.False(t, u.LastLogin.IsZero())

	online, err := s.ListOnlineCustomers()
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, "alice", online[0].Username)

	// admins never appear in the online customer list
	adminID, err := s.CreateUser(User{Username: "root", Email: "root@example.com", Role: RoleAdmin})
	require.NoError(t, err)
	require.NoError(t, s.SetUserOnline(adminID, true))
	online, err = s.ListOnlineCustomers()
	require.NoError(t, err)
	assert.Len(t, online, 1)

	require.NoError(t, s.SetUserOnline(id, false))
	online, err = s.ListOnlineCustomers()
	require.NoError(t, err)
	assert.Empty(t, online)
}

func TestUpdateUserRejectedPatchLeavesRecordUntouched(t *testing.T) {
	s := NewMemStore()
	id, err := s.CreateUser(User{Username: "alice", Email: "alice@example.com", Role: RoleCustomer})
	require.NoError(t, err)

	email := "new@example.com"
	badRole := "superuser"
	err = s.UpdateUser(id, UserPatch{Email: &email, Role: &badRole})
	require.Error(t, err)

	got, err := s.GetUser(id)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, RoleCustomer, got.Role)
}

func TestNotificationReadTransitions(t *testing.T) {
	s := NewMemStore()
	id1, err := s.CreateNotification(Notification{OrderID: 1, UserID: 2, Username: "alice", Total: 150})
	require.NoError(t, err)
	_, err = s.CreateNotification(Notification{OrderID: 2, UserID: 2, Username: "alice", Total: 80})
	require.NoError(t, err)

	unread, err := s.ListNotifications(true)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	require.NoError(t, s.MarkNotificationRead(id1))
	unread, err = s.ListNotifications(true)
	require.NoError(t, err)
	require.Len(t, unread, 1)

	all, err := s.ListNotifications(false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	n, err := s.MarkAllNotificationsRead()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, s.MarkNotificationRead(999), ErrNotFound)
}

func TestInventoryStats(t *testing.T) {
	s := NewMemStore()
	mustCreateGuitar(t, s, Guitar{Name: "Stratocaster", Brand: "Fender", Type: TypeElectric, Price: 1000, Stock: 2, DiscountPercent: 10})
	mustCreateGuitar(t, s, Guitar{Name: "D-28", Brand: "Martin", Type: TypeAcoustic, Price: 3000, Stock: 1})

	_, err := s.CreateOrder(1, 900, []OrderItem{{GuitarID: 1, GuitarName: "Fender Stratocaster", Quantity: 1, PriceAtPurchase: 900}})
	require.NoError(t, err)

	stats, err := s.InventoryStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalProducts)
	assert.Equal(t, 3, stats.TotalUnits)
	assert.Equal(t, 5000.0, stats.TotalValue)
	assert.Equal(t, 2000.0, stats.AvgPrice)
	assert.Equal(t, 1, stats.DiscountedCount)
	assert.Equal(t, 900.0, stats.Revenue)
	assert.Equal(t, 2, stats.ByType["electric"])
	assert.Equal(t, 1, stats.ByBrand["Martin"])
}

func TestCategoryStats(t *testing.T) {
	s := NewMemStore()
	mustCreateGuitar(t, s, Guitar{Name: "Stratocaster", Brand: "Fender", Type: TypeElectric, Price: 1000, Stock: 2})
	mustCreateGuitar(t, s, Guitar{Name: "Telecaster", Brand: "Fender", Type: TypeElectric, Price: 1100, Stock: 1})

	stats, err := s.CategoryStats()
	require.NoError(t, err)
	require.Len(t, stats, 4)

	var electric CategoryStat
	for _, st := range stats {
		if st.Category.Name == "Electric" {
			electric = st
		}
	}
	assert.Equal(t, 2, electric.GuitarCount)
	assert.Equal(t, 3, electric.TotalStock)
	assert.Equal(t, 3100.0, electric.TotalValue)
}

func TestSeedCatalog(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, seedGuitars(s))

	n, err := s.GuitarCount()
	require.NoError(t, err)
	assert.Equal(t, len(seedCatalog), n)

	// idempotent: second run leaves the count alone
	require.NoError(t, seedGuitars(s))
	n, err = s.GuitarCount()
	require.NoError(t, err)
	assert.Equal(t, len(seedCatalog), n)
}

func TestSeedAdmin(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "")
	s := NewMemStore()
	require.NoError(t, seedAdmin(s))

	admin, err := s.GetUserByUsername("admin")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	assert.True(t, VerifyPassword("Admin123", admin.PasswordHash))

	require.NoError(t, seedAdmin(s))
	users, err := s.ListUsers()
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func float64Ptr(v float64) *float64 { return &v }
