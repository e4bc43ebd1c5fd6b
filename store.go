package main

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Store is the persistence boundary for catalog, accounts, orders and
// notifications. Implementations: sqlStore (MySQL) and memStore (dev mode
// and tests).
type Store interface {
	CreateGuitar(g Guitar) (int64, error)
	GetGuitar(id int64) (Guitar, error)
	ListGuitars(f GuitarFilter) ([]Guitar, error)
	UpdateGuitar(id int64, p GuitarPatch) error
	DeleteGuitar(id int64) error
	AdjustStock(id int64, delta int) (bool, error)
	GuitarExists(name, brand string) (bool, error)
	GuitarCount() (int, error)

	SetGuitarDiscount(id int64, percent float64) (bool, error)
	SetBrandDiscount(brand string, percent float64) (int, error)
	SetTypeDiscount(t GuitarType, percent float64) (int, error)
	ClearAllDiscounts() (int, error)
	ListDiscountedGuitars() ([]Guitar, error)

	CreateCategory(c Category) (int64, error)
	GetCategory(id int64) (Category, error)
	GetCategoryByName(name string) (Category, error)
	ListCategories() ([]Category, error)
	UpdateCategory(id int64, p CategoryPatch) error
	DeleteCategory(id int64) error
	GuitarsByCategory(categoryID int64) ([]Guitar, error)

	CreateUser(u User) (int64, error)
	GetUser(id int64) (User, error)
	GetUserByUsername(username string) (User, error)
	GetUserByEmail(email string) (User, error)
	ListUsers() ([]User, error)
	UpdateUser(id int64, p UserPatch) error
	DeleteUser(id int64) error
	SetUserOnline(id int64, online bool) error
	ListOnlineCustomers() ([]User, error)

	CreateOrder(userID int64, total float64, items []OrderItem) (int64, error)
	OrdersByUser(userID int64) ([]Order, error)
	ListOrders() ([]Order, error)

	CreateNotification(n Notification) (int64, error)
	ListNotifications(unreadOnly bool) ([]Notification, error)
	MarkNotificationRead(id int64) error
	MarkAllNotificationsRead() (int, error)

	InventoryStats() (InventoryStats, error)
	CategoryStats() ([]CategoryStat, error)
}

// categoryNameForType maps a guitar type to its default category name,
// used to auto-assign a category at creation when none is given.
func categoryNameForType(t GuitarType) string {
	switch t {
	case TypeElectric:
		return "Electric"
	case TypeAcoustic:
		return "Acoustic"
	case TypeBass:
		return "Bass"
	case TypeClassical:
		return "Classical"
	}
	return ""
}

var defaultCategories = []Category{
	{Name: "Electric", Description: "Electric guitars with pickups and amplification"},
	{Name: "Acoustic", Description: "Steel-string acoustic guitars"},
	{Name: "Bass", Description: "Bass guitars for low-end frequencies"},
	{Name: "Classical", Description: "Nylon-string classical and flamenco guitars"},
}

// memStore is the in-memory Store used when DEV_MODE is set and by the
// tests. All access goes through one mutex.
type memStore struct {
	mu            sync.Mutex
	guitars       map[int64]*Guitar
	categories    map[int64]*Category
	users         map[int64]*User
	orders        []*Order
	notifications []*Notification

	nextGuitarID   int64
	nextCategoryID int64
	nextUserID     int64
	nextOrderID    int64
	nextNotifID    int64

	now func() time.Time
}

func NewMemStore() *memStore {
	s := &memStore{
		guitars:        make(map[int64]*Guitar),
		categories:     make(map[int64]*Category),
		users:          make(map[int64]*User),
		nextGuitarID:   1,
		nextCategoryID: 1,
		nextUserID:     1,
		nextOrderID:    1,
		nextNotifID:    1,
		now:            time.Now,
	}
	for _, c := range defaultCategories {
		cat := c
		cat.ID = s.nextCategoryID
		s.nextCategoryID++
		s.categories[cat.ID] = &cat
	}
	return s
}

func finishGuitar(g Guitar) Guitar {
	g.Available = g.Stock > 0
	return g
}

// ===== guitars =====

func (s *memStore) CreateGuitar(g Guitar) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.CategoryID == 0 {
		if cat := s.categoryByNameLocked(categoryNameForType(g.Type)); cat != nil {
			g.CategoryID = cat.ID
		}
	} else if _, ok := s.categories[g.CategoryID]; !ok {
		return 0, errValidation("category %d not found", g.CategoryID)
	}
	g.ID = s.nextGuitarID
	s.nextGuitarID++
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	s.guitars[g.ID] = &g
	return g.ID, nil
}

func (s *memStore) GetGuitar(id int64) (Guitar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guitars[id]
	if !ok {
		return Guitar{}, ErrNotFound
	}
	return finishGuitar(*g), nil
}

func (s *memStore) ListGuitars(f GuitarFilter) ([]Guitar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Guitar
	for _, g := range s.guitars {
		if f.Type != "" && string(g.Type) != f.Type {
			continue
		}
		if f.Brand != "" && !strings.Contains(strings.ToLower(g.Brand), strings.ToLower(f.Brand)) {
			continue
		}
		if f.MinPrice != nil && g.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && g.Price > *f.MaxPrice {
			continue
		}
		if f.InStock && g.Stock <= 0 {
			continue
		}
		if f.CategoryID != 0 && g.CategoryID != f.CategoryID {
			continue
		}
		out = append(out, finishGuitar(*g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) UpdateGuitar(id int64, p GuitarPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guitars[id]
	if !ok {
		return ErrNotFound
	}
	// validate the whole patch before touching the record
	var guitarType GuitarType
	if p.Type != nil {
		t, err := ParseGuitarType(*p.Type)
		if err != nil {
			return errValidation("%v", err)
		}
		guitarType = t
	}
	if p.CategoryID != nil && *p.CategoryID != 0 {
		if _, ok := s.categories[*p.CategoryID]; !ok {
			return errValidation("category %d not found", *p.CategoryID)
		}
	}
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.Brand != nil {
		g.Brand = *p.Brand
	}
	if p.Type != nil {
		g.Type = guitarType
	}
	if p.Price != nil {
		g.Price = *p.Price
	}
	if p.Stock != nil {
		g.Stock = *p.Stock
	}
	if p.DiscountPercent != nil {
		g.DiscountPercent = *p.DiscountPercent
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.ImageURL != nil {
		g.ImageURL = *p.ImageURL
	}
	if p.ImagePublicID != nil {
		g.ImagePublicID = *p.ImagePublicID
	}
	if p.CategoryID != nil {
		g.CategoryID = *p.CategoryID
	}
	return nil
}

func (s *memStore) DeleteGuitar(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.guitars[id]; !ok {
		return ErrNotFound
	}
	delete(s.guitars, id)
	return nil
}

// AdjustStock applies delta atomically; it refuses (false, nil) when the
// result would go negative or the guitar does not exist.
func (s *memStore) AdjustStock(id int64, delta int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guitars[id]
	if !ok {
		return false, nil
	}
	if g.Stock+delta < 0 {
		return false, nil
	}
	g.Stock += delta
	return true, nil
}

func (s *memStore) GuitarExists(name, brand string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.guitars {
		if strings.EqualFold(g.Name, name) && strings.EqualFold(g.Brand, brand) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) GuitarCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.guitars), nil
}

// ===== discounts =====

func (s *memStore) SetGuitarDiscount(id int64, percent float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guitars[id]
	if !ok {
		return false, nil
	}
	g.DiscountPercent = percent
	return true, nil
}

func (s *memStore) SetBrandDiscount(brand string, percent float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, g := range s.guitars {
		if strings.EqualFold(g.Brand, brand) {
			g.DiscountPercent = percent
			n++
		}
	}
	return n, nil
}

func (s *memStore) SetTypeDiscount(t GuitarType, percent float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, g := range s.guitars {
		if g.Type == t {
			g.DiscountPercent = percent
			n++
		}
	}
	return n, nil
}

func (s *memStore) ClearAllDiscounts() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, g := range s.guitars {
		if g.DiscountPercent > 0 {
			g.DiscountPercent = 0
			n++
		}
	}
	return n, nil
}

func (s *memStore) ListDiscountedGuitars() ([]Guitar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Guitar
	for _, g := range s.guitars {
		if g.DiscountPercent > 0 {
			out = append(out, finishGuitar(*g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== categories =====

func (s *memStore) categoryByNameLocked(name string) *Category {
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

func (s *memStore) CreateCategory(c Category) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoryByNameLocked(c.Name) != nil {
		return 0, errConflict("category with this name already exists")
	}
	c.ID = s.nextCategoryID
	s.nextCategoryID++
	s.categories[c.ID] = &c
	return c.ID, nil
}

func (s *memStore) GetCategory(id int64) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	return *c, nil
}

func (s *memStore) GetCategoryByName(name string) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.categoryByNameLocked(name); c != nil {
		return *c, nil
	}
	return Category{}, ErrNotFound
}

func (s *memStore) ListCategories() ([]Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) UpdateCategory(id int64, p CategoryPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return ErrNotFound
	}
	if p.Name != nil {
		if dup := s.categoryByNameLocked(*p.Name); dup != nil && dup.ID != id {
			return errConflict("category name already in use")
		}
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	return nil
}

func (s *memStore) DeleteCategory(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *memStore) GuitarsByCategory(categoryID int64) ([]Guitar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Guitar
	for _, g := range s.guitars {
		if g.CategoryID == categoryID {
			out = append(out, finishGuitar(*g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== users =====

func (s *memStore) CreateUser(u User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return 0, errConflict("username already exists")
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return 0, errConflict("email already registered")
		}
	}
	u.ID = s.nextUserID
	s.nextUserID++
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.users[u.ID] = &u
	return u.ID, nil
}

func (s *memStore) GetUser(id int64) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return *u, nil
}

func (s *memStore) GetUserByUsername(username string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return *u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *memStore) GetUserByEmail(email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return *u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *memStore) ListUsers() ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) UpdateUser(id int64, p UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	// validate the whole patch before touching the record
	var role UserRole
	if p.Role != nil {
		parsed, err := ParseUserRole(*p.Role)
		if err != nil {
			return errValidation("%v", err)
		}
		role = parsed
	}
	if p.Email != nil {
		for _, other := range s.users {
			if other.ID != id && strings.EqualFold(other.Email, *p.Email) {
				return errConflict("email already in use")
			}
		}
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = role
	}
	return nil
}

func (s *memStore) DeleteUser(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *memStore) SetUserOnline(id int64, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Online = online
	if online {
		u.LastLogin = s.now()
	}
	return nil
}

// ListOnlineCustomers excludes admin accounts by policy.
func (s *memStore) ListOnlineCustomers() ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []User
	for _, u := range s.users {
		if u.Online && u.Role != RoleAdmin {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== orders =====

func (s *memStore) CreateOrder(userID int64, total float64, items []OrderItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := &Order{
		ID:        s.nextOrderID,
		UserID:    userID,
		Total:     total,
		Status:    StatusPending,
		CreatedAt: s.now(),
		Items:     append([]OrderItem(nil), items...),
	}
	s.nextOrderID++
	s.orders = append(s.orders, o)
	return o.ID, nil
}

func (s *memStore) OrdersByUser(userID int64) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) ListOrders() ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// ===== notifications =====

func (s *memStore) CreateNotification(n Notification) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.nextNotifID
	s.nextNotifID++
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	s.notifications = append(s.notifications, &n)
	return n.ID, nil
}

func (s *memStore) ListNotifications(unreadOnly bool) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Notification
	for _, n := range s.notifications {
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) MarkNotificationRead(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return ErrNotFound
}

func (s *memStore) MarkAllNotificationsRead() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, notif := range s.notifications {
		if !notif.Read {
			notif.Read = true
			n++
		}
	}
	return n, nil
}

// ===== statistics =====

func (s *memStore) InventoryStats() (InventoryStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := InventoryStats{
		ByType:  make(map[string]int),
		ByBrand: make(map[string]int),
	}
	totalValue := decimal.Zero
	priceSum := decimal.Zero
	for _, g := range s.guitars {
		stats.TotalProducts++
		stats.TotalUnits += g.Stock
		totalValue = totalValue.Add(decimal.NewFromFloat(g.Price).Mul(decimal.NewFromInt(int64(g.Stock))))
		priceSum = priceSum.Add(decimal.NewFromFloat(g.Price))
		stats.ByType[string(g.Type)] += g.Stock
		stats.ByBrand[g.Brand] += g.Stock
		if g.DiscountPercent > 0 {
			stats.DiscountedCount++
		}
	}
	stats.TotalValue = totalValue.Round(2).InexactFloat64()
	if stats.TotalProducts > 0 {
		stats.AvgPrice = priceSum.Div(decimal.NewFromInt(int64(stats.TotalProducts))).Round(2).InexactFloat64()
	}
	revenue := decimal.Zero
	for _, o := range s.orders {
		if o.Status != StatusCancelled {
			revenue = revenue.Add(decimal.NewFromFloat(o.Total))
		}
	}
	stats.Revenue = revenue.Round(2).InexactFloat64()
	return stats, nil
}

func (s *memStore) CategoryStats() ([]CategoryStat, error) {
	cats, err := s.ListCategories()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CategoryStat, 0, len(cats))
	for _, c := range cats {
		stat := CategoryStat{Category: c}
		value := decimal.Zero
		for _, g := range s.guitars {
			if g.CategoryID != c.ID {
				continue
			}
			stat.GuitarCount++
			stat.TotalStock += g.Stock
			value = value.Add(decimal.NewFromFloat(g.Price).Mul(decimal.NewFromInt(int64(g.Stock))))
		}
		stat.TotalValue = value.Round(2).InexactFloat64()
		out = append(out, stat)
	}
	return out, nil
}
