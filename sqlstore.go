package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	mysql "github.com/go-sql-driver/mysql"
)

// sqlStore implements Store over MySQL.
type sqlStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *sqlStore {
	return &sqlStore{db: db}
}

// formatPrice renders a float for a DECIMAL column.
func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}

func sqlNull(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

func sqlNullString(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// scanTime handles created_at values that arrive as time.Time, []byte or
// string depending on driver settings.
func scanTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case []byte:
		return parseTimeString(string(t))
	case string:
		return parseTimeString(t)
	}
	return time.Time{}
}

func parseTimeString(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// isDuplicate reports whether err is a MySQL unique-key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

const guitarColumns = `g.id, g.name, g.brand, g.guitar_type, g.price, g.stock,
	g.discount_percent, IFNULL(g.description,''), IFNULL(g.image_url,''),
	IFNULL(g.image_public_id,''), IFNULL(g.category_id, 0), g.created_at`

func scanGuitar(scan func(dest ...interface{}) error) (Guitar, error) {
	var g Guitar
	var typeStr, priceStr, discountStr string
	var created interface{}
	if err := scan(&g.ID, &g.Name, &g.Brand, &typeStr, &priceStr, &g.Stock,
		&discountStr, &g.Description, &g.ImageURL, &g.ImagePublicID, &g.CategoryID, &created); err != nil {
		return Guitar{}, err
	}
	t, err := ParseGuitarType(typeStr)
	if err != nil {
		return Guitar{}, fmt.Errorf("guitar %d: %w", g.ID, err)
	}
	g.Type = t
	g.Price, _ = strconv.ParseFloat(priceStr, 64)
	g.DiscountPercent, _ = strconv.ParseFloat(discountStr, 64)
	g.CreatedAt = scanTime(created)
	return finishGuitar(g), nil
}

// ===== guitars =====

func (s *sqlStore) CreateGuitar(g Guitar) (int64, error) {
	if g.CategoryID == 0 {
		if cat, err := s.GetCategoryByName(categoryNameForType(g.Type)); err == nil {
			g.CategoryID = cat.ID
		}
	} else if _, err := s.GetCategory(g.CategoryID); err != nil {
		return 0, errValidation("category %d not found", g.CategoryID)
	}
	res, err := s.db.Exec(`INSERT INTO guitars
		(name, brand, guitar_type, price, stock, discount_percent, description, image_url, image_public_id, category_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Name, g.Brand, string(g.Type), formatPrice(g.Price), g.Stock,
		formatPrice(g.DiscountPercent), g.Description, g.ImageURL,
		sqlNullString(g.ImagePublicID), sqlNull(g.CategoryID))
	if err != nil {
		return 0, fmt.Errorf("insert guitar: %w", err)
	}
	return res.LastInsertId()
}

func (s *sqlStore) GetGuitar(id int64) (Guitar, error) {
	row := s.db.QueryRow(`SELECT `+guitarColumns+` FROM guitars g WHERE g.id = ?`, id)
	g, err := scanGuitar(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Guitar{}, ErrNotFound
	}
	return g, err
}

func (s *sqlStore) ListGuitars(f GuitarFilter) ([]Guitar, error) {
	query := `SELECT ` + guitarColumns + ` FROM guitars g WHERE 1=1`
	var args []interface{}
	if f.Type != "" {
		query += " AND g.guitar_type = ?"
		args = append(args, f.Type)
	}
	if f.Brand != "" {
		query += " AND g.brand LIKE ?"
		args = append(args, "%"+f.Brand+"%")
	}
	if f.MinPrice != nil {
		query += " AND g.price >= ?"
		args = append(args, formatPrice(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		query += " AND g.price <= ?"
		args = append(args, formatPrice(*f.MaxPrice))
	}
	if f.InStock {
		query += " AND g.stock > 0"
	}
	if f.CategoryID != 0 {
		query += " AND g.category_id = ?"
		args = append(args, f.CategoryID)
	}
	query += " ORDER BY g.created_at DESC, g.id DESC"
	return s.queryGuitars(query, args...)
}

func (s *sqlStore) queryGuitars(query string, args ...interface{}) ([]Guitar, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query guitars: %w", err)
	}
	defer rows.Close()
	var out []Guitar
	for rows.Next() {
		g, err := scanGuitar(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *sqlStore) UpdateGuitar(id int64, p GuitarPatch) error {
	var setCols []string
	var args []interface{}
	if p.Name != nil {
		setCols = append(setCols, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Brand != nil {
		setCols = append(setCols, "brand = ?")
		args = append(args, *p.Brand)
	}
	if p.Type != nil {
		t, err := ParseGuitarType(*p.Type)
		if err != nil {
			return errValidation("%v", err)
		}
		setCols = append(setCols, "guitar_type = ?")
		args = append(args, string(t))
	}
	if p.Price != nil {
		setCols = append(setCols, "price = ?")
		args = append(args, formatPrice(*p.Price))
	}
	if p.Stock != nil {
		setCols = append(setCols, "stock = ?")
		args = append(args, *p.Stock)
	}
	if p.DiscountPercent != nil {
		setCols = append(setCols, "discount_percent = ?")
		args = append(args, formatPrice(*p.DiscountPercent))
	}
	if p.Description != nil {
		setCols = append(setCols, "description = ?")
		args = append(args, *p.Description)
	}
	if p.ImageURL != nil {
		setCols = append(setCols, "image_url = ?")
		args = append(args, *p.ImageURL)
	}
	if p.ImagePublicID != nil {
		setCols = append(setCols, "image_public_id = ?")
		args = append(args, sqlNullString(*p.ImagePublicID))
	}
	if p.CategoryID != nil {
		if *p.CategoryID != 0 {
			if _, err := s.GetCategory(*p.CategoryID); err != nil {
				return errValidation("category %d not found", *p.CategoryID)
			}
		}
		setCols = append(setCols, "category_id = ?")
		args = append(args, sqlNull(*p.CategoryID))
	}
	if len(setCols) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := s.db.Exec("UPDATE guitars SET "+strings.Join(setCols, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update guitar: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetGuitar(id); err != nil {
			return ErrNotFound
		}
	}
	return nil
}

func (s *sqlStore) DeleteGuitar(id int64) error {
	res, err := s.db.Exec("DELETE FROM guitars WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete guitar: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) AdjustStock(id int64, delta int) (bool, error) {
	res, err := s.db.Exec(`UPDATE guitars SET stock = stock + ?
		WHERE id = ? AND stock + ? >= 0`, delta, id, delta)
	if err != nil {
		return false, fmt.Errorf("adjust stock: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *sqlStore) GuitarExists(name, brand string) (bool, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM guitars
		WHERE LOWER(name) = LOWER(?) AND LOWER(brand) = LOWER(?)`, name, brand).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *sqlStore) GuitarCount() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM guitars").Scan(&n)
	return n, err
}

// ===== discounts =====

func (s *sqlStore) SetGuitarDiscount(id int64, percent float64) (bool, error) {
	res, err := s.db.Exec("UPDATE guitars SET discount_percent = ? WHERE id = ?", formatPrice(percent), id)
	if err != nil {
		return false, fmt.Errorf("set discount: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	// a same-value update affects zero rows; distinguish from missing id
	_, err = s.GetGuitar(id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *sqlStore) SetBrandDiscount(brand string, percent float64) (int, error) {
	res, err := s.db.Exec("UPDATE guitars SET discount_percent = ? WHERE LOWER(brand) = LOWER(?)",
		formatPrice(percent), brand)
	if err != nil {
		return 0, fmt.Errorf("set brand discount: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *sqlStore) SetTypeDiscount(t GuitarType, percent float64) (int, error) {
	res, err := s.db.Exec("UPDATE guitars SET discount_percent = ? WHERE guitar_type = ?",
		formatPrice(percent), string(t))
	if err != nil {
		return 0, fmt.Errorf("set type discount: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *sqlStore) ClearAllDiscounts() (int, error) {
	res, err := s.db.Exec("UPDATE guitars SET discount_percent = 0 WHERE discount_percent > 0")
	if err != nil {
		return 0, fmt.Errorf("clear discounts: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *sqlStore) ListDiscountedGuitars() ([]Guitar, error) {
	return s.queryGuitars(`SELECT ` + guitarColumns + ` FROM guitars g
		WHERE g.discount_percent > 0 ORDER BY g.id ASC`)
}

// ===== categories =====

func (s *sqlStore) CreateCategory(c Category) (int64, error) {
	res, err := s.db.Exec("INSERT INTO categories (name, description) VALUES (?, ?)", c.Name, c.Description)
	if err != nil {
		if isDuplicate(err) {
			return 0, errConflict("category with this name already exists")
		}
		return 0, fmt.Errorf("insert category: %w", err)
	}
	return res.LastInsertId()
}

func (s *sqlStore) GetCategory(id int64) (Category, error) {
	var c Category
	err := s.db.QueryRow("SELECT id, name, IFNULL(description,'') FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	return c, err
}

func (s *sqlStore) GetCategoryByName(name string) (Category, error) {
	var c Category
	err := s.db.QueryRow("SELECT id, name, IFNULL(description,'') FROM categories WHERE LOWER(name) = LOWER(?)", name).
		Scan(&c.ID, &c.Name, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	return c, err
}

func (s *sqlStore) ListCategories() ([]Category, error) {
	rows, err := s.db.Query("SELECT id, name, IFNULL(description,'') FROM categories ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *sqlStore) UpdateCategory(id int64, p CategoryPatch) error {
	var setCols []string
	var args []interface{}
	if p.Name != nil {
		setCols = append(setCols, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Description != nil {
		setCols = append(setCols, "description = ?")
		args = append(args, *p.Description)
	}
	if len(setCols) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := s.db.Exec("UPDATE categories SET "+strings.Join(setCols, ", ")+" WHERE id = ?", args...)
	if err != nil {
		if isDuplicate(err) {
			return errConflict("category name already in use")
		}
		return fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetCategory(id); err != nil {
			return ErrNotFound
		}
	}
	return nil
}

func (s *sqlStore) DeleteCategory(id int64) error {
	res, err := s.db.Exec("DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) GuitarsByCategory(categoryID int64) ([]Guitar, error) {
	return s.queryGuitars(`SELECT `+guitarColumns+` FROM guitars g
		WHERE g.category_id = ? ORDER BY g.id ASC`, categoryID)
}

// ===== users =====

func scanUser(scan func(dest ...interface{}) error) (User, error) {
	var u User
	var roleStr string
	var online int
	var lastLogin, created interface{}
	if err := scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &roleStr, &online, &lastLogin, &created); err != nil {
		return User{}, err
	}
	role, err := ParseUserRole(roleStr)
	if err != nil {
		return User{}, fmt.Errorf("user %d: %w", u.ID, err)
	}
	u.Role = role
	u.Online = online != 0
	u.LastLogin = scanTime(lastLogin)
	u.CreatedAt = scanTime(created)
	return u, nil
}

const userColumns = `id, username, email, password_hash, role, online,
	IFNULL(last_login, ''), created_at`

func (s *sqlStore) CreateUser(u User) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO users (username, email, password_hash, role)
		VALUES (?, ?, ?, ?)`, u.Username, u.Email, u.PasswordHash, string(u.Role))
	if err != nil {
		if isDuplicate(err) {
			if strings.Contains(err.Error(), "email") {
				return 0, errConflict("email already registered")
			}
			return 0, errConflict("username already exists")
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (s *sqlStore) GetUser(id int64) (User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *sqlStore) GetUserByUsername(username string) (User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *sqlStore) GetUserByEmail(email string) (User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER(?)`, email)
	u, err := scanUser(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *sqlStore) ListUsers() ([]User, error) {
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *sqlStore) UpdateUser(id int64, p UserPatch) error {
	var setCols []string
	var args []interface{}
	if p.Email != nil {
		setCols = append(setCols, "email = ?")
		args = append(args, *p.Email)
	}
	if p.Role != nil {
		role, err := ParseUserRole(*p.Role)
		if err != nil {
			return errValidation("%v", err)
		}
		setCols = append(setCols, "role = ?")
		args = append(args, string(role))
	}
	if len(setCols) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := s.db.Exec("UPDATE users SET "+strings.Join(setCols, ", ")+" WHERE id = ?", args...)
	if err != nil {
		if isDuplicate(err) {
			return errConflict("email already in use")
		}
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetUser(id); err != nil {
			return ErrNotFound
		}
	}
	return nil
}

func (s *sqlStore) DeleteUser(id int64) error {
	res, err := s.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) SetUserOnline(id int64, online bool) error {
	var err error
	if online {
		_, err = s.db.Exec("UPDATE users SET online = 1, last_login = ? WHERE id = ?", time.Now(), id)
	} else {
		_, err = s.db.Exec("UPDATE users SET online = 0 WHERE id = ?", id)
	}
	if err != nil {
		return fmt.Errorf("set user online: %w", err)
	}
	return nil
}

func (s *sqlStore) ListOnlineCustomers() ([]User, error) {
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users
		WHERE online = 1 AND role != 'admin' ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query online users: %w", err)
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ===== orders =====

// CreateOrder writes the order header and all line items in one
// transaction so a failure leaves no partial order behind.
func (s *sqlStore) CreateOrder(userID int64, total float64, items []OrderItem) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("INSERT INTO orders (user_id, total, status) VALUES (?, ?, ?)",
		userID, formatPrice(total), string(StatusPending))
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		if _, err := tx.Exec(`INSERT INTO order_items
			(order_id, guitar_id, guitar_name, quantity, price_at_purchase)
			VALUES (?, ?, ?, ?, ?)`,
			orderID, item.GuitarID, item.GuitarName, item.Quantity, formatPrice(item.PriceAtPurchase)); err != nil {
			return 0, fmt.Errorf("insert order item: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit order: %w", err)
	}
	return orderID, nil
}

func (s *sqlStore) queryOrders(query string, args ...interface{}) ([]Order, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		var o Order
		var totalStr, statusStr string
		var created interface{}
		if err := rows.Scan(&o.ID, &o.UserID, &totalStr, &statusStr, &created); err != nil {
			return nil, err
		}
		status, err := ParseOrderStatus(statusStr)
		if err != nil {
			return nil, fmt.Errorf("order %d: %w", o.ID, err)
		}
		o.Status = status
		o.Total, _ = strconv.ParseFloat(totalStr, 64)
		o.CreatedAt = scanTime(created)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := s.orderItems(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (s *sqlStore) orderItems(orderID int64) ([]OrderItem, error) {
	rows, err := s.db.Query(`SELECT guitar_id, guitar_name, quantity, price_at_purchase
		FROM order_items WHERE order_id = ? ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()
	var out []OrderItem
	for rows.Next() {
		var item OrderItem
		var priceStr string
		if err := rows.Scan(&item.GuitarID, &item.GuitarName, &item.Quantity, &priceStr); err != nil {
			return nil, err
		}
		item.PriceAtPurchase, _ = strconv.ParseFloat(priceStr, 64)
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *sqlStore) OrdersByUser(userID int64) ([]Order, error) {
	return s.queryOrders(`SELECT id, user_id, total, status, created_at FROM orders
		WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
}

func (s *sqlStore) ListOrders() ([]Order, error) {
	return s.queryOrders(`SELECT id, user_id, total, status, created_at FROM orders
		ORDER BY created_at DESC, id DESC`)
}

// ===== notifications =====

func (s *sqlStore) CreateNotification(n Notification) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO purchase_notifications
		(order_id, user_id, username, total) VALUES (?, ?, ?, ?)`,
		n.OrderID, n.UserID, n.Username, formatPrice(n.Total))
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	return res.LastInsertId()
}

func (s *sqlStore) ListNotifications(unreadOnly bool) ([]Notification, error) {
	query := `SELECT id, order_id, user_id, username, total, is_read, created_at
		FROM purchase_notifications`
	if unreadOnly {
		query += " WHERE is_read = 0"
	}
	query += " ORDER BY id DESC"
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()
	var out []Notification
	for rows.Next() {
		var n Notification
		var totalStr string
		var read int
		var created interface{}
		if err := rows.Scan(&n.ID, &n.OrderID, &n.UserID, &n.Username, &totalStr, &read, &created); err != nil {
			return nil, err
		}
		n.Total, _ = strconv.ParseFloat(totalStr, 64)
		n.Read = read != 0
		n.CreatedAt = scanTime(created)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *sqlStore) MarkNotificationRead(id int64) error {
	res, err := s.db.Exec("UPDATE purchase_notifications SET is_read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int64
		if err := s.db.QueryRow("SELECT id FROM purchase_notifications WHERE id = ?", id).Scan(&exists); err != nil {
			return ErrNotFound
		}
	}
	return nil
}

func (s *sqlStore) MarkAllNotificationsRead() (int, error) {
	res, err := s.db.Exec("UPDATE purchase_notifications SET is_read = 1 WHERE is_read = 0")
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ===== statistics =====

func (s *sqlStore) InventoryStats() (InventoryStats, error) {
	stats := InventoryStats{
		ByType:  make(map[string]int),
		ByBrand: make(map[string]int),
	}
	var totalValue, avgPrice sql.NullString
	var totalUnits sql.NullInt64
	err := s.db.QueryRow(`SELECT COUNT(*), IFNULL(SUM(stock), 0),
		IFNULL(SUM(price * stock), 0), IFNULL(AVG(price), 0) FROM guitars`).
		Scan(&stats.TotalProducts, &totalUnits, &totalValue, &avgPrice)
	if err != nil {
		return stats, fmt.Errorf("inventory stats: %w", err)
	}
	stats.TotalUnits = int(totalUnits.Int64)
	stats.TotalValue, _ = strconv.ParseFloat(totalValue.String, 64)
	stats.AvgPrice, _ = strconv.ParseFloat(avgPrice.String, 64)

	if err := s.db.QueryRow("SELECT COUNT(*) FROM guitars WHERE discount_percent > 0").
		Scan(&stats.DiscountedCount); err != nil {
		return stats, fmt.Errorf("discounted count: %w", err)
	}

	var revenue sql.NullString
	if err := s.db.QueryRow("SELECT IFNULL(SUM(total), 0) FROM orders WHERE status != 'cancelled'").
		Scan(&revenue); err != nil {
		return stats, fmt.Errorf("revenue: %w", err)
	}
	stats.Revenue, _ = strconv.ParseFloat(revenue.String, 64)

	if err := s.groupedStock("guitar_type", stats.ByType); err != nil {
		return stats, err
	}
	if err := s.groupedStock("brand", stats.ByBrand); err != nil {
		return stats, err
	}
	return stats, nil
}

func (s *sqlStore) groupedStock(column string, into map[string]int) error {
	rows, err := s.db.Query("SELECT " + column + ", IFNULL(SUM(stock), 0) FROM guitars GROUP BY " + column)
	if err != nil {
		return fmt.Errorf("grouped stock by %s: %w", column, err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}

func (s *sqlStore) CategoryStats() ([]CategoryStat, error) {
	rows, err := s.db.Query(`SELECT c.id, c.name, IFNULL(c.description,''),
		COUNT(g.id), IFNULL(SUM(g.stock), 0), IFNULL(SUM(g.price * g.stock), 0)
		FROM categories c
		LEFT JOIN guitars g ON g.category_id = c.id
		GROUP BY c.id, c.name, c.description
		ORDER BY c.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	defer rows.Close()
	var out []CategoryStat
	for rows.Next() {
		var stat CategoryStat
		var valueStr string
		if err := rows.Scan(&stat.Category.ID, &stat.Category.Name, &stat.Category.Description,
			&stat.GuitarCount, &stat.TotalStock, &valueStr); err != nil {
			return nil, err
		}
		stat.TotalValue, _ = strconv.ParseFloat(valueStr, 64)
		out = append(out, stat)
	}
	return out, rows.Err()
}
