package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gorilla/schema"
)

// app bundles the handler dependencies: persistent store, per-user cart
// registry, token service and the Cloudinary upload URL (empty in dev mode).
type app struct {
	store    Store
	carts    *CartStore
	tokens   *TokenService
	cloudURL string
}

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps the error taxonomy onto HTTP statuses. Anything that is
// not a RequestError or a not-found is a server fault and gets logged.
func writeError(w http.ResponseWriter, err error) {
	var re *RequestError
	if errors.As(err, &re) {
		writeJSON(w, re.Status, map[string]string{"error": re.Message})
		return
	}
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	log.Println("internal error:", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}

// currentUser authenticates the request from its bearer token.
func (a *app) currentUser(r *http.Request) (*TokenClaims, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, errUnauthorized("missing bearer token")
	}
	return a.tokens.Verify(token)
}

// requireAdmin is the admin role gate.
func (a *app) requireAdmin(r *http.Request) (*TokenClaims, error) {
	claims, err := a.currentUser(r)
	if err != nil {
		return nil, err
	}
	if claims.Role != string(RoleAdmin) {
		return nil, errForbidden("admin access required")
	}
	return claims, nil
}

// requireCustomer gates customer-only actions; admin accounts cannot shop.
func (a *app) requireCustomer(r *http.Request) (*TokenClaims, error) {
	claims, err := a.currentUser(r)
	if err != nil {
		return nil, err
	}
	if claims.Role == string(RoleAdmin) {
		return nil, errForbidden("this action is only available for customers")
	}
	return claims, nil
}

// pathID extracts the numeric id at segment index from a split URL path.
func pathID(parts []string, index int) (int64, error) {
	if len(parts) <= index {
		return 0, errValidation("bad request path")
	}
	id, err := strconv.ParseInt(parts[index], 10, 64)
	if err != nil {
		return 0, errValidation("invalid id %q", parts[index])
	}
	return id, nil
}

// ===== auth =====

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *app) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errValidation("invalid json: %v", err))
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if len(req.Username) < 3 {
		writeError(w, errValidation("username must be at least 3 characters"))
		return
	}
	if ok, reason := ValidatePasswordStrength(req.Password); !ok {
		writeError(w, errValidation("%s", reason))
		return
	}
	if !ValidateEmail(req.Email) {
		writeError(w, errValidation("invalid email format"))
		return
	}
	if _, err := a.store.GetUserByUsername(req.Username); err == nil {
		writeError(w, errConflict("username already exists"))
		return
	}
	if _, err := a.store.GetUserByEmail(req.Email); err == nil {
		writeError(w, errConflict("email already registered"))
		return
	}
	user := User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: HashPassword(req.Password),
		Role:         RoleCustomer,
	}
	id, err := a.store.CreateUser(user)
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := a.store.GetUser(id)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("registered user %q (id=%d)", created.Username, created.ID)
	writeJSON(w, http.StatusCreated, created)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *app) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errValidation("invalid json: %v", err))
		return
	}
	user, err := a.store.GetUserByUsername(req.Username)
	if err != nil || !VerifyPassword(req.Password, user.PasswordHash) {
		writeError(w, errUnauthorized("invalid username or password"))
		return
	}
	if err := a.store.SetUserOnline(user.ID, true); err != nil {
		writeError(w, err)
		return
	}
	token, err := a.tokens.Issue(user)
	if err != nil {
		writeError(w, err)
		return
	}
	user.Online = true
	log.Printf("login: user %q (id=%d)", user.Username, user.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

func (a *app) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	claims, err := a.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.store.SetUserOnline(claims.UserID, false); err != nil && !errors.Is(err, ErrNotFound) {
		writeError(w, err)
		return
	}
	a.carts.Drop(claims.UserID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "successfully logged out"})
}

func (a *app) me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	claims, err := a.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := a.store.GetUser(claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ===== guitars =====

type guitarCreateRequest struct {
	Name            string  `json:"name"`
	Brand           string  `json:"brand"`
	Type            string  `json:"guitar_type"`
	Price           float64 `json:"price"`
	Stock           int     `json:"stock"`
	DiscountPercent float64 `json:"discount_percent"`
	Description     string  `json:"description"`
	ImageURL        string  `json:"image_url"`
	CategoryID      int64   `json:"category_id"`
}

func (a *app) guitars(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var filter GuitarFilter
		if err := queryDecoder.Decode(&filter, r.URL.Query()); err != nil {
			writeError(w, errValidation("invalid filter: %v", err))
			return
		}
		if filter.Type != "" {
			if _, err := ParseGuitarType(filter.Type); err != nil {
				writeError(w, errValidation("%v", err))
				return
			}
		}
		guitars, err := a.store.ListGuitars(filter)
		if err != nil {
			writeError(w, err)
			return
		}
		if guitars == nil {
			guitars = []Guitar{}
		}
		writeJSON(w, http.StatusOK, guitars)

	case http.MethodPost:
		if _, err := a.requireAdmin(r); err != nil {
			writeError(w, err)
			return
		}
		var req guitarCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errValidation("invalid json: %v", err))
			return
		}
		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Brand) == "" {
			writeError(w, errValidation("name and brand are required"))
			return
		}
		guitarType, err := ParseGuitarType(req.Type)
		if err != nil {
			writeError(w, errValidation("%v", err))
			return
		}
		if req.Price <= 0 {
			writeError(w, errValidation("price must be positive"))
			return
		}
		if req.Stock < 0 {
			writeError(w, errValidation("stock cannot be negative"))
			return
		}
		if req.DiscountPercent < 0 || req.DiscountPercent > 100 {
			writeError(w, errValidation("discount must be between 0 and 100"))
			return
		}
		id, err := a.store.CreateGuitar(Guitar{
			Name:            strings.TrimSpace(req.Name),
			Brand:           strings.TrimSpace(req.Brand),
			Type:            guitarType,
			Price:           req.Price,
			Stock:           req.Stock,
			DiscountPercent: req.DiscountPercent,
			Description:     req.Description,
			ImageURL:        req.ImageURL,
			CategoryID:      req.CategoryID,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		created, err := a.store.GetGuitar(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"message": "guitar created successfully",
			"guitar":  created,
		})

	default:
		methodNotAllowed(w)
	}
}

// guitarItem handles /api/guitars/{id} and /api/guitars/{id}/image.
func (a *app) guitarItem(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	id, err := pathID(parts, 3)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(parts) >= 5 && parts[4] == "image" {
		a.uploadGuitarImage(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		g, err := a.store.GetGuitar(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g)

	case http.MethodPut:
		if _, err := a.requireAdmin(r); err != nil {
			writeError(w, err)
			return
		}
		var patch GuitarPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, errValidation("invalid json: %v", err))
			return
		}
		if patch.Empty() {
			writeError(w, errValidation("no fields to update"))
			return
		}
		if patch.Price != nil && *patch.Price <= 0 {
			writeError(w, errValidation("price must be positive"))
			return
		}
		if patch.Stock != nil && *patch.Stock < 0 {
			writeError(w, errValidation("stock cannot be negative"))
			return
		}
		if patch.DiscountPercent != nil && (*patch.DiscountPercent < 0 || *patch.DiscountPercent > 100) {
			writeError(w, errValidation("discount must be between 0 and 100"))
			return
		}
		if err := a.store.UpdateGuitar(id, patch); err != nil {
			writeError(w, err)
			return
		}
		updated, err := a.store.GetGuitar(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "guitar updated successfully",
			"guitar":  updated,
		})

	case http.MethodDelete:
		if _, err := a.requireAdmin(r); err != nil {
			writeError(w, err)
			return
		}
		g, err := a.store.GetGuitar(id)
		if err != nil {
			writeError(w, err)
			return
		}
		if g.ImagePublicID != "" && a.cloudURL != "" {
			a.destroyImage(g.ImagePublicID)
		}
		if err := a.store.DeleteGuitar(id); err != nil {
			writeError(w, err)
			return
		}
		log.Printf("guitar DELETE id=%d: deleted", id)
		writeJSON(w, http.StatusOK, map[string]string{"message": "guitar deleted successfully"})

	default:
		methodNotAllowed(w)
	}
}

// uploadGuitarImage accepts a multipart image for a guitar and stores it in
// Cloudinary; dev mode records a placeholder URL instead.
func (a *app) uploadGuitarImage(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if _, err := a.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	if _, err := a.store.GetGuitar(id); err != nil {
		writeError(w, err)
		return
	}
	if err := r.ParseMultipartForm(20 << 20); err != nil {
		writeError(w, errValidation("parse multipart: %v", err))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, errValidation("file is required"))
		return
	}
	defer file.Close()

	imageURL := "https://placeholder.svg?height=300&width=300&query=guitar"
	imagePublicID := ""
	if a.cloudURL != "" {
		cld, err := cloudinary.NewFromURL(a.cloudURL)
		if err != nil {
			log.Println("cloudinary init:", err)
			writeError(w, err)
			return
		}
		uploadResult, err := cld.Upload.Upload(r.Context(), file, uploader.UploadParams{})
		if err != nil {
			log.Println("upload error:", err)
			writeError(w, err)
			return
		}
		imageURL = uploadResult.SecureURL
		imagePublicID = uploadResult.PublicID
	}
	patch := GuitarPatch{ImageURL: &imageURL, ImagePublicID: &imagePublicID}
	if err := a.store.UpdateGuitar(id, patch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"image_url": imageURL})
}

func (a *app) destroyImage(publicID string) {
	cld, err := cloudinary.NewFromURL(a.cloudURL)
	if err != nil {
		log.Println("cloudinary init for delete error:", err)
		return
	}
	if _, err := cld.Upload.Destroy(context.Background(), uploader.DestroyParams{PublicID: publicID}); err != nil {
		log.Println("cloudinary destroy error:", err)
		return
	}
	log.Printf("deleted cloudinary image: %s", publicID)
}

// ===== cart =====

func (a *app) cartSummary(cart *ShoppingCart) map[string]interface{} {
	items := cart.Items()
	lines := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		lines = append(lines, map[string]interface{}{
			"guitar":   item.Guitar,
			"quantity": item.Quantity,
			"subtotal": item.Subtotal(),
		})
	}
	return map[string]interface{}{
		"items":      lines,
		"total":      cart.Total(),
		"item_count": cart.ItemCount(),
	}
}

// cart handles GET (view) and DELETE (clear) on /api/cart.
func (a *app) cart(w http.ResponseWriter, r *http.Request) {
	claims, err := a.requireCustomer(r)
	if err != nil {
		writeError(w, err)
		return
	}
	switch r.Method {
	case http.MethodGet:
		var summary map[string]interface{}
		_ = a.carts.With(claims.UserID, func(c *ShoppingCart) error {
			summary = a.cartSummary(c)
			return nil
		})
		writeJSON(w, http.StatusOK, summary)

	case http.MethodDelete:
		_ = a.carts.With(claims.UserID, func(c *ShoppingCart) error {
			c.Clear()
			return nil
		})
		writeJSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})

	default:
		methodNotAllowed(w)
	}
}

type cartAddRequest struct {
	GuitarID int64 `json:"guitar_id"`
	Quantity int   `json:"quantity"`
}

func (a *app) cartAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	claims, err := a.requireCustomer(r)
	if err != nil {
		writeError(w, err)
		return
	}
	req := cartAddRequest{Quantity: 1}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errValidation("invalid json: %v", err))
		return
	}
	guitar, err := a.store.GetGuitar(req.GuitarID)
	if err != nil {
		writeError(w, err)
		return
	}
	err = a.carts.With(claims.UserID, func(c *ShoppingCart) error {
		return c.AddItem(guitar, req.Quantity)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "added " + guitar.Brand + " " + guitar.Name + " to cart",
	})
}

// cartItem handles PUT (set quantity) and DELETE on /api/cart/{guitarID}.
func (a *app) cartItem(w http.ResponseWriter, r *http.Request) {
	claims, err := a.requireCustomer(r)
	if err != nil {
		writeError(w, err)
		return
	}
	parts := strings.Split(r.URL.Path, "/")
	guitarID, err := pathID(parts, 3)
	if err != nil {
		writeError(w, err)
		return
	}
	switch r.Method {
	case http.MethodPut:
		var req struct {
			Quantity int `json:"quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errValidation("invalid json: %v", err))
			return
		}
		if req.Quantity <= 0 {
			_ = a.carts.With(claims.UserID, func(c *ShoppingCart) error {
				c.RemoveItem(guitarID)
				return nil
			})
			writeJSON(w, http.StatusOK, map[string]string{"message": "item removed from cart"})
			return
		}
		// quantity re-validated against current stock
		guitar, err := a.store.GetGuitar(guitarID)
		if err != nil {
			writeError(w, err)
			return
		}
		err = a.carts.With(claims.UserID, func(c *ShoppingCart) error {
			return c.UpdateQuantity(guitar, req.Quantity)
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "cart updated"})

	case http.MethodDelete:
		_ = a.carts.With(claims.UserID, func(c *ShoppingCart) error {
			c.RemoveItem(guitarID)
			return nil
		})
		writeJSON(w, http.StatusOK, map[string]string{"message": "item removed from cart"})

	default:
		methodNotAllowed(w)
	}
}

// ===== checkout =====

func (a *app) purchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	claims, err := a.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := Purchase(a.store, a.carts, claims)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("purchase: user %d placed order %d total %.2f", claims.UserID, result.OrderID, result.Total)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "purchase successful, order placed",
		"order_id": result.OrderID,
		"total":    result.Total,
	})
}

func (a *app) orderHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	claims, err := a.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	orders, err := a.store.OrdersByUser(claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// ===== categories =====

func (a *app) categories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cats, err := a.store.ListCategories()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cats)

	case http.MethodPost:
		if _, err := a.requireAdmin(r); err != nil {
			writeError(w, err)
			return
		}
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errValidation("invalid json: %v", err))
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, errValidation("name is required"))
			return
		}
		id, err := a.store.CreateCategory(Category{Name: req.Name, Description: req.Description})
		if err != nil {
			writeError(w, err)
			return
		}
		created, err := a.store.GetCategory(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"message":  "category created successfully",
			"category": created,
		})

	default:
		methodNotAllowed(w)
	}
}

// categoryItem handles /api/categories/{id}, /api/categories/{id}/guitars
// and /api/categories/stats/summary.
func (a *app) categoryItem(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) >= 5 && parts[3] == "stats" && parts[4] == "summary" {
		a.categoryStats(w, r)
		return
	}
	if len(parts) >= 5 && parts[3] == "type" {
		a.categoryByType(w, r, parts[4])
		return
	}
	id, err := pathID(parts, 3)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(parts) >= 5 && parts[4] == "guitars" {
		a.categoryGuitars(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		cat, err := a.store.GetCategory(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cat)

	case http.MethodPut:
		if _, err := a.requireAdmin(r); err != nil {
			writeError(w, err)
			return
		}
		var patch CategoryPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, errValidation("invalid json: %v", err))
			return
		}
		if patch.Empty() {
			writeError(w, errValidation("no fields to update"))
			return
		}
		if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
			writeError(w, errValidation("name cannot be empty"))
			return
		}
		if err := a.store.UpdateCategory(id, patch); err != nil {
			writeError(w, err)
			return
		}
		updated, err := a.store.GetCategory(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":  "category updated successfully",
			"category": updated,
		})

	case http.MethodDelete:
		if _, err := a.requireAdmin(r); err != nil {
			writeError(w, err)
			return
		}
		if _, err := a.store.GetCategory(id); err != nil {
			writeError(w, err)
			return
		}
		guitars, err := a.store.GuitarsByCategory(id)
		if err != nil {
			writeError(w, err)
			return
		}
		if len(guitars) > 0 {
			writeError(w, errConflict("cannot delete category with %d guitars, remove or reassign them first", len(guitars)))
			return
		}
		if err := a.store.DeleteCategory(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "category deleted successfully"})

	default:
		methodNotAllowed(w)
	}
}

func (a *app) categoryGuitars(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	cat, err := a.store.GetCategory(id)
	if err != nil {
		writeError(w, err)
		return
	}
	guitars, err := a.store.GuitarsByCategory(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if guitars == nil {
		guitars = []Guitar{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"category": cat,
		"guitars":  guitars,
		"count":    len(guitars),
	})
}

// categoryByType resolves the default category for a guitar type and lists
// its guitars.
func (a *app) categoryByType(w http.ResponseWriter, r *http.Request, token string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	guitarType, err := ParseGuitarType(token)
	if err != nil {
		writeError(w, errValidation("%v", err))
		return
	}
	cat, err := a.store.GetCategoryByName(categoryNameForType(guitarType))
	if err != nil {
		writeError(w, err)
		return
	}
	guitars, err := a.store.GuitarsByCategory(cat.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if guitars == nil {
		guitars = []Guitar{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"category":    cat,
		"guitar_type": string(guitarType),
		"guitars":     guitars,
		"count":       len(guitars),
	})
}

func (a *app) categoryStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, err := a.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	stats, err := a.store.CategoryStats()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"category_stats": stats})
}

// ===== users =====

func (a *app) users(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, err := a.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	users, err := a.store.ListUsers()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// userItem handles /api/users/{id}, /api/users/{id}/role and
// /api/users/{id}/orders.
func (a *app) userItem(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	id, err := pathID(parts, 3)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(parts) >= 5 {
		switch parts[4] {
		case "role":
			a.userRole(w, r, id)
			return
		case "orders":
			a.userOrders(w, r, id)
			return
		}
	}

	switch r.Method {
	case http.MethodGet:
		claims, err := a.currentUser(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if claims.Role != string(RoleAdmin) && claims.UserID != id {
			writeError(w, errForbidden("you can only view your own profile"))
			return
		}
		user, err := a.store.GetUser(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)

	case http.MethodPut:
		claims, err := a.currentUser(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if claims.Role != string(RoleAdmin) && claims.UserID != id {
			writeError(w, errForbidden("you can only update your own profile"))
			return
		}
		var req struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errValidation("invalid json: %v", err))
			return
		}
		if req.Email == "" {
			writeError(w, errValidation("no fields to update"))
			return
		}
		if !ValidateEmail(req.Email) {
			writeError(w, errValidation("invalid email format"))
			return
		}
		if existing, err := a.store.GetUserByEmail(req.Email); err == nil && existing.ID != id {
			writeError(w, errConflict("email already in use"))
			return
		}
		if err := a.store.UpdateUser(id, UserPatch{Email: &req.Email}); err != nil {
			writeError(w, err)
			return
		}
		updated, err := a.store.GetUser(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "user updated successfully",
			"user":    updated,
		})

	case http.MethodDelete:
		admin, err := a.requireAdmin(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if admin.UserID == id {
			writeError(w, errValidation("cannot delete your own admin account"))
			return
		}
		if err := a.store.DeleteUser(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted successfully"})

	default:
		methodNotAllowed(w)
	}
}

func (a *app) userRole(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	admin, err := a.requireAdmin(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errValidation("invalid json: %v", err))
		return
	}
	role, err := ParseUserRole(req.Role)
	if err != nil {
		writeError(w, errValidation("%v", err))
		return
	}
	if admin.UserID == id && role != RoleAdmin {
		writeError(w, errValidation("cannot demote your own admin account"))
		return
	}
	if _, err := a.store.GetUser(id); err != nil {
		writeError(w, err)
		return
	}
	roleStr := string(role)
	if err := a.store.UpdateUser(id, UserPatch{Role: &roleStr}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user role updated to " + roleStr})
}

func (a *app) userOrders(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	claims, err := a.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if claims.Role != string(RoleAdmin) && claims.UserID != id {
		writeError(w, errForbidden("you can only view your own orders"))
		return
	}
	orders, err := a.store.OrdersByUser(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// ===== info =====

func (a *app) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "StringMaster Guitar Shop API",
		"version": "1.0.0",
		"status":  "running",
	})
}

func (a *app) health(w http.ResponseWriter, r *http.Request) {
	count, err := a.store.GuitarCount()
	if err != nil {
		writeError(w, err)
		return
	}
	cats, err := a.store.ListCategories()
	if err != nil {
		writeError(w, err)
		return
	}
	database := "connected"
	if _, ok := a.store.(*memStore); ok {
		database = "in-memory"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":               "healthy",
		"database":             database,
		"guitars_in_inventory": count,
		"categories":           len(cats),
	})
}

func (a *app) shopStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.store.InventoryStats()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_products": stats.TotalProducts,
		"total_units":    stats.TotalUnits,
		"total_value":    stats.TotalValue,
		"by_type":        stats.ByType,
		"by_brand":       stats.ByBrand,
	})
}
