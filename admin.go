package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

// discountRequest carries a tagged discount target: exactly one of guitar,
// brand or guitar_type, selected by the target field.
type discountRequest struct {
	Target   string  `json:"target"`
	GuitarID int64   `json:"guitar_id"`
	Brand    string  `json:"brand"`
	Type     string  `json:"guitar_type"`
	Percent  float64 `json:"percent"`
}

func (a *app) adminDiscount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if _, err := a.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	var req discountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errValidation("invalid json: %v", err))
		return
	}
	if req.Percent < 0 || req.Percent > 100 {
		writeError(w, errValidation("discount percent must be between 0 and 100"))
		return
	}

	switch req.Target {
	case "guitar":
		ok, err := a.store.SetGuitarDiscount(req.GuitarID, req.Percent)
		if err != nil {
			writeError(w, err)
			return
		}
		if !ok {
			writeError(w, errNotFound("guitar %d not found", req.GuitarID))
			return
		}
		log.Printf("discount: %.1f%% on guitar %d", req.Percent, req.GuitarID)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":   "discount applied",
			"guitar_id": req.GuitarID,
			"percent":   req.Percent,
		})

	case "brand":
		if strings.TrimSpace(req.Brand) == "" {
			writeError(w, errValidation("brand is required"))
			return
		}
		affected, err := a.store.SetBrandDiscount(req.Brand, req.Percent)
		if err != nil {
			writeError(w, err)
			return
		}
		log.Printf("discount: %.1f%% on brand %q (%d guitars)", req.Percent, req.Brand, affected)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":  "discount applied",
			"brand":    req.Brand,
			"percent":  req.Percent,
			"affected": affected,
		})

	case "type":
		guitarType, err := ParseGuitarType(req.Type)
		if err != nil {
			writeError(w, errValidation("%v", err))
			return
		}
		affected, err := a.store.SetTypeDiscount(guitarType, req.Percent)
		if err != nil {
			writeError(w, err)
			return
		}
		log.Printf("discount: %.1f%% on type %q (%d guitars)", req.Percent, guitarType, affected)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":     "discount applied",
			"guitar_type": string(guitarType),
			"percent":     req.Percent,
			"affected":    affected,
		})

	default:
		writeError(w, errValidation("target must be one of: guitar, brand, type"))
	}
}

func (a *app) adminDiscountClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if _, err := a.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	cleared, err := a.store.ClearAllDiscounts()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "all discounts cleared",
		"cleared": cleared,
	})
}

func (a *app) adminDiscounted(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, err := a.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	guitars, err := a.store.ListDiscountedGuitars()
	if err != nil {
		writeError(w, err)
		return
	}
	if guitars == nil {
		guitars = []Guitar{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"guitars": guitars,
		"count":   len(guitars),
	})
}

func (a *app) adminStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, err := a.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	stats, err := a.store.InventoryStats()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_products":   stats.TotalProducts,
		"total_units":      stats.TotalUnits,
		"total_value":      stats.TotalValue,
		"avg_price":        stats.AvgPrice,
		"discounted_count": stats.DiscountedCount,
		"revenue":          stats.Revenue,
		"by_type":          stats.ByType,
		"by_brand":         stats.ByBrand,
	})
}

func (a *app) adminOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, err := a.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	orders, err := a.store.ListOrders()
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"count":  len(orders),
	})
}

func (a *app) adminNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, err := a.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	unreadOnly := r.URL.Query().Get("unread_only") == "true"
	notes, err := a.store.ListNotifications(unreadOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	if notes == nil {
		notes = []Notification{}
	}
	unread := 0
	for _, n := range notes {
		if !n.Read {
			unread++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notes,
		"count":         len(notes),
		"unread":        unread,
	})
}

func (a *app) adminNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if _, err := a.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		ID  int64 `json:"id"`
		All bool  `json:"all"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errValidation("invalid json: %v", err))
		return
	}
	if req.All {
		marked, err := a.store.MarkAllNotificationsRead()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "all notifications marked as read",
			"marked":  marked,
		})
		return
	}
	if req.ID <= 0 {
		writeError(w, errValidation("id or all is required"))
		return
	}
	if err := a.store.MarkNotificationRead(req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "notification marked as read"})
}

func (a *app) adminOnlineUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if _, err := a.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	users, err := a.store.ListOnlineCustomers()
	if err != nil {
		writeError(w, err)
		return
	}
	if users == nil {
		users = []User{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"online_users": users,
		"count":        len(users),
	})
}

func (a *app) adminStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if _, err := a.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		GuitarID int64 `json:"guitar_id"`
		Delta    int   `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errValidation("invalid json: %v", err))
		return
	}
	if req.Delta == 0 {
		writeError(w, errValidation("delta must be non-zero"))
		return
	}
	if _, err := a.store.GetGuitar(req.GuitarID); err != nil {
		writeError(w, err)
		return
	}
	ok, err := a.store.AdjustStock(req.GuitarID, req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, errConflict("stock cannot go negative"))
		return
	}
	updated, err := a.store.GetGuitar(req.GuitarID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "stock updated",
		"guitar":  updated,
	})
}
