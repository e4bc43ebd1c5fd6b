package main

import (
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"

	mysql "github.com/go-sql-driver/mysql"
)

// registerTiDBTLS registers the "tidb" TLS config that DSNs with tls=tidb
// reference, loading the CA bundle from TIDB_CA or the system default path.
func registerTiDBTLS() {
	caPath := os.Getenv("TIDB_CA")
	if caPath == "" {
		caPath = "/etc/ssl/certs/ca-certificates.crt"
	}
	pool := x509.NewCertPool()
	if b, err := os.ReadFile(caPath); err == nil {
		if ok := pool.AppendCertsFromPEM(b); ok {
			mysql.RegisterTLSConfig("tidb", &tls.Config{RootCAs: pool})
		} else {
			log.Printf("warning: could not parse CA file %s, falling back to InsecureSkipVerify", caPath)
			mysql.RegisterTLSConfig("tidb", &tls.Config{InsecureSkipVerify: true})
		}
	} else {
		log.Printf("warning: could not read CA file %s: %v, falling back to InsecureSkipVerify", caPath, err)
		mysql.RegisterTLSConfig("tidb", &tls.Config{InsecureSkipVerify: true})
	}
}

func main() {
	dsn := os.Getenv("MYSQL_DSN")
	cloudURL := os.Getenv("CLOUDINARY_URL")
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8000"
	}
	devMode := false
	if v := os.Getenv("DEV_MODE"); v == "1" || strings.ToLower(v) == "true" {
		devMode = true
	}
	if !devMode && dsn == "" {
		log.Fatal("env MYSQL_DSN must be set (or set DEV_MODE=true to run without external services)")
	}

	var store Store
	if devMode {
		log.Println("DEV_MODE=true: running without MySQL/Cloudinary (in-memory store, placeholder images)")
		store = NewMemStore()
	} else {
		if strings.Contains(dsn, "tls=tidb") {
			registerTiDBTLS()
		}
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatalf("ping db: %v", err)
		}
		if err := ensureTables(db); err != nil {
			log.Fatalf("ensure tables: %v", err)
		}
		store = NewSQLStore(db)
	}

	if err := seedGuitars(store); err != nil {
		log.Fatalf("seed catalog: %v", err)
	}
	if err := seedAdmin(store); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	a := &app{
		store:    store,
		carts:    NewCartStore(),
		tokens:   NewTokenService(os.Getenv("TOKEN_SECRET")),
		cloudURL: cloudURL,
	}

	log.Println("server listening on " + addr)
	if err := http.ListenAndServe(addr, a.routes()); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func (a *app) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", a.root)
	mux.HandleFunc("/api/health", a.health)
	mux.HandleFunc("/api/stats", a.shopStats)

	mux.HandleFunc("/api/auth/register", a.register)
	mux.HandleFunc("/api/auth/login", a.login)
	mux.HandleFunc("/api/auth/logout", a.logout)
	mux.HandleFunc("/api/auth/me", a.me)

	mux.HandleFunc("/api/guitars", a.guitars)
	mux.HandleFunc("/api/guitars/", a.guitarItem)

	mux.HandleFunc("/api/categories", a.categories)
	mux.HandleFunc("/api/categories/", a.categoryItem)

	mux.HandleFunc("/api/cart", a.cart)
	mux.HandleFunc("/api/cart/add", a.cartAdd)
	mux.HandleFunc("/api/cart/", a.cartItem)
	mux.HandleFunc("/api/purchase", a.purchase)
	mux.HandleFunc("/api/orders/history", a.orderHistory)

	mux.HandleFunc("/api/users", a.users)
	mux.HandleFunc("/api/users/", a.userItem)

	mux.HandleFunc("/api/admin/discount", a.adminDiscount)
	mux.HandleFunc("/api/admin/discount/clear", a.adminDiscountClear)
	mux.HandleFunc("/api/admin/discounted", a.adminDiscounted)
	mux.HandleFunc("/api/admin/stats", a.adminStats)
	mux.HandleFunc("/api/admin/orders", a.adminOrders)
	mux.HandleFunc("/api/admin/notifications", a.adminNotifications)
	mux.HandleFunc("/api/admin/notifications/read", a.adminNotificationsRead)
	mux.HandleFunc("/api/admin/online-users", a.adminOnlineUsers)
	mux.HandleFunc("/api/admin/stock", a.adminStock)

	return mux
}
