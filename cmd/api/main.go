package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/ksreyansh/vendor-management-system/internal/db"
	"github.com/ksreyansh/vendor-management-system/internal/metrics"
	"github.com/ksreyansh/vendor-management-system/internal/modules/auth"
	"github.com/ksreyansh/vendor-management-system/internal/modules/order"
	"github.com/ksreyansh/vendor-management-system/internal/modules/performance"
	"github.com/ksreyansh/vendor-management-system/internal/modules/user"
	"github.com/ksreyansh/vendor-management-system/internal/modules/vendor"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on the environment")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}
	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		log.Fatal("JWT_SECRET is required")
	}

	migrationsDir := os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "db/migrations"
	}
	if err := db.Migrate(dsn, migrationsDir); err != nil {
		log.Fatal(err)
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := conn.Ping(); err != nil {
		log.Fatal(err)
	}
	log.Println("connected to the database")

	registry := metrics.NewRegistry()

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	// ── Identity ────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(conn)
	userService := user.NewService(userRepo)

	tokenRepo := auth.NewPostgresRepository(conn)
	authService := auth.NewService(userRepo, tokenRepo, jwtSecret)
	auth.NewHandler(authService, userService).RegisterRoutes(router)
	authMW := auth.NewMiddleware(tokenRepo, jwtSecret)

	// ── Performance engine ──────────────────────────────────
	perfStore := performance.NewPostgresStore(conn)
	perfService := performance.NewService(perfStore, perfStore, perfStore, registry)

	// ── Vendors & Purchase Orders ───────────────────────────
	vendorRepo := vendor.NewPostgresRepository(conn)
	vendorService := vendor.NewService(vendorRepo)

	orderRepo := order.NewPostgresRepository(conn)
	orderService := order.NewService(orderRepo, perfService)

	router.Group(func(r chi.Router) {
		r.Use(authMW.Authenticate)
		vendor.NewHandler(vendorService).RegisterRoutes(r)
		order.NewHandler(orderService).RegisterRoutes(r)
		performance.NewHandler(perfService).RegisterRoutes(r)
	})

	router.Method(http.MethodGet, "/metrics", registry.Handler())

	// ── Start Server ────────────────────────────────────────
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("vendor management API listening on :%s", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
