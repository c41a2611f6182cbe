package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/ehallmark/soroban-escrow-demo/internal/auth"
	"github.com/ehallmark/soroban-escrow-demo/internal/clock"
	"github.com/ehallmark/soroban-escrow-demo/internal/events"
	kafkaevents "github.com/ehallmark/soroban-escrow-demo/internal/events/kafka"
	"github.com/ehallmark/soroban-escrow-demo/internal/handler"
	"github.com/ehallmark/soroban-escrow-demo/internal/service"
	"github.com/ehallmark/soroban-escrow-demo/internal/storage/sqlite"
	"github.com/ehallmark/soroban-escrow-demo/internal/treasury"
	"github.com/ehallmark/soroban-escrow-demo/pkg/logging"
)

const defaultTokenDuration = 24 * time.Hour

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	logging.Setup()

	addr := getEnv("ADDR", ":8080")
	dbPath := getEnv("DB_PATH", "./data/ledger.db")
	custody := getEnv("CUSTODY_ACCOUNT", "custody")
	admin := os.Getenv("ADMIN")
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	var publisher events.Publisher = events.Noop{}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kafkaPublisher := kafkaevents.NewPublisher(strings.Split(brokers, ","))
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		slog.Info("Kafka publisher connected", "brokers", brokers)
	}

	book := treasury.NewAccountBook()
	authz := auth.ContextAuthorizer{}
	jwtManager := auth.NewJWTManager(jwtSecret, defaultTokenDuration)

	escrowService := service.NewEscrowService(store, book, clock.NewSystem(), authz, publisher, custody)
	retainerService := service.NewRetainerService(store, book, authz, publisher, custody)

	if admin != "" {
		switch err := escrowService.Initialize(ctxWithIdentity(admin), admin); {
		case err == nil:
			slog.Info("Admin initialized", "admin", admin)
		case strings.Contains(err.Error(), "already initialized"):
			slog.Info("Admin already set, skipping initialization")
		default:
			slog.Error("Failed to initialize admin", "error", err)
			os.Exit(1)
		}
	}

	h := handler.New(escrowService, retainerService, book, authz)
	router := h.Routes(jwtManager)

	// Dev-only: mint bearer tokens for arbitrary identities.
	if getEnv("DEV_MODE", "false") == "true" {
		router = withDevTokens(router, jwtManager)
		slog.Warn("Dev mode enabled: /auth/token issues tokens for any identity")
	}

	slog.Info("Ledger server starting", "address", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func ctxWithIdentity(identity string) context.Context {
	return auth.WithIdentity(context.Background(), identity)
}

// withDevTokens wraps the router with a token-minting endpoint for local
// development. Never enable it on a shared deployment.
func withDevTokens(next http.Handler, jwtManager *auth.JWTManager) http.Handler {
	r := chi.NewRouter()
	r.Post("/auth/token", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Identity string `json:"identity"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Identity == "" {
			http.Error(w, `{"error":"identity required"}`, http.StatusBadRequest)
			return
		}
		token, err := jwtManager.Generate(body.Identity)
		if err != nil {
			http.Error(w, `{"error":"token generation failed"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	})
	r.Mount("/", next)
	return r
}
