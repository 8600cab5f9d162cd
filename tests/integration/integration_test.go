//go:build integration

// Package integration spins up PostgreSQL and Redis with docker compose and
// exercises the checkout service end to end. The Cart and Inventory services
// are in-process HTTP stubs so their failure modes can be scripted per test.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go/modules/compose"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cloudshop/checkout-service/internal/postgres"
)

var (
	pool      *pgxpool.Pool
	redisAddr string
)

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dc, err := tc.NewDockerCompose("docker-compose.test.yml")
	if err != nil {
		log.Fatalf("compose init: %v", err)
	}

	err = dc.
		WaitForService("postgres", wait.ForListeningPort("5432/tcp")).
		WaitForService("redis", wait.ForListeningPort("6379/tcp")).
		Up(ctx, tc.Wait(true))
	if err != nil {
		log.Fatalf("compose up: %v", err)
	}

	pgContainer, err := dc.ServiceContainer(ctx, "postgres")
	if err != nil {
		log.Fatalf("postgres container: %v", err)
	}
	pgHost, err := pgContainer.Host(ctx)
	if err != nil {
		log.Fatalf("postgres host: %v", err)
	}
	pgPort, err := pgContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("postgres port: %v", err)
	}

	redisContainer, err := dc.ServiceContainer(ctx, "redis")
	if err != nil {
		log.Fatalf("redis container: %v", err)
	}
	redisHost, err := redisContainer.Host(ctx)
	if err != nil {
		log.Fatalf("redis host: %v", err)
	}
	redisPort, err := redisContainer.MappedPort(ctx, "6379/tcp")
	if err != nil {
		log.Fatalf("redis port: %v", err)
	}
	redisAddr = fmt.Sprintf("%s:%s", redisHost, redisPort.Port())

	databaseURL := fmt.Sprintf("postgres://checkout:checkout@%s:%s/checkout?sslmode=disable",
		pgHost, pgPort.Port())
	pool, err = postgres.NewPool(ctx, databaseURL)
	if err != nil {
		log.Fatalf("db pool: %v", err)
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	result := m.Run()

	pool.Close()
	if err := dc.Down(context.Background(), tc.RemoveOrphans(true)); err != nil {
		log.Printf("compose down: %v", err)
	}
	return result
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// --- Cart Service stub ---

// cartStub mimics the Cart Service for one cart.
type cartStub struct {
	mu      sync.Mutex
	locked  bool
	deleted bool
	items   []cartItem

	srv *httptest.Server
}

type cartItem struct {
	ProductID string `json:"pid"`
	Quantity  int    `json:"amount_in_cart"`
}

func newCartStub(t *testing.T, items ...cartItem) *cartStub {
	t.Helper()

	s := &cartStub{items: items}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart/{id}/lock", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, map[string]any{"locked": s.locked})
	})
	mux.HandleFunc("PUT /cart/{id}/checkout", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.locked = true
		writeJSON(w, map[string]any{"locked": true})
	})
	mux.HandleFunc("DELETE /cart/{id}/checkout", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.locked = false
		writeJSON(w, map[string]any{"locked": false})
	})
	mux.HandleFunc("GET /cart/{id}", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.deleted {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"locked": s.locked, "products": s.items})
	})
	mux.HandleFunc("DELETE /cart/{id}", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.deleted = true
		w.WriteHeader(http.StatusOK)
	})

	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *cartStub) state() (locked, deleted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked, s.deleted
}

// --- Inventory Service stub ---

type inventoryStub struct {
	mu     sync.Mutex
	stock  map[string]int
	prices map[string]decimal.Decimal

	srv *httptest.Server
}

func newInventoryStub(t *testing.T, stock map[string]int, prices map[string]string) *inventoryStub {
	t.Helper()

	s := &inventoryStub{stock: stock, prices: map[string]decimal.Decimal{}}
	for pid, p := range prices {
		s.prices[pid] = decimal.RequireFromString(p)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /inventory/{pid}/price", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		price, ok := s.prices[r.PathValue("pid")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"price": price})
	})
	mux.HandleFunc("PUT /inventory/{pid}/stock/decrement", func(w http.ResponseWriter, r *http.Request) {
		s.adjust(w, r, -1)
	})
	mux.HandleFunc("PUT /inventory/{pid}/stock/increment", func(w http.ResponseWriter, r *http.Request) {
		s.adjust(w, r, 1)
	})

	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *inventoryStub) adjust(w http.ResponseWriter, r *http.Request, sign int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pid := r.PathValue("pid")
	have, ok := s.stock[pid]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var body struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	next := have + sign*body.Amount
	if next < 0 {
		w.WriteHeader(http.StatusConflict)
		return
	}
	s.stock[pid] = next
	w.WriteHeader(http.StatusOK)
}

func (s *inventoryStub) stockOf(pid string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[pid]
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func requireCleanTable(t *testing.T) {
	t.Helper()
	_, err := pool.Exec(context.Background(), "TRUNCATE orders")
	require.NoError(t, err)
}
