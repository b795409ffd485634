package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

func seedIntegrationUser(t *testing.T, store *Store, id string) {
	t.Helper()
	repos := store.Repositories()
	err := repos.Users.Create(domain.User{
		ID:           id,
		Email:        id + "@example.com",
		Name:         "Usuário " + id,
		PasswordHash: "hash",
		Role:         domain.RoleClient,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func seedIntegrationProduct(t *testing.T, store *Store, id string, stock int32) {
	t.Helper()
	repos := store.Repositories()
	err := repos.Products.Create(domain.Product{
		ID:          id,
		Name:        "Produto " + id,
		Description: "Descrição " + id,
		PriceCents:  1500,
		Stock:       stock,
		Category:    "geral",
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
}

func integrationOrder(userID, orderID string) domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.Order{
		ID:         orderID,
		UserID:     userID,
		Address:    "Rua A, 10",
		Status:     domain.OrderStatusPending,
		TotalCents: 3000,
		Items: []domain.OrderItem{
			{ID: orderID + "-i1", ProductID: "p1", Quantity: 2, PriceCents: 1500},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestIntegrationOrderRepository_RoundTrip(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repos := store.Repositories()

	seedIntegrationUser(t, store, "u1")
	seedIntegrationProduct(t, store, "p1", 10)

	order := integrationOrder("u1", "o1")
	if err := repos.Orders.Create(order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	got, err := repos.Orders.Get("o1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Status != domain.OrderStatusPending || got.TotalCents != 3000 {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", got.Items)
	}

	got.Status = domain.OrderStatusConfirmed
	got.UpdatedAt = time.Now().UTC()
	if err := repos.Orders.Save(got); err != nil {
		t.Fatalf("save order: %v", err)
	}

	// Повторный Save с устаревшей версией отклоняется.
	if err := repos.Orders.Save(got); !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	list, err := repos.Orders.ListByUser("u1")
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(list) != 1 || list[0].Status != domain.OrderStatusConfirmed {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestIntegrationProductRepository_AdjustStock(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repos := store.Repositories()

	seedIntegrationProduct(t, store, "p1", 5)

	if err := repos.Products.AdjustStock("p1", -3); err != nil {
		t.Fatalf("debit stock: %v", err)
	}
	if err := repos.Products.AdjustStock("p1", -3); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if err := repos.Products.AdjustStock("ghost", -1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}
	if err := repos.Products.AdjustStock("p1", 3); err != nil {
		t.Fatalf("credit stock: %v", err)
	}

	product, err := repos.Products.Get("p1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Stock != 5 {
		t.Fatalf("expected stock 5, got %d", product.Stock)
	}
}

func TestIntegrationWithinTx_RollsBackOnError(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repos := store.Repositories()

	seedIntegrationUser(t, store, "u1")
	seedIntegrationProduct(t, store, "p1", 10)

	sentinel := errors.New("boom")
	err := store.WithinTx(context.Background(), func(txRepos domain.Repositories) error {
		if err := txRepos.Products.AdjustStock("p1", -4); err != nil {
			return err
		}
		if err := txRepos.Orders.Create(integrationOrder("u1", "o1")); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	product, err := repos.Products.Get("p1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Stock != 10 {
		t.Fatalf("expected stock restored to 10, got %d", product.Stock)
	}
	if _, err := repos.Orders.Get("o1"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected order not found after rollback, got %v", err)
	}
}

func TestIntegrationUserRepository_EmailUnique(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repos := store.Repositories()

	seedIntegrationUser(t, store, "u1")

	err := repos.Users.Create(domain.User{
		ID:        "u2",
		Email:     "U1@example.com",
		Name:      "Outro",
		Role:      domain.RoleClient,
		CreatedAt: time.Now().UTC(),
	})
	if !errors.Is(err, domain.ErrEmailAlreadyTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}

	user, err := repos.Users.GetByEmail("u1@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestIntegrationIdempotencyRepository_Lifecycle(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewIdempotencyRepository(store)

	ttl := time.Now().UTC().Add(time.Hour)
	if _, err := repo.CreateProcessing("k1", "hash-1", ttl); err != nil {
		t.Fatalf("create processing: %v", err)
	}

	if _, err := repo.CreateProcessing("k1", "hash-2", ttl); !errors.Is(err, domain.ErrIdempotencyHashMismatch) {
		t.Fatalf("expected hash mismatch, got %v", err)
	}

	if err := repo.MarkDone("k1", []byte(`{"ok":true}`), 201); err != nil {
		t.Fatalf("mark done: %v", err)
	}

	record, err := repo.Get("k1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Status != domain.IdempotencyStatusDone || record.HTTPStatus != 201 {
		t.Fatalf("unexpected record: %+v", record)
	}

	deleted, err := repo.DeleteExpired(time.Now().UTC().Add(2*time.Hour), 10)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}
}
