package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/storage/memory"
)

func newOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:         "order-1",
		UserID:     "user-1",
		Address:    "Rua das Flores, 10",
		Status:     domain.OrderStatusPending,
		TotalCents: 500,
		Items: []domain.OrderItem{
			{ID: "item-1", ProductID: "product-1", Quantity: 5, PriceCents: 100},
		},
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newProduct(id string, stock int32) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        "Teclado Mecânico",
		Description: "Switch azul",
		PriceCents:  30000,
		Stock:       stock,
		Category:    "periféricos",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestOrderRepository_CreateGet(t *testing.T) {
	repos := memory.NewStore().Repositories()
	order := newOrder()

	if err := repos.Orders.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repos.Orders.Get(order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.ID != order.ID {
		t.Fatalf("expected id %s, got %s", order.ID, stored.ID)
	}
	if len(stored.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(stored.Items))
	}
}

func TestOrderRepository_GetMissing(t *testing.T) {
	repos := memory.NewStore().Repositories()
	if _, err := repos.Orders.Get("missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_CreateDuplicate(t *testing.T) {
	repos := memory.NewStore().Repositories()
	order := newOrder()

	if err := repos.Orders.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repos.Orders.Create(order); !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("expected conflict on duplicate create, got %v", err)
	}
}

func TestOrderRepository_ListByUser(t *testing.T) {
	repos := memory.NewStore().Repositories()

	first := newOrder()
	first.CreatedAt = time.Now().UTC().Add(-time.Hour)
	second := newOrder()
	second.ID = "order-2"
	foreign := newOrder()
	foreign.ID = "order-3"
	foreign.UserID = "user-2"

	for _, order := range []domain.Order{first, second, foreign} {
		if err := repos.Orders.Create(order); err != nil {
			t.Fatalf("create %s failed: %v", order.ID, err)
		}
	}

	orders, err := repos.Orders.ListByUser("user-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	// Новые заказы идут первыми.
	if orders[0].ID != "order-2" || orders[1].ID != "order-1" {
		t.Fatalf("unexpected order: %s, %s", orders[0].ID, orders[1].ID)
	}
}

func TestOrderRepository_SaveVersionConflict(t *testing.T) {
	repos := memory.NewStore().Repositories()
	order := newOrder()
	if err := repos.Orders.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	order.Status = domain.OrderStatusConfirmed
	if err := repos.Orders.Save(order); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Повторное сохранение с устаревшей версией должно конфликтовать.
	order.Status = domain.OrderStatusShipped
	if err := repos.Orders.Save(order); !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	stored, err := repos.Orders.Get(order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Status != domain.OrderStatusConfirmed {
		t.Fatalf("conflicting save must not apply, status %s", stored.Status)
	}
	if stored.Version != 1 {
		t.Fatalf("expected version 1, got %d", stored.Version)
	}
}

func TestProductRepository_AdjustStock(t *testing.T) {
	repos := memory.NewStore().Repositories()
	if err := repos.Products.Create(newProduct("product-1", 10)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repos.Products.AdjustStock("product-1", -3); err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	product, err := repos.Products.Get("product-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if product.Stock != 7 {
		t.Fatalf("expected stock 7, got %d", product.Stock)
	}

	if err := repos.Products.AdjustStock("product-1", -8); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	product, _ = repos.Products.Get("product-1")
	if product.Stock != 7 {
		t.Fatalf("rejected debit must not change stock, got %d", product.Stock)
	}

	if err := repos.Products.AdjustStock("product-1", 3); err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	product, _ = repos.Products.Get("product-1")
	if product.Stock != 10 {
		t.Fatalf("expected stock 10 after credit, got %d", product.Stock)
	}

	if err := repos.Products.AdjustStock("missing", -1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestUserRepository_EmailUnique(t *testing.T) {
	repos := memory.NewStore().Repositories()
	user := domain.User{ID: "user-1", Email: "joao@example.com", Name: "João Silva", Role: domain.RoleClient}

	if err := repos.Users.Create(user); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	dup := domain.User{ID: "user-2", Email: "JOAO@example.com", Name: "Outro João", Role: domain.RoleClient}
	if err := repos.Users.Create(dup); !errors.Is(err, domain.ErrEmailAlreadyTaken) {
		t.Fatalf("expected ErrEmailAlreadyTaken, got %v", err)
	}

	found, err := repos.Users.GetByEmail("Joao@Example.com")
	if err != nil {
		t.Fatalf("get by email failed: %v", err)
	}
	if found.ID != "user-1" {
		t.Fatalf("expected user-1, got %s", found.ID)
	}
}

func TestStore_WithinTxRollback(t *testing.T) {
	store := memory.NewStore()
	repos := store.Repositories()
	if err := repos.Products.Create(newProduct("product-1", 5)); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	sentinel := errors.New("boom")
	err := store.WithinTx(context.Background(), func(tx domain.Repositories) error {
		if err := tx.Products.AdjustStock("product-1", -4); err != nil {
			t.Fatalf("debit inside tx failed: %v", err)
		}
		if err := tx.Orders.Create(newOrder()); err != nil {
			t.Fatalf("create inside tx failed: %v", err)
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	// Все изменения внутри транзакции должны откатиться.
	product, err := repos.Products.Get("product-1")
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if product.Stock != 5 {
		t.Fatalf("expected stock restored to 5, got %d", product.Stock)
	}
	if _, err := repos.Orders.Get("order-1"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("order must not survive rollback, got %v", err)
	}
}

func TestStore_WithinTxCommit(t *testing.T) {
	store := memory.NewStore()
	repos := store.Repositories()
	if err := repos.Products.Create(newProduct("product-1", 5)); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	err := store.WithinTx(context.Background(), func(tx domain.Repositories) error {
		if err := tx.Products.AdjustStock("product-1", -2); err != nil {
			return err
		}
		return tx.Orders.Create(newOrder())
	})
	if err != nil {
		t.Fatalf("tx failed: %v", err)
	}

	product, _ := repos.Products.Get("product-1")
	if product.Stock != 3 {
		t.Fatalf("expected stock 3, got %d", product.Stock)
	}
	if _, err := repos.Orders.Get("order-1"); err != nil {
		t.Fatalf("order must be visible after commit: %v", err)
	}
}
