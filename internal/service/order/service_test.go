package order_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/service/order"
	"github.com/vladislavdragonenkov/ecom/internal/storage/memory"
)

type fixture struct {
	svc   *order.Service
	store *memory.Store
	repos domain.Repositories
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	svc := order.NewServiceWithoutMetrics(store, repos, nil)
	return &fixture{svc: svc, store: store, repos: repos}
}

func (f *fixture) seedUser(t *testing.T, id string, role domain.Role) domain.Identity {
	t.Helper()
	err := f.repos.Users.Create(domain.User{
		ID:    id,
		Email: id + "@example.com",
		Name:  "Usuário " + id,
		Role:  role,
	})
	require.NoError(t, err)
	return domain.Identity{UserID: id, Role: role}
}

func (f *fixture) seedProduct(t *testing.T, id string, priceCents int64, stock int32) {
	t.Helper()
	err := f.repos.Products.Create(domain.Product{
		ID:          id,
		Name:        "Produto " + id,
		Description: "Descrição " + id,
		PriceCents:  priceCents,
		Stock:       stock,
		Category:    "geral",
		CreatedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, productID string) int32 {
	t.Helper()
	product, err := f.repos.Products.Get(productID)
	require.NoError(t, err)
	return product.Stock
}

func TestCreate_DebitsStockAtCreation(t *testing.T) {
	f := newFixture(t)
	identity := f.seedUser(t, "user-1", domain.RoleClient)
	f.seedProduct(t, "product-1", 3000, 10)

	view, err := f.svc.Create(context.Background(), identity, order.CreateInput{
		Address: "Rua A, 1",
		Items:   []order.CreateItem{{ProductID: "product-1", Quantity: 3}},
	})
	require.NoError(t, err)

	require.Equal(t, domain.OrderStatusPending, view.Status)
	require.Equal(t, int64(9000), view.TotalCents)
	require.Len(t, view.Items, 1)
	require.Equal(t, int64(3000), view.Items[0].PriceCents)
	require.Equal(t, "Produto product-1", view.Items[0].Product.Name)
	require.Equal(t, int32(7), f.stock(t, "product-1"))
}

func TestCreate_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	identity := f.seedUser(t, "user-1", domain.RoleClient)
	f.seedProduct(t, "product-1", 1000, 2)

	_, err := f.svc.Create(context.Background(), identity, order.CreateInput{
		Address: "Rua A, 1",
		Items:   []order.CreateItem{{ProductID: "product-1", Quantity: 5}},
	})
	require.Error(t, err)
	require.Equal(t, domain.KindBadRequest, domain.KindOf(err))
	require.Contains(t, domain.UserMessage(err), "Disponível: 2")
	require.Contains(t, domain.UserMessage(err), "Solicitado: 5")
	require.Contains(t, domain.UserMessage(err), "Produto product-1")

	// Сток не изменился.
	require.Equal(t, int32(2), f.stock(t, "product-1"))
}

func TestCreate_AtomicRollbackAcrossItems(t *testing.T) {
	f := newFixture(t)
	identity := f.seedUser(t, "user-1", domain.RoleClient)
	f.seedProduct(t, "product-1", 1000, 10)
	f.seedProduct(t, "product-2", 2000, 1)

	// Вторая позиция проваливает проверку стока, списание первой откатывается.
	_, err := f.svc.Create(context.Background(), identity, order.CreateInput{
		Address: "Rua A, 1",
		Items: []order.CreateItem{
			{ProductID: "product-1", Quantity: 4},
			{ProductID: "product-2", Quantity: 3},
		},
	})
	require.Error(t, err)
	require.Equal(t, domain.KindBadRequest, domain.KindOf(err))

	require.Equal(t, int32(10), f.stock(t, "product-1"))
	require.Equal(t, int32(1), f.stock(t, "product-2"))

	orders, err := f.repos.Orders.ListByUser("user-1")
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestCreate_UnknownProductRollsBack(t *testing.T) {
	f := newFixture(t)
	identity := f.seedUser(t, "user-1", domain.RoleClient)
	f.seedProduct(t, "product-1", 1000, 10)

	_, err := f.svc.Create(context.Background(), identity, order.CreateInput{
		Address: "Rua A, 1",
		Items: []order.CreateItem{
			{ProductID: "product-1", Quantity: 2},
			{ProductID: "ghost", Quantity: 1},
		},
	})
	require.Error(t, err)
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))
	require.Contains(t, domain.UserMessage(err), "Produto com ID 'ghost' não encontrado")

	require.Equal(t, int32(10), f.stock(t, "product-1"))
}

func TestCreate_UnknownUser(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "product-1", 1000, 10)

	_, err := f.svc.Create(context.Background(), domain.Identity{UserID: "ghost", Role: domain.RoleClient}, order.CreateInput{
		Address: "Rua A, 1",
		Items:   []order.CreateItem{{ProductID: "product-1", Quantity: 1}},
	})
	require.Error(t, err)
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))
	require.Equal(t, "Usuário não encontrado", domain.UserMessage(err))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	identity := f.seedUser(t, "user-1", domain.RoleClient)
	f.seedProduct(t, "product-1", 1000, 10)

	cases := []struct {
		name  string
		input order.CreateInput
	}{
		{"empty address", order.CreateInput{Items: []order.CreateItem{{ProductID: "product-1", Quantity: 1}}}},
		{"no items", order.CreateInput{Address: "Rua A, 1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), identity, tc.input)
			require.Error(t, err)
			require.Equal(t, domain.KindBadRequest, domain.KindOf(err))
			require.Equal(t, "userId, address e items são obrigatórios", domain.UserMessage(err))
		})
	}

	_, err := f.svc.Create(context.Background(), identity, order.CreateInput{
		Address: "Rua A, 1",
		Items:   []order.CreateItem{{ProductID: "product-1", Quantity: 0}},
	})
	require.Error(t, err)
	require.Equal(t, domain.KindBadRequest, domain.KindOf(err))
}

func TestCreate_PriceSnapshotImmutable(t *testing.T) {
	f := newFixture(t)
	identity := f.seedUser(t, "user-1", domain.RoleClient)
	f.seedProduct(t, "product-1", 3000, 10)

	view, err := f.svc.Create(context.Background(), identity, order.CreateInput{
		Address: "Rua A, 1",
		Items:   []order.CreateItem{{ProductID: "product-1", Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(3000), view.TotalCents)

	// Смена цены в каталоге не трогает снимок в заказе.
	product, err := f.repos.Products.Get("product-1")
	require.NoError(t, err)
	product.PriceCents = 9900
	require.NoError(t, f.repos.Products.Update(product))

	got, err := f.svc.Get(context.Background(), view.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3000), got.TotalCents)
	require.Equal(t, int64(3000), got.Items[0].PriceCents)
}

func TestCreate_ConcurrentNoNegativeStock(t *testing.T) {
	f := newFixture(t)
	identity := f.seedUser(t, "user-1", domain.RoleClient)
	const initialStock = 5
	f.seedProduct(t, "product-1", 1000, initialStock)

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), identity, order.CreateInput{
				Address: "Rua A, 1",
				Items:   []order.CreateItem{{ProductID: "product-1", Quantity: 1}},
			})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, initialStock, successes)
	require.Equal(t, int32(0), f.stock(t, "product-1"))
}

func createOrder(t *testing.T, f *fixture, identity domain.Identity, productID string, qty int32) order.OrderView {
	t.Helper()
	view, err := f.svc.Create(context.Background(), identity, order.CreateInput{
		Address: "Rua A, 1",
		Items:   []order.CreateItem{{ProductID: productID, Quantity: qty}},
	})
	require.NoError(t, err)
	return view
}

func advance(t *testing.T, f *fixture, identity domain.Identity, orderID string, target domain.OrderStatus) order.OrderView {
	t.Helper()
	view, err := f.svc.UpdateStatus(context.Background(), identity, orderID, string(target))
	require.NoError(t, err)
	return view
}

func TestUpdateStatus_LinearProgression(t *testing.T) {
	f := newFixture(t)
	identity := f.seedUser(t, "user-1", domain.RoleClient)
	f.seedProduct(t, "product-1", 1000, 10)
	created := createOrder(t, f, identity, "product-1", 2)

	view := advance(t, f, identity, created.ID, domain.OrderStatusConfirmed)
	require.Equal(t, domain.OrderStatusConfirmed, view.Status)

	view = advance(t, f, identity, created.ID, domain.OrderStatusShipped)
	require.Equal(t, domain.OrderStatusShipped, view.Status)

	view = advance(t, f, identity, created.ID, domain.OrderStatusDelivered)
	require.Equal(t, domain.OrderStatusDelivered, view.Status)

	// Прямое продвижение не трогает сток: списание было при создании.
	require.Equal(t, int32(8), f.stock(t, "product-1"))
}

func TestUpdateStatus_SkipRejectedNamingNextStatus(t *testing.T) {
	f := newFixture(t)
	identity := f.seedUser(t, "user-1", domain.RoleClient)
	f.seedProduct(t, "product-1", 1000, 10)
	created := createOrder(t, f, identity, "product-1", 1)

	_, err := f.svc.UpdateStatus(context.Background(), identity, created.ID, "DELIVERED")
	require.Error(t, err)
	require.Equal(t, domain.KindBadRequest, domain.KindOf(err))
	require.Contains(t, domain.UserMessage(err), "O próximo status deve ser 'CONFIRMED'")

	got, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPending, got.Status)
}

func TestUpdateStatus_CancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	identity := f.seedUser(t, "user-1", domain.RoleClient)

	for _, upTo := range []domain.OrderStatus{
		domain.OrderStatusPending,
		domain.OrderStatusConfirmed,
		domain.OrderStatusShipped,
	} {
		t.Run(string(upTo), func(t *testing.T) {
			productID := "product-" + string(upTo)
			f.seedProduct(t, productID, 1000, 5)
			created := createOrder(t, f, identity, productID, 2)
			require.Equal(t, int32(3), f.stock(t, productID))

			for _, step := range []domain.OrderStatus{domain.OrderStatusConfirmed, domain.OrderStatusShipped} {
				if upTo.SequenceIndex() >= step.SequenceIndex() {
					advance(t, f, identity, created.ID, step)
				}
			}

			view := advance(t, f, identity, created.ID, domain.OrderStatusCancelled)
			require.Equal(t, domain.OrderStatusCancelled, view.Status)
			require.Equal(t, int32(5), f.stock(t, productID))
		})
	}
}

func TestUpdateStatus_CancelRejectedFromTerminal(t *testing.T) {
	f := newFixture(t)
	identity := f.seedUser(t, "user-1", domain.RoleClient)
	f.seedProduct(t, "product-1", 1000, 10)

	delivered := createOrder(t, f, identity, "product-1", 1)
	advance(t, f, identity, delivered.ID, domain.OrderStatusConfirmed)
	advance(t, f, identity, delivered.ID, domain.OrderStatusShipped)
	advance(t, f, identity, delivered.ID, domain.OrderStatusDelivered)

	_, err := f.svc.UpdateStatus(context.Background(), identity, delivered.ID, "CANCELLED")
	require.Error(t, err)
	require.Equal(t, "Pedido entregue não pode ser cancelado", domain.UserMessage(err))

	cancelled := createOrder(t, f, identity, "product-1", 1)
	advance(t, f, identity, cancelled.ID, domain.OrderStatusCancelled)

	_, err = f.svc.UpdateStatus(context.Background(), identity, cancelled.ID, "CANCELLED")
	require.Error(t, err)
	require.Equal(t, "Pedido já está cancelado", domain.UserMessage(err))

	// Двойная отмена не возвращает сток второй раз.
	require.Equal(t, int32(9), f.stock(t, "product-1"))
}

func TestUpdateStatus_CancelledOrderFrozen(t *testing.T) {
	f := newFixture(t)
	identity := f.seedUser(t, "user-1", domain.RoleClient)
	f.seedProduct(t, "product-1", 1000, 10)
	created := createOrder(t, f, identity, "product-1", 1)
	advance(t, f, identity, created.ID, domain.OrderStatusCancelled)

	_, err := f.svc.UpdateStatus(context.Background(), identity, created.ID, "CONFIRMED")
	require.Error(t, err)
	require.Contains(t, domain.UserMessage(err), "Pedido com status 'CANCELLED' não pode ser atualizado")
}

func TestUpdateStatus_SameStatusRejected(t *testing.T) {
	f := newFixture(t)
	identity := f.seedUser(t, "user-1", domain.RoleClient)
	f.seedProduct(t, "product-1", 1000, 10)
	created := createOrder(t, f, identity, "product-1", 1)

	_, err := f.svc.UpdateStatus(context.Background(), identity, created.ID, "PENDING")
	require.Error(t, err)
	require.Equal(t, domain.KindBadRequest, domain.KindOf(err))
	require.Contains(t, domain.UserMessage(err), "já está no status 'PENDING'")
}

func TestUpdateStatus_Validation(t *testing.T) {
	f := newFixture(t)
	identity := f.seedUser(t, "user-1", domain.RoleClient)
	f.seedProduct(t, "product-1", 1000, 10)
	created := createOrder(t, f, identity, "product-1", 1)

	_, err := f.svc.UpdateStatus(context.Background(), identity, created.ID, "")
	require.Error(t, err)
	require.Equal(t, "Status é obrigatório", domain.UserMessage(err))

	_, err = f.svc.UpdateStatus(context.Background(), identity, created.ID, "TELEPORTED")
	require.Error(t, err)
	require.Equal(t, "Status inválido", domain.UserMessage(err))
}

func TestUpdateStatus_NotFound(t *testing.T) {
	f := newFixture(t)
	identity := f.seedUser(t, "user-1", domain.RoleClient)

	_, err := f.svc.UpdateStatus(context.Background(), identity, "ghost", "CONFIRMED")
	require.Error(t, err)
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))
	require.Equal(t, "Pedido não encontrado", domain.UserMessage(err))
}

func TestUpdateStatus_Authorization(t *testing.T) {
	f := newFixture(t)
	owner := f.seedUser(t, "owner", domain.RoleClient)
	stranger := f.seedUser(t, "stranger", domain.RoleClient)
	admin := f.seedUser(t, "admin", domain.RoleAdmin)
	f.seedProduct(t, "product-1", 1000, 10)
	created := createOrder(t, f, owner, "product-1", 1)

	for _, target := range []string{"CONFIRMED", "CANCELLED", "DELIVERED"} {
		_, err := f.svc.UpdateStatus(context.Background(), stranger, created.ID, target)
		require.Error(t, err)
		require.Equal(t, domain.KindForbidden, domain.KindOf(err))
		require.Equal(t, "Você não tem permissão para atualizar este pedido", domain.UserMessage(err))
	}

	got, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPending, got.Status)

	// Администратор управляет чужими заказами.
	view := advance(t, f, admin, created.ID, domain.OrderStatusConfirmed)
	require.Equal(t, domain.OrderStatusConfirmed, view.Status)
}

func TestStockConservation_CreateThenCancel(t *testing.T) {
	f := newFixture(t)
	identity := f.seedUser(t, "user-1", domain.RoleClient)
	f.seedProduct(t, "product-1", 1000, 7)

	created := createOrder(t, f, identity, "product-1", 3)
	advance(t, f, identity, created.ID, domain.OrderStatusConfirmed)
	advance(t, f, identity, created.ID, domain.OrderStatusCancelled)

	// Полный цикл создание → отмена возвращает сток к исходному.
	require.Equal(t, int32(7), f.stock(t, "product-1"))
}

func TestGet_IncludesTimelineAndSummaries(t *testing.T) {
	f := newFixture(t)
	identity := f.seedUser(t, "user-1", domain.RoleClient)
	f.seedProduct(t, "product-1", 1000, 10)
	created := createOrder(t, f, identity, "product-1", 1)
	advance(t, f, identity, created.ID, domain.OrderStatusConfirmed)

	got, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Produto product-1", got.Items[0].Product.Name)
	require.Len(t, got.Timeline, 2)
	require.Equal(t, "OrderCreated", got.Timeline[0].Type)
	require.Equal(t, "OrderStatusChanged", got.Timeline[1].Type)

	_, err = f.svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestListByUser_OnlyCallersOrdersNewestFirst(t *testing.T) {
	f := newFixture(t)
	alice := f.seedUser(t, "alice", domain.RoleClient)
	bob := f.seedUser(t, "bob", domain.RoleClient)
	f.seedProduct(t, "product-1", 1000, 10)

	first := createOrder(t, f, alice, "product-1", 1)
	time.Sleep(2 * time.Millisecond)
	second := createOrder(t, f, alice, "product-1", 1)
	createOrder(t, f, bob, "product-1", 1)

	views, err := f.svc.ListByUser(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, second.ID, views[0].ID)
	require.Equal(t, first.ID, views[1].ID)
}
