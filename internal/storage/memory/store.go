package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// Store — общее in-memory хранилище для локальной разработки и тестов.
// Все репозитории делят одни и те же данные, что позволяет исполнять
// межрепозиторные транзакции атомарно.
type Store struct {
	mu           sync.RWMutex
	orders       map[string]domain.Order
	products     map[string]domain.Product
	users        map[string]domain.User
	usersByEmail map[string]string
	timeline     map[string][]domain.TimelineEvent
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{
		orders:       make(map[string]domain.Order),
		products:     make(map[string]domain.Product),
		users:        make(map[string]domain.User),
		usersByEmail: make(map[string]string),
		timeline:     make(map[string][]domain.TimelineEvent),
	}
}

// Repositories возвращает набор репозиториев с блокировкой на каждую операцию.
func (s *Store) Repositories() domain.Repositories {
	return domain.Repositories{
		Orders:   &orderRepository{store: s, locking: true},
		Products: &productRepository{store: s, locking: true},
		Users:    &userRepository{store: s, locking: true},
		Timeline: &timelineRepository{store: s, locking: true},
	}
}

// WithinTx исполняет fn под общей блокировкой. При ошибке состояние
// хранилища откатывается к снимку, сделанному перед fn: либо применяются
// все изменения, либо ни одно.
func (s *Store) WithinTx(ctx context.Context, fn func(domain.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	repos := domain.Repositories{
		Orders:   &orderRepository{store: s},
		Products: &productRepository{store: s},
		Users:    &userRepository{store: s},
		Timeline: &timelineRepository{store: s},
	}

	if err := fn(repos); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type storeSnapshot struct {
	orders       map[string]domain.Order
	products     map[string]domain.Product
	users        map[string]domain.User
	usersByEmail map[string]string
	timeline     map[string][]domain.TimelineEvent
}

// snapshot копирует все таблицы. Значения хранятся по значению и не
// мутируются на месте, поэтому поэлементной копии достаточно.
func (s *Store) snapshot() storeSnapshot {
	snap := storeSnapshot{
		orders:       make(map[string]domain.Order, len(s.orders)),
		products:     make(map[string]domain.Product, len(s.products)),
		users:        make(map[string]domain.User, len(s.users)),
		usersByEmail: make(map[string]string, len(s.usersByEmail)),
		timeline:     make(map[string][]domain.TimelineEvent, len(s.timeline)),
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.usersByEmail {
		snap.usersByEmail[k] = v
	}
	for k, v := range s.timeline {
		snap.timeline[k] = v
	}
	return snap
}

func (s *Store) restore(snap storeSnapshot) {
	s.orders = snap.orders
	s.products = snap.products
	s.users = snap.users
	s.usersByEmail = snap.usersByEmail
	s.timeline = snap.timeline
}

var _ domain.TxRunner = (*Store)(nil)
