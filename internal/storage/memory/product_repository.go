package memory

import (
	"sort"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// productRepository — in-memory реализация ProductRepository поверх Store.
type productRepository struct {
	store   *Store
	locking bool
}

func (r *productRepository) lock() func() {
	if !r.locking {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *productRepository) rlock() func() {
	if !r.locking {
		return func() {}
	}
	r.store.mu.RLock()
	return r.store.mu.RUnlock
}

func (r *productRepository) Create(product domain.Product) error {
	defer r.lock()()

	r.store.products[product.ID] = product
	return nil
}

func (r *productRepository) Get(id string) (domain.Product, error) {
	defer r.rlock()()

	product, ok := r.store.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// List возвращает товары каталога, отсортированные по дате создания.
func (r *productRepository) List() ([]domain.Product, error) {
	defer r.rlock()()

	result := make([]domain.Product, 0, len(r.store.products))
	for _, product := range r.store.products {
		result = append(result, product)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (r *productRepository) Update(product domain.Product) error {
	defer r.lock()()

	if _, ok := r.store.products[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	r.store.products[product.ID] = product
	return nil
}

func (r *productRepository) Delete(id string) error {
	defer r.lock()()

	if _, ok := r.store.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.store.products, id)
	return nil
}

// AdjustStock атомарно изменяет сток: проверка и запись происходят под
// одной блокировкой, сток никогда не уходит в минус.
func (r *productRepository) AdjustStock(id string, delta int32) error {
	defer r.lock()()

	product, ok := r.store.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	if product.Stock+delta < 0 {
		return domain.ErrInsufficientStock
	}
	product.Stock += delta
	r.store.products[id] = product
	return nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
