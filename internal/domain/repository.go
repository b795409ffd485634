package domain

import "context"

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ вместе с позициями.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListByUser возвращает заказы пользователя, новые первыми.
	ListByUser(userID string) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order Order) error
}

// ProductRepository описывает требования к хранилищу каталога.
type ProductRepository interface {
	Create(product Product) error
	// Get возвращает товар или ErrProductNotFound.
	Get(id string) (Product, error)
	List() ([]Product, error)
	Update(product Product) error
	Delete(id string) error
	// AdjustStock атомарно изменяет сток на delta. Декремент, уводящий
	// сток в минус, отклоняется целиком с ErrInsufficientStock.
	AdjustStock(id string, delta int32) error
}

// UserRepository описывает требования к хранилищу пользователей.
type UserRepository interface {
	// Create сохраняет пользователя; занятый email даёт ErrEmailAlreadyTaken.
	Create(user User) error
	// Get возвращает пользователя или ErrUserNotFound.
	Get(id string) (User, error)
	// GetByEmail возвращает пользователя или ErrUserNotFound.
	GetByEmail(email string) (User, error)
}

// Repositories — набор репозиториев, разделяющих одну транзакцию
// внутри WithinTx либо одно хранилище вне её.
type Repositories struct {
	Orders   OrderRepository
	Products ProductRepository
	Users    UserRepository
	Timeline TimelineRepository
}

// TxRunner исполняет fn атомарно: либо фиксируются все изменения,
// сделанные через переданный набор репозиториев, либо ни одно.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(Repositories) error) error
}
