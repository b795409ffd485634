package memory

import (
	"strings"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// userRepository — in-memory реализация UserRepository поверх Store.
type userRepository struct {
	store   *Store
	locking bool
}

func (r *userRepository) lock() func() {
	if !r.locking {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *userRepository) rlock() func() {
	if !r.locking {
		return func() {}
	}
	r.store.mu.RLock()
	return r.store.mu.RUnlock
}

// Create сохраняет пользователя. Email уникален без учёта регистра.
func (r *userRepository) Create(user domain.User) error {
	defer r.lock()()

	email := normalizeEmail(user.Email)
	if _, taken := r.store.usersByEmail[email]; taken {
		return domain.ErrEmailAlreadyTaken
	}

	r.store.users[user.ID] = user
	r.store.usersByEmail[email] = user.ID
	return nil
}

func (r *userRepository) Get(id string) (domain.User, error) {
	defer r.rlock()()

	user, ok := r.store.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (r *userRepository) GetByEmail(email string) (domain.User, error) {
	defer r.rlock()()

	id, ok := r.store.usersByEmail[normalizeEmail(email)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return r.store.users[id], nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ domain.UserRepository = (*userRepository)(nil)
