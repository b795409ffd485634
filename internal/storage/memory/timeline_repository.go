package memory

import (
	"sort"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// timelineRepository хранит события жизненного цикла заказов в памяти.
type timelineRepository struct {
	store   *Store
	locking bool
}

func (r *timelineRepository) lock() func() {
	if !r.locking {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *timelineRepository) rlock() func() {
	if !r.locking {
		return func() {}
	}
	r.store.mu.RLock()
	return r.store.mu.RUnlock
}

// Append добавляет событие в хранилище.
func (r *timelineRepository) Append(event domain.TimelineEvent) error {
	defer r.lock()()

	events := append(r.store.timeline[event.OrderID], event)
	sort.Slice(events, func(i, j int) bool {
		return events[i].Occurred.Before(events[j].Occurred)
	})
	r.store.timeline[event.OrderID] = events
	return nil
}

// List возвращает события заказа в хронологическом порядке.
func (r *timelineRepository) List(orderID string) ([]domain.TimelineEvent, error) {
	defer r.rlock()()

	events := r.store.timeline[orderID]
	result := make([]domain.TimelineEvent, len(events))
	copy(result, events)
	return result, nil
}

var _ domain.TimelineRepository = (*timelineRepository)(nil)
