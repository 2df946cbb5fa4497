package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/thandzin/ordering/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]domain.Order),
	}
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)

// Create сохраняет заказ и возвращает его идентификатор. Пустой ID
// заменяется сгенерированным.
func (r *orderRepositoryInMemory) Create(_ context.Context, order domain.Order) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	order.Lines = cloneLines(order.Lines)
	r.items[order.ID] = order
	return order.ID, nil
}

// ListByCustomer возвращает заказы покупателя, ограничивая выборку limit (если >0).
func (r *orderRepositoryInMemory) ListByCustomer(_ context.Context, customerID string, limit int) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if order.CustomerID != customerID {
			continue
		}
		order.Lines = cloneLines(order.Lines)
		result = append(result, order)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	cloned := make([]domain.CartLine, len(lines))
	for i, line := range lines {
		cloned[i] = line.Clone()
	}
	return cloned
}
