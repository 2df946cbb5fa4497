package memory

import (
	"context"
	"sync"

	"github.com/thandzin/ordering/internal/domain"
)

// cartRepositoryInMemory — простая in-memory реализация CartRepository.
// Играет роль локального хранилища корзины, когда удалённая база не
// настроена.
type cartRepositoryInMemory struct {
	mu   sync.RWMutex
	docs map[string]domain.CartDocument
}

// NewCartRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewCartRepository() domain.CartRepository {
	return &cartRepositoryInMemory{
		docs: make(map[string]domain.CartDocument),
	}
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)

// Load возвращает документ корзины или ErrCartNotFound, если его нет.
func (r *cartRepositoryInMemory) Load(_ context.Context, identity string) (domain.CartDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[identity]
	if !ok {
		return domain.CartDocument{}, domain.ErrCartNotFound
	}
	return doc.Clone(), nil
}

// Save записывает документ целиком, последняя запись побеждает.
func (r *cartRepositoryInMemory) Save(_ context.Context, identity string, doc domain.CartDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	r.docs[identity] = doc.Clone()
	return nil
}
