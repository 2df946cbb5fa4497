package domain

import (
	"context"
	"time"
)

// CartDocument — полный документ корзины, как он хранится удалённо:
// {lines, total}. Записывается и читается только целиком; инкрементальных
// патчей нет, поэтому параллельные записи двух сессий одной identity молча
// перезаписывают друг друга (last-writer-wins — задокументированное
// ограничение, не дефект).
type CartDocument struct {
	Lines      []CartLine `json:"lines"`
	TotalMinor int64      `json:"total_minor"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Clone возвращает глубокую копию документа.
func (d CartDocument) Clone() CartDocument {
	out := d
	out.Lines = make([]CartLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		out.Lines = append(out.Lines, l.Clone())
	}
	return out
}

// CartRepository описывает хранилище документов корзины по identity.
type CartRepository interface {
	// Load возвращает документ или ErrCartNotFound, если его ещё нет.
	Load(ctx context.Context, identity string) (CartDocument, error)
	// Save перезаписывает документ целиком (read-modify-write выполняет
	// вызывающий код).
	Save(ctx context.Context, identity string, doc CartDocument) error
}

// OrderRepository описывает общую коллекцию заказов.
type OrderRepository interface {
	// Create добавляет снимок заказа и возвращает сгенерированный идентификатор.
	Create(ctx context.Context, order Order) (string, error)
	// ListByCustomer возвращает заказы клиента, новые первыми.
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]Order, error)
}

// OrderSink — внешний получатель оформленного заказа: коллекция заказов либо
// мессенджер-передача. При ошибке корзина остаётся нетронутой.
type OrderSink interface {
	// Place передаёт заказ и возвращает идентификатор результата
	// (id документа или deep link).
	Place(ctx context.Context, order Order) (string, error)
}

// SnapshotPublisher рассылает полный снимок корзины другим сессиям той же
// identity.
type SnapshotPublisher interface {
	PublishCartSnapshot(identity string, doc CartDocument) error
}
