package order

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/thandzin/ordering/internal/domain"
)

// CollectionSink принимает заказы в хранилище заведения. Это вариант
// точки приёма для бэкенда с базой, альтернатива ссылке WhatsApp.
type CollectionSink struct {
	orders domain.OrderRepository
	logger *log.Entry
}

// NewCollectionSink создаёт точку приёма поверх репозитория заказов.
func NewCollectionSink(orders domain.OrderRepository, logger *log.Entry) *CollectionSink {
	if logger == nil {
		logger = log.New().WithField("component", "collection-sink")
	}
	return &CollectionSink{orders: orders, logger: logger}
}

var _ domain.OrderSink = (*CollectionSink)(nil)

// Place сохраняет заказ и возвращает присвоенный идентификатор.
func (s *CollectionSink) Place(ctx context.Context, order domain.Order) (string, error) {
	id, err := s.orders.Create(ctx, order)
	if err != nil {
		return "", err
	}
	s.logger.WithFields(log.Fields{
		"order_id":    id,
		"customer_id": order.CustomerID,
	}).Info("order stored")
	return id, nil
}
