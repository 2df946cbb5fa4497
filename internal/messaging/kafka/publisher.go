package kafka

import (
	"github.com/thandzin/ordering/internal/domain"
)

// EventPublisher публикует доменные события поверх Producer. Реализует
// порты публикации снапшотов корзин и событий заказов.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher создает публикатор доменных событий
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

var _ domain.SnapshotPublisher = (*EventPublisher)(nil)

// PublishCartSnapshot публикует снапшот документа корзины. Ключом
// сообщения служит личность покупателя, поэтому снапшоты одной корзины
// попадают в одну партицию и сохраняют порядок.
func (p *EventPublisher) PublishCartSnapshot(identity string, doc domain.CartDocument) error {
	return p.producer.PublishEvent(TopicCartSnapshots, identity, NewCartSnapshotEvent(identity, doc))
}

// PublishOrderPlaced публикует событие успешно переданного заказа.
func (p *EventPublisher) PublishOrderPlaced(order domain.Order) error {
	return p.producer.PublishEvent(TopicOrderEvents, order.CustomerID, NewOrderPlacedEvent(order))
}
