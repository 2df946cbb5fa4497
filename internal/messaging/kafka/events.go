package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/thandzin/ordering/internal/domain"
)

// EventType определяет тип события
type EventType string

const (
	// Cart события
	EventTypeCartSnapshot EventType = "cart.snapshot"

	// Order события
	EventTypeOrderPlaced EventType = "order.placed"
)

// Topics для Kafka
const (
	TopicCartSnapshots = "ordering.cart.snapshots"
	TopicOrderEvents   = "ordering.order.events"
)

// CartSnapshotEvent представляет снапшот документа корзины. Подписчики
// замещают своё локальное состояние этим документом целиком.
type CartSnapshotEvent struct {
	EventType EventType           `json:"event_type"`
	Identity  string              `json:"identity"`
	Document  domain.CartDocument `json:"document"`
	Timestamp time.Time           `json:"timestamp"`
}

// OrderPlacedEvent представляет успешно переданный заказ.
type OrderPlacedEvent struct {
	EventType  EventType `json:"event_type"`
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	TotalMinor int64     `json:"total_minor"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewCartSnapshotEvent создает новое событие снапшота корзины
func NewCartSnapshotEvent(identity string, doc domain.CartDocument) *CartSnapshotEvent {
	return &CartSnapshotEvent{
		EventType: EventTypeCartSnapshot,
		Identity:  identity,
		Document:  doc,
		Timestamp: time.Now(),
	}
}

// NewOrderPlacedEvent создает новое событие переданного заказа
func NewOrderPlacedEvent(order domain.Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		EventType:  EventTypeOrderPlaced,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		TotalMinor: order.TotalMinor,
		Status:     string(order.Status),
		Timestamp:  time.Now(),
	}
}

// ParseCartSnapshotEvent разбирает событие снапшота из сырого сообщения.
func ParseCartSnapshotEvent(data []byte) (*CartSnapshotEvent, error) {
	var event CartSnapshotEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot event: %w", err)
	}
	if event.EventType != EventTypeCartSnapshot {
		return nil, fmt.Errorf("unexpected event type %q", event.EventType)
	}
	if event.Identity == "" {
		return nil, fmt.Errorf("cart snapshot event without identity")
	}
	return &event, nil
}

// ParseOrderPlacedEvent разбирает событие заказа из сырого сообщения.
func ParseOrderPlacedEvent(data []byte) (*OrderPlacedEvent, error) {
	var event OrderPlacedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal order placed event: %w", err)
	}
	if event.EventType != EventTypeOrderPlaced {
		return nil, fmt.Errorf("unexpected event type %q", event.EventType)
	}
	return &event, nil
}
