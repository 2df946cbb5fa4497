package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/thandzin/ordering/internal/domain"
)

func TestEventPublisher_PublishCartSnapshot(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	publisher := NewEventPublisher(&Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	})

	// Проверяем и тему, и тело сообщения
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicCartSnapshots {
			t.Errorf("unexpected topic %s", msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "cust-1" {
			t.Errorf("message key must be the identity, got %s", key)
		}
		value, _ := msg.Value.Encode()
		event, err := ParseCartSnapshotEvent(value)
		if err != nil {
			t.Errorf("published value must parse back: %v", err)
			return nil
		}
		if event.Document.TotalMinor != 5000 {
			t.Errorf("unexpected document total %d", event.Document.TotalMinor)
		}
		return nil
	})

	doc := domain.CartDocument{
		Lines:      []domain.CartLine{{ItemID: "burger", UnitPriceMinor: 4999, Quantity: 1}},
		TotalMinor: 5000,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := publisher.PublishCartSnapshot("cust-1", doc); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestEventPublisher_PublishOrderPlaced(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	publisher := NewEventPublisher(&Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	})

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicOrderEvents {
			t.Errorf("unexpected topic %s", msg.Topic)
		}
		value, _ := msg.Value.Encode()
		var event OrderPlacedEvent
		if err := json.Unmarshal(value, &event); err != nil {
			t.Errorf("published value must be valid json: %v", err)
			return nil
		}
		if event.EventType != EventTypeOrderPlaced || event.OrderID != "o-1" {
			t.Errorf("unexpected event %+v", event)
		}
		return nil
	})

	if err := publisher.PublishOrderPlaced(sampleOrder()); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}
