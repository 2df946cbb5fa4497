package app

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/thandzin/ordering/internal/messaging/kafka"
)

// initKafkaProducer инициализирует Kafka producer если brokers не пустой.
// Возвращает nil, nil если brokers пустой или если произошла ошибка.
func initKafkaProducer(brokers string, logger *log.Entry) (*kafka.Producer, error) {
	if brokers == "" {
		return nil, nil
	}

	brokerList := strings.Split(brokers, ",")
	producer, err := kafka.NewProducer(brokerList)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokerList).Info("kafka producer initialized")
	return producer, nil
}

// startSnapshotFeed подписывает сервис корзины на ленту снапшотов с
// других инстансов. Возвращает nil если brokers пустой.
func startSnapshotFeed(ctx context.Context, brokers, groupID string, applier kafka.SnapshotApplier, logger *log.Entry) *kafka.Consumer {
	if brokers == "" {
		return nil
	}

	feed, err := kafka.NewSnapshotFeed(strings.Split(brokers, ","), groupID, applier)
	if err != nil {
		logger.WithError(err).Warn("failed to create snapshot feed, continuing without it")
		return nil
	}

	go func() {
		if err := feed.Start(ctx); err != nil {
			logger.WithError(err).Warn("snapshot feed stopped with error")
		}
	}()

	logger.WithField("group_id", groupID).Info("cart snapshot feed started")
	return feed
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
