package kafka

import (
	"context"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/thandzin/ordering/internal/auth"
	"github.com/thandzin/ordering/internal/domain"
)

// SnapshotApplier принимает входящие снапшоты корзины. Реализуется
// сервисом синхронизации корзины.
type SnapshotApplier interface {
	Apply(doc domain.CartDocument)
	Session() auth.Session
}

// NewSnapshotFeed создает consumer ленты снапшотов корзин. Снапшоты
// чужих личностей пропускаются, свои замещают локальную корзину целиком.
func NewSnapshotFeed(brokers []string, groupID string, applier SnapshotApplier) (*Consumer, error) {
	return NewConsumer(brokers, groupID, []string{TopicCartSnapshots}, newSnapshotHandler(applier))
}

func newSnapshotHandler(applier SnapshotApplier) MessageHandler {
	logger := log.WithField("component", "cart-snapshot-feed")

	return func(_ context.Context, message *sarama.ConsumerMessage) error {
		event, err := ParseCartSnapshotEvent(message.Value)
		if err != nil {
			return err
		}

		session := applier.Session()
		if !session.Ready() || event.Identity != session.Identity {
			return nil
		}

		applier.Apply(event.Document)
		logger.WithFields(log.Fields{
			"identity": event.Identity,
			"lines":    len(event.Document.Lines),
		}).Debug("cart snapshot applied")
		return nil
	}
}
