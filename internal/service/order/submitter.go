package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/thandzin/ordering/internal/domain"
	"github.com/thandzin/ordering/internal/metrics"
	"github.com/thandzin/ordering/internal/service/cartsync"
)

// Форматы времени получения, принимаемые от виджета. Первый приходит из
// HTML-поля datetime-local, второй из программных клиентов.
var collectionTimeLayouts = []string{
	"2006-01-02T15:04",
	time.RFC3339,
}

// PlacedPublisher публикует событие об успешно переданном заказе.
type PlacedPublisher interface {
	PublishOrderPlaced(order domain.Order) error
}

// SubmitRequest содержит данные формы оформления заказа.
type SubmitRequest struct {
	CustomerName    string
	CollectionTime  string
	SpecialRequests string
}

// Receipt описывает результат успешной передачи заказа.
type Receipt struct {
	OrderID    string
	Reference  string
	TotalMinor int64
}

// Submitter оформляет заказ из текущей корзины и передаёт его в точку
// приёма. Неудачная передача оставляет корзину нетронутой.
type Submitter struct {
	cart      *cartsync.Service
	sink      domain.OrderSink
	publisher PlacedPublisher
	logger    *log.Entry
	metrics   *metrics.CartMetrics
	now       func() time.Time
}

// NewSubmitter создаёт сервис оформления заказов.
func NewSubmitter(cart *cartsync.Service, sink domain.OrderSink, logger *log.Entry) *Submitter {
	if logger == nil {
		logger = log.New().WithField("component", "order-submitter")
	}
	return &Submitter{
		cart:    cart,
		sink:    sink,
		logger:  logger,
		metrics: metrics.NewCartMetrics(),
		now:     time.Now,
	}
}

// NewSubmitterWithPublisher создаёт сервис, публикующий событие о каждом
// переданном заказе.
func NewSubmitterWithPublisher(cart *cartsync.Service, sink domain.OrderSink, publisher PlacedPublisher, logger *log.Entry) *Submitter {
	s := NewSubmitter(cart, sink, logger)
	s.publisher = publisher
	return s
}

// NewSubmitterWithoutMetrics создаёт сервис без метрик (для тестов).
func NewSubmitterWithoutMetrics(cart *cartsync.Service, sink domain.OrderSink, logger *log.Entry) *Submitter {
	if logger == nil {
		logger = log.New().WithField("component", "order-submitter")
	}
	return &Submitter{
		cart:   cart,
		sink:   sink,
		logger: logger,
		now:    time.Now,
	}
}

// Submit валидирует форму, собирает заказ из корзины и передаёт его.
// Все ошибки валидации накапливаются и возвращаются одним значением.
// После успешной передачи корзина очищается, сбой очистки только
// логируется.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) (Receipt, error) {
	start := time.Now()

	order, err := s.buildOrder(req)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordOrderRejected()
		}
		return Receipt{}, err
	}

	reference, err := s.sink.Place(ctx, order)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordOrderFailed()
		}
		return Receipt{}, fmt.Errorf("%w: %v", domain.ErrOrderSubmit, err)
	}

	if s.publisher != nil {
		if pubErr := s.publisher.PublishOrderPlaced(order); pubErr != nil {
			s.logger.WithError(pubErr).WithField("order_id", order.ID).Warn("order placed event publish failed")
		}
	}

	if clearErr := s.cart.Clear(ctx); clearErr != nil {
		s.logger.WithError(clearErr).WithField("order_id", order.ID).Warn("cart clear after hand-off failed")
	}

	if s.metrics != nil {
		s.metrics.RecordOrderSubmitted()
		s.metrics.RecordSubmitDuration(time.Since(start))
	}

	s.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"reference":   reference,
		"total_minor": order.TotalMinor,
		"lines":       len(order.Lines),
	}).Info("order handed off")

	return Receipt{OrderID: order.ID, Reference: reference, TotalMinor: order.TotalMinor}, nil
}

func (s *Submitter) buildOrder(req SubmitRequest) (domain.Order, error) {
	var errs []error

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		errs = append(errs, domain.ErrCustomerNameRequired)
	}

	collectionTime, timeErr := s.parseCollectionTime(req.CollectionTime)
	if timeErr != nil {
		errs = append(errs, timeErr)
	}

	// Строки и итог берутся из одного снимка: параллельная мутация корзины
	// между двумя чтениями дала бы заказ с итогом не от своих строк.
	doc := s.cart.Snapshot()
	if len(doc.Lines) == 0 {
		errs = append(errs, domain.ErrCartEmpty)
	}

	if len(errs) > 0 {
		return domain.Order{}, errors.Join(errs...)
	}

	session := s.cart.Session()
	return domain.Order{
		ID:              uuid.NewString(),
		CustomerID:      session.Identity,
		CustomerName:    name,
		CollectionTime:  collectionTime,
		SpecialRequests: strings.TrimSpace(req.SpecialRequests),
		Lines:           doc.Lines,
		TotalMinor:      doc.TotalMinor,
		Status:          domain.OrderStatusPending,
		CreatedAt:       s.now().UTC(),
	}, nil
}

func (s *Submitter) parseCollectionTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, domain.ErrCollectionTimeRequired
	}

	var parsed time.Time
	var err error
	for _, layout := range collectionTimeLayouts {
		parsed, err = time.ParseInLocation(layout, raw, time.Local)
		if err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", domain.ErrCollectionTimeInvalid, raw)
	}

	if parsed.Before(s.now()) {
		return time.Time{}, domain.ErrCollectionTimeInPast
	}
	return parsed, nil
}
