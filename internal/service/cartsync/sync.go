package cartsync

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/thandzin/ordering/internal/auth"
	"github.com/thandzin/ordering/internal/domain"
	"github.com/thandzin/ordering/internal/metrics"
)

// Service управляет корзиной одного покупателя и синхронизирует её с
// удалённым документом. Локальная корзина остаётся источником истины
// для виджета, запись документа выполняется по принципу "последняя
// запись побеждает".
type Service struct {
	mu        sync.Mutex
	cart      *domain.Cart
	session   auth.Session
	repo      domain.CartRepository
	publisher domain.SnapshotPublisher
	logger    *log.Entry
	metrics   *metrics.CartMetrics
}

// New создаёт сервис синхронизации корзины.
func New(repo domain.CartRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "cartsync")
	}
	return &Service{
		cart:    domain.NewCart(),
		repo:    repo,
		logger:  logger,
		metrics: metrics.NewCartMetrics(),
	}
}

// NewWithPublisher создаёт сервис, который после каждой успешной записи
// документа публикует снапшот корзины в ленту.
func NewWithPublisher(repo domain.CartRepository, publisher domain.SnapshotPublisher, logger *log.Entry) *Service {
	s := New(repo, logger)
	s.publisher = publisher
	return s
}

// NewWithoutMetrics создаёт сервис без метрик (для тестов).
func NewWithoutMetrics(repo domain.CartRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "cartsync")
	}
	return &Service{
		cart:   domain.NewCart(),
		repo:   repo,
		logger: logger,
	}
}

// Bind привязывает сервис к установленной личности и подтягивает её
// сохранённый документ. Отсутствующий документ означает пустую корзину.
func (s *Service) Bind(ctx context.Context, session auth.Session) error {
	if !session.Ready() {
		return domain.ErrIdentityNotReady
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.Load(ctx, session.Identity)
	switch {
	case errors.Is(err, domain.ErrCartNotFound):
		s.cart = domain.NewCart()
	case err != nil:
		return err
	default:
		s.cart.Replace(doc.Lines)
	}

	s.session = session
	s.logger.WithFields(log.Fields{
		"identity": session.Identity,
		"lines":    s.cart.Len(),
	}).Info("cart bound to identity")
	return nil
}

// Session возвращает текущую привязанную сессию.
func (s *Service) Session() auth.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// AddItem добавляет позицию в корзину. Совпадающая позиция с тем же
// набором выбранных опций сливается увеличением количества.
func (s *Service) AddItem(ctx context.Context, req domain.LineRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Ready() {
		s.noop("add_item", req.Item.ID)
		return nil
	}

	before := s.cart.Len()
	s.cart.AddLine(req.Item, req.Selections)
	if s.metrics != nil {
		if s.cart.Len() == before {
			s.metrics.RecordLineMerged()
		} else {
			s.metrics.RecordLineAdded()
		}
	}
	s.syncLocked(ctx)
	return nil
}

// ChangeQuantity изменяет количество позиции по индексу на delta.
// Декремент до нуля и ниже удаляет позицию.
func (s *Service) ChangeQuantity(ctx context.Context, index int, delta int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Ready() {
		s.noop("change_quantity", "")
		return nil
	}

	before := s.cart.Len()
	if err := s.cart.ChangeQuantity(index, delta); err != nil {
		return err
	}
	if s.cart.Len() < before && s.metrics != nil {
		s.metrics.RecordLineRemoved()
	}
	s.syncLocked(ctx)
	return nil
}

// RemoveLine удаляет позицию по индексу.
func (s *Service) RemoveLine(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Ready() {
		s.noop("remove_line", "")
		return nil
	}

	if err := s.cart.RemoveLine(index); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordLineRemoved()
	}
	s.syncLocked(ctx)
	return nil
}

// Clear опустошает корзину.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Ready() {
		s.noop("clear", "")
		return nil
	}

	s.cart.Clear()
	if s.metrics != nil {
		s.metrics.RecordCartCleared()
	}
	s.syncLocked(ctx)
	return nil
}

// Apply целиком замещает локальную корзину входящим снапшотом. Метод
// используется подпиской на ленту снапшотов, локальная запись при этом
// не выполняется.
func (s *Service) Apply(doc domain.CartDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Ready() {
		return
	}
	s.cart.Replace(doc.Lines)
}

// Snapshot возвращает копию текущего состояния корзины как документ.
func (s *Service) Snapshot() domain.CartDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documentLocked()
}

// Count возвращает суммарное количество единиц в корзине.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.cart.Count())
}

// TotalMinor возвращает итог корзины в минорных единицах с применённым
// округлением витринных цен.
func (s *Service) TotalMinor() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalMinor()
}

func (s *Service) documentLocked() domain.CartDocument {
	return domain.CartDocument{
		Lines:      s.cart.Lines(),
		TotalMinor: s.cart.TotalMinor(),
		UpdatedAt:  time.Now().UTC(),
	}
}

// syncLocked записывает текущий документ целиком. Неудачная запись не
// откатывает локальную мутацию, она логируется и учитывается в метриках.
func (s *Service) syncLocked(ctx context.Context) {
	start := time.Now()
	doc := s.documentLocked()

	if err := s.repo.Save(ctx, s.session.Identity, doc); err != nil {
		s.logger.WithError(err).WithField("identity", s.session.Identity).Warn("cart document write failed")
		if s.metrics != nil {
			s.metrics.RecordSyncFailure()
		}
		return
	}

	if s.metrics != nil {
		s.metrics.RecordSyncDuration(time.Since(start))
		s.metrics.SetCartItemCount(int(s.cart.Count()))
	}

	if s.publisher != nil {
		if err := s.publisher.PublishCartSnapshot(s.session.Identity, doc); err != nil {
			s.logger.WithError(err).Warn("cart snapshot publish failed")
		} else if s.metrics != nil {
			s.metrics.RecordSnapshotPushed()
		}
	}
}

func (s *Service) noop(operation, itemID string) {
	fields := log.Fields{"operation": operation}
	if itemID != "" {
		fields["item_id"] = itemID
	}
	s.logger.WithFields(fields).Warn("cart mutation dropped, identity not established")
	if s.metrics != nil {
		s.metrics.RecordMutationNoop()
	}
}
