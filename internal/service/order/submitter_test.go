package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thandzin/ordering/internal/auth"
	"github.com/thandzin/ordering/internal/domain"
	"github.com/thandzin/ordering/internal/service/cartsync"
)

type memCartRepo struct {
	docs map[string]domain.CartDocument
}

func (r *memCartRepo) Load(_ context.Context, identity string) (domain.CartDocument, error) {
	doc, ok := r.docs[identity]
	if !ok {
		return domain.CartDocument{}, domain.ErrCartNotFound
	}
	return doc.Clone(), nil
}

func (r *memCartRepo) Save(_ context.Context, identity string, doc domain.CartDocument) error {
	r.docs[identity] = doc.Clone()
	return nil
}

type fakeSink struct {
	placed []domain.Order
	err    error
}

func (s *fakeSink) Place(_ context.Context, order domain.Order) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.placed = append(s.placed, order)
	return "ref-" + order.ID, nil
}

type fakePlacedPublisher struct {
	orders []domain.Order
	err    error
}

func (p *fakePlacedPublisher) PublishOrderPlaced(order domain.Order) error {
	if p.err != nil {
		return p.err
	}
	p.orders = append(p.orders, order)
	return nil
}

func filledCart(t *testing.T) *cartsync.Service {
	t.Helper()
	cart := cartsync.NewWithoutMetrics(&memCartRepo{docs: map[string]domain.CartDocument{}}, nil)
	if err := cart.Bind(context.Background(), auth.Session{Identity: "cust-1", Name: "Thandi"}); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	err := cart.AddItem(context.Background(), domain.LineRequest{
		Item:     domain.MenuItem{ID: "burger", Name: "Classic Burger", PriceMinor: 4999},
		Quantity: 1,
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	return cart
}

func futureTime() string {
	return time.Now().Add(2 * time.Hour).Format("2006-01-02T15:04")
}

func TestSubmitSuccess(t *testing.T) {
	cart := filledCart(t)
	sink := &fakeSink{}
	submitter := NewSubmitterWithoutMetrics(cart, sink, nil)

	receipt, err := submitter.Submit(context.Background(), SubmitRequest{
		CustomerName:    "  Thandi  ",
		CollectionTime:  futureTime(),
		SpecialRequests: "no onions",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if len(sink.placed) != 1 {
		t.Fatalf("expected one placed order, got %d", len(sink.placed))
	}
	order := sink.placed[0]
	if order.CustomerName != "Thandi" {
		t.Fatalf("name must be trimmed, got %q", order.CustomerName)
	}
	if order.CustomerID != "cust-1" {
		t.Fatalf("order must carry the session identity, got %q", order.CustomerID)
	}
	if order.TotalMinor != 5000 {
		t.Fatalf("order carries the summary total, got %d", order.TotalMinor)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("new orders are pending, got %q", order.Status)
	}
	if receipt.Reference != "ref-"+order.ID {
		t.Fatalf("unexpected receipt reference %q", receipt.Reference)
	}

	if cart.Count() != 0 {
		t.Fatal("cart must be cleared after a successful hand-off")
	}
}

func TestSubmitAccumulatesValidationErrors(t *testing.T) {
	cart := cartsync.NewWithoutMetrics(&memCartRepo{docs: map[string]domain.CartDocument{}}, nil)
	if err := cart.Bind(context.Background(), auth.Session{Identity: "cust-1"}); err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	sink := &fakeSink{}
	submitter := NewSubmitterWithoutMetrics(cart, sink, nil)

	_, err := submitter.Submit(context.Background(), SubmitRequest{CustomerName: "   "})
	if err == nil {
		t.Fatal("expected validation errors")
	}

	// Empty name, missing time and empty cart are all reported at once.
	for _, want := range []error{domain.ErrCustomerNameRequired, domain.ErrCollectionTimeRequired, domain.ErrCartEmpty} {
		if !errors.Is(err, want) {
			t.Errorf("expected %v in %v", want, err)
		}
	}
	if len(sink.placed) != 0 {
		t.Fatal("rejected orders must not reach the sink")
	}
}

func TestSubmitRejectsUnparsableTime(t *testing.T) {
	submitter := NewSubmitterWithoutMetrics(filledCart(t), &fakeSink{}, nil)

	_, err := submitter.Submit(context.Background(), SubmitRequest{
		CustomerName:   "Thandi",
		CollectionTime: "tomorrow-ish",
	})
	if !errors.Is(err, domain.ErrCollectionTimeInvalid) {
		t.Fatalf("expected ErrCollectionTimeInvalid, got %v", err)
	}
}

func TestSubmitRejectsPastTime(t *testing.T) {
	submitter := NewSubmitterWithoutMetrics(filledCart(t), &fakeSink{}, nil)

	_, err := submitter.Submit(context.Background(), SubmitRequest{
		CustomerName:   "Thandi",
		CollectionTime: time.Now().Add(-time.Hour).Format("2006-01-02T15:04"),
	})
	if !errors.Is(err, domain.ErrCollectionTimeInPast) {
		t.Fatalf("expected ErrCollectionTimeInPast, got %v", err)
	}
}

func TestSubmitAcceptsRFC3339(t *testing.T) {
	sink := &fakeSink{}
	submitter := NewSubmitterWithoutMetrics(filledCart(t), sink, nil)

	_, err := submitter.Submit(context.Background(), SubmitRequest{
		CustomerName:   "Thandi",
		CollectionTime: time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("RFC3339 collection time must be accepted: %v", err)
	}
	if len(sink.placed) != 1 {
		t.Fatal("expected the order to be placed")
	}
}

func TestSubmitTotalMatchesOrderLines(t *testing.T) {
	cart := filledCart(t)
	err := cart.AddItem(context.Background(), domain.LineRequest{
		Item:     domain.MenuItem{ID: "wrap", Name: "Chicken Wrap", PriceMinor: 3950},
		Quantity: 1,
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	sink := &fakeSink{}
	submitter := NewSubmitterWithoutMetrics(cart, sink, nil)

	if _, err := submitter.Submit(context.Background(), SubmitRequest{
		CustomerName:   "Thandi",
		CollectionTime: futureTime(),
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	order := sink.placed[0]
	var recomputed int64
	for _, line := range order.Lines {
		recomputed += line.TotalMinor()
	}
	// Lines and total come from one snapshot, so they always agree.
	if order.TotalMinor != recomputed {
		t.Fatalf("order total %d does not match its lines %d", order.TotalMinor, recomputed)
	}
	if order.TotalMinor != 5000+3950 {
		t.Fatalf("unexpected order total %d", order.TotalMinor)
	}
}

func TestSubmitFailureLeavesCartUntouched(t *testing.T) {
	cart := filledCart(t)
	sink := &fakeSink{err: errors.New("sink offline")}
	submitter := NewSubmitterWithoutMetrics(cart, sink, nil)

	_, err := submitter.Submit(context.Background(), SubmitRequest{
		CustomerName:   "Thandi",
		CollectionTime: futureTime(),
	})
	if !errors.Is(err, domain.ErrOrderSubmit) {
		t.Fatalf("expected ErrOrderSubmit, got %v", err)
	}

	if cart.Count() != 1 {
		t.Fatal("failed hand-off must leave the cart untouched")
	}
}

func TestSubmitPublishesPlacedEvent(t *testing.T) {
	pub := &fakePlacedPublisher{}
	submitter := NewSubmitterWithoutMetrics(filledCart(t), &fakeSink{}, nil)
	submitter.publisher = pub

	if _, err := submitter.Submit(context.Background(), SubmitRequest{
		CustomerName:   "Thandi",
		CollectionTime: futureTime(),
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if len(pub.orders) != 1 {
		t.Fatalf("expected one published event, got %d", len(pub.orders))
	}
}

func TestSubmitPublishFailureIsBestEffort(t *testing.T) {
	cart := filledCart(t)
	submitter := NewSubmitterWithoutMetrics(cart, &fakeSink{}, nil)
	submitter.publisher = &fakePlacedPublisher{err: errors.New("broker down")}

	if _, err := submitter.Submit(context.Background(), SubmitRequest{
		CustomerName:   "Thandi",
		CollectionTime: futureTime(),
	}); err != nil {
		t.Fatalf("publish failure must not fail the hand-off: %v", err)
	}
	if cart.Count() != 0 {
		t.Fatal("cart must still clear when publishing fails")
	}
}

func TestCollectionSinkStoresOrder(t *testing.T) {
	repo := &recordingOrderRepo{}
	sink := NewCollectionSink(repo, nil)

	id, err := sink.Place(context.Background(), domain.Order{ID: "o-1", CustomerID: "cust-1"})
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}
	if id != "o-1" || len(repo.created) != 1 {
		t.Fatalf("order must reach the repository, id=%q created=%d", id, len(repo.created))
	}
}

type recordingOrderRepo struct {
	created []domain.Order
}

func (r *recordingOrderRepo) Create(_ context.Context, order domain.Order) (string, error) {
	r.created = append(r.created, order)
	return order.ID, nil
}

func (r *recordingOrderRepo) ListByCustomer(_ context.Context, _ string, _ int) ([]domain.Order, error) {
	return nil, nil
}
