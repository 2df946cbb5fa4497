package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/thandzin/ordering/internal/domain"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger.WithField("component", "test")
}

func sampleOrder() domain.Order {
	return domain.Order{
		ID:             "o-1",
		CustomerName:   "Thandi",
		CollectionTime: time.Date(2026, 9, 1, 18, 30, 0, 0, time.UTC),
		Lines: []domain.CartLine{
			{
				ItemID:         "burger",
				Name:           "Classic Burger",
				UnitPriceMinor: 4999,
				Quantity:       2,
				Selections: map[string]domain.Selection{
					"size": {
						GroupName: "Size",
						Mode:      domain.SelectionSingle,
						Choices:   []domain.ChoiceSnapshot{{ID: "large", Name: "Large", PriceAdjMinor: 500}},
					},
					"extras": {
						GroupName: "Extras",
						Mode:      domain.SelectionMultiple,
						Choices: []domain.ChoiceSnapshot{
							{ID: "cheese", Name: "Cheese", PriceAdjMinor: 250},
							{ID: "bacon", Name: "Bacon", PriceAdjMinor: 300},
						},
					},
				},
			},
		},
		TotalMinor: 10000,
		Status:     domain.OrderStatusPending,
	}
}

func TestComposeMessage(t *testing.T) {
	c := NewComposer("+27731972528", "Thandzin-at-Service", "", testLogger())

	msg := c.ComposeMessage(sampleOrder())

	for _, want := range []string{
		"*New Order Summary*",
		"*Customer:* Thandi",
		"*Collection Time:* 01 Sep 2026, 18:30",
		"• *Classic Burger*",
		"Extras: Cheese, Bacon",
		"Size: Large",
		"Quantity: 2",
		"Unit Price: R50",
		"Item Total: R100",
		"*TOTAL AMOUNT:* R100",
		"Thank you for choosing Thandzin-at-Service!",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestComposeMessage_OmitsEmptySpecialRequests(t *testing.T) {
	c := NewComposer("+27731972528", "Thandzin-at-Service", "", testLogger())

	order := sampleOrder()
	if strings.Contains(c.ComposeMessage(order), "*Special Requests:*") {
		t.Fatal("empty special requests must not be rendered")
	}

	order.SpecialRequests = "no onions"
	if !strings.Contains(c.ComposeMessage(order), "*Special Requests:* no onions") {
		t.Fatal("special requests missing from the message")
	}
}

func TestComposeMessage_Deterministic(t *testing.T) {
	c := NewComposer("+27731972528", "Thandzin-at-Service", "", testLogger())

	first := c.ComposeMessage(sampleOrder())
	for i := 0; i < 20; i++ {
		if got := c.ComposeMessage(sampleOrder()); got != first {
			t.Fatal("message must be deterministic across map iteration orders")
		}
	}
}

func TestDeepLink(t *testing.T) {
	c := NewComposer("+27731972528", "Thandzin-at-Service", "", testLogger())

	link := c.DeepLink(sampleOrder())
	if !strings.HasPrefix(link, "https://wa.me/+27731972528?text=") {
		t.Fatalf("unexpected link prefix: %s", link)
	}

	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("link must parse: %v", err)
	}
	text := parsed.Query().Get("text")
	if !strings.Contains(text, "*New Order Summary*") {
		t.Fatal("decoded text must contain the summary header")
	}
}

func TestSendSummaryImage(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		gotBody = string(buf)
	}))
	defer srv.Close()

	c := NewComposer("+27731972528", "Thandzin-at-Service", srv.URL, testLogger())
	if err := c.SendSummaryImage(context.Background(), "data:image/png;base64,AAAA"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if !strings.Contains(gotBody, `"phone":"+27731972528"`) {
		t.Fatalf("payload must carry the phone number, got %s", gotBody)
	}
}

func TestSendSummaryImage_DisabledWithoutEndpoint(t *testing.T) {
	c := NewComposer("+27731972528", "Thandzin-at-Service", "", testLogger())
	if err := c.SendSummaryImage(context.Background(), "data:image/png;base64,AAAA"); err != nil {
		t.Fatalf("disabled endpoint must be a no-op, got %v", err)
	}
}

func TestSendSummaryImage_BreakerOpensAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewComposer("+27731972528", "Thandzin-at-Service", srv.URL, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := c.SendSummaryImage(ctx, "img"); err == nil {
			t.Fatal("gateway failure must surface as an error")
		}
	}

	// Three consecutive failures open the breaker; the gateway is no longer called.
	err := c.SendSummaryImage(ctx, "img")
	if err == nil || !strings.Contains(err.Error(), "circuit breaker is open") {
		t.Fatalf("expected open circuit breaker, got %v", err)
	}
}

func TestLinkSinkPlace(t *testing.T) {
	composer := NewComposer("+27731972528", "Thandzin-at-Service", "", testLogger())
	sink := NewLinkSink(composer, testLogger())

	ref, err := sink.Place(context.Background(), sampleOrder())
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}
	if !strings.HasPrefix(ref, "https://wa.me/") {
		t.Fatalf("reference must be the deep link, got %s", ref)
	}
}
