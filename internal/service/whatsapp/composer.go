package whatsapp

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/thandzin/ordering/internal/domain"
)

const separator = "━━━━━━━━━━━━━━━━━━━━━━"

// Composer собирает текст сводки заказа и дип-линк wa.me для передачи
// заказа заведению через WhatsApp.
type Composer struct {
	phone          string
	restaurantName string
	imageEndpoint  string
	client         *resty.Client
	breaker        *gobreaker.CircuitBreaker
	logger         *log.Entry
}

// NewComposer создаёт компоновщик сводок. Номер телефона задаётся в
// международном формате, imageEndpoint может быть пустым, тогда
// отправка изображения сводки отключена.
func NewComposer(phone, restaurantName, imageEndpoint string, logger *log.Entry) *Composer {
	if logger == nil {
		logger = log.New().WithField("component", "whatsapp")
	}
	return &Composer{
		phone:          phone,
		restaurantName: restaurantName,
		imageEndpoint:  imageEndpoint,
		client:         resty.New().SetTimeout(10 * time.Second),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "whatsapp-image",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		logger: logger,
	}
}

// ComposeMessage собирает текстовую сводку заказа. Группы опций внутри
// позиции выводятся в отсортированном порядке, чтобы текст был
// детерминированным.
func (c *Composer) ComposeMessage(order domain.Order) string {
	var b strings.Builder

	b.WriteString("*New Order Summary*\n\n")
	fmt.Fprintf(&b, "*Customer:* %s\n", order.CustomerName)
	fmt.Fprintf(&b, "*Collection Time:* %s\n", order.CollectionTime.Format("02 Jan 2006, 15:04"))
	if order.SpecialRequests != "" {
		fmt.Fprintf(&b, "*Special Requests:* %s\n\n", order.SpecialRequests)
	}

	for _, line := range order.Lines {
		unitMinor := domain.ForSummary(line.UnitPriceMinor)

		fmt.Fprintf(&b, "• *%s*\n", line.Name)
		for _, groupID := range sortedGroupIDs(line.Selections) {
			sel := line.Selections[groupID]
			names := make([]string, 0, len(sel.Choices))
			for _, choice := range sel.Choices {
				names = append(names, choice.Name)
			}
			fmt.Fprintf(&b, "   %s: %s\n", sel.GroupName, strings.Join(names, ", "))
		}
		fmt.Fprintf(&b, "   Quantity: %d\n", line.Quantity)
		fmt.Fprintf(&b, "   Unit Price: %s\n", domain.DisplayPrice(unitMinor))
		fmt.Fprintf(&b, "   Item Total: %s\n\n", domain.DisplayPrice(line.TotalMinor()))
	}

	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "*TOTAL AMOUNT:* %s\n", domain.DisplayPrice(order.TotalMinor))
	b.WriteString(separator + "\n\n")
	fmt.Fprintf(&b, "Please prepare this order.\nThank you for choosing %s!", c.restaurantName)

	return b.String()
}

// DeepLink возвращает ссылку wa.me с предзаполненной сводкой заказа.
func (c *Composer) DeepLink(order domain.Order) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", c.phone, url.QueryEscape(c.ComposeMessage(order)))
}

// SendSummaryImage отправляет снимок сводки заказа на внешний шлюз.
// Вызовы идут через circuit breaker, отказ шлюза не считается отказом
// передачи заказа.
func (c *Composer) SendSummaryImage(ctx context.Context, imageData string) error {
	if c.imageEndpoint == "" || imageData == "" {
		return nil
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(map[string]string{"image": imageData, "phone": c.phone}).
			Post(c.imageEndpoint)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("image gateway returned %s", resp.Status())
		}
		return nil, nil
	})
	if err != nil {
		c.logger.WithError(err).Warn("summary image send failed")
		return err
	}
	return nil
}

func sortedGroupIDs(selections map[string]domain.Selection) []string {
	ids := make([]string, 0, len(selections))
	for id := range selections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LinkSink передаёт заказ как дип-линк WhatsApp. Ссылка возвращается
// вызывающему, который открывает её на стороне покупателя.
type LinkSink struct {
	composer *Composer
	logger   *log.Entry
}

// NewLinkSink создаёт точку приёма, отдающую ссылку wa.me.
func NewLinkSink(composer *Composer, logger *log.Entry) *LinkSink {
	if logger == nil {
		logger = log.New().WithField("component", "whatsapp-sink")
	}
	return &LinkSink{composer: composer, logger: logger}
}

var _ domain.OrderSink = (*LinkSink)(nil)

// Place собирает ссылку для заказа. Сбой здесь невозможен кроме как на
// уровне компоновки, поэтому заказ считается переданным сразу.
func (s *LinkSink) Place(_ context.Context, order domain.Order) (string, error) {
	link := s.composer.DeepLink(order)
	s.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"total_minor": order.TotalMinor,
	}).Info("whatsapp hand-off link composed")
	return link, nil
}
