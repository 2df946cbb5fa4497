package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/thandzin/ordering/internal/auth"
	"github.com/thandzin/ordering/internal/domain"
	"github.com/thandzin/ordering/internal/menu"
	"github.com/thandzin/ordering/internal/service/cartsync"
	"github.com/thandzin/ordering/internal/service/order"
	"github.com/thandzin/ordering/internal/service/whatsapp"
	"github.com/thandzin/ordering/internal/storage/objectstore"
)

// Server собирает HTTP API виджета заказов.
type Server struct {
	menu      *menu.Store
	cart      *cartsync.Service
	submitter *order.Submitter
	orders    domain.OrderRepository
	sessions  *auth.Manager
	composer  *whatsapp.Composer
	archive   *objectstore.Archive
	logger    *log.Entry
}

// Options задаёт зависимости HTTP-сервера.
type Options struct {
	Menu      *menu.Store
	Cart      *cartsync.Service
	Submitter *order.Submitter
	Orders    domain.OrderRepository
	Sessions  *auth.Manager
	Composer  *whatsapp.Composer
	Archive   *objectstore.Archive
	Logger    *log.Entry
}

// NewServer создаёт сервер API.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New().WithField("component", "http")
	}
	return &Server{
		menu:      opts.Menu,
		cart:      opts.Cart,
		submitter: opts.Submitter,
		orders:    opts.Orders,
		sessions:  opts.Sessions,
		composer:  opts.Composer,
		archive:   opts.Archive,
		logger:    logger,
	}
}

// Router собирает gin-роутер со всеми маршрутами API.
func (s *Server) Router(corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if len(corsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	api := r.Group("/api")
	{
		api.POST("/session", s.startSession)
		api.GET("/session", s.currentSession)

		api.GET("/menu", s.getMenu)

		api.GET("/cart", s.getCart)
		api.POST("/cart/lines", s.addCartLine)
		api.PATCH("/cart/lines/:index", s.changeCartLine)
		api.DELETE("/cart/lines/:index", s.removeCartLine)
		api.DELETE("/cart", s.clearCart)

		api.POST("/orders", s.submitOrder)
		api.GET("/orders", s.listOrders)
	}

	return r
}

type sessionRequest struct {
	Token string `json:"token"`
}

// startSession устанавливает личность покупателя. С токеном сессия
// проверяется по подписи, без токена выдаётся анонимная.
func (s *Server) startSession(c *gin.Context) {
	var req sessionRequest
	_ = c.ShouldBindJSON(&req)

	var session auth.Session
	if req.Token != "" {
		verified, err := s.sessions.Verify(req.Token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		session = verified
	} else {
		session = s.sessions.Anonymous()
	}

	if err := s.cart.Bind(c.Request.Context(), session); err != nil {
		s.logger.WithError(err).Error("cart bind failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session, "cart": s.cartView()})
}

func (s *Server) currentSession(c *gin.Context) {
	session := s.cart.Session()
	if !session.Ready() {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// ensureMenu лениво подтягивает каталог при первом обращении.
func (s *Server) ensureMenu(c *gin.Context) bool {
	if s.menu.Loaded() {
		return true
	}
	if err := s.menu.Load(c.Request.Context()); err != nil {
		s.logger.WithError(err).Error("menu load failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "menu is unavailable"})
		return false
	}
	return true
}

// getMenu возвращает каталог, отфильтрованный по строке поиска и
// категории.
func (s *Server) getMenu(c *gin.Context) {
	if !s.ensureMenu(c) {
		return
	}

	term := c.Query("search")
	category := c.DefaultQuery("category", menu.CategoryAll)
	c.JSON(http.StatusOK, gin.H{"categories": s.menu.Filter(term, category)})
}

type cartLineView struct {
	ItemID           string                      `json:"item_id"`
	Name             string                      `json:"name"`
	Description      string                      `json:"description,omitempty"`
	ImageURL         string                      `json:"image_url,omitempty"`
	Quantity         int32                       `json:"quantity"`
	Selections       map[string]domain.Selection `json:"selections,omitempty"`
	UnitPriceDisplay string                      `json:"unit_price_display"`
	TotalDisplay     string                      `json:"total_display"`
}

type cartView struct {
	Lines        []cartLineView `json:"lines"`
	Count        int            `json:"count"`
	TotalMinor   int64          `json:"total_minor"`
	TotalDisplay string         `json:"total_display"`
}

func (s *Server) cartView() cartView {
	doc := s.cart.Snapshot()
	lines := make([]cartLineView, len(doc.Lines))
	for i, line := range doc.Lines {
		lines[i] = cartLineView{
			ItemID:           line.ItemID,
			Name:             line.Name,
			Description:      line.Description,
			ImageURL:         line.ImageURL,
			Quantity:         line.Quantity,
			Selections:       line.Selections,
			UnitPriceDisplay: domain.DisplayPrice(domain.ForSummary(line.UnitPriceMinor)),
			TotalDisplay:     domain.DisplayPrice(line.TotalMinor()),
		}
	}
	return cartView{
		Lines:        lines,
		Count:        s.cart.Count(),
		TotalMinor:   doc.TotalMinor,
		TotalDisplay: domain.DisplayPrice(doc.TotalMinor),
	}
}

func (s *Server) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, s.cartView())
}

type addLineRequest struct {
	ItemID     string              `json:"item_id" binding:"required"`
	Selections map[string][]string `json:"selections"`
}

// addCartLine прогоняет выбор опций через селектор и кладёт позицию в
// корзину. Состав выбора валидируется против каталога.
func (s *Server) addCartLine(c *gin.Context) {
	var req addLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item_id is required"})
		return
	}

	if !s.ensureMenu(c) {
		return
	}
	item, ok := s.menu.Item(req.ItemID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown menu item"})
		return
	}

	selector := domain.NewOptionSelector()
	selector.Open(item)
	for groupID, choiceIDs := range req.Selections {
		for _, choiceID := range choiceIDs {
			if err := selector.Toggle(groupID, choiceID); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
	}

	line, err := selector.Commit()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.cart.AddItem(c.Request.Context(), line); err != nil {
		s.respondCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.cartView())
}

type changeLineRequest struct {
	Delta *int32 `json:"delta" binding:"required"`
}

// changeCartLine изменяет количество позиции на присланную дельту.
// Кнопки плюс и минус в виджете шлют +1 и -1.
func (s *Server) changeCartLine(c *gin.Context) {
	index, ok := lineIndex(c)
	if !ok {
		return
	}

	var req changeLineRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Delta == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delta is required"})
		return
	}

	if err := s.cart.ChangeQuantity(c.Request.Context(), index, *req.Delta); err != nil {
		s.respondCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.cartView())
}

func (s *Server) removeCartLine(c *gin.Context) {
	index, ok := lineIndex(c)
	if !ok {
		return
	}

	if err := s.cart.RemoveLine(c.Request.Context(), index); err != nil {
		s.respondCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.cartView())
}

func (s *Server) clearCart(c *gin.Context) {
	if err := s.cart.Clear(c.Request.Context()); err != nil {
		s.respondCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.cartView())
}

type submitOrderRequest struct {
	CustomerName    string `json:"customer_name"`
	CollectionTime  string `json:"collection_time"`
	SpecialRequests string `json:"special_requests"`
	SummaryImage    string `json:"summary_image"`
}

// submitOrder оформляет заказ из корзины. Ошибки валидации собираются
// в один ответ, сбой передачи оставляет корзину нетронутой.
func (s *Server) submitOrder(c *gin.Context) {
	var req submitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	receipt, err := s.submitter.Submit(c.Request.Context(), order.SubmitRequest{
		CustomerName:    req.CustomerName,
		CollectionTime:  req.CollectionTime,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderSubmit) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "order hand-off failed"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"errors": validationMessages(err)})
		return
	}

	if s.composer != nil && req.SummaryImage != "" {
		// Снимок сводки уходит на шлюз асинхронно от результата заказа.
		if err := s.composer.SendSummaryImage(c.Request.Context(), req.SummaryImage); err != nil {
			s.logger.WithError(err).Warn("summary image delivery failed")
		}
	}

	var summaryURL string
	if s.archive != nil && req.SummaryImage != "" {
		url, err := s.archive.ArchiveSummaryImage(c.Request.Context(), receipt.OrderID, req.SummaryImage)
		if err != nil {
			s.logger.WithError(err).Warn("summary image archive failed")
		} else {
			summaryURL = url
		}
	}

	response := gin.H{
		"order_id":      receipt.OrderID,
		"reference":     receipt.Reference,
		"total_minor":   receipt.TotalMinor,
		"total_display": domain.DisplayPrice(receipt.TotalMinor),
	}
	if summaryURL != "" {
		response["summary_url"] = summaryURL
	}
	c.JSON(http.StatusCreated, response)
}

func (s *Server) listOrders(c *gin.Context) {
	session := s.cart.Session()
	if !session.Ready() {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}

	orders, err := s.orders.ListByCustomer(c.Request.Context(), session.Identity, 20)
	if err != nil {
		s.logger.WithError(err).Error("list orders failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (s *Server) respondCartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrLineIndex):
		c.JSON(http.StatusNotFound, gin.H{"error": "cart line not found"})
	default:
		s.logger.WithError(err).Error("cart operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart operation failed"})
	}
}

func lineIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line index"})
		return 0, false
	}
	return index, true
}

// validationMessages разворачивает накопленные ошибки валидации в
// плоский список сообщений.
func validationMessages(err error) []string {
	type unwrapper interface {
		Unwrap() []error
	}
	if joined, ok := err.(unwrapper); ok {
		var messages []string
		for _, e := range joined.Unwrap() {
			messages = append(messages, e.Error())
		}
		return messages
	}
	return []string{err.Error()}
}
