// Package menu загружает справочник меню из внешнего источника и отдаёт его
// виджету с фильтрацией по тексту и разделу.
package menu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"github.com/thandzin/ordering/internal/domain"
)

// CategoryAll — значение фильтра, снимающее ограничение по разделу.
const CategoryAll = "all"

const loadTimeout = 10 * time.Second

// Схема внешнего документа меню. Цены в документе десятичные; в домен они
// попадают уже в минимальных единицах.
type choiceJSON struct {
	ChoiceID string  `json:"choice_id"`
	Name     string  `json:"name"`
	PriceAdj float64 `json:"price_adj"`
}

type optionGroupJSON struct {
	OptionID string       `json:"option_id"`
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	Required bool         `json:"required"`
	Choices  []choiceJSON `json:"choices"`
}

type itemJSON struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	ImageURL    string            `json:"image_url"`
	Options     []optionGroupJSON `json:"options"`
}

type categoryJSON struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Items       []itemJSON `json:"items"`
}

// Store владеет загруженным меню. Load замещает каталог только целиком:
// провал загрузки или разбора оставляет прежние данные на месте, сессия
// продолжает работать со старым (или пустым) меню.
type Store struct {
	mu     sync.RWMutex
	client *resty.Client
	url    string
	menu   domain.Menu
	loaded bool
	logger *log.Entry
}

// NewStore создаёт Store для указанного URL источника меню.
func NewStore(url string, logger *log.Entry) *Store {
	if logger == nil {
		logger = log.WithField("component", "menu-store")
	}
	return &Store{
		client: resty.New().
			SetTimeout(loadTimeout).
			SetRetryCount(0),
		url:    url,
		logger: logger,
	}
}

// Load получает и разбирает документ меню. Любая ошибка транспорта или схемы
// возвращается как ErrMenuLoad, ранее загруженное меню не трогается.
func (s *Store) Load(ctx context.Context) error {
	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return fmt.Errorf("%w: fetch %s: %v", domain.ErrMenuLoad, s.url, err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: fetch %s: status %d", domain.ErrMenuLoad, s.url, resp.StatusCode())
	}

	parsed, err := parseMenu(resp.Body())
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMenuLoad, err)
	}

	s.mu.Lock()
	s.menu = parsed
	s.loaded = true
	s.mu.Unlock()

	s.logger.WithFields(log.Fields{
		"categories": len(parsed.Categories),
		"url":        s.url,
	}).Info("menu loaded")
	return nil
}

func parseMenu(data []byte) (domain.Menu, error) {
	var cats []categoryJSON
	if err := json.Unmarshal(data, &cats); err != nil {
		return domain.Menu{}, fmt.Errorf("decode menu document: %v", err)
	}

	menu := domain.Menu{Categories: make([]domain.Category, 0, len(cats))}
	for _, cat := range cats {
		category := domain.Category{
			ID:          cat.ID,
			Name:        cat.Name,
			Description: cat.Description,
			Items:       make([]domain.MenuItem, 0, len(cat.Items)),
		}
		for _, it := range cat.Items {
			item, err := parseItem(it)
			if err != nil {
				return domain.Menu{}, err
			}
			category.Items = append(category.Items, item)
		}
		menu.Categories = append(menu.Categories, category)
	}
	return menu, nil
}

func parseItem(it itemJSON) (domain.MenuItem, error) {
	item := domain.MenuItem{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		PriceMinor:  domain.PriceToMinor(it.Price),
		ImageURL:    it.ImageURL,
	}
	for _, og := range it.Options {
		mode, err := parseMode(og.Type)
		if err != nil {
			return domain.MenuItem{}, fmt.Errorf("item %s group %s: %v", it.ID, og.OptionID, err)
		}
		group := domain.OptionGroup{
			ID:       og.OptionID,
			Name:     og.Name,
			Mode:     mode,
			Required: og.Required,
		}
		for _, c := range og.Choices {
			group.Choices = append(group.Choices, domain.Choice{
				ID:            c.ChoiceID,
				Name:          c.Name,
				PriceAdjMinor: domain.PriceToMinor(c.PriceAdj),
			})
		}
		item.Options = append(item.Options, group)
	}
	if errs := item.ValidateInvariants(); len(errs) > 0 {
		return domain.MenuItem{}, fmt.Errorf("item %s: %v", it.ID, errs[0])
	}
	return item, nil
}

// parseMode принимает и исходные имена из разметки (radio/checkbox), и
// доменные (single/multiple).
func parseMode(raw string) (domain.SelectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "radio", string(domain.SelectionSingle):
		return domain.SelectionSingle, nil
	case "checkbox", string(domain.SelectionMultiple):
		return domain.SelectionMultiple, nil
	default:
		return "", fmt.Errorf("unsupported selection mode %q", raw)
	}
}

// Loaded сообщает, была ли хотя бы одна успешная загрузка.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Menu возвращает текущий каталог.
func (s *Store) Menu() domain.Menu {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.menu
}

// Item ищет позицию по идентификатору.
func (s *Store) Item(id string) (domain.MenuItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.menu.Item(id)
}

// Filter возвращает разделы с позициями, чьё имя или описание содержит term
// без учёта регистра, в пределах раздела category (CategoryAll снимает
// ограничение). Разделы и позиции идут в каталожном порядке; разделы без
// совпадений опускаются. Чистая функция над загруженными данными: пустой
// результат — это пустой срез, не ошибка.
func (s *Store) Filter(term, category string) []domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(term))
	result := make([]domain.Category, 0, len(s.menu.Categories))

	for _, cat := range s.menu.Categories {
		if category != CategoryAll && category != cat.ID {
			continue
		}

		matched := make([]domain.MenuItem, 0, len(cat.Items))
		for _, item := range cat.Items {
			if needle == "" ||
				strings.Contains(strings.ToLower(item.Name), needle) ||
				strings.Contains(strings.ToLower(item.Description), needle) {
				matched = append(matched, item)
			}
		}
		if len(matched) == 0 {
			continue
		}

		filtered := cat
		filtered.Items = matched
		result = append(result, filtered)
	}

	return result
}
