package domain

// SelectionMode задаёт способ выбора внутри группы опций.
type SelectionMode string

const (
	// SelectionSingle — ровно один вариант (radio в исходной разметке).
	SelectionSingle SelectionMode = "single"
	// SelectionMultiple — ноль и более вариантов (checkbox).
	SelectionMultiple SelectionMode = "multiple"
)

// Valid проверяет, что режим относится к поддерживаемым значениям.
func (m SelectionMode) Valid() bool {
	switch m {
	case SelectionSingle, SelectionMultiple:
		return true
	default:
		return false
	}
}

// Choice — один вариант выбора внутри группы опций.
type Choice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// PriceAdjMinor — знаковая надбавка к базовой цене позиции.
	PriceAdjMinor int64 `json:"price_adj_minor"`
}

// OptionGroup — именованный набор вариантов, привязанный к позиции меню.
type OptionGroup struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Mode     SelectionMode `json:"mode"`
	Required bool          `json:"required"`
	Choices  []Choice      `json:"choices"`
}

// Choice возвращает вариант по идентификатору.
func (g OptionGroup) Choice(id string) (Choice, bool) {
	for _, c := range g.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// MenuItem — позиция меню. Справочные данные: после загрузки неизменны до
// конца сессии.
type MenuItem struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	PriceMinor  int64         `json:"price_minor"`
	ImageURL    string        `json:"image_url,omitempty"`
	Options     []OptionGroup `json:"options,omitempty"`
}

// Group возвращает группу опций по идентификатору.
func (i MenuItem) Group(id string) (OptionGroup, bool) {
	for _, g := range i.Options {
		if g.ID == id {
			return g, true
		}
	}
	return OptionGroup{}, false
}

// ValidateInvariants проверяет справочные инварианты позиции и возвращает
// список замечаний.
func (i MenuItem) ValidateInvariants() []error {
	var errs []error

	if i.Name == "" {
		errs = append(errs, ErrItemNameRequired)
	}
	if i.PriceMinor < 0 {
		errs = append(errs, ErrItemPriceNegative)
	}
	for _, g := range i.Options {
		if !g.Mode.Valid() {
			errs = append(errs, ErrSelectionModeInvalid)
		}
		if len(g.Choices) == 0 {
			errs = append(errs, ErrGroupChoicesRequired)
		}
	}

	return errs
}

// Category — раздел меню с позициями в каталожном порядке.
type Category struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Items       []MenuItem `json:"items"`
}

// Menu — полный каталог: разделы в каталожном порядке.
type Menu struct {
	Categories []Category `json:"categories"`
}

// Item ищет позицию по идентификатору во всех разделах.
func (m Menu) Item(id string) (MenuItem, bool) {
	for _, cat := range m.Categories {
		for _, item := range cat.Items {
			if item.ID == id {
				return item, true
			}
		}
	}
	return MenuItem{}, false
}
