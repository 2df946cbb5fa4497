package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ChoiceSnapshot — копия выбранного варианта на момент выбора. Строки корзины
// хранят снимки, а не ссылки в каталог, поэтому последующие изменения каталога
// не меняют уже собранные строки.
type ChoiceSnapshot struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PriceAdjMinor int64  `json:"price_adj_minor"`
}

// Selection — выбор по одной группе опций в едином размеченном представлении:
// для SelectionSingle ровно один снимок, для SelectionMultiple — один и более.
type Selection struct {
	GroupName string           `json:"group_name"`
	Mode      SelectionMode    `json:"mode"`
	Choices   []ChoiceSnapshot `json:"choices"`
}

func (s Selection) clone() Selection {
	out := s
	out.Choices = append([]ChoiceSnapshot(nil), s.Choices...)
	return out
}

// CloneSelections делает глубокую копию карты выборов.
func CloneSelections(selections map[string]Selection) map[string]Selection {
	if selections == nil {
		return nil
	}
	out := make(map[string]Selection, len(selections))
	for id, sel := range selections {
		out[id] = sel.clone()
	}
	return out
}

// SelectionFingerprint строит каноническую строку из карты выборов: группы по
// возрастанию идентификатора, варианты внутри группы — тоже. Две строки
// корзины сливаемы, когда совпадают позиция и отпечаток.
func SelectionFingerprint(selections map[string]Selection) string {
	if len(selections) == 0 {
		return ""
	}

	groupIDs := make([]string, 0, len(selections))
	for id := range selections {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)

	var b strings.Builder
	for _, id := range groupIDs {
		choiceIDs := make([]string, 0, len(selections[id].Choices))
		for _, c := range selections[id].Choices {
			choiceIDs = append(choiceIDs, c.ID)
		}
		sort.Strings(choiceIDs)
		b.WriteString(id)
		b.WriteByte('=')
		b.WriteString(strings.Join(choiceIDs, ","))
		b.WriteByte(';')
	}
	return b.String()
}

// SelectorState — состояние селектора опций.
type SelectorState string

const (
	SelectorClosed SelectorState = "closed"
	SelectorOpen   SelectorState = "open"
)

// LineRequest — запрос на создание строки корзины, который селектор выдаёт
// при успешном commit. Количество всегда 1; слияние одинаковых конфигураций —
// забота корзины.
type LineRequest struct {
	Item       MenuItem
	Selections map[string]Selection
	Quantity   int32
}

// OptionSelector — переходное состояние выбора опций для одной настраиваемой
// позиции: Closed → Open(item) → {commit, cancel} → Closed. Повторное открытие
// всегда сбрасывает прежний выбор; режима "продолжить редактирование" нет.
// Не потокобезопасен: живёт внутри одного обработчика события.
type OptionSelector struct {
	state      SelectorState
	item       MenuItem
	selections map[string]Selection
}

// NewOptionSelector возвращает селектор в состоянии Closed.
func NewOptionSelector() *OptionSelector {
	return &OptionSelector{state: SelectorClosed}
}

// State возвращает текущее состояние селектора.
func (s *OptionSelector) State() SelectorState {
	return s.state
}

// Open переводит селектор в Open для указанной позиции, отбрасывая любой
// прежний выбор.
func (s *OptionSelector) Open(item MenuItem) {
	s.state = SelectorOpen
	s.item = item
	s.selections = make(map[string]Selection)
}

// Toggle переключает вариант в группе. Для single-группы выбор заменяется,
// для multiple — добавляется либо снимается, если уже выбран.
func (s *OptionSelector) Toggle(groupID, choiceID string) error {
	if s.state != SelectorOpen {
		return ErrSelectorClosed
	}

	group, ok := s.item.Group(groupID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOptionGroup, groupID)
	}
	choice, ok := group.Choice(choiceID)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnknownChoice, groupID, choiceID)
	}

	snap := ChoiceSnapshot{ID: choice.ID, Name: choice.Name, PriceAdjMinor: choice.PriceAdjMinor}
	sel := s.selections[groupID]
	sel.GroupName = group.Name
	sel.Mode = group.Mode

	if group.Mode == SelectionSingle {
		sel.Choices = []ChoiceSnapshot{snap}
		s.selections[groupID] = sel
		return nil
	}

	for i, c := range sel.Choices {
		if c.ID == choiceID {
			// Повторное переключение снимает выбор.
			sel.Choices = append(sel.Choices[:i], sel.Choices[i+1:]...)
			if len(sel.Choices) == 0 {
				delete(s.selections, groupID)
			} else {
				s.selections[groupID] = sel
			}
			return nil
		}
	}
	sel.Choices = append(sel.Choices, snap)
	s.selections[groupID] = sel
	return nil
}

// Commit проверяет, что каждая обязательная группа имеет непустой выбор, и при
// успехе выдаёт запрос на создание строки, закрывая селектор. При провале
// проверки селектор остаётся в Open, состояние выбора не трогается.
func (s *OptionSelector) Commit() (LineRequest, error) {
	if s.state != SelectorOpen {
		return LineRequest{}, ErrSelectorClosed
	}

	var missing []string
	for _, group := range s.item.Options {
		if !group.Required {
			continue
		}
		sel, ok := s.selections[group.ID]
		if !ok || len(sel.Choices) == 0 {
			missing = append(missing, group.Name)
		}
	}
	if len(missing) > 0 {
		return LineRequest{}, fmt.Errorf("%w: %s", ErrRequiredOptionMissing, strings.Join(missing, ", "))
	}

	req := LineRequest{
		Item:       s.item,
		Selections: CloneSelections(s.selections),
		Quantity:   1,
	}
	s.close()
	return req, nil
}

// Cancel безусловно отбрасывает состояние выбора и закрывает селектор.
func (s *OptionSelector) Cancel() {
	s.close()
}

func (s *OptionSelector) close() {
	s.state = SelectorClosed
	s.item = MenuItem{}
	s.selections = nil
}
