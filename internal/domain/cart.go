package domain

import "fmt"

// CartLine — одна покупаемая конфигурация позиции меню: снимок позиции,
// выбранные опции и количество. Цена за единицу фиксируется в момент создания
// строки и далее не пересчитывается.
type CartLine struct {
	ItemID      string `json:"item_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	// UnitPriceMinor — базовая цена плюс надбавки выбранных вариантов,
	// заморожена при создании строки.
	UnitPriceMinor int64                `json:"unit_price_minor"`
	Quantity       int32                `json:"quantity"`
	Selections     map[string]Selection `json:"selections,omitempty"`
}

// Clone возвращает глубокую копию строки.
func (l CartLine) Clone() CartLine {
	out := l
	out.Selections = CloneSelections(l.Selections)
	return out
}

// TotalMinor — стоимость строки для итога: итоговое округление применяется к
// цене за единицу до умножения на количество.
func (l CartLine) TotalMinor() int64 {
	return ForSummary(l.UnitPriceMinor) * int64(l.Quantity)
}

// Mergeable сообщает, можно ли слить строку с конфигурацией (item, selections):
// та же позиция и идентичный набор выбранных вариантов.
func (l CartLine) Mergeable(itemID string, selections map[string]Selection) bool {
	return l.ItemID == itemID && SelectionFingerprint(l.Selections) == SelectionFingerprint(selections)
}

// Cart — упорядоченный список строк. Порядок — порядок добавления, только для
// стабильного отображения. Инварианты: количество в строке всегда >= 1;
// декремент до нуля удаляет строку. Cart не синхронизирован: им владеет один
// контроллер (см. cartsync).
type Cart struct {
	lines []CartLine
}

// NewCart возвращает пустую корзину.
func NewCart() *Cart {
	return &Cart{}
}

// AddLine добавляет конфигурацию в корзину: если сливаемая строка уже есть,
// её количество растёт на 1, иначе в конец добавляется новая строка с
// количеством 1 и ценой, разрешённой на момент добавления. Верхних границ
// количество и число строк здесь не имеют — это политика вызывающего кода.
func (c *Cart) AddLine(item MenuItem, selections map[string]Selection) {
	for i := range c.lines {
		if c.lines[i].Mergeable(item.ID, selections) {
			c.lines[i].Quantity++
			return
		}
	}

	c.lines = append(c.lines, CartLine{
		ItemID:         item.ID,
		Name:           item.Name,
		Description:    item.Description,
		ImageURL:       item.ImageURL,
		UnitPriceMinor: ResolveUnitPrice(item, selections),
		Quantity:       1,
		Selections:     CloneSelections(selections),
	})
}

// ChangeQuantity изменяет количество строки на delta. Декремент, уводящий
// количество в ноль и ниже, удаляет строку целиком — строк с нулевым
// количеством в корзине не бывает.
func (c *Cart) ChangeQuantity(index int, delta int32) error {
	if index < 0 || index >= len(c.lines) {
		return fmt.Errorf("%w: %d", ErrLineIndex, index)
	}

	c.lines[index].Quantity += delta
	if c.lines[index].Quantity <= 0 {
		c.lines = append(c.lines[:index], c.lines[index+1:]...)
	}
	return nil
}

// RemoveLine безусловно удаляет строку по индексу.
func (c *Cart) RemoveLine(index int) error {
	if index < 0 || index >= len(c.lines) {
		return fmt.Errorf("%w: %d", ErrLineIndex, index)
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	return nil
}

// Clear опустошает корзину.
func (c *Cart) Clear() {
	c.lines = nil
}

// Replace замещает содержимое корзины целиком (применение удалённого снимка).
func (c *Cart) Replace(lines []CartLine) {
	replaced := make([]CartLine, 0, len(lines))
	for _, l := range lines {
		replaced = append(replaced, l.Clone())
	}
	c.lines = replaced
}

// Lines возвращает глубокую копию строк в порядке добавления.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, l.Clone())
	}
	return out
}

// Len возвращает число строк.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Count — суммарное количество единиц по всем строкам (бейдж у кнопки корзины).
func (c *Cart) Count() int32 {
	var n int32
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// TotalMinor — итог корзины: сумма построчных итогов. Порядок операций
// значим: итоговое округление применяется к цене за единицу каждой строки до
// умножения и суммирования, а не к готовой сумме.
func (c *Cart) TotalMinor() int64 {
	var total int64
	for _, l := range c.lines {
		total += l.TotalMinor()
	}
	return total
}
