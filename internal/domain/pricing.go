package domain

import (
	"fmt"
	"math"
)

// MinorPerUnit — число минимальных денежных единиц в одной целой (центы в рэнде).
// Вся арифметика цен ведётся в минимальных единицах (int64), чтобы исключить
// накопление двоичной погрешности при повторном сложении.
const MinorPerUnit = 100

// PriceToMinor переводит десятичную цену из внешнего источника в минимальные
// единицы с округлением до ближайшего цента. Применяется ровно один раз —
// в точке разбора меню.
func PriceToMinor(value float64) int64 {
	return int64(math.Round(value * MinorPerUnit))
}

// ForSummary применяет правило итогового округления: цена за единицу с
// остатком в 99 центов поднимается до следующей целой единицы, все остальные
// остатки проходят без изменений. Правило унаследовано от исходного прайса и
// сохраняется в точности, включая то, что итог получается выше арифметической
// суммы.
func ForSummary(minor int64) int64 {
	if minor > 0 && minor%MinorPerUnit == MinorPerUnit-1 {
		return (minor/MinorPerUnit + 1) * MinorPerUnit
	}
	return minor
}

// ResolveUnitPrice вычисляет цену за единицу: базовая цена плюс надбавки всех
// выбранных вариантов. Вызывается один раз при создании строки корзины;
// результат замораживается на строке и не пересчитывается при изменении
// каталога.
func ResolveUnitPrice(item MenuItem, selections map[string]Selection) int64 {
	price := item.PriceMinor
	for _, sel := range selections {
		for _, choice := range sel.Choices {
			price += choice.PriceAdjMinor
		}
	}
	return price
}

// FormatMinor форматирует сумму для отображения: целые рэнды без дробной
// части, иначе — две цифры после точки. Отрицательная сумма возможна, если
// скидочная надбавка опции превышает базовую цену; знак выносится вперёд.
func FormatMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	if minor%MinorPerUnit == 0 {
		return fmt.Sprintf("%s%d", sign, minor/MinorPerUnit)
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/MinorPerUnit, minor%MinorPerUnit)
}

// DisplayPrice возвращает сумму с символом валюты, как её видит клиент.
func DisplayPrice(minor int64) string {
	return "R" + FormatMinor(minor)
}
