package domain

import "time"

// Product — товар каталога. Движок заказов ссылается на товар по ID и
// изменяет только Stock, всегда через атомарный инкремент/декремент.
type Product struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	// Stock — неотрицательный счётчик доступных единиц.
	Stock     int32
	Category  string
	ImageURL  string
	CreatedAt time.Time
}

// Summary возвращает краткую карточку товара для вложения в заказ.
func (p Product) Summary() ProductSummary {
	return ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
	}
}

// ProductSummary — карточка товара, отдаваемая вместе с позициями заказа.
type ProductSummary struct {
	ID          string
	Name        string
	Description string
}
