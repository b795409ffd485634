package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, цены и сток зафиксированы.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusConfirmed — заказ подтверждён и передан на сборку.
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "SHIPPED"
	// OrderStatusDelivered — заказ доставлен клиенту (терминальный статус).
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusCancelled — заказ отменён, сток возвращён (терминальный статус).
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// statusSequence — линейная последовательность прямых переходов.
// CANCELLED сюда не входит: это боковое ребро из любого нетерминального статуса.
var statusSequence = [...]OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// ParseOrderStatus возвращает статус по строковому значению.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	switch OrderStatus(raw) {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(raw), true
	default:
		return "", false
	}
}

// SequenceIndex возвращает позицию статуса в линейной последовательности
// или -1, если статус в неё не входит (CANCELLED).
func (s OrderStatus) SequenceIndex() int {
	for i, status := range statusSequence {
		if status == s {
			return i
		}
	}
	return -1
}

// NextInSequence возвращает единственный допустимый следующий статус.
func (s OrderStatus) NextInSequence() (OrderStatus, bool) {
	idx := s.SequenceIndex()
	if idx < 0 || idx+1 >= len(statusSequence) {
		return "", false
	}
	return statusSequence[idx+1], true
}

// Terminal сообщает, допускает ли статус дальнейшие переходы.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID string
	// ProductID — ссылка на товар каталога (ключ поиска, не владение).
	ProductID string
	// Quantity — количество единиц товара, фиксируется при создании.
	Quantity int32
	// PriceCents — цена за единицу в центах, снимок на момент создания заказа.
	// Последующие изменения цены в каталоге на заказ не влияют.
	PriceCents int64
}

// Order агрегирует состояние заказа и его позиции.
// Состав позиций и сумма фиксируются при создании; после достижения
// терминального статуса заказ не мутирует.
type Order struct {
	ID         string
	UserID     string
	Address    string
	Status     OrderStatus
	TotalCents int64
	Items      []OrderItem
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.UserID == "" {
		errs = append(errs, ErrUserRequired)
	}
	if o.Address == "" {
		errs = append(errs, ErrAddressRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.TotalCents < 0 {
		errs = append(errs, ErrTotalNegative)
	}

	// Сверяем сумму заказа с суммой позиций: quantity * price.
	var calc int64
	for _, item := range o.Items {
		if item.ProductID == "" {
			errs = append(errs, ErrItemProductRequired)
		}
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQuantityInvalid)
		}
		if item.PriceCents < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		calc += int64(item.Quantity) * item.PriceCents
	}
	if calc != o.TotalCents {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
