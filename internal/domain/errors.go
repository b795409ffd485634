package domain

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку для вызывающей стороны.
// Транспортный слой отображает Kind в HTTP-статус.
type Kind string

const (
	// KindBadRequest — некорректный или семантически недопустимый запрос.
	KindBadRequest Kind = "bad_request"
	// KindNotFound — сущность (пользователь, товар, заказ) не существует.
	KindNotFound Kind = "not_found"
	// KindForbidden — аутентифицированному вызывающему не хватает прав.
	KindForbidden Kind = "forbidden"
	// KindUnauthorized — личность вызывающего не установлена.
	KindUnauthorized Kind = "unauthorized"
	// KindInternal — неожиданный сбой; детали не раскрываются вызывающему.
	KindInternal Kind = "internal"
)

// Error — типизированная бизнес-ошибка с человекочитаемым сообщением.
// Message показывается пользователю как есть, Err хранит причину для логов.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BadRequest создаёт ошибку валидации с форматированным сообщением.
func BadRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// NotFound создаёт ошибку отсутствующей сущности.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden создаёт ошибку нехватки прав.
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized создаёт ошибку неустановленной личности.
func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Internal заворачивает неожиданный сбой; message — обобщённый текст для пользователя.
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: cause}
}

// WithCause возвращает копию ошибки с причиной для errors.Is/As.
func (e *Error) WithCause(cause error) *Error {
	clone := *e
	clone.Err = cause
	return &clone
}

// KindOf возвращает Kind ошибки; неразмеченные ошибки считаются внутренними.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// UserMessage возвращает текст для пользователя. Внутренние ошибки
// обобщаются, чтобы не раскрывать детали хранилища.
func UserMessage(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Kind != KindInternal {
		return de.Message
	}
	return "Erro interno do servidor"
}

var (
	// Ошибка отсутствующего владельца заказа.
	ErrUserRequired = errors.New("user_id is required")
	// Ошибка отсутствующего адреса доставки.
	ErrAddressRequired = errors.New("address is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отрицательной суммы заказа.
	ErrTotalNegative = errors.New("total must be non-negative")
	// Ошибка позиции без ссылки на товар.
	ErrItemProductRequired = errors.New("item product_id is required")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQuantityInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrTotalMismatch = errors.New("order total does not match items sum")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailAlreadyTaken возвращается при регистрации на занятый email.
	ErrEmailAlreadyTaken = errors.New("email already taken")
	// ErrInsufficientStock — атомарный декремент увёл бы сток в минус.
	ErrInsufficientStock = errors.New("insufficient stock")

	// Ошибки идемпотентности запросов.
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
	ErrIdempotencyHashMismatch        = errors.New("idempotency request hash mismatch")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}
