// Package httpapi реализует REST-слой сервиса: маршруты gin, обработчики
// и перевод доменных ошибок в HTTP-ответы.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// statusOf переводит вид доменной ошибки в HTTP-статус.
func statusOf(kind domain.Kind) int {
	switch kind {
	case domain.KindBadRequest:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError отдаёт доменную ошибку в формате {"error", "statusCode"}.
// Внутренние ошибки наружу не просачиваются, клиент видит общее сообщение.
func respondError(c *gin.Context, err error) {
	status := statusOf(domain.KindOf(err))
	c.JSON(status, gin.H{
		"error":      domain.UserMessage(err),
		"statusCode": status,
	})
}
