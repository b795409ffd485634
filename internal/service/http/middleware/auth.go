// Package middleware содержит gin-мидлвари HTTP-сервера: аутентификация,
// проверка роли администратора, метрики и логирование запросов.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// identityKey ключ, под которым аутентифицированная личность лежит в контексте gin.
const identityKey = "identity"

// TokenVerifier проверяет bearer-токен и возвращает личность пользователя.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// Auth извлекает bearer-токен из заголовка Authorization, проверяет его
// и кладёт domain.Identity в контекст запроса.
func Auth(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "Token não fornecido. Use: Authorization: Bearer <token>")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			abortUnauthorized(c, "Formato inválido. Use: Bearer <token>")
			return
		}

		identity, err := tokens.Verify(parts[1])
		if err != nil {
			abortUnauthorized(c, domain.UserMessage(err))
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// AdminOnly пропускает дальше только пользователей с ролью ADMIN.
// Навешивается после Auth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			abortUnauthorized(c, "Usuário não autenticado")
			return
		}
		if identity.Role != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "Acesso negado. Apenas administradores podem realizar esta ação.",
				"statusCode": http.StatusForbidden,
			})
			return
		}
		c.Next()
	}
}

// IdentityFrom достаёт личность текущего пользователя из контекста gin.
func IdentityFrom(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	identity, ok := v.(domain.Identity)
	return identity, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      message,
		"statusCode": http.StatusUnauthorized,
	})
}
