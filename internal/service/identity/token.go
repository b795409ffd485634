package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// Claims — полезная нагрузка токена доступа.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService выпускает и проверяет HS256 токены доступа.
type TokenService struct {
	secretKey []byte
	tokenTTL  time.Duration
}

// NewTokenService создаёт сервис токенов с заданным секретом и сроком жизни.
func NewTokenService(secretKey string, tokenTTL time.Duration) *TokenService {
	return &TokenService{
		secretKey: []byte(secretKey),
		tokenTTL:  tokenTTL,
	}
}

// Issue выпускает токен для пользователя.
func (s *TokenService) Issue(user domain.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.tokenTTL)

	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// Verify проверяет токен и возвращает личность вызывающего.
// Просроченный и некорректный токены различаются в сообщении.
func (s *TokenService) Verify(tokenString string) (domain.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.Unauthorized("Token inválido")
		}
		return s.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, domain.Unauthorized("Token expirado")
		}
		return domain.Identity{}, domain.Unauthorized("Token inválido")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Identity{}, domain.Unauthorized("Token inválido")
	}

	return domain.Identity{
		UserID: claims.UserID,
		Role:   domain.Role(claims.Role),
	}, nil
}

// TokenTTL возвращает срок жизни выпускаемых токенов.
func (s *TokenService) TokenTTL() time.Duration {
	return s.tokenTTL
}
