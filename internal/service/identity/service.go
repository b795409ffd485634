package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

const (
	bcryptCost        = 10
	minPasswordLength = 6
)

// LoginResult — выпущенный токен вместе с данными пользователя.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// Service — identity-провайдер: регистрация, вход, проверка токена.
type Service struct {
	users  domain.UserRepository
	tokens *TokenService
	logger *log.Entry
}

// NewService создаёт identity-сервис.
func NewService(users domain.UserRepository, tokens *TokenService, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "identity-service")
	}
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Register создаёт пользователя с ролью CLIENT и bcrypt-хешем пароля.
func (s *Service) Register(ctx context.Context, email, password, name string) (domain.User, error) {
	if email == "" || password == "" || name == "" {
		return domain.User{}, domain.BadRequest("Email, senha e nome são obrigatórios")
	}
	if len(password) < minPasswordLength {
		return domain.User{}, domain.BadRequest("A senha deve ter no mínimo 6 caracteres")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return domain.User{}, domain.Internal("Erro ao registrar usuário", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         domain.RoleClient,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(user); err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyTaken) {
			return domain.User{}, domain.BadRequest("Email já cadastrado")
		}
		s.logger.WithError(err).WithField("email", email).Error("user registration failed")
		return domain.User{}, domain.Internal("Erro ao registrar usuário", err)
	}

	s.logger.WithFields(log.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("user registered")
	return user, nil
}

// Login проверяет учётные данные и выпускает токен. Неизвестный email и
// неверный пароль дают одинаковый ответ.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if email == "" || password == "" {
		return LoginResult{}, domain.BadRequest("Email e senha são obrigatórios")
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return LoginResult{}, domain.Unauthorized("Email ou senha inválidos")
		}
		return LoginResult{}, domain.Internal("Erro ao fazer login", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, domain.Unauthorized("Email ou senha inválidos")
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("token issue failed")
		return LoginResult{}, domain.Internal("Erro ao fazer login", err)
	}

	return LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Verify разрешает токен в личность вызывающего.
func (s *Service) Verify(ctx context.Context, token string) (domain.Identity, error) {
	return s.tokens.Verify(token)
}
