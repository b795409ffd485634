package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

const defaultRecordTTL = 24 * time.Hour

// Result — ответ операции, пригодный для кеширования и повтора.
type Result struct {
	Body       []byte
	HTTPStatus int
}

// Manager исполняет операции под idempotency-key: повтор запроса с тем же
// ключом и телом возвращает сохранённый ответ вместо повторного исполнения.
type Manager struct {
	repo   domain.IdempotencyRepository
	logger *log.Entry
	ttl    time.Duration
}

// NewManager создаёт менеджер идемпотентности.
func NewManager(repo domain.IdempotencyRepository, ttl time.Duration, logger *log.Entry) *Manager {
	if logger == nil {
		logger = log.New().WithField("component", "idempotency-manager")
	}
	if ttl <= 0 {
		ttl = defaultRecordTTL
	}
	return &Manager{repo: repo, logger: logger, ttl: ttl}
}

// HashRequest считает отпечаток тела запроса для сверки повторов.
func HashRequest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Execute исполняет fn под ключом идемпотентности. Повтор завершённого
// запроса возвращает кешированный ответ; повтор с другим телом отклоняется;
// запрос, упавший с серверной ошибкой, разрешено повторить.
func (m *Manager) Execute(ctx context.Context, key, requestHash string, fn func(context.Context) Result) (Result, error) {
	if m.repo == nil || key == "" {
		return fn(ctx), nil
	}

	record, err := m.repo.CreateProcessing(key, requestHash, time.Now().UTC().Add(m.ttl))
	switch {
	case err == nil:
		// Ключ наш, исполняем.
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return Result{}, domain.BadRequest("Chave de idempotência reutilizada com um corpo de requisição diferente")
	case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
		switch record.Status {
		case domain.IdempotencyStatusDone:
			return Result{Body: record.ResponseBody, HTTPStatus: record.HTTPStatus}, nil
		case domain.IdempotencyStatusFailed:
			// Серверный сбой: даём повторить исполнение.
		default:
			return Result{}, domain.BadRequest("Requisição com esta chave de idempotência ainda está em processamento")
		}
	default:
		m.logger.WithError(err).WithField("key", key).Error("idempotency record create failed")
		return Result{}, domain.Internal("Erro interno do servidor", err)
	}

	result := fn(ctx)

	if result.HTTPStatus >= http.StatusInternalServerError {
		if err := m.repo.MarkFailed(key, result.Body, result.HTTPStatus); err != nil {
			m.logger.WithError(err).WithField("key", key).Warn("idempotency mark failed errored")
		}
		return result, nil
	}

	if err := m.repo.MarkDone(key, result.Body, result.HTTPStatus); err != nil {
		m.logger.WithError(err).WithField("key", key).Warn("idempotency mark done errored")
	}
	return result, nil
}
