package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// CreateInput — данные нового товара. Цена и сток в минорных единицах
// и штуках соответственно, оба неотрицательные.
type CreateInput struct {
	Name        string
	Description string
	PriceCents  int64
	Stock       int32
	Category    string
	ImageURL    string
}

// UpdateInput — частичное обновление товара: nil-поле не трогается.
// Каталог единственное место, где сток перезаписывается напрямую.
type UpdateInput struct {
	Name        *string
	Description *string
	PriceCents  *int64
	Stock       *int32
	Category    *string
	ImageURL    *string
}

// Service управляет каталогом товаров. Движок заказов каталог не мутирует
// напрямую, он только атомарно корректирует сток через репозиторий.
type Service struct {
	products domain.ProductRepository
	logger   *log.Entry
}

// NewService создаёт сервис каталога.
func NewService(products domain.ProductRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog-service")
	}
	return &Service{products: products, logger: logger}
}

// List возвращает все товары каталога.
func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.List()
	if err != nil {
		s.logger.WithError(err).Error("product listing failed")
		return nil, domain.Internal("Erro ao listar produtos", err)
	}
	return products, nil
}

// Get возвращает товар по идентификатору.
func (s *Service) Get(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.products.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return domain.Product{}, domain.NotFound("Produto não encontrado")
		}
		return domain.Product{}, domain.Internal("Erro ao buscar produto", err)
	}
	return product, nil
}

// Create добавляет товар в каталог.
func (s *Service) Create(ctx context.Context, input CreateInput) (domain.Product, error) {
	if input.Name == "" || input.Description == "" || input.Category == "" {
		return domain.Product{}, domain.BadRequest("Nome, descrição, preço, estoque e categoria são obrigatórios")
	}
	if input.PriceCents < 0 {
		return domain.Product{}, domain.BadRequest("O preço não pode ser negativo")
	}
	if input.Stock < 0 {
		return domain.Product{}, domain.BadRequest("O estoque não pode ser negativo")
	}

	product := domain.Product{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		Stock:       input.Stock,
		Category:    input.Category,
		ImageURL:    input.ImageURL,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.products.Create(product); err != nil {
		s.logger.WithError(err).WithField("name", product.Name).Error("product creation failed")
		return domain.Product{}, domain.Internal("Erro ao criar produto", err)
	}

	s.logger.WithFields(log.Fields{
		"product_id": product.ID,
		"name":       product.Name,
	}).Info("product created")
	return product, nil
}

// Update применяет частичное обновление товара.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (domain.Product, error) {
	product, err := s.products.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return domain.Product{}, domain.NotFound("Produto não encontrado")
		}
		return domain.Product{}, domain.Internal("Erro ao atualizar produto", err)
	}

	if input.PriceCents != nil && *input.PriceCents < 0 {
		return domain.Product{}, domain.BadRequest("O preço não pode ser negativo")
	}
	if input.Stock != nil && *input.Stock < 0 {
		return domain.Product{}, domain.BadRequest("O estoque não pode ser negativo")
	}

	if input.Name != nil && *input.Name != "" {
		product.Name = *input.Name
	}
	if input.Description != nil && *input.Description != "" {
		product.Description = *input.Description
	}
	if input.PriceCents != nil {
		product.PriceCents = *input.PriceCents
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.Category != nil && *input.Category != "" {
		product.Category = *input.Category
	}
	if input.ImageURL != nil && *input.ImageURL != "" {
		product.ImageURL = *input.ImageURL
	}

	if err := s.products.Update(product); err != nil {
		s.logger.WithError(err).WithField("product_id", id).Error("product update failed")
		return domain.Product{}, domain.Internal("Erro ao atualizar produto", err)
	}
	return product, nil
}

// Delete удаляет товар из каталога.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.products.Get(id); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return domain.NotFound("Produto não encontrado")
		}
		return domain.Internal("Erro ao deletar produto", err)
	}
	if err := s.products.Delete(id); err != nil {
		s.logger.WithError(err).WithField("product_id", id).Error("product delete failed")
		return domain.Internal("Erro ao deletar produto", err)
	}
	s.logger.WithField("product_id", id).Info("product deleted")
	return nil
}
