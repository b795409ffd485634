package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/service/catalog"
)

// ProductHandler обслуживает каталог товаров. Чтение публично,
// запись доступна только администраторам.
type ProductHandler struct {
	catalog        *catalog.Service
	requestTimeout time.Duration
}

// NewProductHandler создаёт обработчик каталога.
func NewProductHandler(svc *catalog.Service, requestTimeout time.Duration) *ProductHandler {
	return &ProductHandler{catalog: svc, requestTimeout: requestTimeout}
}

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       *int64 `json:"price"`
	Stock       *int32 `json:"stock"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl"`
}

type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Stock       int32     `json:"stock"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.PriceCents,
		Stock:       p.Stock,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
	}
}

// List обрабатывает GET /api/products.
func (h *ProductHandler) List(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	products, err := h.catalog.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	c.JSON(http.StatusOK, out)
}

// Get обрабатывает GET /api/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	product, err := h.catalog.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

// Create обрабатывает POST /api/products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.BadRequest("Nome, descrição, preço, estoque e categoria são obrigatórios"))
		return
	}
	if req.Price == nil || req.Stock == nil {
		respondError(c, domain.BadRequest("Nome, descrição, preço, estoque e categoria são obrigatórios"))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	product, err := h.catalog.Create(ctx, catalog.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  *req.Price,
		Stock:       *req.Stock,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(product))
}

type productUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Stock       *int32  `json:"stock"`
	Category    *string `json:"category"`
	ImageURL    *string `json:"imageUrl"`
}

// Update обрабатывает PUT /api/products/:id. Не переданные поля не меняются.
func (h *ProductHandler) Update(c *gin.Context) {
	var req productUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.BadRequest("Corpo da requisição inválido"))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	product, err := h.catalog.Update(ctx, c.Param("id"), catalog.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

// Delete обрабатывает DELETE /api/products/:id.
func (h *ProductHandler) Delete(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.catalog.Delete(ctx, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Produto deletado com sucesso"})
}

func (h *ProductHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.requestTimeout)
}
