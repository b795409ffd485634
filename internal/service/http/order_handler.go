package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/service/http/middleware"
	"github.com/vladislavdragonenkov/ecom/internal/service/idempotency"
	"github.com/vladislavdragonenkov/ecom/internal/service/order"
)

// idempotencyKeyHeader — заголовок, которым клиент помечает повторяемый запрос.
const idempotencyKeyHeader = "X-Idempotency-Key"

// OrderHandler обслуживает заказы. Все маршруты требуют аутентификации.
type OrderHandler struct {
	orders         *order.Service
	idempotency    *idempotency.Manager
	requestTimeout time.Duration
}

// NewOrderHandler создаёт обработчик заказов.
func NewOrderHandler(svc *order.Service, manager *idempotency.Manager, requestTimeout time.Duration) *OrderHandler {
	return &OrderHandler{orders: svc, idempotency: manager, requestTimeout: requestTimeout}
}

type createOrderRequest struct {
	Address string `json:"address"`
	Items   []struct {
		ProductID string `json:"productId"`
		Quantity  int32  `json:"quantity"`
	} `json:"items"`
}

type updateOrderRequest struct {
	Status string `json:"status"`
}

type orderItemResponse struct {
	ID        string                 `json:"id"`
	ProductID string                 `json:"productId"`
	Quantity  int32                  `json:"quantity"`
	Price     int64                  `json:"price"`
	Product   productSummaryResponse `json:"product"`
}

type productSummaryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type timelineEventResponse struct {
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurredAt"`
}

type orderResponse struct {
	ID        string                  `json:"id"`
	UserID    string                  `json:"userId"`
	Address   string                  `json:"address"`
	Status    string                  `json:"status"`
	Total     int64                   `json:"total"`
	Items     []orderItemResponse     `json:"items"`
	Timeline  []timelineEventResponse `json:"timeline,omitempty"`
	CreatedAt time.Time               `json:"createdAt"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

func toOrderResponse(view order.OrderView) orderResponse {
	items := make([]orderItemResponse, 0, len(view.Items))
	for _, item := range view.Items {
		items = append(items, orderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.PriceCents,
			Product: productSummaryResponse{
				ID:          item.Product.ID,
				Name:        item.Product.Name,
				Description: item.Product.Description,
			},
		})
	}

	var timeline []timelineEventResponse
	for _, event := range view.Timeline {
		timeline = append(timeline, timelineEventResponse{
			Type:     event.Type,
			Reason:   event.Reason,
			Occurred: event.Occurred,
		})
	}

	return orderResponse{
		ID:        view.ID,
		UserID:    view.UserID,
		Address:   view.Address,
		Status:    string(view.Status),
		Total:     view.TotalCents,
		Items:     items,
		Timeline:  timeline,
		CreatedAt: view.CreatedAt,
		UpdatedAt: view.UpdatedAt,
	}
}

// Create обрабатывает POST /api/orders. Запрос с заголовком X-Idempotency-Key
// исполняется под менеджером идемпотентности: повтор вернёт сохранённый ответ.
func (h *OrderHandler) Create(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, domain.Unauthorized("Usuário não autenticado"))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, domain.BadRequest("Corpo da requisição inválido"))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	key := c.GetHeader(idempotencyKeyHeader)
	result, err := h.idempotency.Execute(ctx, key, idempotency.HashRequest(body), func(ctx context.Context) idempotency.Result {
		return h.createOrder(ctx, identity, body)
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(result.HTTPStatus, "application/json; charset=utf-8", result.Body)
}

// createOrder исполняет создание заказа и сериализует ответ в Result,
// пригодный для кеширования менеджером идемпотентности.
func (h *OrderHandler) createOrder(ctx context.Context, identity domain.Identity, body []byte) idempotency.Result {
	var req createOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return errorResult(domain.BadRequest("userId, address e items são obrigatórios"))
	}

	items := make([]order.CreateItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, order.CreateItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	view, err := h.orders.Create(ctx, identity, order.CreateInput{Address: req.Address, Items: items})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(http.StatusCreated, toOrderResponse(view))
}

// List обрабатывает GET /api/orders: заказы вызывающего, новые первыми.
func (h *OrderHandler) List(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, domain.Unauthorized("Usuário não autenticado"))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	views, err := h.orders.ListByUser(ctx, identity)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]orderResponse, 0, len(views))
	for _, view := range views {
		out = append(out, toOrderResponse(view))
	}
	c.JSON(http.StatusOK, out)
}

// Get обрабатывает GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, domain.Unauthorized("Usuário não autenticado"))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	view, err := h.orders.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !identity.CanManageOrder(view.UserID) {
		respondError(c, domain.Forbidden("Você não tem permissão para visualizar este pedido"))
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(view))
}

// UpdateStatus обрабатывает PUT /api/orders/:id.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, domain.Unauthorized("Usuário não autenticado"))
		return
	}

	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.BadRequest("Status é obrigatório"))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	view, err := h.orders.UpdateStatus(ctx, identity, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(view))
}

func (h *OrderHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.requestTimeout)
}

// jsonResult сериализует успешный ответ для менеджера идемпотентности.
func jsonResult(status int, payload any) idempotency.Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return errorResult(domain.Internal("Erro interno do servidor", err))
	}
	return idempotency.Result{Body: body, HTTPStatus: status}
}

// errorResult сериализует доменную ошибку в тот же формат, что respondError.
func errorResult(err error) idempotency.Result {
	status := statusOf(domain.KindOf(err))
	body, _ := json.Marshal(map[string]any{
		"error":      domain.UserMessage(err),
		"statusCode": status,
	})
	return idempotency.Result{Body: body, HTTPStatus: status}
}
