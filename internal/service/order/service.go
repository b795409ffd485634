package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/ecom/internal/metrics"
)

// CreateItem — запрошенная позиция заказа: товар и количество.
// Цена не принимается от клиента, снимок берётся из каталога.
type CreateItem struct {
	ProductID string
	Quantity  int32
}

// CreateInput — входные данные создания заказа. UserID приходит из
// Identity, а не из тела запроса.
type CreateInput struct {
	Address string
	Items   []CreateItem
}

// OrderItemView — позиция заказа вместе с карточкой товара.
type OrderItemView struct {
	ID         string
	ProductID  string
	Quantity   int32
	PriceCents int64
	Product    domain.ProductSummary
}

// OrderView — снимок заказа, отдаваемый вызывающему.
type OrderView struct {
	ID         string
	UserID     string
	Address    string
	Status     domain.OrderStatus
	TotalCents int64
	Items      []OrderItemView
	Timeline   []domain.TimelineEvent
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Service — движок жизненного цикла заказов: создание с атомарным
// списанием стока и переходы статусов с компенсирующими действиями.
type Service struct {
	tx            domain.TxRunner
	repos         domain.Repositories
	logger        *log.Entry
	metrics       *metrics.OrderMetrics
	kafkaProducer *kafka.Producer // опциональный producer событий заказов
}

// NewService создаёт рабочий экземпляр движка.
func NewService(tx domain.TxRunner, repos domain.Repositories, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &Service{
		tx:      tx,
		repos:   repos,
		logger:  logger,
		metrics: metrics.NewOrderMetrics(),
	}
}

// NewServiceWithKafka создаёт движок с Kafka producer для публикации событий.
func NewServiceWithKafka(tx domain.TxRunner, repos domain.Repositories, kafkaProducer *kafka.Producer, logger *log.Entry) *Service {
	svc := NewService(tx, repos, logger)
	svc.kafkaProducer = kafkaProducer
	return svc
}

// NewServiceWithoutMetrics создаёт движок без метрик (для тестов).
func NewServiceWithoutMetrics(tx domain.TxRunner, repos domain.Repositories, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &Service{
		tx:     tx,
		repos:  repos,
		logger: logger,
	}
}

// Create создаёт заказ: проверяет пользователя и товары, фиксирует цены,
// атомарно списывает сток по каждой позиции и сохраняет заказ в PENDING.
// Любой отказ откатывает все уже сделанные списания.
func (s *Service) Create(ctx context.Context, identity domain.Identity, input CreateInput) (OrderView, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordCreateDuration(time.Since(start))
		}
	}()

	if identity.UserID == "" || input.Address == "" || len(input.Items) == 0 {
		s.rejectCreation("validation")
		return OrderView{}, domain.BadRequest("userId, address e items são obrigatórios")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			s.rejectCreation("validation")
			return OrderView{}, domain.BadRequest("Quantidade deve ser maior que zero")
		}
	}

	var (
		created   domain.Order
		summaries map[string]domain.ProductSummary
	)

	err := s.tx.WithinTx(ctx, func(repos domain.Repositories) error {
		if _, err := repos.Users.Get(identity.UserID); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.NotFound("Usuário não encontrado")
			}
			return err
		}

		now := time.Now().UTC()
		order := domain.Order{
			ID:        uuid.NewString(),
			UserID:    identity.UserID,
			Address:   input.Address,
			Status:    domain.OrderStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		summaries = make(map[string]domain.ProductSummary, len(input.Items))

		// Позиции обрабатываются в порядке запроса: проверка наличия,
		// проверка стока, снимок текущей цены, атомарное списание.
		for _, item := range input.Items {
			product, err := repos.Products.Get(item.ProductID)
			if err != nil {
				if errors.Is(err, domain.ErrProductNotFound) {
					return domain.NotFound("Produto com ID '%s' não encontrado", item.ProductID)
				}
				return err
			}

			if product.Stock < item.Quantity {
				if s.metrics != nil {
					s.metrics.RecordStockRejection()
				}
				return domain.BadRequest(
					"Estoque insuficiente para '%s'. Disponível: %d, Solicitado: %d",
					product.Name, product.Stock, item.Quantity,
				).WithCause(domain.ErrInsufficientStock)
			}

			if err := repos.Products.AdjustStock(item.ProductID, -item.Quantity); err != nil {
				if errors.Is(err, domain.ErrInsufficientStock) {
					// Конкурентное списание обогнало проверку выше.
					if s.metrics != nil {
						s.metrics.RecordStockRejection()
					}
					return domain.BadRequest(
						"Estoque insuficiente para '%s'. Disponível: %d, Solicitado: %d",
						product.Name, product.Stock, item.Quantity,
					).WithCause(err)
				}
				return err
			}

			order.Items = append(order.Items, domain.OrderItem{
				ID:         uuid.NewString(),
				ProductID:  product.ID,
				Quantity:   item.Quantity,
				PriceCents: product.PriceCents,
			})
			order.TotalCents += int64(item.Quantity) * product.PriceCents
			summaries[product.ID] = product.Summary()
		}

		if errs := order.ValidateInvariants(); len(errs) > 0 {
			return domain.Internal("Erro ao criar pedido", errs[0])
		}

		if err := repos.Orders.Create(order); err != nil {
			return err
		}

		if err := repos.Timeline.Append(domain.TimelineEvent{
			OrderID:  order.ID,
			Type:     "OrderCreated",
			Occurred: now,
		}); err != nil {
			return err
		}

		created = order
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("user_id", identity.UserID).Warn("order creation failed")
		s.rejectCreation(string(domain.KindOf(err)))
		return OrderView{}, wrapInternal("Erro ao criar pedido", err)
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}
	s.logger.WithFields(log.Fields{
		"order_id":    created.ID,
		"user_id":     created.UserID,
		"total_cents": created.TotalCents,
	}).Info("order created")

	s.publishOrderEvent(kafka.EventTypeOrderCreated, &created, map[string]interface{}{
		"total_cents": created.TotalCents,
		"items_count": len(created.Items),
	})

	return s.buildView(created, summaries, nil), nil
}

// UpdateStatus применяет переход статуса: авторизация владельца или
// администратора, проверка допустимости перехода, возврат стока при
// отмене. Компенсация и запись статуса атомарны.
func (s *Service) UpdateStatus(ctx context.Context, identity domain.Identity, orderID, rawStatus string) (OrderView, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordUpdateDuration(time.Since(start))
		}
	}()

	if rawStatus == "" {
		return OrderView{}, domain.BadRequest("Status é obrigatório")
	}
	target, ok := domain.ParseOrderStatus(rawStatus)
	if !ok {
		return OrderView{}, domain.BadRequest("Status inválido")
	}

	var (
		updated  domain.Order
		previous domain.OrderStatus
		restock  bool
	)

	err := s.tx.WithinTx(ctx, func(repos domain.Repositories) error {
		order, err := repos.Orders.Get(orderID)
		if err != nil {
			if errors.Is(err, domain.ErrOrderNotFound) {
				return domain.NotFound("Pedido não encontrado")
			}
			return err
		}

		if !identity.CanManageOrder(order.UserID) {
			return domain.Forbidden("Você não tem permissão para atualizar este pedido")
		}

		plan, err := planTransition(order.Status, target)
		if err != nil {
			return err
		}

		if plan.restock {
			// Компенсация списания при создании: вернуть сток по каждой позиции.
			for _, item := range order.Items {
				if err := repos.Products.AdjustStock(item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		previous = order.Status
		order.Status = target
		order.UpdatedAt = time.Now().UTC()
		if err := repos.Orders.Save(order); err != nil {
			return err
		}
		order.Version++

		eventType := "OrderStatusChanged"
		if target == domain.OrderStatusCancelled {
			eventType = "OrderCanceled"
		}
		if err := repos.Timeline.Append(domain.TimelineEvent{
			OrderID:  order.ID,
			Type:     eventType,
			Reason:   string(target),
			Occurred: order.UpdatedAt,
		}); err != nil {
			return err
		}

		updated = order
		restock = plan.restock
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"target":   target,
		}).Warn("status update failed")
		return OrderView{}, wrapInternal("Erro ao atualizar status do pedido", err)
	}

	if s.metrics != nil {
		s.metrics.RecordStatusTransition(string(previous), string(updated.Status))
		switch updated.Status {
		case domain.OrderStatusCancelled:
			s.metrics.RecordOrderCanceled()
		case domain.OrderStatusDelivered:
			s.metrics.RecordOrderDelivered()
		}
	}
	s.logger.WithFields(log.Fields{
		"order_id": updated.ID,
		"from":     previous,
		"to":       updated.Status,
		"restock":  restock,
	}).Info("order status updated")

	eventType := kafka.EventTypeOrderStatusChanged
	switch updated.Status {
	case domain.OrderStatusCancelled:
		eventType = kafka.EventTypeOrderCanceled
	case domain.OrderStatusDelivered:
		eventType = kafka.EventTypeOrderDelivered
	}
	s.publishOrderEvent(eventType, &updated, map[string]interface{}{
		"previous_status": string(previous),
	})

	return s.buildView(updated, s.collectSummaries(updated), nil), nil
}

// Get возвращает заказ с позициями, карточками товаров и историей событий.
func (s *Service) Get(ctx context.Context, orderID string) (OrderView, error) {
	order, err := s.repos.Orders.Get(orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return OrderView{}, domain.NotFound("Pedido não encontrado")
		}
		return OrderView{}, wrapInternal("Erro ao buscar pedido", err)
	}

	timeline, err := s.repos.Timeline.List(order.ID)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("timeline lookup failed")
	}

	return s.buildView(order, s.collectSummaries(order), timeline), nil
}

// ListByUser возвращает заказы вызывающего, новые первыми.
func (s *Service) ListByUser(ctx context.Context, identity domain.Identity) ([]OrderView, error) {
	orders, err := s.repos.Orders.ListByUser(identity.UserID)
	if err != nil {
		return nil, wrapInternal("Erro ao listar pedidos", err)
	}

	views := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, s.buildView(order, s.collectSummaries(order), nil))
	}
	return views, nil
}

// collectSummaries подтягивает карточки товаров для позиций заказа.
// Удалённый из каталога товар оставляет карточку с одним ID.
func (s *Service) collectSummaries(order domain.Order) map[string]domain.ProductSummary {
	summaries := make(map[string]domain.ProductSummary, len(order.Items))
	for _, item := range order.Items {
		if _, seen := summaries[item.ProductID]; seen {
			continue
		}
		product, err := s.repos.Products.Get(item.ProductID)
		if err != nil {
			summaries[item.ProductID] = domain.ProductSummary{ID: item.ProductID}
			continue
		}
		summaries[item.ProductID] = product.Summary()
	}
	return summaries
}

func (s *Service) buildView(order domain.Order, summaries map[string]domain.ProductSummary, timeline []domain.TimelineEvent) OrderView {
	view := OrderView{
		ID:         order.ID,
		UserID:     order.UserID,
		Address:    order.Address,
		Status:     order.Status,
		TotalCents: order.TotalCents,
		Timeline:   timeline,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, OrderItemView{
			ID:         item.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PriceCents: item.PriceCents,
			Product:    summaries[item.ProductID],
		})
	}
	return view
}

// publishOrderEvent публикует событие заказа в Kafka (если producer настроен)
func (s *Service) publishOrderEvent(eventType kafka.EventType, order *domain.Order, metadata map[string]interface{}) {
	if s.kafkaProducer == nil {
		return
	}

	event := kafka.NewOrderEvent(eventType, order.ID, order.UserID, string(order.Status), metadata)
	if err := s.kafkaProducer.PublishOrderEvent(event); err != nil {
		// Kafka опциональна, ошибка публикации не ломает операцию.
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   order.ID,
		}).Warn("failed to publish order event to kafka")
	}
}

func (s *Service) rejectCreation(reason string) {
	if s.metrics != nil {
		s.metrics.RecordCreationRejected(reason)
	}
}

// wrapInternal оставляет бизнес-ошибки как есть, всё остальное прячет
// за обобщённой внутренней ошибкой.
func wrapInternal(message string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.Internal(message, err)
}
