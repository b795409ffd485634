package order

import "github.com/vladislavdragonenkov/ecom/internal/domain"

// transitionPlan описывает, что нужно сделать для применения перехода.
type transitionPlan struct {
	// restock — вернуть сток по всем позициям заказа (компенсация отмены).
	restock bool
}

// planTransition проверяет допустимость перехода current → target и
// возвращает план применения. Правила проверяются строго по порядку:
// сначала ветка CANCELLED, затем линейная последовательность.
func planTransition(current, target domain.OrderStatus) (transitionPlan, error) {
	if target == domain.OrderStatusCancelled {
		switch current {
		case domain.OrderStatusCancelled:
			return transitionPlan{}, domain.BadRequest("Pedido já está cancelado")
		case domain.OrderStatusDelivered:
			return transitionPlan{}, domain.BadRequest("Pedido entregue não pode ser cancelado")
		default:
			// Сток был списан при создании, отмена возвращает его целиком.
			return transitionPlan{restock: true}, nil
		}
	}

	currentIdx := current.SequenceIndex()
	targetIdx := target.SequenceIndex()

	// CANCELLED не входит в последовательность, из него пути нет.
	if currentIdx < 0 {
		return transitionPlan{}, domain.BadRequest(
			"Pedido com status '%s' não pode ser atualizado. Apenas pedidos PENDING, CONFIRMED, SHIPPED ou DELIVERED podem ser modificados.",
			current,
		)
	}

	switch {
	case targetIdx == currentIdx:
		return transitionPlan{}, domain.BadRequest(
			"Transição inválida: o pedido já está no status '%s'.",
			current,
		)
	case targetIdx < currentIdx:
		return transitionPlan{}, domain.BadRequest(
			"Transição inválida: não é possível voltar de '%s' para '%s'. O pedido só pode avançar na sequência de status.",
			current, target,
		)
	case targetIdx-currentIdx > 1:
		next, _ := current.NextInSequence()
		return transitionPlan{}, domain.BadRequest(
			"Transição inválida: não é permitido pular de '%s' para '%s'. O próximo status deve ser '%s'.",
			current, target, next,
		)
	}

	// Шаг ровно на одну позицию вперёд. Сток уже списан при создании,
	// дополнительных эффектов нет.
	return transitionPlan{}, nil
}
