package product

import (
	"context"
	"fmt"

	domorder "github.com/sofkify/shop/internal/domain/order"
	domoutbox "github.com/sofkify/shop/internal/domain/outbox"
	"github.com/sofkify/shop/internal/observability"
	"github.com/sofkify/shop/internal/observability/logctx"
)

const workerService = "stock_worker"

// Worker wires the stock decrement to the order.created subscription.
type Worker struct {
	subscriber domoutbox.Subscriber
	useCase    *DecrementStockUseCase
	log        observability.Logger
	ignored    observability.Counter
}

func NewWorker(
	subscriber domoutbox.Subscriber,
	useCase *DecrementStockUseCase,
	tel observability.Observability,
) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Worker{
		subscriber: subscriber,
		useCase:    useCase,
		log:        tel.Logger().With(observability.F("service", workerService)),
		ignored:    tel.Metrics().Counter(observability.MUsecaseRequests),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.useCase == nil {
		return
	}
	w.subscriber.Subscribe(domorder.OrderCreatedEvent{}.EventName(), w.handleOrderCreated)
}

func (w *Worker) handleOrderCreated(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.OrderCreatedEvent)
	if !ok {
		w.ignored.Add(1,
			observability.L("use_case", useCaseDecrement),
			observability.L("outcome", "ignored"),
		)
		logctx.FromOr(ctx, w.log).Warn("event_payload_unexpected",
			observability.F("event", e.EventName()),
		)
		return nil
	}

	if _, err := w.useCase.Execute(ctx, evt); err != nil {
		return fmt.Errorf("worker: stock decrement: %w", err)
	}
	return nil
}
