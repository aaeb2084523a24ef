package product

import (
	"context"
	"fmt"
	"time"

	domorder "github.com/sofkify/shop/internal/domain/order"
	domain "github.com/sofkify/shop/internal/domain/product"
	"github.com/sofkify/shop/internal/observability"
	"github.com/sofkify/shop/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	productService       = "product-service"
	useCaseDecrement     = "product.decrement_stock"
	spanPrefix           = "UC."
	outcomeDuplicate     = "duplicate"
	statusAlreadyApplied = "ALREADY_APPLIED"
)

// DecrementStockResult reports what the decrement did with one delivery.
type DecrementStockResult struct {
	OrderID   string
	Applied   bool
	Duplicate bool
}

// DecrementStockUseCase applies the stock effect of a created order. The whole
// batch succeeds or fails together, and a redelivered event for an already
// applied order is acknowledged without touching stock.
type DecrementStockUseCase struct {
	repo      domain.Repository
	processed ProcessedOrderStore

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewDecrementStockUseCase(
	repo domain.Repository,
	processed ProcessedOrderStore,
	tel observability.Observability,
) *DecrementStockUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	metricsProvider := tel.Metrics()

	return &DecrementStockUseCase{
		repo:         repo,
		processed:    processed,
		log:          tel.Logger().With(observability.F("service", productService)),
		tracer:       tel.Tracer(),
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
	}
}

// Execute is safe to call more than once for the same event. Errors returned
// here tell the bus the delivery failed and the event should come around again.
func (uc *DecrementStockUseCase) Execute(ctx context.Context, evt domorder.OrderCreatedEvent) (_ *DecrementStockResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseDecrement),
		observability.F("order_id", evt.OrderID),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"DecrementStock",
		attribute.String("use_case", useCaseDecrement),
		attribute.String("order.id", evt.OrderID),
		attribute.Int("order.items", len(evt.Items)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseDecrement),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseDecrement),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if evt.OrderID == "" {
		outcome, statusText = "error", "ORDER_ID_REQUIRED"
		return nil, fmt.Errorf("product: decrement without order id")
	}
	if len(evt.Items) == 0 {
		// Nothing to decrement; treat as applied so redeliveries stay quiet.
		return &DecrementStockResult{OrderID: evt.OrderID, Applied: true}, nil
	}

	first, err := uc.processed.Begin(ctx, evt.OrderID)
	if err != nil {
		outcome, statusText = "error", "IDEMPOTENCY_CHECK_FAILED"
		return nil, fmt.Errorf("product: idempotency check: %w", err)
	}
	if !first {
		outcome, statusText = outcomeDuplicate, statusAlreadyApplied
		logger.Info("stock_decrement_skipped_duplicate")
		return &DecrementStockResult{OrderID: evt.OrderID, Duplicate: true}, nil
	}

	decrements := make([]domain.StockDecrement, 0, len(evt.Items))
	for _, item := range evt.Items {
		decrements = append(decrements, domain.StockDecrement{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	if err := uc.repo.DecrementStock(ctx, decrements); err != nil {
		// Give the reservation back; the redelivered event gets a clean retry.
		if releaseErr := uc.processed.Release(ctx, evt.OrderID); releaseErr != nil {
			logger.Error("idempotency_release_failed",
				observability.F("error", releaseErr.Error()),
			)
		}
		outcome, statusText = "error", "STOCK_DECREMENT_FAILED"
		return nil, fmt.Errorf("product: decrement stock for order %s: %w", evt.OrderID, err)
	}

	span.AddEvent("stock.decremented",
		trace.WithAttributes(attribute.Int("products", len(decrements))),
	)
	return &DecrementStockResult{OrderID: evt.OrderID, Applied: true}, nil
}
