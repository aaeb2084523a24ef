package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/sofkify/shop/internal/domain/order"
	domoutbox "github.com/sofkify/shop/internal/domain/outbox"
	"github.com/sofkify/shop/internal/observability"
	"github.com/sofkify/shop/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService       = "order-service"
	useCaseCreateOrder = "order.create_from_cart"
	spanPrefix         = "UC."
	peerCart           = "cart-service"
	peerBus            = "event-bus"
)

// CreateOrderUseCase turns a cart into an order exactly once per cart and
// announces the new order on the bus.
type CreateOrderUseCase struct {
	repo           domain.Repository
	carts          CartReader
	publisher      domoutbox.Publisher
	idGenerator    IDGenerator
	callTimeout    time.Duration
	publishTimeout time.Duration

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	extCounter   observability.Counter
	extHistogram observability.Histogram
}

func NewCreateOrderUseCase(
	repo domain.Repository,
	carts CartReader,
	publisher domoutbox.Publisher,
	idGen IDGenerator,
	callTimeout time.Duration,
	publishTimeout time.Duration,
	tel observability.Observability,
) *CreateOrderUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	if callTimeout <= 0 {
		callTimeout = 2 * time.Second
	}
	if publishTimeout <= 0 {
		publishTimeout = 300 * time.Millisecond
	}
	metricsProvider := tel.Metrics()

	return &CreateOrderUseCase{
		repo:           repo,
		carts:          carts,
		publisher:      publisher,
		idGenerator:    idGen,
		callTimeout:    callTimeout,
		publishTimeout: publishTimeout,
		log:            tel.Logger().With(observability.F("service", orderService)),
		tracer:         tel.Tracer(),
		reqCounter:     metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram:   metricsProvider.Histogram(observability.MUsecaseDuration),
		extCounter:     metricsProvider.Counter(observability.MExternalRequests),
		extHistogram:   metricsProvider.Histogram(observability.MExternalRequestDuration),
	}
}

type CreateOrderInput struct {
	CartID string
}

// Execute creates an order from the cart. Calling it twice for the same cart
// returns domain.ErrConflict on the second call; the uniqueness check rides on
// the repository insert, so concurrent calls cannot both win.
func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderInput) (_ *domain.Order, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseCreateOrder),
		observability.F("cart_id", cmd.CartID),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"CreateOrderFromCart",
		attribute.String("use_case", useCaseCreateOrder),
		attribute.String("order.cart_id", cmd.CartID),
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
			observability.L("use_case", useCaseCreateOrder),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseCreateOrder),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if cmd.CartID == "" {
		outcome, statusText = "error", "CART_ID_REQUIRED"
		return nil, fmt.Errorf("%w: empty cart id", ErrCartNotFound)
	}

	// Fast path for retries; the insert below still guards against races.
	exists, err := uc.repo.ExistsByCartID(ctx, cmd.CartID)
	if err != nil {
		outcome, statusText = "error", "ORDER_LOOKUP_FAILED"
		return nil, fmt.Errorf("order: lookup by cart: %w", err)
	}
	if exists {
		outcome, statusText = "error", "ORDER_ALREADY_EXISTS"
		return nil, fmt.Errorf("%w: cart %s", domain.ErrConflict, cmd.CartID)
	}

	snapshot, err := uc.fetchCart(ctx, cmd.CartID)
	if err != nil {
		outcome, statusText = "error", "CART_FETCH_FAILED"
		return nil, err
	}
	if len(snapshot.Items) == 0 {
		outcome, statusText = "error", "CART_EMPTY"
		return nil, fmt.Errorf("%w: cart %s", ErrInvalidCart, cmd.CartID)
	}

	items := make([]domain.Item, 0, len(snapshot.Items))
	for _, line := range snapshot.Items {
		item, err := domain.NewItem(
			uc.idGenerator.NewID(),
			line.ProductID,
			line.ProductName,
			line.ProductPrice,
			line.Quantity,
		)
		if err != nil {
			outcome, statusText = "error", "CART_LINE_INVALID"
			return nil, fmt.Errorf("%w: product %s: %v", ErrInvalidCart, line.ProductID, err)
		}
		items = append(items, item)
	}

	entity, err := domain.New(uc.idGenerator.NewID(), snapshot.ID, snapshot.CustomerID, items)
	if err != nil {
		outcome, statusText = "error", "ORDER_INVALID"
		return nil, err
	}

	if err := uc.repo.Insert(ctx, entity); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			outcome, statusText = "error", "ORDER_ALREADY_EXISTS"
			return nil, fmt.Errorf("%w: cart %s", domain.ErrConflict, cmd.CartID)
		}
		outcome, statusText = "error", "ORDER_INSERT_FAILED"
		return nil, fmt.Errorf("order: insert: %w", err)
	}

	span.AddEvent("order.created",
		trace.WithAttributes(
			attribute.String("order.id", entity.ID),
			attribute.String("order.customer_id", entity.CustomerID),
			attribute.Int("order.items", len(items)),
		),
	)

	uc.publish(ctx, logger, domain.NewOrderCreatedEvent(entity))

	return entity, nil
}

func (uc *CreateOrderUseCase) fetchCart(ctx context.Context, cartID string) (CartSnapshot, error) {
	callCtx, cancel := context.WithTimeout(ctx, uc.callTimeout)
	defer cancel()

	start := time.Now()
	snapshot, err := uc.carts.GetCart(callCtx, cartID)
	outcome := "success"
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		outcome = "timeout"
		err = fmt.Errorf("%w: cart %s", ErrCartUnavailable, cartID)
	} else if err != nil {
		outcome = "error"
	}

	uc.extCounter.Add(1,
		observability.L("peer", peerCart),
		observability.L("endpoint", "cart.get"),
		observability.L("outcome", outcome),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peerCart),
		observability.L("endpoint", "cart.get"),
	)
	return snapshot, err
}

// publish hands the event to the bus. The order is already committed at this
// point, so a publish failure is logged but does not fail the use case; the
// relay retries delivery on its side.
func (uc *CreateOrderUseCase) publish(ctx context.Context, logger observability.Logger, evt domoutbox.Event) {
	pubCtx, cancel := context.WithTimeout(ctx, uc.publishTimeout)
	defer cancel()

	start := time.Now()
	err := uc.publisher.Publish(pubCtx, evt)
	outcome := "success"
	if err != nil {
		outcome = "error"
		logger.Error("event_publish_failed",
			observability.F("event", evt.EventName()),
			observability.F("error", err.Error()),
		)
	}

	uc.extCounter.Add(1,
		observability.L("peer", peerBus),
		observability.L("endpoint", "publish."+evt.EventName()),
		observability.L("outcome", outcome),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peerBus),
		observability.L("endpoint", "publish."+evt.EventName()),
	)
}
