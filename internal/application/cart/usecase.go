package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/sofkify/shop/internal/domain/cart"
	"github.com/sofkify/shop/internal/observability"
	"github.com/sofkify/shop/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	cartService    = "cart-service"
	useCaseAddItem = "cart.add_item"
	spanPrefix     = "UC."
	peerProduct    = "product-service"
	peerUser       = "user-service"
)

// AddItemToCartUseCase validates the customer and product against their
// contexts, then merges the item into the customer's cart (creating the cart
// on first use).
type AddItemToCartUseCase struct {
	repo        domain.Repository
	catalog     ProductCatalog
	users       UserDirectory
	idGenerator IDGenerator
	callTimeout time.Duration

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	extCounter   observability.Counter
	extHistogram observability.Histogram
}

func NewAddItemToCartUseCase(
	repo domain.Repository,
	catalog ProductCatalog,
	users UserDirectory,
	idGen IDGenerator,
	callTimeout time.Duration,
	tel observability.Observability,
) *AddItemToCartUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	if callTimeout <= 0 {
		callTimeout = 2 * time.Second
	}
	metricsProvider := tel.Metrics()

	return &AddItemToCartUseCase{
		repo:         repo,
		catalog:      catalog,
		users:        users,
		idGenerator:  idGen,
		callTimeout:  callTimeout,
		log:          tel.Logger().With(observability.F("service", cartService)),
		tracer:       tel.Tracer(),
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
		extCounter:   metricsProvider.Counter(observability.MExternalRequests),
		extHistogram: metricsProvider.Histogram(observability.MExternalRequestDuration),
	}
}

type AddItemInput struct {
	CustomerID string
	ProductID  string
	Quantity   int
}

// Execute runs the add-item flow. Collaborator failures are not retried here;
// the operation fails and the caller decides.
func (uc *AddItemToCartUseCase) Execute(ctx context.Context, cmd AddItemInput) (_ *domain.Cart, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseAddItem),
		observability.F("customer_id", cmd.CustomerID),
		observability.F("product_id", cmd.ProductID),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"AddItemToCart",
		attribute.String("use_case", useCaseAddItem),
		attribute.String("cart.customer_id", cmd.CustomerID),
		attribute.String("cart.product_id", cmd.ProductID),
		attribute.Int("cart.quantity", cmd.Quantity),
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
			observability.L("use_case", useCaseAddItem),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseAddItem),
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

	if cmd.CustomerID == "" {
		outcome, statusText = "error", "CUSTOMER_ID_REQUIRED"
		return nil, errors.New("cart: customer id is required")
	}
	if cmd.ProductID == "" {
		outcome, statusText = "error", "PRODUCT_ID_REQUIRED"
		return nil, errors.New("cart: product id is required")
	}
	if cmd.Quantity <= 0 {
		outcome, statusText = "error", "QUANTITY_INVALID"
		return nil, domain.ErrInvalidQuantity
	}

	usable, err := uc.validateUser(ctx, cmd.CustomerID)
	if err != nil {
		outcome, statusText = "error", "USER_LOOKUP_FAILED"
		return nil, err
	}
	if !usable {
		outcome, statusText = "error", "CUSTOMER_NOT_USABLE"
		return nil, fmt.Errorf("%w: %s", ErrCustomerNotUsable, cmd.CustomerID)
	}

	info, err := uc.getProduct(ctx, cmd.ProductID)
	if err != nil {
		outcome, statusText = "error", "PRODUCT_LOOKUP_FAILED"
		return nil, err
	}
	if !info.Active {
		outcome, statusText = "error", "PRODUCT_INACTIVE"
		return nil, fmt.Errorf("%w: %s", ErrProductInactive, cmd.ProductID)
	}

	enough, err := uc.validateStock(ctx, cmd.ProductID, cmd.Quantity)
	if err != nil {
		outcome, statusText = "error", "STOCK_LOOKUP_FAILED"
		return nil, err
	}
	if !enough {
		outcome, statusText = "error", "INSUFFICIENT_STOCK"
		return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, cmd.ProductID)
	}

	entity, err := uc.repo.FindByCustomerID(ctx, cmd.CustomerID)
	if errors.Is(err, domain.ErrNotFound) {
		entity, err = domain.New(uc.idGenerator.NewID(), cmd.CustomerID)
	}
	if err != nil {
		outcome, statusText = "error", "CART_LOAD_FAILED"
		return nil, fmt.Errorf("cart: load: %w", err)
	}

	if err := entity.AddItem(uc.idGenerator.NewID(), info.ID, info.Name, info.Price, cmd.Quantity); err != nil {
		outcome, statusText = "error", "ADD_ITEM_FAILED"
		return nil, err
	}

	if err := uc.repo.Save(ctx, entity); err != nil {
		outcome, statusText = "error", "CART_SAVE_FAILED"
		return nil, fmt.Errorf("cart: save: %w", err)
	}

	span.AddEvent("cart.item_added",
		trace.WithAttributes(
			attribute.String("cart.id", entity.ID),
			attribute.Int("cart.items", len(entity.Items())),
		),
	)
	return entity, nil
}

func (uc *AddItemToCartUseCase) validateUser(ctx context.Context, customerID string) (bool, error) {
	var usable bool
	err := uc.call(ctx, peerUser, "user.validate", func(ctx context.Context) error {
		var callErr error
		usable, callErr = uc.users.ValidateUser(ctx, customerID)
		return callErr
	})
	return usable, err
}

func (uc *AddItemToCartUseCase) getProduct(ctx context.Context, productID string) (ProductInfo, error) {
	var info ProductInfo
	err := uc.call(ctx, peerProduct, "product.get", func(ctx context.Context) error {
		var callErr error
		info, callErr = uc.catalog.GetProduct(ctx, productID)
		return callErr
	})
	return info, err
}

func (uc *AddItemToCartUseCase) validateStock(ctx context.Context, productID string, quantity int) (bool, error) {
	var enough bool
	err := uc.call(ctx, peerProduct, "product.validate_stock", func(ctx context.Context) error {
		var callErr error
		enough, callErr = uc.catalog.ValidateStock(ctx, productID, quantity)
		return callErr
	})
	return enough, err
}

// call bounds a collaborator call with the configured timeout and records
// external-request metrics. Deadline expiry surfaces as ErrExternalService.
func (uc *AddItemToCartUseCase) call(ctx context.Context, peer, endpoint string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, uc.callTimeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	outcome := "success"
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		outcome = "timeout"
		err = fmt.Errorf("%w: %s %s", ErrExternalService, peer, endpoint)
	} else if err != nil {
		outcome = "error"
	}

	uc.extCounter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
	)
	return err
}
