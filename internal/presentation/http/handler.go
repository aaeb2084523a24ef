package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	cartapp "github.com/sofkify/shop/internal/application/cart"
	orderapp "github.com/sofkify/shop/internal/application/order"
	productapp "github.com/sofkify/shop/internal/application/product"
	userapp "github.com/sofkify/shop/internal/application/user"
	domcart "github.com/sofkify/shop/internal/domain/cart"
	domorder "github.com/sofkify/shop/internal/domain/order"
	domproduct "github.com/sofkify/shop/internal/domain/product"
	domuser "github.com/sofkify/shop/internal/domain/user"
	"github.com/sofkify/shop/internal/observability"
	"github.com/sofkify/shop/internal/observability/logctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
)

type Handler struct {
	addItem     *cartapp.AddItemToCartUseCase
	carts       *cartapp.Service
	createOrder *orderapp.CreateOrderUseCase
	orders      *orderapp.Service
	products    *productapp.Service
	users       *userapp.Service

	log observability.Logger
	tel observability.Observability
}

func NewHandler(
	addItem *cartapp.AddItemToCartUseCase,
	carts *cartapp.Service,
	createOrder *orderapp.CreateOrderUseCase,
	orders *orderapp.Service,
	products *productapp.Service,
	users *userapp.Service,
	tel observability.Observability,
) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		addItem:     addItem,
		carts:       carts,
		createOrder: createOrder,
		orders:      orders,
		products:    products,
		users:       users,
		log:         tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:         tel,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// Each route is wired as Trace → ObservabilityMiddleware (request logger +
	// HTTP metrics) → Access log → Handler.
	h.muxHandle(mux, "POST /carts/{customerID}/items", h.handleAddCartItem)
	h.muxHandle(mux, "PUT /carts/{customerID}/items/{itemID}", h.handleUpdateCartItem)
	h.muxHandle(mux, "GET /carts/{cartID}", h.handleGetCart)

	h.muxHandle(mux, "POST /orders/from-cart/{cartID}", h.handleCreateOrder)
	h.muxHandle(mux, "GET /orders/{orderID}", h.handleGetOrder)
	h.muxHandle(mux, "GET /orders/customer/{customerID}", h.handleListOrdersByCustomer)
	h.muxHandle(mux, "PUT /orders/{orderID}/status", h.handleUpdateOrderStatus)

	h.muxHandle(mux, "POST /products", h.handleCreateProduct)
	h.muxHandle(mux, "GET /products", h.handleListProducts)
	h.muxHandle(mux, "GET /products/{productID}", h.handleGetProduct)

	h.muxHandle(mux, "POST /users", h.handleRegisterUser)
	h.muxHandle(mux, "GET /users/{userID}", h.handleGetUser)

	h.muxHandle(mux, "GET /health", h.handleHealth)

	return mux
}

func (h *Handler) muxHandle(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		// Store the stable route template for low-cardinality labels.
		ctx := contextWithRoute(r.Context(), pattern)
		r = r.WithContext(ctx)

		wrapped := h.withTrace(
			ObservabilityMiddleware(
				logctx.FromOr(ctx, h.log),
				func(r *http.Request) string {
					return r.Header.Get(headerRequestID)
				},
				h.tel,
			)(
				h.withAccessLog(handler),
			),
		)
		wrapped.ServeHTTP(w, r)
	})
}

type cartItemResponse struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	ID          string             `json:"id"`
	CustomerID  string             `json:"customer_id"`
	Status      domcart.Status     `json:"status"`
	Items       []cartItemResponse `json:"items"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
}

func toCartResponse(c *domcart.Cart) cartResponse {
	items := c.Items()
	out := cartResponse{
		ID:          c.ID,
		CustomerID:  c.CustomerID,
		Status:      c.Status,
		Items:       make([]cartItemResponse, 0, len(items)),
		TotalAmount: c.TotalAmount(),
	}
	for _, item := range items {
		out.Items = append(out.Items, cartItemResponse{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductPrice: item.ProductPrice,
			Quantity:     item.Quantity,
			Subtotal:     item.Subtotal(),
		})
	}
	return out
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cart, err := h.addItem.Execute(r.Context(), cartapp.AddItemInput{
		CustomerID: r.PathValue("customerID"),
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartResponse(cart))
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cart, err := h.carts.UpdateItemQuantity(r.Context(), r.PathValue("customerID"), r.PathValue("itemID"), req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Get(r.Context(), r.PathValue("cartID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

type orderItemResponse struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	CartID      string              `json:"cart_id"`
	CustomerID  string              `json:"customer_id"`
	Status      domorder.Status     `json:"status"`
	Items       []orderItemResponse `json:"items"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	CreatedAt   time.Time           `json:"created_at"`
}

func toOrderResponse(o *domorder.Order) orderResponse {
	items := o.Items()
	out := orderResponse{
		ID:          o.ID,
		CartID:      o.CartID,
		CustomerID:  o.CustomerID,
		Status:      o.Status,
		Items:       make([]orderItemResponse, 0, len(items)),
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
	}
	for _, item := range items {
		out.Items = append(out.Items, orderItemResponse{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductPrice: item.ProductPrice,
			Quantity:     item.Quantity,
			Subtotal:     item.Subtotal,
		})
	}
	return out
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.createOrder.Execute(r.Context(), orderapp.CreateOrderInput{
		CartID: r.PathValue("cartID"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(r.Context(), r.PathValue("orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) handleListOrdersByCustomer(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByCustomer(r.Context(), r.PathValue("customerID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), r.PathValue("orderID"), req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

type createProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

type productResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       decimal.Decimal   `json:"price"`
	Stock       int               `json:"stock"`
	Status      domproduct.Status `json:"status"`
}

func toProductResponse(p *domproduct.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Status:      p.Status,
	}
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	product, err := h.products.Create(r.Context(), productapp.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.Get(r.Context(), r.PathValue("productID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

type registerUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type userResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

func (h *Handler) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	u, err := h.users.Register(r.Context(), req.Name, req.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Active: u.Active})
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Active: u.Active})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes. It
// relies on the request-scoped logger injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("shop.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		spanName := route
		if spanName == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctxWithSpan))
	})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeDomainError maps application and domain errors onto HTTP statuses.
// Anything unmapped is a 500 with a generic body so internals do not leak.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domcart.ErrNotFound),
		errors.Is(err, domcart.ErrItemNotFound),
		errors.Is(err, domorder.ErrNotFound),
		errors.Is(err, domproduct.ErrNotFound),
		errors.Is(err, domuser.ErrNotFound),
		errors.Is(err, cartapp.ErrProductNotFound),
		errors.Is(err, orderapp.ErrCartNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domcart.ErrInvalidQuantity),
		errors.Is(err, domcart.ErrInvalidPrice),
		errors.Is(err, domcart.ErrEmptyName),
		errors.Is(err, domorder.ErrInvalidQuantity),
		errors.Is(err, domorder.ErrInvalidStatus),
		errors.Is(err, domorder.ErrInvalidStateTransition),
		errors.Is(err, domorder.ErrEmptyOrder),
		errors.Is(err, domproduct.ErrInvalidQuantity),
		errors.Is(err, domproduct.ErrInvalidPrice),
		errors.Is(err, domproduct.ErrInvalidStock),
		errors.Is(err, domproduct.ErrEmptyName),
		errors.Is(err, domuser.ErrEmptyName),
		errors.Is(err, domuser.ErrEmptyEmail),
		errors.Is(err, cartapp.ErrCustomerNotUsable),
		errors.Is(err, cartapp.ErrProductInactive),
		errors.Is(err, orderapp.ErrInvalidCart):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domorder.ErrConflict),
		errors.Is(err, domproduct.ErrConflict),
		errors.Is(err, domuser.ErrConflict),
		errors.Is(err, domproduct.ErrInsufficientStock),
		errors.Is(err, cartapp.ErrInsufficientStock):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, cartapp.ErrExternalService),
		errors.Is(err, orderapp.ErrCartUnavailable):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so
// downstream metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
