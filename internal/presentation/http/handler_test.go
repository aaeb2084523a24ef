package httppresentation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartapp "github.com/sofkify/shop/internal/application/cart"
	orderapp "github.com/sofkify/shop/internal/application/order"
	productapp "github.com/sofkify/shop/internal/application/product"
	userapp "github.com/sofkify/shop/internal/application/user"
	"github.com/sofkify/shop/internal/infrastructure/adapter"
	"github.com/sofkify/shop/internal/infrastructure/id"
	"github.com/sofkify/shop/internal/infrastructure/memory"
	"github.com/sofkify/shop/internal/infrastructure/outbox"
)

type testEnv struct {
	server *httptest.Server
	bus    *outbox.Bus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cartRepo := memory.NewCartRepository()
	orderRepo := memory.NewOrderRepository()
	productRepo := memory.NewProductRepository()
	userRepo := memory.NewUserRepository()
	processedOrders := memory.NewProcessedOrderStore()
	idGenerator := id.NewUUIDGenerator()

	bus := outbox.NewBus(nil, nil, outbox.Options{})
	bus.Start(context.Background())
	t.Cleanup(func() { bus.Stop(context.Background()) })

	cartService := cartapp.NewService(cartRepo, nil)
	orderService := orderapp.NewService(orderRepo, nil)
	productService := productapp.NewService(productRepo, idGenerator, nil)
	userService := userapp.NewService(userRepo, idGenerator, nil)

	addItemUseCase := cartapp.NewAddItemToCartUseCase(
		cartRepo,
		adapter.NewProductCatalog(productService),
		adapter.NewUserDirectory(userService),
		idGenerator,
		time.Second,
		nil,
	)
	createOrderUseCase := orderapp.NewCreateOrderUseCase(
		orderRepo,
		adapter.NewCartReader(cartService),
		bus,
		idGenerator,
		time.Second,
		time.Second,
		nil,
	)
	decrementUseCase := productapp.NewDecrementStockUseCase(productRepo, processedOrders, nil)
	worker := productapp.NewWorker(bus, decrementUseCase, nil)
	worker.Start()

	handler := NewHandler(
		addItemUseCase, cartService,
		createOrderUseCase, orderService,
		productService, userService,
		nil,
	)

	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)

	return &testEnv{server: server, bus: bus}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (e *testEnv) registerUser(t *testing.T) string {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/users", map[string]any{
		"name": "Ada", "email": "ada@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return body["id"].(string)
}

func (e *testEnv) createProduct(t *testing.T, stock int) string {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/products", map[string]any{
		"name": "Keyboard", "description": "clacky", "price": "10", "stock": stock,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return body["id"].(string)
}

func (e *testEnv) fillCart(t *testing.T, customerID, productID string, quantity int) string {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/carts/"+customerID+"/items", map[string]any{
		"product_id": productID, "quantity": quantity,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return body["id"].(string)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp, err := env.server.Client().Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOrderLifecycle(t *testing.T) {
	env := newTestEnv(t)

	customerID := env.registerUser(t)
	productID := env.createProduct(t, 10)
	cartID := env.fillCart(t, customerID, productID, 2)

	resp, body := env.do(t, http.MethodPost, "/orders/from-cart/"+cartID, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID := body["id"].(string)
	assert.Equal(t, "PENDING_PAYMENT", body["status"])
	assert.Equal(t, cartID, body["cart_id"])
	assert.Equal(t, customerID, body["customer_id"])
	assert.Equal(t, "20", body["total_amount"])

	// The stock decrement rides the bus asynchronously.
	require.Eventually(t, func() bool {
		resp, body := env.do(t, http.MethodGet, "/products/"+productID, nil)
		return resp.StatusCode == http.StatusOK && body["stock"] == float64(8)
	}, 2*time.Second, 10*time.Millisecond)

	resp, body = env.do(t, http.MethodGet, "/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, orderID, body["id"])

	resp, body = env.do(t, http.MethodPut, "/orders/"+orderID+"/status", map[string]any{"status": "PAID"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PAID", body["status"])
}

func TestCreateOrderTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)

	customerID := env.registerUser(t)
	productID := env.createProduct(t, 10)
	cartID := env.fillCart(t, customerID, productID, 2)

	resp, _ := env.do(t, http.MethodPost, "/orders/from-cart/"+cartID, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/orders/from-cart/"+cartID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestErrorStatusMapping(t *testing.T) {
	env := newTestEnv(t)

	customerID := env.registerUser(t)
	productID := env.createProduct(t, 3)

	t.Run("unknown cart is 404", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPost, "/orders/from-cart/nope", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown order is 404", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodGet, "/orders/nope", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown product is 404", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPost, "/carts/"+customerID+"/items", map[string]any{
			"product_id": "nope", "quantity": 1,
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("unusable customer is 400", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPost, "/carts/ghost/items", map[string]any{
			"product_id": productID, "quantity": 1,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("zero quantity is 400", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPost, "/carts/"+customerID+"/items", map[string]any{
			"product_id": productID, "quantity": 0,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("over stock is 409", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPost, "/carts/"+customerID+"/items", map[string]any{
			"product_id": productID, "quantity": 99,
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("unknown status is 400", func(t *testing.T) {
		cartID := env.fillCart(t, customerID, productID, 1)
		resp, body := env.do(t, http.MethodPost, "/orders/from-cart/"+cartID, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		orderID := body["id"].(string)

		resp, _ = env.do(t, http.MethodPut, "/orders/"+orderID+"/status", map[string]any{"status": "BOGUS"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("cancelled order locks status", func(t *testing.T) {
		env := newTestEnv(t)
		customerID := env.registerUser(t)
		productID := env.createProduct(t, 5)
		cartID := env.fillCart(t, customerID, productID, 1)

		resp, body := env.do(t, http.MethodPost, "/orders/from-cart/"+cartID, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		orderID := body["id"].(string)

		resp, _ = env.do(t, http.MethodPut, "/orders/"+orderID+"/status", map[string]any{"status": "CANCELLED"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = env.do(t, http.MethodPut, "/orders/"+orderID+"/status", map[string]any{"status": "SHIPPED"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCartReadAndUpdate(t *testing.T) {
	env := newTestEnv(t)

	customerID := env.registerUser(t)
	productID := env.createProduct(t, 10)
	cartID := env.fillCart(t, customerID, productID, 2)

	resp, body := env.do(t, http.MethodGet, "/carts/"+cartID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	itemID := items[0].(map[string]any)["id"].(string)

	resp, body = env.do(t, http.MethodPut, fmt.Sprintf("/carts/%s/items/%s", customerID, itemID), map[string]any{
		"quantity": 5,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "50", body["total_amount"])

	resp, _ = env.do(t, http.MethodPut, fmt.Sprintf("/carts/%s/items/%s", customerID, "missing"), map[string]any{
		"quantity": 5,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRequestIDEcho(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-123")

	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))

	resp2, err := env.server.Client().Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.NotEmpty(t, resp2.Header.Get("X-Request-ID"))
}
