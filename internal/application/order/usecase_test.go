package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	domain "github.com/sofkify/shop/internal/domain/order"
	domoutbox "github.com/sofkify/shop/internal/domain/outbox"
	"github.com/sofkify/shop/internal/infrastructure/memory"
)

type fakeCartReader struct {
	carts map[string]CartSnapshot
	err   error
	delay time.Duration
}

func (f *fakeCartReader) GetCart(ctx context.Context, cartID string) (CartSnapshot, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return CartSnapshot{}, ctx.Err()
		}
	}
	if f.err != nil {
		return CartSnapshot{}, f.err
	}
	snapshot, ok := f.carts[cartID]
	if !ok {
		return CartSnapshot{}, fmt.Errorf("%w: %s", ErrCartNotFound, cartID)
	}
	return snapshot, nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
	err    error
}

func (p *capturingPublisher) Publish(ctx context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *capturingPublisher) published() []domoutbox.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domoutbox.Event(nil), p.events...)
}

type seqIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGen) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func validSnapshot(cartID string) CartSnapshot {
	return CartSnapshot{
		ID:         cartID,
		CustomerID: "customer-1",
		Items: []CartItemSnapshot{
			{ProductID: "product-1", ProductName: "Keyboard", ProductPrice: decimal.NewFromInt(10), Quantity: 2},
			{ProductID: "product-2", ProductName: "Mouse", ProductPrice: decimal.NewFromInt(5), Quantity: 1},
		},
	}
}

func newTestUseCase(reader CartReader, pub domoutbox.Publisher) (*CreateOrderUseCase, *memory.OrderRepository) {
	repo := memory.NewOrderRepository()
	uc := NewCreateOrderUseCase(repo, reader, pub, &seqIDGen{}, time.Second, time.Second, nil)
	return uc, repo
}

func TestCreateOrderSuccess(t *testing.T) {
	reader := &fakeCartReader{carts: map[string]CartSnapshot{"cart-1": validSnapshot("cart-1")}}
	pub := &capturingPublisher{}
	uc, repo := newTestUseCase(reader, pub)

	result, err := uc.Execute(context.Background(), CreateOrderInput{CartID: "cart-1"})
	require.NoError(t, err)

	assert.Equal(t, "cart-1", result.CartID)
	assert.Equal(t, "customer-1", result.CustomerID)
	assert.Equal(t, domain.StatusPendingPayment, result.Status)
	assert.True(t, result.TotalAmount.Equal(decimal.NewFromInt(25)), "total was %s", result.TotalAmount)
	require.Len(t, result.Items(), 2)

	stored, err := repo.FindByID(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, stored.ID)

	events := pub.published()
	require.Len(t, events, 1)
	evt, ok := events[0].(domain.OrderCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, result.ID, evt.OrderID)
	assert.Len(t, evt.Items, 2)
}

func TestCreateOrderSnapshotIsFrozen(t *testing.T) {
	snapshot := validSnapshot("cart-1")
	reader := &fakeCartReader{carts: map[string]CartSnapshot{"cart-1": snapshot}}
	uc, _ := newTestUseCase(reader, &capturingPublisher{})

	result, err := uc.Execute(context.Background(), CreateOrderInput{CartID: "cart-1"})
	require.NoError(t, err)

	// Mutating the cart afterwards must not reach the stored order.
	reader.carts["cart-1"].Items[0] = CartItemSnapshot{
		ProductID: "product-1", ProductName: "Changed", ProductPrice: decimal.NewFromInt(99), Quantity: 9,
	}
	assert.Equal(t, "Keyboard", result.Items()[0].ProductName)
	assert.True(t, result.TotalAmount.Equal(decimal.NewFromInt(25)))
}

func TestCreateOrderCartNotFound(t *testing.T) {
	reader := &fakeCartReader{carts: map[string]CartSnapshot{}}
	uc, _ := newTestUseCase(reader, &capturingPublisher{})

	_, err := uc.Execute(context.Background(), CreateOrderInput{CartID: "missing"})
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	reader := &fakeCartReader{carts: map[string]CartSnapshot{
		"cart-1": {ID: "cart-1", CustomerID: "customer-1"},
	}}
	pub := &capturingPublisher{}
	uc, _ := newTestUseCase(reader, pub)

	_, err := uc.Execute(context.Background(), CreateOrderInput{CartID: "cart-1"})
	assert.ErrorIs(t, err, ErrInvalidCart)
	assert.Empty(t, pub.published())
}

func TestCreateOrderConflictOnSecondCall(t *testing.T) {
	reader := &fakeCartReader{carts: map[string]CartSnapshot{"cart-1": validSnapshot("cart-1")}}
	pub := &capturingPublisher{}
	uc, _ := newTestUseCase(reader, pub)

	_, err := uc.Execute(context.Background(), CreateOrderInput{CartID: "cart-1"})
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), CreateOrderInput{CartID: "cart-1"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, pub.published(), 1)
}

func TestCreateOrderConcurrentSameCart(t *testing.T) {
	reader := &fakeCartReader{carts: map[string]CartSnapshot{"cart-1": validSnapshot("cart-1")}}
	pub := &capturingPublisher{}
	uc, repo := newTestUseCase(reader, pub)

	const workers = 8
	var g errgroup.Group
	results := make([]error, workers)

	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			_, results[i] = uc.Execute(context.Background(), CreateOrderInput{CartID: "cart-1"})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var wins int
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, domain.ErrConflict)
		}
	}
	assert.Equal(t, 1, wins)

	orders, err := repo.ListByCustomerID(context.Background(), "customer-1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Len(t, pub.published(), 1)
}

func TestCreateOrderCartTimeout(t *testing.T) {
	reader := &fakeCartReader{
		carts: map[string]CartSnapshot{"cart-1": validSnapshot("cart-1")},
		delay: 500 * time.Millisecond,
	}
	repo := memory.NewOrderRepository()
	uc := NewCreateOrderUseCase(repo, reader, &capturingPublisher{}, &seqIDGen{}, 20*time.Millisecond, time.Second, nil)

	_, err := uc.Execute(context.Background(), CreateOrderInput{CartID: "cart-1"})
	assert.ErrorIs(t, err, ErrCartUnavailable)
}

func TestCreateOrderPublishFailureDoesNotFail(t *testing.T) {
	reader := &fakeCartReader{carts: map[string]CartSnapshot{"cart-1": validSnapshot("cart-1")}}
	pub := &capturingPublisher{err: errors.New("bus down")}
	uc, repo := newTestUseCase(reader, pub)

	result, err := uc.Execute(context.Background(), CreateOrderInput{CartID: "cart-1"})
	require.NoError(t, err)

	stored, err := repo.FindByID(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, stored.ID)
}

func TestUpdateStatusService(t *testing.T) {
	repo := memory.NewOrderRepository()
	svc := NewService(repo, nil)
	ctx := context.Background()

	item, err := domain.NewItem("item-1", "product-1", "Keyboard", decimal.NewFromInt(10), 1)
	require.NoError(t, err)
	o, err := domain.New("order-1", "cart-1", "customer-1", []domain.Item{item})
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, o))

	updated, err := svc.UpdateStatus(ctx, "order-1", "PAID")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, updated.Status)

	_, err = svc.UpdateStatus(ctx, "order-1", "BOGUS")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = svc.UpdateStatus(ctx, "missing", "PAID")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.UpdateStatus(ctx, "order-1", "CANCELLED")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, "order-1", "SHIPPED")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	stored, err := repo.FindByID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
}
