package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	domain "github.com/sofkify/shop/internal/domain/order"
)

func newTestOrder(t *testing.T, orderID, cartID string) *domain.Order {
	t.Helper()
	item, err := domain.NewItem("item-1", "product-1", "Keyboard", decimal.NewFromInt(10), 1)
	require.NoError(t, err)
	o, err := domain.New(orderID, cartID, "customer-1", []domain.Item{item})
	require.NoError(t, err)
	return o
}

func TestOrderInsertAndFind(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	o := newTestOrder(t, "order-1", "cart-1")
	require.NoError(t, repo.Insert(ctx, o))

	found, err := repo.FindByID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, o.ID, found.ID)
	assert.Equal(t, o.CartID, found.CartID)

	exists, err := repo.ExistsByCartID(ctx, "cart-1")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderInsertRejectsDuplicateCart(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newTestOrder(t, "order-1", "cart-1")))
	err := repo.Insert(ctx, newTestOrder(t, "order-2", "cart-1"))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestOrderInsertConcurrentSameCart(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	const workers = 16
	var g errgroup.Group
	results := make([]error, workers)

	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			results[i] = repo.Insert(ctx, newTestOrder(t, fmt.Sprintf("order-%d", i), "cart-1"))
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, domain.ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, conflicts)
}

func TestOrderUpdate(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	o := newTestOrder(t, "order-1", "cart-1")
	require.NoError(t, repo.Insert(ctx, o))

	require.NoError(t, o.UpdateStatus(domain.StatusPaid))
	require.NoError(t, repo.Update(ctx, o))

	found, err := repo.FindByID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, found.Status)

	assert.ErrorIs(t, repo.Update(ctx, newTestOrder(t, "missing", "cart-9")), domain.ErrNotFound)
}

func TestOrderListByCustomer(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, newTestOrder(t, "order-1", "cart-1")))
	require.NoError(t, repo.Insert(ctx, newTestOrder(t, "order-2", "cart-2")))

	orders, err := repo.ListByCustomerID(ctx, "customer-1")
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	orders, err = repo.ListByCustomerID(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, orders)
}
