package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustItem(t *testing.T, id, productID string, price int64, quantity int) Item {
	t.Helper()
	item, err := NewItem(id, productID, "Product "+productID, decimal.NewFromInt(price), quantity)
	require.NoError(t, err)
	return item
}

func TestNewItemValidation(t *testing.T) {
	_, err := NewItem("item-1", "product-1", "Keyboard", decimal.NewFromInt(10), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewItem("item-1", "product-1", "Keyboard", decimal.NewFromInt(-1), 1)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = NewItem("item-1", "product-1", "", decimal.NewFromInt(10), 1)
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestNewComputesTotal(t *testing.T) {
	items := []Item{
		mustItem(t, "item-1", "product-1", 10, 2),
		mustItem(t, "item-2", "product-2", 5, 1),
	}

	o, err := New("order-1", "cart-1", "customer-1", items)
	require.NoError(t, err)

	assert.Equal(t, StatusPendingPayment, o.Status)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(25)), "total was %s", o.TotalAmount)
	assert.Len(t, o.Items(), 2)
}

func TestNewRejectsEmptyOrder(t *testing.T) {
	_, err := New("order-1", "cart-1", "customer-1", nil)
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestParseStatus(t *testing.T) {
	for _, s := range []Status{
		StatusPendingPayment, StatusPaid, StatusConfirmed,
		StatusShipped, StatusDelivered, StatusCancelled, StatusFailed,
	} {
		parsed, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStatus("REFUNDED")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatus(t *testing.T) {
	o, err := New("order-1", "cart-1", "customer-1", []Item{mustItem(t, "item-1", "product-1", 10, 1)})
	require.NoError(t, err)

	// Transitions are permissive as long as the order is not cancelled.
	require.NoError(t, o.UpdateStatus(StatusDelivered))
	require.NoError(t, o.UpdateStatus(StatusPaid))
	require.NoError(t, o.UpdateStatus(StatusCancelled))

	err = o.UpdateStatus(StatusShipped)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.Equal(t, StatusCancelled, o.Status)

	// Re-cancelling a cancelled order stays allowed.
	assert.NoError(t, o.UpdateStatus(StatusCancelled))
}

func TestUpdateStatusUnknown(t *testing.T) {
	o, err := New("order-1", "cart-1", "customer-1", []Item{mustItem(t, "item-1", "product-1", 10, 1)})
	require.NoError(t, err)

	assert.ErrorIs(t, o.UpdateStatus("NOT_A_STATUS"), ErrInvalidStatus)
	assert.Equal(t, StatusPendingPayment, o.Status)
}

func TestOrderCreatedEvent(t *testing.T) {
	o, err := New("order-1", "cart-1", "customer-1", []Item{
		mustItem(t, "item-1", "product-1", 10, 2),
		mustItem(t, "item-2", "product-2", 5, 1),
	})
	require.NoError(t, err)

	evt := NewOrderCreatedEvent(o)
	assert.Equal(t, "order.created", evt.EventName())
	assert.Equal(t, "order-1", evt.OrderID)
	assert.Equal(t, "customer-1", evt.CustomerID)
	require.Len(t, evt.Items, 2)
	assert.Equal(t, "product-1", evt.Items[0].ProductID)
	assert.Equal(t, 2, evt.Items[0].Quantity)
}
