package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	_, err := New("product-1", "", "desc", decimal.NewFromInt(10), 5)
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = New("product-1", "Keyboard", "desc", decimal.Zero, 5)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = New("product-1", "Keyboard", "desc", decimal.NewFromInt(10), -1)
	assert.ErrorIs(t, err, ErrInvalidStock)

	p, err := New("product-1", "Keyboard", "desc", decimal.NewFromInt(10), 0)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, p.Status)
	assert.True(t, p.IsActive())
}

func TestDecrementStock(t *testing.T) {
	p, err := New("product-1", "Keyboard", "desc", decimal.NewFromInt(10), 3)
	require.NoError(t, err)

	require.NoError(t, p.DecrementStock(2))
	assert.Equal(t, 1, p.Stock)

	require.NoError(t, p.DecrementStock(1))
	assert.Equal(t, 0, p.Stock)
}

func TestDecrementStockErrorsLeaveStockUntouched(t *testing.T) {
	p, err := New("product-1", "Keyboard", "desc", decimal.NewFromInt(10), 3)
	require.NoError(t, err)

	assert.ErrorIs(t, p.DecrementStock(0), ErrInvalidQuantity)
	assert.Equal(t, 3, p.Stock)

	assert.ErrorIs(t, p.DecrementStock(5), ErrInsufficientStock)
	assert.Equal(t, 3, p.Stock)
}
