package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLineItems(t *testing.T) {
	items := BuildLineItems(CheckoutRequest{
		Items: []LineItem{
			{Name: "Apple", UnitPrice: 90, Quantity: 2},
			{Name: "Milk", UnitPrice: 60, Quantity: 1},
		},
		Surcharge: 4,
	}, "inr")

	require.Len(t, items, 3)

	assert.Equal(t, "Apple", *items[0].PriceData.ProductData.Name)
	assert.Equal(t, int64(9000), *items[0].PriceData.UnitAmount)
	assert.Equal(t, int64(2), *items[0].Quantity)
	assert.Equal(t, "inr", *items[0].PriceData.Currency)

	assert.Equal(t, surchargeLabel, *items[2].PriceData.ProductData.Name)
	assert.Equal(t, int64(400), *items[2].PriceData.UnitAmount)
	assert.Equal(t, int64(1), *items[2].Quantity)
}

func TestBuildLineItems_NoSurcharge(t *testing.T) {
	items := BuildLineItems(CheckoutRequest{
		Items: []LineItem{{Name: "Salt", UnitPrice: 20, Quantity: 1}},
	}, "usd")

	require.Len(t, items, 1)
	assert.Equal(t, int64(2000), *items[0].PriceData.UnitAmount)
}
