package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddItemMergesSameProduct(t *testing.T) {
	var c Cart
	mug := Product{ID: "p1", Title: "Mug", Price: 9.5}
	book := Product{ID: "p2", Title: "Book", Price: 20}

	c.AddItem(mug, 1)
	c.AddItem(book, 1)
	c.AddItem(mug, 2)

	require.Len(t, c.Items, 2)
	assert.Equal(t, "p1", c.Items[0].Product.ID)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.InDelta(t, 28.5, c.Items[0].TotalPrice, 1e-9)
	assert.Equal(t, 4, c.TotalQuantity)
	assert.InDelta(t, 48.5, c.TotalPrice, 1e-9)
}

func TestCart_UpdateItem(t *testing.T) {
	var c Cart
	c.AddItem(Product{ID: "p1", Price: 2}, 1)
	c.AddItem(Product{ID: "p2", Price: 3}, 1)

	assert.True(t, c.UpdateItem("p1", 5))
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.InDelta(t, 13.0, c.TotalPrice, 1e-9)

	assert.True(t, c.UpdateItem("p2", 0))
	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.TotalQuantity)

	assert.False(t, c.UpdateItem("missing", 1))
}

func TestCart_IsEmpty(t *testing.T) {
	var nilCart *Cart
	assert.True(t, nilCart.IsEmpty())
	assert.True(t, (&Cart{}).IsEmpty())

	c := &Cart{}
	c.AddItem(Product{ID: "p1"}, 1)
	assert.False(t, c.IsEmpty())
}
