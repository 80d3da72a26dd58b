package model

// AddItem добавляет товар в корзину или увеличивает количество уже добавленного.
func (c *Cart) AddItem(p Product, quantity int) {
	for i := range c.Items {
		if c.Items[i].Product.ID == p.ID {
			c.Items[i].Quantity += quantity
			c.Items[i].TotalPrice = float64(c.Items[i].Quantity) * c.Items[i].Product.Price
			c.recalculate()
			return
		}
	}

	c.Items = append(c.Items, CartItem{
		Product:    p,
		Quantity:   quantity,
		TotalPrice: float64(quantity) * p.Price,
	})
	c.recalculate()
}

// UpdateItem задаёт новое количество товара; нулевое количество удаляет строку.
// Возвращает false, если товара нет в корзине.
func (c *Cart) UpdateItem(productID string, quantity int) bool {
	for i := range c.Items {
		if c.Items[i].Product.ID != productID {
			continue
		}
		if quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = quantity
			c.Items[i].TotalPrice = float64(quantity) * c.Items[i].Product.Price
		}
		c.recalculate()
		return true
	}
	return false
}

func (c *Cart) recalculate() {
	c.TotalQuantity = 0
	c.TotalPrice = 0
	for _, item := range c.Items {
		c.TotalQuantity += item.Quantity
		c.TotalPrice += item.TotalPrice
	}
}
