// Package model содержит доменные сущности интернет-магазина.
package model

import "time"

// User представляет зарегистрированного покупателя.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	FullName     string
	Street       string
	PostalCode   string
	City         string
	IsAdmin      bool
	CreatedAt    time.Time
}

// Product описывает позицию каталога.
type Product struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Summary string  `json:"summary"`
	Price   float64 `json:"price"`
	Image   string  `json:"image,omitempty"`
}

// CartItem описывает строку корзины: снимок товара и количество.
type CartItem struct {
	Product    Product `json:"product"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"totalPrice"`
}

// Cart хранит выбранные товары в сессии покупателя.
type Cart struct {
	Items         []CartItem `json:"items"`
	TotalQuantity int        `json:"totalQuantity"`
	TotalPrice    float64    `json:"totalPrice"`
}

// IsEmpty сообщает, что в корзине нет ни одной строки.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// OrderStatus описывает статус заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderItem содержит неизменяемый снимок товара на момент оформления заказа.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// OrderUser содержит снимок данных покупателя на момент оформления заказа.
type OrderUser struct {
	Email      string `json:"email"`
	FullName   string `json:"fullname"`
	Street     string `json:"street"`
	PostalCode string `json:"postal"`
	City       string `json:"city"`
}

// Order описывает оформленный заказ пользователя.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	User      OrderUser   `json:"user"`
	Items     []OrderItem `json:"items"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}

// AuthBinding хранит привязку аутентифицированного пользователя к сессии.
type AuthBinding struct {
	UserID  string `json:"userId"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
}

// Flash содержит одноразовые данные, переживающие ровно один редирект.
type Flash map[string]string
