package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mmeshcher/online-shop/internal/model"
	"github.com/mmeshcher/online-shop/internal/payment"
	"github.com/mmeshcher/online-shop/internal/session"
)

// Пути, на которые провайдер возвращает покупателя после оплаты.
const (
	SuccessPath = "/orders/success"
	CancelPath  = "/orders/failure"
)

// PlacedOrder описывает результат оформления заказа.
type PlacedOrder struct {
	OrderID     string
	CheckoutURL string
}

// PlaceOrder превращает корзину сессии в сохранённый заказ и создаёт для него
// сессию оплаты.
//
// Корзина очищается только после сохранения заказа. Если сохранить заказ не
// удалось, корзина остаётся нетронутой. Если после сохранения не удалось создать
// сессию оплаты, заказ остаётся в хранилище без оплаты, а ошибка оборачивает
// ErrPaymentSession и содержит идентификатор заказа.
func (s *Service) PlaceOrder(ctx context.Context, sess *session.Session) (*PlacedOrder, error) {
	auth, err := sess.Auth(ctx)
	if err != nil {
		return nil, err
	}
	if auth == nil {
		return nil, ErrUnauthorized
	}

	cart, err := sess.Cart(ctx)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	user, err := s.repo.GetUserByID(ctx, auth.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve order user: %w", err)
	}

	order := newOrder(cart, user, s.now())

	orderID, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	order.ID = orderID

	if err := sess.ClearCart(ctx); err != nil {
		return &PlacedOrder{OrderID: orderID}, fmt.Errorf("clear cart after order %s: %w", orderID, err)
	}

	checkout, err := s.payments.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		Items:             lineItems(order),
		SuccessURL:        s.baseURL + SuccessPath,
		CancelURL:         s.baseURL + CancelPath,
		ClientReferenceID: orderID,
	})
	if err != nil {
		return &PlacedOrder{OrderID: orderID}, fmt.Errorf("%w: order %s: %v", ErrPaymentSession, orderID, err)
	}

	return &PlacedOrder{OrderID: orderID, CheckoutURL: checkout.URL}, nil
}

func newOrder(cart *model.Cart, user *model.User, now time.Time) *model.Order {
	order := &model.Order{
		UserID: user.ID,
		User: model.OrderUser{
			Email:      user.Email,
			FullName:   user.FullName,
			Street:     user.Street,
			PostalCode: user.PostalCode,
			City:       user.City,
		},
		Items:     make([]model.OrderItem, 0, len(cart.Items)),
		Status:    model.OrderStatusPending,
		CreatedAt: now.UTC(),
	}
	for _, line := range cart.Items {
		order.Items = append(order.Items, model.OrderItem{
			ProductID: line.Product.ID,
			Title:     line.Product.Title,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
		})
	}
	return order
}

func lineItems(order *model.Order) []payment.LineItem {
	items := make([]payment.LineItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, payment.LineItem{
			Name:       it.Title,
			UnitAmount: payment.UnitAmount(it.Price),
			Quantity:   it.Quantity,
		})
	}
	return items
}

// GetOrdersByUser возвращает заказы пользователя, начиная с самых новых.
func (s *Service) GetOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	orders, err := s.repo.GetOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}
