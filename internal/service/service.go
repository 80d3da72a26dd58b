// Package service реализует бизнес-логику интернет-магазина: регистрацию и вход,
// работу с корзиной и оформление заказов.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmeshcher/online-shop/internal/model"
	"github.com/mmeshcher/online-shop/internal/payment"
)

var (
	// ErrUnauthorized возвращается, если операция требует входа, а сессия анонимна.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEmptyCart возвращается при попытке оформить заказ с пустой корзиной.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidQuantity возвращается при недопустимом количестве товара.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrPaymentSession возвращается, если заказ сохранён, а сессию оплаты создать не удалось.
	ErrPaymentSession = errors.New("payment session not created")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	CreateUser(ctx context.Context, u *model.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateOrder(ctx context.Context, o *model.Order) (string, error)
	GetOrdersByUser(ctx context.Context, userID string) ([]model.Order, error)
}

// Credentials описывает хранилище учётных данных.
type Credentials interface {
	Exists(ctx context.Context, email string) (bool, error)
	Hash(plaintext string) ([]byte, error)
	Verify(plaintext string, digest []byte) (bool, error)
}

// PaymentGateway описывает создание сессии оплаты у внешнего провайдера.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error)
}

// Service содержит бизнес-логику интернет-магазина.
type Service struct {
	repo     Repository
	creds    Credentials
	payments PaymentGateway
	baseURL  string
	now      func() time.Time
}

// NewService создаёт сервис. baseURL используется для адресов возврата после оплаты.
func NewService(repo Repository, creds Credentials, payments PaymentGateway, baseURL string) *Service {
	return &Service{
		repo:     repo,
		creds:    creds,
		payments: payments,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
	}
}

// Intent указывает, куда перенаправить клиента после операции.
type Intent int

const (
	// IntentRetrySignup: вернуть на форму регистрации, во flash лежит ошибка.
	IntentRetrySignup Intent = iota
	// IntentLogin: перейти на форму входа.
	IntentLogin
	// IntentRetryLogin: вернуть на форму входа, во flash лежит ошибка.
	IntentRetryLogin
	// IntentHome: перейти на главную.
	IntentHome
)
