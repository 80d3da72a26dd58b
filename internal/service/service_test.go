package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/online-shop/internal/credential"
	"github.com/mmeshcher/online-shop/internal/model"
	"github.com/mmeshcher/online-shop/internal/payment"
	"github.com/mmeshcher/online-shop/internal/repository"
	"github.com/mmeshcher/online-shop/internal/session"
)

type stubRepo struct {
	mu sync.Mutex

	users    map[string]*model.User
	products map[string]model.Product
	orders   []model.Order

	lookups        int
	getUserErr     error
	createOrderErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users: make(map[string]*model.User),
		products: map[string]model.Product{
			"p-mug":  {ID: "p-mug", Title: "Mug", Price: 9.999},
			"p-book": {ID: "p-book", Title: "Book", Price: 12.5},
		},
	}
}

func (s *stubRepo) CreateUser(ctx context.Context, u *model.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.Email]; ok {
		return "", repository.ErrUserExists
	}
	stored := *u
	stored.ID = fmt.Sprintf("u%d", len(s.users)+1)
	s.users[u.Email] = &stored
	return stored.ID, nil
}

func (s *stubRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lookups++
	if s.getUserErr != nil {
		return nil, s.getUserErr
	}
	u, ok := s.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *stubRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *stubRepo) ListProducts(ctx context.Context) ([]model.Product, error) {
	res := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		res = append(res, p)
	}
	return res, nil
}

func (s *stubRepo) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (s *stubRepo) CreateOrder(ctx context.Context, o *model.Order) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createOrderErr != nil {
		return "", s.createOrderErr
	}
	stored := *o
	stored.ID = fmt.Sprintf("o%d", len(s.orders)+1)
	stored.Items = append([]model.OrderItem(nil), o.Items...)
	s.orders = append(s.orders, stored)
	return stored.ID, nil
}

func (s *stubRepo) GetOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	var res []model.Order
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].UserID == userID {
			res = append(res, s.orders[i])
		}
	}
	return res, nil
}

type stubPayments struct {
	calls []payment.CheckoutRequest
	err   error
}

func (p *stubPayments) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	p.calls = append(p.calls, req)
	if p.err != nil {
		return nil, p.err
	}
	return &payment.CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil
}

type fixture struct {
	svc      *Service
	repo     *stubRepo
	creds    *credential.Store
	payments *stubPayments
	store    *session.MemoryStore
	sess     *session.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newStubRepo()
	creds := credential.NewStore(repo, bcrypt.MinCost)
	payments := &stubPayments{}
	svc := NewService(repo, creds, payments, "http://shop.local/")
	svc.now = func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) }
	store := session.NewMemoryStore(time.Hour)

	return &fixture{
		svc:      svc,
		repo:     repo,
		creds:    creds,
		payments: payments,
		store:    store,
		sess:     session.New("sid-1", store),
	}
}

func (f *fixture) signUpAndLogIn(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	intent, err := f.svc.SignUp(ctx, f.sess, validSignup())
	require.NoError(t, err)
	require.Equal(t, IntentLogin, intent)

	intent, err = f.svc.LogIn(ctx, f.sess, "jane@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, IntentHome, intent)
}

func TestPlaceOrder_PersistsSnapshotAndClearsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUpAndLogIn(t)

	_, err := f.svc.AddToCart(ctx, f.sess, "p-mug", 2)
	require.NoError(t, err)
	_, err = f.svc.AddToCart(ctx, f.sess, "p-book", 1)
	require.NoError(t, err)

	// Изменение каталога после добавления в корзину не влияет на заказ.
	f.repo.products["p-mug"] = model.Product{ID: "p-mug", Title: "Mug v2", Price: 100}

	placed, err := f.svc.PlaceOrder(ctx, f.sess)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs_1", placed.CheckoutURL)
	assert.Equal(t, "o1", placed.OrderID)

	require.Len(t, f.repo.orders, 1)
	order := f.repo.orders[0]
	assert.Equal(t, "u1", order.UserID)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, "Jane Doe", order.User.FullName)
	assert.Equal(t, []model.OrderItem{
		{ProductID: "p-mug", Title: "Mug", Price: 9.999, Quantity: 2},
		{ProductID: "p-book", Title: "Book", Price: 12.5, Quantity: 1},
	}, order.Items)

	cart, err := f.sess.Cart(ctx)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	require.Len(t, f.payments.calls, 1)
	req := f.payments.calls[0]
	assert.Equal(t, []payment.LineItem{
		{Name: "Mug", UnitAmount: 999, Quantity: 2},
		{Name: "Book", UnitAmount: 1250, Quantity: 1},
	}, req.Items)
	assert.Equal(t, "http://shop.local/orders/success", req.SuccessURL)
	assert.Equal(t, "http://shop.local/orders/failure", req.CancelURL)
	assert.Equal(t, "o1", req.ClientReferenceID)
}

func TestPlaceOrder_Unauthorized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, f.sess, "p-mug", 1)
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(ctx, f.sess)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, f.repo.orders)
	assert.Empty(t, f.payments.calls)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newFixture(t)
	f.signUpAndLogIn(t)

	_, err := f.svc.PlaceOrder(context.Background(), f.sess)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, f.repo.orders)
	assert.Empty(t, f.payments.calls)
}

func TestPlaceOrder_StaleUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.sess.BindUser(ctx, model.AuthBinding{UserID: "deleted"}))
	_, err := f.svc.AddToCart(ctx, f.sess, "p-mug", 1)
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(ctx, f.sess)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	assert.Empty(t, f.repo.orders)
}

func TestPlaceOrder_PersistenceFailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUpAndLogIn(t)

	_, err := f.svc.AddToCart(ctx, f.sess, "p-mug", 3)
	require.NoError(t, err)

	dbErr := errors.New("connection reset by peer")
	f.repo.createOrderErr = dbErr

	_, err = f.svc.PlaceOrder(ctx, f.sess)
	assert.ErrorIs(t, err, dbErr)
	assert.Empty(t, f.payments.calls, "payment must not be requested without a saved order")

	cart, err := f.sess.Cart(ctx)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestPlaceOrder_PaymentFailureLeavesOrphanedOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signUpAndLogIn(t)

	_, err := f.svc.AddToCart(ctx, f.sess, "p-book", 1)
	require.NoError(t, err)

	f.payments.err = payment.ErrProvider

	placed, err := f.svc.PlaceOrder(ctx, f.sess)
	assert.ErrorIs(t, err, ErrPaymentSession)
	require.NotNil(t, placed)
	assert.Equal(t, "o1", placed.OrderID)
	assert.Empty(t, placed.CheckoutURL)

	assert.Len(t, f.repo.orders, 1)
	cart, err := f.sess.Cart(ctx)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestGetOrdersByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orders, err := f.svc.GetOrdersByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)

	f.signUpAndLogIn(t)
	for i := 0; i < 2; i++ {
		_, err = f.svc.AddToCart(ctx, f.sess, "p-mug", i+1)
		require.NoError(t, err)
		_, err = f.svc.PlaceOrder(ctx, f.sess)
		require.NoError(t, err)
	}

	orders, err = f.svc.GetOrdersByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o2", orders[0].ID)
	assert.Equal(t, 2, orders[0].Items[0].Quantity)
}

func TestAddToCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, f.sess, "p-mug", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.svc.AddToCart(ctx, f.sess, "missing", 1)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	_, err = f.svc.AddToCart(ctx, f.sess, "p-mug", 1)
	require.NoError(t, err)
	cart, err := f.svc.AddToCart(ctx, f.sess, "p-mug", 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.TotalQuantity)
}

func TestUpdateCartItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, f.sess, "p-mug", 1)
	require.NoError(t, err)

	cart, err := f.svc.UpdateCartItem(ctx, f.sess, "p-mug", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.TotalQuantity)

	_, err = f.svc.UpdateCartItem(ctx, f.sess, "p-mug", -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.svc.UpdateCartItem(ctx, f.sess, "p-book", 1)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	cart, err = f.svc.UpdateCartItem(ctx, f.sess, "p-mug", 0)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}
