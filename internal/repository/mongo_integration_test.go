//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/online-shop/internal/model"
)

// Запуск: MONGO_TEST_URI=mongodb://localhost:27017 go test -tags integration ./internal/repository/
func newMongoRepository(t *testing.T) *MongoRepository {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI is not set")
	}

	ctx := context.Background()
	dbName := "shop_repo_test_" + uuid.NewString()[:8]
	repo, err := NewMongoRepository(ctx, uri, dbName)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = repo.users.Database().Drop(context.Background())
		_ = repo.Close()
	})
	return repo
}

func TestMongoRepository_Users(t *testing.T) {
	repo := newMongoRepository(t)
	ctx := context.Background()

	id, err := repo.CreateUser(ctx, &model.User{Email: "jane@example.com", PasswordHash: []byte("digest"), FullName: "Jane"})
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, &model.User{Email: "jane@example.com", PasswordHash: []byte("other")})
	assert.ErrorIs(t, err, ErrUserExists)

	u, err := repo.GetUserByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, []byte("digest"), u.PasswordHash)

	_, err = repo.GetUserByEmail(ctx, "Jane@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	u, err = repo.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Jane", u.FullName)
}

func TestMongoRepository_SeededCatalog(t *testing.T) {
	repo := newMongoRepository(t)
	ctx := context.Background()

	products, err := repo.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, len(seedProducts))

	p, err := repo.GetProduct(ctx, seedProducts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, seedProducts[0].Title, p.Title)

	_, err = repo.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestMongoRepository_OrdersNewestFirst(t *testing.T) {
	repo := newMongoRepository(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	for i, title := range []string{"first", "second"} {
		_, err := repo.CreateOrder(ctx, &model.Order{
			UserID:    "u1",
			User:      model.OrderUser{Email: "jane@example.com"},
			Items:     []model.OrderItem{{ProductID: "p1", Title: title, Price: 9.99, Quantity: i + 1}},
			Status:    model.OrderStatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	orders, err := repo.GetOrdersByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "second", orders[0].Items[0].Title)
	assert.Equal(t, 2, orders[0].Items[0].Quantity)
	assert.Equal(t, model.OrderStatusPending, orders[1].Status)

	orders, err = repo.GetOrdersByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, orders)
}
