// Package repository содержит реализации хранилища пользователей, каталога и заказов
// в PostgreSQL и MongoDB.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmeshcher/online-shop/internal/model"
)

const connectTimeout = 10 * time.Second

var (
	// ErrUserExists возвращается при попытке создать пользователя с уже существующей почтой.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrProductNotFound возвращается, если товар не найден.
	ErrProductNotFound = errors.New("product not found")
	// ErrUnavailable возвращается, если хранилище недоступно.
	ErrUnavailable = errors.New("storage unavailable")
)

// Repository объединяет операции, которые предоставляет любое хранилище.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, u *model.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateOrder(ctx context.Context, o *model.Order) (string, error)
	GetOrdersByUser(ctx context.Context, userID string) ([]model.Order, error)
}

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*MongoRepository)(nil)
)

// Open подключается к хранилищу, выбирая реализацию по схеме URI.
// dbName используется только для MongoDB.
func Open(ctx context.Context, uri, dbName string) (Repository, error) {
	switch {
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		repo, err := NewPostgresRepository(ctx, uri)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		repo, err := NewMongoRepository(ctx, uri, dbName)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case uri == "":
		return nil, errors.New("database uri is empty")
	default:
		return nil, fmt.Errorf("unsupported database uri scheme: %q", uri)
	}
}
