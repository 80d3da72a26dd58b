// Package credential реализует хранилище учётных данных: хеширование и проверку паролей,
// а также проверку уникальности адреса почты.
package credential

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/online-shop/internal/model"
	"github.com/mmeshcher/online-shop/internal/repository"
)

var (
	// ErrCorruptCredential возвращается, если сохранённый хеш пароля повреждён.
	ErrCorruptCredential = errors.New("corrupt credential")
	// ErrStoreUnavailable возвращается, если хранилище пользователей недоступно.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// DefaultCost используется, если стоимость bcrypt не задана в конфигурации.
const DefaultCost = 12

// UserFinder описывает поиск пользователя по адресу почты.
type UserFinder interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// Store проверяет и хеширует пароли с помощью bcrypt.
type Store struct {
	users UserFinder
	cost  int
}

// NewStore создаёт хранилище учётных данных с заданной стоимостью bcrypt.
func NewStore(users UserFinder, cost int) *Store {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Store{users: users, cost: cost}
}

// Exists сообщает, зарегистрирован ли пользователь с указанной почтой.
// Сравнение почты чувствительно к регистру.
func (s *Store) Exists(ctx context.Context, email string) (bool, error) {
	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrUserNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// Hash возвращает солёный bcrypt-хеш пароля.
func (s *Store) Hash(plaintext string) ([]byte, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return digest, nil
}

// Verify сравнивает пароль с хешем. Несовпадение не является ошибкой.
func (s *Store) Verify(plaintext string, digest []byte) (bool, error) {
	err := bcrypt.CompareHashAndPassword(digest, []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrCorruptCredential, err)
	}
}
