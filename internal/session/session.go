// Package session содержит серверное хранилище сессий покупателей.
//
// Данные сессии разложены по независимым пространствам имён (привязка
// аутентификации, корзина, flash-данные), каждое хранится отдельным значением
// в хранилище ключ-значение.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmeshcher/online-shop/internal/model"
)

var (
	// ErrNotFound возвращается хранилищем, если значения нет.
	ErrNotFound = errors.New("session value not found")
	// ErrStoreUnavailable возвращается, если хранилище сессий недоступно.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Пространства имён внутри одной сессии.
const (
	NamespaceAuth  = "auth"
	NamespaceCart  = "cart"
	NamespaceFlash = "flash"
)

// Store описывает хранилище значений сессии.
type Store interface {
	// Get возвращает значение или ErrNotFound.
	Get(ctx context.Context, sid, namespace string) ([]byte, error)
	// Set сохраняет значение; возврат без ошибки означает, что запись сохранена.
	Set(ctx context.Context, sid, namespace string, value []byte) error
	// Take атомарно читает и удаляет значение.
	Take(ctx context.Context, sid, namespace string) ([]byte, error)
	// Delete удаляет значение; отсутствие значения не является ошибкой.
	Delete(ctx context.Context, sid, namespace string) error
}

// Session связывает идентификатор сессии с хранилищем.
type Session struct {
	ID    string
	store Store
}

// New создаёт дескриптор сессии.
func New(id string, store Store) *Session {
	return &Session{ID: id, store: store}
}

func (s *Session) load(ctx context.Context, namespace string, v any) (bool, error) {
	raw, err := s.store.Get(ctx, s.ID, namespace)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode session %s: %w", namespace, err)
	}
	return true, nil
}

func (s *Session) save(ctx context.Context, namespace string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", namespace, err)
	}
	return s.store.Set(ctx, s.ID, namespace, raw)
}

// Auth возвращает привязку пользователя или nil для анонимной сессии.
func (s *Session) Auth(ctx context.Context) (*model.AuthBinding, error) {
	var b model.AuthBinding
	ok, err := s.load(ctx, NamespaceAuth, &b)
	if err != nil || !ok || b.UserID == "" {
		return nil, err
	}
	return &b, nil
}

// BindUser переводит сессию в аутентифицированное состояние.
func (s *Session) BindUser(ctx context.Context, b model.AuthBinding) error {
	return s.save(ctx, NamespaceAuth, b)
}

// ClearAuth возвращает сессию в анонимное состояние, не трогая корзину и flash-данные.
func (s *Session) ClearAuth(ctx context.Context) error {
	return s.store.Delete(ctx, s.ID, NamespaceAuth)
}

// Cart возвращает корзину сессии; для новой сессии корзина пустая.
func (s *Session) Cart(ctx context.Context) (*model.Cart, error) {
	cart := &model.Cart{}
	if _, err := s.load(ctx, NamespaceCart, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// SaveCart сохраняет корзину в сессии.
func (s *Session) SaveCart(ctx context.Context, cart *model.Cart) error {
	return s.save(ctx, NamespaceCart, cart)
}

// ClearCart удаляет корзину из сессии.
func (s *Session) ClearCart(ctx context.Context) error {
	return s.store.Delete(ctx, s.ID, NamespaceCart)
}

// Regenerate переносит сессию на новый идентификатор. Корзина переезжает,
// привязка пользователя и flash-данные старого идентификатора удаляются.
func (s *Session) Regenerate(ctx context.Context) error {
	newID := uuid.NewString()

	cart, err := s.store.Get(ctx, s.ID, NamespaceCart)
	switch {
	case err == nil:
		if err := s.store.Set(ctx, newID, NamespaceCart, cart); err != nil {
			return fmt.Errorf("regenerate session: %w", err)
		}
	case !errors.Is(err, ErrNotFound):
		return fmt.Errorf("regenerate session: %w", err)
	}

	for _, ns := range []string{NamespaceAuth, NamespaceCart, NamespaceFlash} {
		if err := s.store.Delete(ctx, s.ID, ns); err != nil {
			return fmt.Errorf("regenerate session: %w", err)
		}
	}

	s.ID = newID
	return nil
}

type ctxKey struct{}

// NewContext кладёт сессию в контекст запроса.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext извлекает сессию из контекста запроса.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}
