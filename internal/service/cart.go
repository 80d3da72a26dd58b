package service

import (
	"context"
	"fmt"

	"github.com/mmeshcher/online-shop/internal/model"
	"github.com/mmeshcher/online-shop/internal/repository"
	"github.com/mmeshcher/online-shop/internal/session"
)

// ListProducts возвращает каталог товаров.
func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.repo.ListProducts(ctx)
}

// GetProduct возвращает товар каталога.
func (s *Service) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// GetCart возвращает корзину сессии.
func (s *Service) GetCart(ctx context.Context, sess *session.Session) (*model.Cart, error) {
	return sess.Cart(ctx)
}

// AddToCart кладёт товар в корзину, запоминая его название и цену на текущий момент.
func (s *Service) AddToCart(ctx context.Context, sess *session.Session, productID string, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := sess.Cart(ctx)
	if err != nil {
		return nil, err
	}

	cart.AddItem(*product, quantity)

	if err := sess.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}

// UpdateCartItem меняет количество товара в корзине; 0 удаляет строку.
func (s *Service) UpdateCartItem(ctx context.Context, sess *session.Session, productID string, quantity int) (*model.Cart, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	cart, err := sess.Cart(ctx)
	if err != nil {
		return nil, err
	}

	if !cart.UpdateItem(productID, quantity) {
		return nil, repository.ErrProductNotFound
	}

	if err := sess.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}
