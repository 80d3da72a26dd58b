package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmeshcher/online-shop/internal/model"
)

// SetFlash перезаписывает flash-данные сессии. Ошибка сохранения возвращается
// вызывающему, редирект можно отправлять только после успешного возврата.
func (s *Session) SetFlash(ctx context.Context, payload model.Flash) error {
	if err := s.save(ctx, NamespaceFlash, payload); err != nil {
		return fmt.Errorf("flash to session: %w", err)
	}
	return nil
}

// ConsumeFlash возвращает flash-данные и одновременно удаляет их.
// Если данных нет, возвращает nil без ошибки.
func (s *Session) ConsumeFlash(ctx context.Context) (model.Flash, error) {
	raw, err := s.store.Take(ctx, s.ID, NamespaceFlash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("consume flash: %w", err)
	}

	var payload model.Flash
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode flash: %w", err)
	}
	if len(payload) == 0 {
		return nil, nil
	}
	return payload, nil
}
