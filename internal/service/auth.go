package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmeshcher/online-shop/internal/model"
	"github.com/mmeshcher/online-shop/internal/repository"
	"github.com/mmeshcher/online-shop/internal/session"
	"github.com/mmeshcher/online-shop/internal/validation"
)

// Сообщения flash-данных для форм регистрации и входа.
const (
	MsgInvalidSignup = "Please check your input. Password must be at least 6 characters " +
		"and at most 72 bytes long, postal code must be at least 5 characters long."
	MsgUserExists         = "User exists already! Try logging in instead!"
	MsgInvalidCredentials = "Invalid credentials - please double-check your email and password!"
)

// Ключи flash-данных.
const (
	FlashErrorMessage = "errorMessage"
	FlashEmail        = "email"
	FlashConfirmEmail = "confirmEmail"
	FlashPassword     = "password"
	FlashFullName     = "fullname"
	FlashStreet       = "street"
	FlashPostal       = "postal"
	FlashCity         = "city"
)

func signupFlash(message string, in validation.SignupInput) model.Flash {
	return model.Flash{
		FlashErrorMessage: message,
		FlashEmail:        in.Email,
		FlashConfirmEmail: in.ConfirmEmail,
		FlashFullName:     in.FullName,
		FlashStreet:       in.Street,
		FlashPostal:       in.PostalCode,
		FlashCity:         in.City,
	}
}

// SignUp регистрирует пользователя. Ошибки ввода и занятая почта не возвращаются
// как error: они записываются во flash сессии, а результатом будет IntentRetrySignup.
// После успешной регистрации сессия остаётся анонимной.
func (s *Service) SignUp(ctx context.Context, sess *session.Session, in validation.SignupInput) (Intent, error) {
	if !validation.SignupIsValid(in) {
		if err := sess.SetFlash(ctx, signupFlash(MsgInvalidSignup, in)); err != nil {
			return IntentRetrySignup, err
		}
		return IntentRetrySignup, nil
	}

	exists, err := s.creds.Exists(ctx, in.Email)
	if err != nil {
		return IntentRetrySignup, err
	}
	if exists {
		return s.flashUserExists(ctx, sess, in)
	}

	digest, err := s.creds.Hash(in.Password)
	if err != nil {
		return IntentRetrySignup, err
	}

	_, err = s.repo.CreateUser(ctx, &model.User{
		Email:        in.Email,
		PasswordHash: digest,
		FullName:     in.FullName,
		Street:       in.Street,
		PostalCode:   in.PostalCode,
		City:         in.City,
	})
	if err != nil {
		// Параллельная регистрация с той же почтой проходит проверку Exists.
		if errors.Is(err, repository.ErrUserExists) {
			return s.flashUserExists(ctx, sess, in)
		}
		return IntentRetrySignup, fmt.Errorf("sign up: %w", err)
	}

	return IntentLogin, nil
}

func (s *Service) flashUserExists(ctx context.Context, sess *session.Session, in validation.SignupInput) (Intent, error) {
	if err := sess.SetFlash(ctx, signupFlash(MsgUserExists, in)); err != nil {
		return IntentRetrySignup, err
	}
	return IntentRetrySignup, nil
}

// LogIn проверяет учётные данные и привязывает пользователя к сессии.
// Неизвестная почта и неверный пароль дают одинаковые flash-данные.
func (s *Service) LogIn(ctx context.Context, sess *session.Session, email, password string) (Intent, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return s.flashInvalidCredentials(ctx, sess, email)
		}
		return IntentRetryLogin, fmt.Errorf("log in: %w", err)
	}

	ok, err := s.creds.Verify(password, user.PasswordHash)
	if err != nil {
		return IntentRetryLogin, fmt.Errorf("log in: %w", err)
	}
	if !ok {
		return s.flashInvalidCredentials(ctx, sess, email)
	}

	// Идентификатор, выданный до входа, не должен стать идентификатором аутентифицированной сессии.
	if err := sess.Regenerate(ctx); err != nil {
		return IntentRetryLogin, fmt.Errorf("log in: %w", err)
	}

	if err := sess.BindUser(ctx, model.AuthBinding{UserID: user.ID, IsAdmin: user.IsAdmin}); err != nil {
		return IntentRetryLogin, fmt.Errorf("bind user to session: %w", err)
	}

	return IntentHome, nil
}

func (s *Service) flashInvalidCredentials(ctx context.Context, sess *session.Session, email string) (Intent, error) {
	err := sess.SetFlash(ctx, model.Flash{
		FlashErrorMessage: MsgInvalidCredentials,
		FlashEmail:        email,
		FlashPassword:     "",
	})
	if err != nil {
		return IntentRetryLogin, err
	}
	return IntentRetryLogin, nil
}

// LogOut очищает привязку пользователя. Корзина сессии сохраняется.
func (s *Service) LogOut(ctx context.Context, sess *session.Session) error {
	if err := sess.ClearAuth(ctx); err != nil {
		return fmt.Errorf("log out: %w", err)
	}
	return nil
}
