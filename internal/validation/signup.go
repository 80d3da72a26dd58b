// Package validation содержит функции валидации входных данных.
package validation

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	minPasswordLength   = 6
	minPostalCodeLength = 5
	// bcrypt отвергает пароли длиннее 72 байт.
	maxPasswordBytes = 72
)

// SignupInput описывает данные формы регистрации.
type SignupInput struct {
	Email        string
	ConfirmEmail string
	Password     string
	FullName     string
	Street       string
	PostalCode   string
	City         string
}

// IsValidEmail проверяет формат адреса электронной почты.
func IsValidEmail(email string) bool {
	if isEmpty(email) {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// ParseAddress принимает и "Name <a@b>", нам нужен голый адрес.
	return addr.Address == strings.TrimSpace(email)
}

// CredentialsAreValid проверяет адрес почты и длину пароля.
func CredentialsAreValid(email, password string) bool {
	return IsValidEmail(email) &&
		utf8.RuneCountInString(strings.TrimSpace(password)) >= minPasswordLength &&
		len(password) <= maxPasswordBytes
}

// UserDetailsAreValid проверяет все поля профиля, кроме подтверждения почты.
func UserDetailsAreValid(in SignupInput) bool {
	return CredentialsAreValid(in.Email, in.Password) &&
		!isEmpty(in.FullName) &&
		!isEmpty(in.Street) &&
		utf8.RuneCountInString(strings.TrimSpace(in.PostalCode)) >= minPostalCodeLength &&
		!isEmpty(in.City)
}

// EmailIsConfirmed проверяет совпадение почты с полем подтверждения.
func EmailIsConfirmed(email, confirmEmail string) bool {
	return email == confirmEmail
}

// SignupIsValid объединяет проверки формы регистрации.
func SignupIsValid(in SignupInput) bool {
	return UserDetailsAreValid(in) && EmailIsConfirmed(in.Email, in.ConfirmEmail)
}

func isEmpty(value string) bool {
	return strings.TrimSpace(value) == ""
}
