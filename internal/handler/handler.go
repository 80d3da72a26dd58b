// Package handler содержит HTTP-обработчики интернет-магазина.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/online-shop/internal/middleware"
	"github.com/mmeshcher/online-shop/internal/model"
	"github.com/mmeshcher/online-shop/internal/repository"
	"github.com/mmeshcher/online-shop/internal/service"
	"github.com/mmeshcher/online-shop/internal/session"
	"github.com/mmeshcher/online-shop/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	SignUp(ctx context.Context, sess *session.Session, in validation.SignupInput) (service.Intent, error)
	LogIn(ctx context.Context, sess *session.Session, email, password string) (service.Intent, error)
	LogOut(ctx context.Context, sess *session.Session) error
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetCart(ctx context.Context, sess *session.Session) (*model.Cart, error)
	AddToCart(ctx context.Context, sess *session.Session, productID string, quantity int) (*model.Cart, error)
	UpdateCartItem(ctx context.Context, sess *session.Session, productID string, quantity int) (*model.Cart, error)
	PlaceOrder(ctx context.Context, sess *session.Session) (*service.PlacedOrder, error)
	GetOrdersByUser(ctx context.Context, userID string) ([]model.Order, error)
}

// Handler реализует HTTP-обработчики интернет-магазина.
type Handler struct {
	service  Service
	logger   *zap.Logger
	sessions *middleware.SessionMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, sessions *middleware.SessionMiddleware) *Handler {
	return &Handler{
		service:  s,
		logger:   logger,
		sessions: sessions,
	}
}

var intentPaths = map[service.Intent]string{
	service.IntentRetrySignup: "/signup",
	service.IntentLogin:       "/login",
	service.IntentRetryLogin:  "/login",
	service.IntentHome:        "/",
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, intent service.Intent) {
	http.Redirect(w, r, intentPaths[intent], http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) internalError(w http.ResponseWriter, msg string, err error, fields ...zap.Field) {
	h.logger.Error(msg, append(fields, zap.Error(err))...)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
	return sess, ok
}

func isJSON(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

type signupRequest struct {
	Email        string `json:"email"`
	ConfirmEmail string `json:"confirm-email"`
	Password     string `json:"password"`
	FullName     string `json:"fullname"`
	Street       string `json:"street"`
	Postal       string `json:"postal"`
	City         string `json:"city"`
}

func decodeSignup(r *http.Request) (validation.SignupInput, error) {
	var req signupRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return validation.SignupInput{}, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return validation.SignupInput{}, err
		}
		req = signupRequest{
			Email:        r.PostForm.Get("email"),
			ConfirmEmail: r.PostForm.Get("confirm-email"),
			Password:     r.PostForm.Get("password"),
			FullName:     r.PostForm.Get("fullname"),
			Street:       r.PostForm.Get("street"),
			Postal:       r.PostForm.Get("postal"),
			City:         r.PostForm.Get("city"),
		}
	}

	return validation.SignupInput{
		Email:        req.Email,
		ConfirmEmail: req.ConfirmEmail,
		Password:     req.Password,
		FullName:     req.FullName,
		Street:       req.Street,
		PostalCode:   req.Postal,
		City:         req.City,
	}, nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func decodeCredentials(r *http.Request) (credentialsRequest, error) {
	var req credentialsRequest
	if isJSON(r) {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Email = r.PostForm.Get("email")
	req.Password = r.PostForm.Get("password")
	return req, nil
}

type formView struct {
	InputData model.Flash `json:"inputData"`
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, defaults model.Flash) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	data, err := sess.ConsumeFlash(r.Context())
	if err != nil {
		h.internalError(w, "consume flash error", err)
		return
	}
	if data == nil {
		data = defaults
	}

	writeJSON(w, http.StatusOK, formView{InputData: data})
}

// GetSignup возвращает данные формы регистрации: flash после неудачной попытки или пустые поля.
func (h *Handler) GetSignup(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, model.Flash{
		service.FlashEmail:        "",
		service.FlashConfirmEmail: "",
		service.FlashPassword:     "",
		service.FlashFullName:     "",
		service.FlashStreet:       "",
		service.FlashPostal:       "",
		service.FlashCity:         "",
	})
}

// Signup обрабатывает регистрацию нового пользователя.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	in, err := decodeSignup(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	intent, err := h.service.SignUp(r.Context(), sess, in)
	if err != nil {
		h.internalError(w, "sign up error", err)
		return
	}

	h.redirect(w, r, intent)
}

// GetLogin возвращает данные формы входа.
func (h *Handler) GetLogin(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, model.Flash{
		service.FlashEmail:    "",
		service.FlashPassword: "",
	})
}

// Login выполняет аутентификацию пользователя.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	req, err := decodeCredentials(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	intent, err := h.service.LogIn(r.Context(), sess, req.Email, req.Password)
	if err != nil {
		h.internalError(w, "login user error", err)
		return
	}

	h.redirect(w, r, intent)
}

// Logout завершает аутентифицированную сессию.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	if err := h.service.LogOut(r.Context(), sess); err != nil {
		h.internalError(w, "logout error", err)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId,omitempty"`
	IsAdmin       bool   `json:"isAdmin"`
	CartItems     int    `json:"cartItems"`
}

// GetSession возвращает состояние текущей сессии.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	auth, err := sess.Auth(r.Context())
	if err != nil {
		h.internalError(w, "load session auth error", err)
		return
	}
	cart, err := h.service.GetCart(r.Context(), sess)
	if err != nil {
		h.internalError(w, "load cart error", err)
		return
	}

	resp := sessionResponse{CartItems: cart.TotalQuantity}
	if auth != nil {
		resp.Authenticated = true
		resp.UserID = auth.UserID
		resp.IsAdmin = auth.IsAdmin
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListProducts возвращает каталог товаров.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.internalError(w, "list products error", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProduct возвращает товар каталога.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.internalError(w, "get product error", err, zap.String("productID", id))
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// GetCart возвращает корзину текущей сессии.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	cart, err := h.service.GetCart(r.Context(), sess)
	if err != nil {
		h.internalError(w, "load cart error", err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func decodeCartItem(r *http.Request) (cartItemRequest, error) {
	var req cartItemRequest
	if isJSON(r) {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.ProductID = r.PostForm.Get("productId")
	if q := r.PostForm.Get("quantity"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			return req, err
		}
		req.Quantity = n
	}
	return req, nil
}

func (h *Handler) writeCartError(w http.ResponseWriter, err error, productID string) {
	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
	case errors.Is(err, repository.ErrProductNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	default:
		h.internalError(w, "update cart error", err, zap.String("productID", productID))
	}
}

// AddCartItem добавляет товар в корзину.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	req, err := decodeCartItem(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.service.AddToCart(r.Context(), sess, req.ProductID, req.Quantity)
	if err != nil {
		h.writeCartError(w, err, req.ProductID)
		return
	}
	writeJSON(w, http.StatusCreated, cart)
}

// UpdateCartItem меняет количество товара в корзине.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	req, err := decodeCartItem(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	productID := chi.URLParam(r, "productID")

	cart, err := h.service.UpdateCartItem(r.Context(), sess, productID, req.Quantity)
	if err != nil {
		h.writeCartError(w, err, productID)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// GetOrders возвращает список заказов текущего пользователя.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	orders, err := h.service.GetOrdersByUser(r.Context(), userID)
	if err != nil {
		h.internalError(w, "get orders error", err, zap.String("userID", userID))
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// PlaceOrder оформляет заказ из корзины и перенаправляет покупателя на страницу оплаты.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	placed, err := h.service.PlaceOrder(r.Context(), sess)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		case errors.Is(err, service.ErrEmptyCart):
			http.Redirect(w, r, "/cart", http.StatusSeeOther)
		case errors.Is(err, repository.ErrUserNotFound):
			h.logger.Warn("order for stale session user", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, service.ErrPaymentSession):
			orderID := ""
			if placed != nil {
				orderID = placed.OrderID
			}
			h.logger.Error("order saved without payment session", zap.Error(err), zap.String("orderID", orderID))
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		default:
			var fields []zap.Field
			if placed != nil {
				fields = append(fields, zap.String("orderID", placed.OrderID))
			}
			h.internalError(w, "place order error", err, fields...)
		}
		return
	}

	h.logger.Info("order placed", zap.String("orderID", placed.OrderID))
	http.Redirect(w, r, placed.CheckoutURL, http.StatusSeeOther)
}

type messageResponse struct {
	Message string `json:"message"`
}

// GetSuccess отображает страницу успешной оплаты.
func (h *Handler) GetSuccess(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Payment successful. Thank you for your order!"})
}

// GetFailure отображает страницу отменённой оплаты.
func (h *Handler) GetFailure(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Payment was cancelled. Your order is pending, you can retry the payment later."})
}
