// Package payment предоставляет клиент платёжного провайдера для создания
// сессий оплаты (hosted checkout).
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrProvider возвращается, если провайдер ответил ошибкой.
var ErrProvider = errors.New("payment provider error")

const checkoutSessionsPath = "/v1/checkout/sessions"

// LineItem описывает одну позицию сессии оплаты.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int
}

// CheckoutRequest описывает запрос на создание сессии оплаты.
type CheckoutRequest struct {
	Items      []LineItem
	SuccessURL string
	CancelURL  string
	// ClientReferenceID связывает сессию оплаты с заказом.
	ClientReferenceID string
}

// CheckoutSession описывает созданную сессию оплаты.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type providerError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client инкапсулирует HTTP-взаимодействие с платёжным провайдером.
type Client struct {
	baseURL    string
	apiKey     string
	currency   string
	httpClient *http.Client
}

// NewClient создаёт клиент провайдера по указанному адресу API.
func NewClient(baseURL, apiKey, currency string) *Client {
	if currency == "" {
		currency = "usd"
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		currency: strings.ToLower(currency),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// UnitAmount переводит цену в целые минимальные единицы валюты (центы).
// Дробь меньше цента отбрасывается: 9.999 превращается в 999.
func UnitAmount(price float64) int64 {
	// Поправка компенсирует ошибку представления вроде 19.99*100 = 1998.9999...
	return int64(math.Floor(price*100 + 1e-6))
}

func (c *Client) encode(req CheckoutRequest) url.Values {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	if req.ClientReferenceID != "" {
		form.Set("client_reference_id", req.ClientReferenceID)
	}

	for i, item := range req.Items {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", c.currency)
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}
	return form
}

// CreateCheckoutSession создаёт разовую сессию оплаты и возвращает адрес,
// на который нужно перенаправить покупателя.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("payment client not configured")
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("checkout session requires line items")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	body := strings.NewReader(c.encode(req).Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+checkoutSessionsPath, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var pe providerError
		if json.Unmarshal(raw, &pe) == nil && pe.Error.Message != "" {
			return nil, fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode, pe.Error.Message)
		}
		return nil, fmt.Errorf("%w: status %d", ErrProvider, resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if session.URL == "" {
		return nil, fmt.Errorf("%w: empty checkout url", ErrProvider)
	}

	return &session, nil
}
