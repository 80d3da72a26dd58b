// Package middleware содержит HTTP middleware интернет-магазина.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/online-shop/internal/session"
)

type contextKey string

const userIDKey contextKey = "userID"

// SessionCookieName: имя cookie с идентификатором сессии.
const SessionCookieName = "sid"

// DefaultSessionMaxAge: срок жизни cookie сессии по умолчанию.
const DefaultSessionMaxAge = 2 * 24 * time.Hour

// SessionMiddleware связывает запрос с серверной сессией по подписанному cookie.
type SessionMiddleware struct {
	secretKey []byte
	store     session.Store
	maxAge    time.Duration
	logger    *zap.Logger
}

// NewSessionMiddleware создаёт middleware сессий. Пустой secret заменяется случайным ключом,
// тогда сессии не переживают перезапуск процесса.
func NewSessionMiddleware(secret string, store session.Store, maxAge time.Duration, logger *zap.Logger) *SessionMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}

	return &SessionMiddleware{
		secretKey: key,
		store:     store,
		maxAge:    maxAge,
		logger:    logger,
	}
}

// Middleware находит сессию по cookie или открывает новую и кладёт её в контекст запроса.
// Поддельный cookie приводит к новой анонимной сессии. Любая запись в сессию
// переотправляет cookie, и срок его жизни отсчитывается заново.
func (m *SessionMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			if id, ok := m.parseCookie(cookie.Value); ok {
				sid = id
			}
		}

		store := &cookieRefresher{Store: m.store, w: w, m: m}
		if sid == "" {
			sid = uuid.NewString()
			m.setCookie(w, sid)
			store.issued = sid
		}

		ctx := session.NewContext(r.Context(), session.New(sid, store))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth пропускает только запросы аутентифицированной сессии и кладёт
// идентификатор пользователя в контекст.
func (m *SessionMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		auth, err := sess.Auth(r.Context())
		if err != nil {
			m.logger.Error("load session auth error", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if auth == nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, auth.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cookieRefresher выставляет cookie с идентификатором, под которым сессия
// последний раз сохранялась, не чаще одного раза на идентификатор.
type cookieRefresher struct {
	session.Store
	w      http.ResponseWriter
	m      *SessionMiddleware
	issued string
}

func (c *cookieRefresher) Set(ctx context.Context, sid, namespace string, value []byte) error {
	if err := c.Store.Set(ctx, sid, namespace, value); err != nil {
		return err
	}
	if sid != c.issued {
		c.issued = sid
		c.m.setCookie(c.w, sid)
	}
	return nil
}

func (m *SessionMiddleware) setCookie(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    m.sign(sid),
		Path:     "/",
		MaxAge:   int(m.maxAge / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *SessionMiddleware) sign(sid string) string {
	mac := hmac.New(sha256.New, m.secretKey)
	mac.Write([]byte(sid))
	return sid + "." + hex.EncodeToString(mac.Sum(nil))
}

func (m *SessionMiddleware) parseCookie(value string) (string, bool) {
	sid, signature, found := strings.Cut(value, ".")
	if !found {
		return "", false
	}
	if _, err := uuid.Parse(sid); err != nil {
		return "", false
	}

	_, expected, _ := strings.Cut(m.sign(sid), ".")
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", false
	}

	return sid, true
}

// GetUserIDFromContext извлекает идентификатор пользователя из контекста запроса.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}
