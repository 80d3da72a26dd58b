package session

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ClosableStore: хранилище, владеющее соединением.
type ClosableStore interface {
	Store
	Close() error
}

// Open создаёт хранилище сессий по URI: redis:// и rediss:// для Redis,
// mongodb:// и mongodb+srv:// для MongoDB, пустая строка для хранилища в памяти.
func Open(ctx context.Context, uri, dbName string, ttl time.Duration) (ClosableStore, error) {
	switch {
	case uri == "":
		return NewMemoryStore(ttl), nil
	case strings.HasPrefix(uri, "redis://"), strings.HasPrefix(uri, "rediss://"):
		return NewRedisStoreFromURL(ctx, uri, ttl)
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return NewMongoStoreFromURI(ctx, uri, dbName, ttl)
	default:
		return nil, fmt.Errorf("unsupported session store uri: %q", uri)
	}
}
