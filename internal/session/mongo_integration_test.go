//go:build integration

package session

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/online-shop/internal/model"
)

// Запуск: MONGO_TEST_URI=mongodb://localhost:27017 go test -tags integration ./internal/session/
func newMongoStore(t *testing.T) *MongoStore {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI is not set")
	}

	ctx := context.Background()
	dbName := "shop_session_test_" + uuid.NewString()[:8]
	store, err := NewMongoStoreFromURI(ctx, uri, dbName, time.Hour)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.coll.Database().Drop(context.Background())
		_ = store.Close()
	})
	return store
}

func TestMongoStore_Contract(t *testing.T) {
	store := newMongoStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "s1", NamespaceCart)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "s1", NamespaceCart, []byte(`{"items":[]}`)))
	require.NoError(t, store.Set(ctx, "s1", NamespaceAuth, []byte(`{"userId":"u1"}`)))

	v, err := store.Get(ctx, "s1", NamespaceCart)
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, string(v))

	_, err = store.Get(ctx, "s2", NamespaceCart)
	assert.ErrorIs(t, err, ErrNotFound)

	v, err = store.Take(ctx, "s1", NamespaceCart)
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, string(v))

	_, err = store.Take(ctx, "s1", NamespaceCart)
	assert.ErrorIs(t, err, ErrNotFound)

	v, err = store.Get(ctx, "s1", NamespaceAuth)
	require.NoError(t, err, "taking one namespace keeps the others")
	assert.Equal(t, `{"userId":"u1"}`, string(v))

	require.NoError(t, store.Delete(ctx, "s1", NamespaceAuth))
	_, err = store.Get(ctx, "s1", NamespaceAuth)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoStore_FlashConsumedOnceUnderConcurrency(t *testing.T) {
	store := newMongoStore(t)
	ctx := context.Background()
	s := New("sid", store)

	require.NoError(t, s.SetFlash(ctx, model.Flash{"errorMessage": "Invalid credentials"}))

	const readers = 8
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []model.Flash
	)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := New("sid", store).ConsumeFlash(ctx)
			if err != nil || f == nil {
				return
			}
			mu.Lock()
			got = append(got, f)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, got, 1)
	assert.Equal(t, "Invalid credentials", got[0]["errorMessage"])
}

func TestMongoStore_ExpiredSessionIsNotRead(t *testing.T) {
	store := newMongoStore(t)
	ctx := context.Background()

	store.ttl = -time.Minute
	require.NoError(t, store.Set(ctx, "old", NamespaceAuth, []byte(`{"userId":"u1"}`)))

	_, err := store.Get(ctx, "old", NamespaceAuth)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Take(ctx, "old", NamespaceAuth)
	assert.ErrorIs(t, err, ErrNotFound)
}
