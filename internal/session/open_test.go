package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name     string
		uri      string
		wantType any
		wantErr  bool
	}{
		{name: "memory", uri: "", wantType: &MemoryStore{}},
		{name: "redis", uri: "redis://" + mr.Addr() + "/0", wantType: &RedisStore{}},
		{name: "unknown", uri: "memcached://localhost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(context.Background(), tt.uri, "online-shop", time.Hour)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer store.Close()
			assert.IsType(t, tt.wantType, store)
		})
	}
}
