package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/online-shop/internal/model"
	"github.com/mmeshcher/online-shop/internal/repository"
)

type stubFinder struct {
	user *model.User
	err  error
}

func (s *stubFinder) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.user, s.err
}

func TestStore_HashAndVerify(t *testing.T) {
	s := NewStore(&stubFinder{}, bcrypt.MinCost)

	digest, err := s.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, []byte("secret1"), digest)

	ok, err := s.Verify("secret1", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Verify("wrong-password", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_HashIsSalted(t *testing.T) {
	s := NewStore(&stubFinder{}, bcrypt.MinCost)

	a, err := s.Hash("secret1")
	require.NoError(t, err)
	b, err := s.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestStore_VerifyCorruptDigest(t *testing.T) {
	s := NewStore(&stubFinder{}, bcrypt.MinCost)

	_, err := s.Verify("secret1", []byte("not-a-bcrypt-hash"))
	assert.ErrorIs(t, err, ErrCorruptCredential)
}

func TestStore_Exists(t *testing.T) {
	tests := []struct {
		name    string
		finder  *stubFinder
		want    bool
		wantErr error
	}{
		{
			name:   "user found",
			finder: &stubFinder{user: &model.User{ID: "u1"}},
			want:   true,
		},
		{
			name:   "user missing",
			finder: &stubFinder{err: repository.ErrUserNotFound},
			want:   false,
		},
		{
			name:    "store down",
			finder:  &stubFinder{err: errors.New("connection refused")},
			wantErr: ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(tt.finder, bcrypt.MinCost)
			got, err := s.Exists(context.Background(), "jane@example.com")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewStore_FallbackCost(t *testing.T) {
	s := NewStore(&stubFinder{}, 0)
	assert.Equal(t, DefaultCost, s.cost)
}
