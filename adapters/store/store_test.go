package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/layer-3/lumenpay/core"
	"github.com/layer-3/lumenpay/ports"
)

func testSession() core.Session {
	return core.Session{
		Token:     "tok-1",
		UserID:    "user-1",
		UserType:  core.UserTypeConsumer,
		Wallet:    "GABC",
		IssuedAt:  time.Now().Truncate(time.Second),
		ExpiresAt: time.Now().Add(time.Hour).Truncate(time.Second),
	}
}

func testRoundTrip(t *testing.T, s ports.SessionStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, core.ErrNoSession)

	want := testSession()
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want.Token, got.Token)
	require.Equal(t, want.UserID, got.UserID)
	require.Equal(t, want.UserType, got.UserType)
	require.Equal(t, want.Wallet, got.Wallet)
	require.True(t, want.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	require.ErrorIs(t, err, core.ErrNoSession)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	testRoundTrip(t, NewMemoryStore())
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	testRoundTrip(t, NewFileStore(path))
}

func TestFileStorePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStore(path)
	require.NoError(t, s.Save(context.Background(), testSession()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreClearIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStore(path)
	require.NoError(t, s.Clear(context.Background()))
	require.NoError(t, s.Clear(context.Background()))
}

func TestFileStoreRejectsEmptyToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"token":""}`), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	require.ErrorIs(t, err, core.ErrNoSession)
}
