package devstub

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivebridge-io/hivebridge/internal/cloud"
	"github.com/hivebridge-io/hivebridge/internal/cloudapi"
	hberr "github.com/hivebridge-io/hivebridge/pkg/errors"
)

// newStubClient serves a stub over httptest and returns a cloudapi client
// pointed at it.
func newStubClient(t *testing.T) (*Server, *cloudapi.Client) {
	t.Helper()
	stub := NewServer()
	srv := httptest.NewServer(stub.Router())
	t.Cleanup(srv.Close)

	client := cloudapi.NewClient(&cloudapi.ClientOptions{
		BaseURL:      srv.URL + "/api/auth",
		DriveBaseURL: srv.URL + "/drive/v3",
		HTTPClient:   srv.Client(),
		Limiter:      cloudapi.NewRateLimiter(1000, 1000),
	})
	return stub, client
}

func TestLoggedOutByDefault(t *testing.T) {
	stub, client := newStubClient(t)
	ctx := context.Background()

	assert.False(t, client.Status(ctx).Authenticated)
	assert.True(t, hberr.Is(client.VerifyAuth(ctx), hberr.ErrAuthExpired))

	// An empty token reads as an expired session.
	_, err := client.FetchToken(ctx)
	assert.True(t, hberr.Is(err, hberr.ErrAuthExpired))

	stub.Login()
	assert.True(t, client.Status(ctx).Authenticated)
	assert.NoError(t, client.VerifyAuth(ctx))
}

func TestStorageRoutesRequireToken(t *testing.T) {
	stub, client := newStubClient(t)
	ctx := context.Background()

	// Logged out: the token fetch itself fails, so the upload never happens.
	_, err := client.CreateFile(ctx, "x", []byte("data"))
	assert.Error(t, err)

	stub.Login()
	id, err := client.CreateFile(ctx, "x", []byte("data"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestFileLifecycle(t *testing.T) {
	stub, client := newStubClient(t)
	stub.Login()
	ctx := context.Background()

	id, err := client.CreateFile(ctx, cloud.WalletFileName, []byte("ciphertext-v1"))
	require.NoError(t, err)

	// The well-known wallet file name is tracked by the existence endpoint.
	info, err := client.WalletFile(ctx)
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, id, info.FileID)

	content, err := client.DownloadFile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext-v1"), content)

	require.NoError(t, client.UpdateFile(ctx, id, []byte("ciphertext-v2")))
	stored, ok := stub.FileContent(id)
	require.True(t, ok)
	assert.Equal(t, []byte("ciphertext-v2"), stored)

	_, err = client.DownloadFile(ctx, "missing-id")
	assert.True(t, hberr.Is(err, hberr.ErrWalletNotFound))
}

func TestOtherFilesDoNotBecomeTheWalletFile(t *testing.T) {
	stub, client := newStubClient(t)
	stub.Login()
	ctx := context.Background()

	_, err := client.CreateFile(ctx, "notes.txt", []byte("hi"))
	require.NoError(t, err)

	info, err := client.WalletFile(ctx)
	require.NoError(t, err)
	assert.False(t, info.Exists)
}

func TestKeyLookup(t *testing.T) {
	stub, client := newStubClient(t)
	stub.Login()
	ctx := context.Background()

	ok, err := client.IsRegistered(ctx, "alice", "PUBabc")
	require.NoError(t, err)
	assert.False(t, ok)

	stub.RegisterKey("alice", "PUBabc")

	ok, err = client.IsRegistered(ctx, "alice", "PUBabc")
	require.NoError(t, err)
	assert.True(t, ok)

	// Registration is per account.
	ok, err = client.IsRegistered(ctx, "bob", "PUBabc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogoutEndpoint(t *testing.T) {
	stub, client := newStubClient(t)
	stub.Login()
	ctx := context.Background()

	ok, err := client.Logout(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, client.Status(ctx).Authenticated)
}

func TestLoginRotatesToken(t *testing.T) {
	stub, client := newStubClient(t)
	ctx := context.Background()

	stub.Login()
	first, err := client.FetchToken(ctx)
	require.NoError(t, err)

	stub.Login()
	second, err := client.FetchToken(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
