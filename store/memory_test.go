package store_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/always-cache/gofetch/store"
)

func TestMemoryStorePutMatch(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()

	entry := &store.Entry{StatusCode: 200, Header: http.Header{"Content-Type": {"text/plain"}}}
	require.NoError(t, ms.Put(ctx, "k1", entry, strings.NewReader("hello")))

	got, body, err := ms.Match(ctx, "k1")
	require.NoError(t, err)
	defer body.Close()

	assert.Equal(t, 200, got.StatusCode)
	b, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestMemoryStoreMatchMissing(t *testing.T) {
	ms := store.NewMemoryStore()
	_, _, err := ms.Match(context.Background(), "nope")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestMemoryStoreDelete(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, ms.Put(ctx, "k1", &store.Entry{}, strings.NewReader("x")))
	require.NoError(t, ms.Delete(ctx, "k1"))
	_, _, err := ms.Match(ctx, "k1")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestMemoryStoreKeysPrefix(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, ms.Put(ctx, "a:1", &store.Entry{}, strings.NewReader("")))
	require.NoError(t, ms.Put(ctx, "a:2", &store.Entry{}, strings.NewReader("")))
	require.NoError(t, ms.Put(ctx, "b:1", &store.Entry{}, strings.NewReader("")))

	var found []string
	require.NoError(t, ms.Keys(ctx, "a:", func(k string) { found = append(found, k) }))
	assert.Len(t, found, 2)
}
