package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeys(t *testing.T) {
	a, err := ParseKeys("")
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = ParseKeys(" k1=alice , admin=* ")
	require.NoError(t, err)
	require.Len(t, a.keys, 2)
	assert.Equal(t, "alice", a.keys[0].userID)
	assert.Equal(t, AllUsers, a.keys[1].userID)

	for _, bad := range []string{"k1", "=alice", "k1=", "k1=alice,,"} {
		_, err := ParseKeys(bad)
		assert.Error(t, err, bad)
	}
}

func TestStaticAuthorizer(t *testing.T) {
	a, err := ParseKeys("k1=alice,admin=*")
	require.NoError(t, err)
	ctx := context.Background()

	p, err := a.Authorize(ctx, "k1", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UserID)

	_, err = a.Authorize(ctx, "k1", "bob")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = a.Authorize(ctx, "nope", "alice")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	p, err = a.Authorize(ctx, "admin", "bob")
	require.NoError(t, err)
	assert.True(t, p.CanAccess("anyone"))

	_, err = a.Authorize(ctx, "k1", "")
	assert.NoError(t, err)
}

func TestExtractAPIKey(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	_, err := ExtractAPIKey(r)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	r.Header.Set("Authorization", "Basic abc")
	_, err = ExtractAPIKey(r)
	assert.ErrorIs(t, err, ErrMalformedAPIKey)

	r.Header.Set("Authorization", "Bearer abc")
	key, err := ExtractAPIKey(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", key)
}

func TestMiddleware(t *testing.T) {
	a, err := ParseKeys("k1=alice")
	require.NoError(t, err)

	router := mux.NewRouter()
	router.Use(Middleware(a, zerolog.Nop()))
	router.HandleFunc("/v0/users/{userId}/history", func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(p.UserID))
	})

	do := func(path, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", path, nil)
		if key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	ok := do("/v0/users/alice/history", "k1")
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "alice", ok.Body.String())

	assert.Equal(t, http.StatusForbidden, do("/v0/users/bob/history", "k1").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/v0/users/alice/history", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/v0/users/alice/history", "wrong").Code)
}
