package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	auth   string
	method string
	path   string
	query  string
	body   map[string]any
}

func fakeService(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method, got.path, got.query = r.Method, r.URL.Path, r.URL.RawQuery
		got.auth = r.Header.Get("Authorization")
		if r.ContentLength > 0 {
			_ = json.NewDecoder(r.Body).Decode(&got.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestRunSubmit(t *testing.T) {
	srv, got := fakeService(t, http.StatusCreated, `{"insight":"ok"}`)
	var out bytes.Buffer
	require.NoError(t, runSubmit(srv.URL, "u1", "good day", 70, &out))

	assert.Equal(t, "POST", got.method)
	assert.Equal(t, "/v0/users/u1/entries", got.path)
	assert.Equal(t, "good day", got.body["content"])
	assert.EqualValues(t, 70, got.body["moodScore"])
	assert.Contains(t, out.String(), `"insight":"ok"`)
}

func TestRunSubmit_OmitsZeroMood(t *testing.T) {
	srv, got := fakeService(t, http.StatusCreated, `{}`)
	require.NoError(t, runSubmit(srv.URL, "u1", "no score", 0, &bytes.Buffer{}))
	assert.NotContains(t, got.body, "moodScore")
}

func TestRunSubmit_Errors(t *testing.T) {
	assert.Error(t, runSubmit("http://unused", "u1", "", 0, &bytes.Buffer{}))

	srv, _ := fakeService(t, http.StatusBadRequest, `{"message":"bad"}`)
	err := runSubmit(srv.URL, "u1", "x", 0, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 400")
}

func TestRunListAndSimilar(t *testing.T) {
	srv, got := fakeService(t, http.StatusOK, `{"entries":[],"count":0}`)
	require.NoError(t, runList(srv.URL, "u1", 5, &bytes.Buffer{}))
	assert.Equal(t, "GET", got.method)
	assert.Equal(t, "limit=5", got.query)

	require.NoError(t, runSimilar(srv.URL, "u1", "river", 3, nil, &bytes.Buffer{}))
	assert.Equal(t, "/v0/users/u1/similar", got.path)
	assert.Equal(t, "river", got.body["query"])
	assert.EqualValues(t, 3, got.body["limit"])
	assert.NotContains(t, got.body, "threshold")

	zero := 0.0
	require.NoError(t, runSimilar(srv.URL, "u1", "river", 3, &zero, &bytes.Buffer{}))
	assert.Contains(t, got.body, "threshold")
	assert.EqualValues(t, 0, got.body["threshold"])

	assert.Error(t, runSimilar(srv.URL, "u1", "", 3, nil, &bytes.Buffer{}))
}

func TestRunGuidance(t *testing.T) {
	srv, got := fakeService(t, http.StatusOK, `{}`)

	require.NoError(t, runHistory(srv.URL, "u1", &bytes.Buffer{}))
	assert.Equal(t, "/v0/users/u1/history", got.path)

	require.NoError(t, runPlan(srv.URL, "u1", 45, &bytes.Buffer{}))
	assert.Equal(t, "/v0/users/u1/intervention-plan", got.path)
	assert.EqualValues(t, 45, got.body["moodScore"])

	require.NoError(t, runCheckIn(srv.URL, "u1", 80, "fine", &bytes.Buffer{}))
	assert.Equal(t, "/v0/users/u1/check-in", got.path)
	assert.Equal(t, "fine", got.body["content"])

	assert.Error(t, runPlan(srv.URL, "u1", 0, &bytes.Buffer{}))
	assert.Error(t, runCheckIn(srv.URL, "u1", 101, "", &bytes.Buffer{}))
}

func TestClientSendsAPIKey(t *testing.T) {
	srv, got := fakeService(t, http.StatusOK, `{}`)
	apiKey = "secret"
	t.Cleanup(func() { apiKey = "" })

	require.NoError(t, runHistory(srv.URL, "u1", &bytes.Buffer{}))
	assert.Equal(t, "Bearer secret", got.auth)
}
