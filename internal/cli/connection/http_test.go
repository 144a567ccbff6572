package connection

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_AddsScheme(t *testing.T) {
	require.Equal(t, "http://localhost:7070", NewHTTPClient("localhost:7070/", "").BaseURL())
	require.Equal(t, "https://admin.example", NewHTTPClient("https://admin.example", "").BaseURL())
}

func TestHTTPClient_Envelope(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.Method == http.MethodPost {
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			gotBody = body["token"]
		}
		switch r.URL.Path {
		case "/ok":
			json.NewEncoder(w).Encode(map[string]any{"code": "OK", "data": map[string]int{"n": 7}})
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"code": "TS-STOR-4040", "message": "partition log not found"})
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "adm")
	ctx := context.Background()

	var out struct{ N int }
	require.NoError(t, c.Get(ctx, "/ok", &out))
	require.Equal(t, 7, out.N)
	require.Equal(t, "Bearer adm", gotAuth)

	require.NoError(t, c.Post(ctx, "/ok", map[string]string{"token": "tsck_x"}, nil))
	require.Equal(t, "tsck_x", gotBody)

	require.EqualError(t, c.Get(ctx, "/missing", nil), "[TS-STOR-4040] partition log not found")
	require.EqualError(t, c.Get(ctx, "/other", nil), "request failed with status 502")
}
