package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/passguard/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		want    string
		wantErr error
	}{
		{"missing", nil, "", httpx.ErrMissingAuthorization},
		{"empty value", []string{""}, "", httpx.ErrMalformedAuthorization},
		{"basic scheme", []string{"Basic abc"}, "", httpx.ErrMalformedAuthorization},
		{"no space", []string{"Bearerabc"}, "", httpx.ErrMalformedAuthorization},
		{"scheme only", []string{"Bearer"}, "", httpx.ErrMalformedAuthorization},
		{"canonical", []string{"Bearer abc.def.ghi"}, "abc.def.ghi", nil},
		{"lower case", []string{"bearer abc"}, "abc", nil},
		{"upper case", []string{"BEARER abc"}, "abc", nil},
		{"trims", []string{"Bearer   abc  "}, "abc", nil},
		{"first header wins", []string{"Bearer one", "Bearer two"}, "one", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for _, v := range tt.header {
				req.Header.Add("Authorization", v)
			}

			got, err := httpx.BearerToken(req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestWriteBearerChallenge(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteBearerChallenge(rec, map[string]string{"code": "UnAuthorized"})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "UnAuthorized", body["code"])
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("decodes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
		var p payload
		require.NoError(t, httpx.DecodeJSON(httptest.NewRecorder(), req, &p))
		require.Equal(t, "x", p.Name)
	})

	t.Run("empty body is not an error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		var p payload
		require.NoError(t, httpx.DecodeJSON(httptest.NewRecorder(), req, &p))
		require.Empty(t, p.Name)
	})

	t.Run("garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{nope`))
		var p payload
		require.Error(t, httpx.DecodeJSON(httptest.NewRecorder(), req, &p))
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mark("outer"), mark("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}
