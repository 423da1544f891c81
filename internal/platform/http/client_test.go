package http_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	platformhttp "market_backend/internal/platform/http"
	"market_backend/internal/platform/http/httpmock"
)

func TestGetJSON_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "secret", r.Header.Get("x-cg-demo-api-key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"price": 42.5}`))
	}))
	defer server.Close()

	var out struct {
		Price float64 `json:"price"`
	}
	header := http.Header{}
	header.Set("x-cg-demo-api-key", "secret")

	err := platformhttp.GetJSON(context.Background(), server.Client(), server.URL, header, &out)
	require.NoError(t, err)
	assert.Equal(t, 42.5, out.Price)
}

func TestGetJSON_StatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":{"error_code":429}}`))
	}))
	defer server.Close()

	var out map[string]any
	err := platformhttp.GetJSON(context.Background(), server.Client(), server.URL+"/x?apikey=secret", nil, &out)

	var se *platformhttp.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.NotContains(t, se.Error(), "secret")
	assert.Contains(t, se.Body, "error_code")
}

// TestGetJSON_WithMockClient はgomockのHTTPClientでトランスポートエラーとデコードエラーを検証します。
func TestGetJSON_WithMockClient(t *testing.T) {
	t.Parallel()

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		client := httpmock.NewMockHTTPClient(ctrl)
		boom := errors.New("connection reset")
		client.EXPECT().Do(gomock.Any()).Return(nil, boom).Times(1)

		var out map[string]any
		err := platformhttp.GetJSON(context.Background(), client, "http://upstream.test/a", nil, &out)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		client := httpmock.NewMockHTTPClient(ctrl)
		client.EXPECT().
			Do(gomock.Any()).
			DoAndReturn(func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodGet, req.Method)
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(strings.NewReader(`{not json`)),
				}, nil
			}).
			Times(1)

		var out map[string]any
		err := platformhttp.GetJSON(context.Background(), client, "http://upstream.test/a", nil, &out)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode http://upstream.test/a")
	})
}

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	c := platformhttp.NewHTTPClient(0)
	require.NotNil(t, c)
	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 100, tr.MaxIdleConns)
}
