package httpx_test

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/studysearch/internal/httpx"
)

func errorResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseHTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"error field", 400, `{"error":"bad subject"}`, "bad subject"},
		{"message field", 500, `{"message":"internal"}`, "internal"},
		{"detail field", 422, `{"detail":"unprocessable"}`, "unprocessable"},
		{"plain text body", 503, "service down", "service down"},
		{"empty json", 500, `{}`, "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := httpx.ParseHTTPError(errorResponse(tt.status, tt.body))
			require.Error(t, err)

			var httpErr *httpx.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.wantMessage, httpErr.Message)
		})
	}
}

func TestParseHTTPError_SuccessIsNil(t *testing.T) {
	t.Parallel()

	assert.NoError(t, httpx.ParseHTTPError(errorResponse(200, "ok")))
	assert.NoError(t, httpx.ParseHTTPError(errorResponse(399, "redirectish")))
}

func TestStatusCode(t *testing.T) {
	t.Parallel()

	code, ok := httpx.StatusCode(&httpx.HTTPError{StatusCode: 429})
	assert.True(t, ok)
	assert.Equal(t, 429, code)

	_, ok = httpx.StatusCode(io.EOF)
	assert.False(t, ok)
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	client := httpx.NewClient(nil)
	require.NotNil(t, client)
	assert.Equal(t, httpx.DefaultTimeout, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, httpx.DefaultMaxIdleConns, transport.MaxIdleConns)
	assert.Equal(t, httpx.DefaultMaxIdleConnsPerHost, transport.MaxIdleConnsPerHost)
}

func TestNewClient_Overrides(t *testing.T) {
	t.Parallel()

	client := httpx.NewClient(&httpx.ClientConfig{
		Timeout:      5 * time.Second,
		MaxIdleConns: 7,
	})
	assert.Equal(t, 5*time.Second, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 7, transport.MaxIdleConns)
	// Unset fields still fall back to defaults.
	assert.Equal(t, httpx.DefaultIdleConnTimeout, transport.IdleConnTimeout)
}
