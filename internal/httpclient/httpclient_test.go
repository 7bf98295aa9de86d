package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/objectfs/iofs/pkg/errors"
	"github.com/objectfs/iofs/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRequestRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PUT", r.Method)
		assert.Equal(t, "bar", r.Header.Get("x-foo"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "payload", string(body))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := New(0)
	resp, err := client.SendRequest(context.Background(), &types.HttpRequest{
		Method:  "PUT",
		URL:     server.URL,
		Headers: map[string][]string{"x-foo": {"bar"}},
		Body:    []byte("payload"),
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestSendRequestTransportError(t *testing.T) {
	client := New(0)
	_, err := client.SendRequest(context.Background(), &types.HttpRequest{
		Method: "GET",
		URL:    "http://127.0.0.1:0/unreachable",
	})
	assert.True(t, errors.Is(err, errors.Transport))
}
