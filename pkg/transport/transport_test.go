package transport

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithProxy(t *testing.T) {
	transport, err := New("http://proxy.internal:3128")
	require.NoError(t, err)

	req, _ := http.NewRequest("GET", "https://example.atlassian.net", nil)
	proxyURL, err := transport.Proxy(req)
	require.NoError(t, err)
	require.NotNil(t, proxyURL)
	assert.Equal(t, "proxy.internal:3128", proxyURL.Host)
}

func TestNewInvalidProxy(t *testing.T) {
	_, err := New("://bad")
	require.Error(t, err)
}

func TestNewClientDefaultTimeout(t *testing.T) {
	client, err := NewClient("", 0)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, client.Timeout)
}

func TestNewClientTimeout(t *testing.T) {
	client, err := NewClient("", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.Timeout)
}
