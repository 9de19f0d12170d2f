package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPFetcher_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/1/2.pbf", r.URL.Path)
		assert.Equal(t, "test-agent", r.UserAgent())
		w.Write([]byte{0x1a, 0x00})
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second, "test-agent", zap.NewNop())
	data, err := f.Fetch(context.Background(), srv.URL+"/3/1/2.pbf")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1a, 0x00}, data)
}

func TestHTTPFetcher_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second, "", zap.NewNop())
	_, err := f.Fetch(context.Background(), srv.URL+"/0/0/0.pbf")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestHTTPFetcher_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := NewHTTPFetcher(time.Second, "", zap.NewNop())
	_, err := f.Fetch(context.Background(), url)
	assert.Error(t, err)
}
