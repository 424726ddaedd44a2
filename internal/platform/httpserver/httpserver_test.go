package httpserver

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	srv := New(":8080", http.NotFoundHandler())

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, readHeaderTimeout, srv.ReadHeaderTimeout)
	assert.Equal(t, 30*time.Second, srv.WriteTimeout)
	assert.Nil(t, srv.ErrorLog)
}

func TestWithRequestTimeout(t *testing.T) {
	srv := New(":8080", http.NotFoundHandler(), WithRequestTimeout(10*time.Second))
	assert.Equal(t, 15*time.Second, srv.WriteTimeout)

	srv = New(":8080", http.NotFoundHandler(), WithRequestTimeout(0))
	assert.Equal(t, 30*time.Second, srv.WriteTimeout)
}

func TestWithErrorLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	srv := New(":8080", http.NotFoundHandler(), WithErrorLog(logger))
	require.NotNil(t, srv.ErrorLog)

	srv.ErrorLog.Print("http: TLS handshake error")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "TLS handshake error")
}
