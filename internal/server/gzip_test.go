package server

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipBody(t *testing.T, payload interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestGzipRequestDecompression(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		compress bool
	}{
		{name: "uncompressed request", compress: false},
		{name: "gzip compressed request", compress: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps()
			router := New(deps)

			payload := map[string]bool{"simulation": true}

			var body []byte
			if tt.compress {
				body = gzipBody(t, payload)
			} else {
				var err error
				body, err = json.Marshal(payload)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/drone/1/connect", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			if tt.compress {
				req.Header.Set("Content-Encoding", "gzip")
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

			conn, ok := deps.Registry.Get(1)
			require.True(t, ok)
			assert.True(t, conn.Connected())
		})
	}
}

func TestGzipResponseCompression(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := New(newTestDeps())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drones", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	decoded, err := io.ReadAll(zr)
	require.NoError(t, err)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(decoded, &response))
	assert.Contains(t, response, "drones")
}

func TestGzipInvalidData(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := New(newTestDeps())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/drone/1/connect",
		bytes.NewReader([]byte("this is not valid gzip data")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
