package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/RanaPoddar/gcs-service/internal/drone"
	"github.com/RanaPoddar/gcs-service/internal/notify"
)

// connectedSim registers a connected simulation vehicle under id.
func connectedSim(t *testing.T, registry *drone.Registry, id int) *drone.Connection {
	t.Helper()
	conn := drone.NewConnection(id, drone.Options{
		Simulation: true,
		Sink:       notify.NewMockSink(),
	})
	require.NoError(t, conn.Connect())
	t.Cleanup(conn.Disconnect)
	registry.Put(conn)
	return conn
}

// doJSON runs one request through the router and decodes the JSON
// response body.
func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w.Code, decoded
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}
