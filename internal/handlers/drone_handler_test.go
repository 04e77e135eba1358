package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RanaPoddar/gcs-service/internal/config"
	"github.com/RanaPoddar/gcs-service/internal/drone"
	"github.com/RanaPoddar/gcs-service/internal/notify"
)

func newDroneRouter(registry *drone.Registry, fleet *config.Fleet, sink *notify.MockSink) (*gin.Engine, *DroneHandler) {
	h := NewDroneHandler(registry, fleet, config.FleetConfig{}, sink)
	router := newTestRouter()
	router.POST("/drone/:id/connect", h.Connect)
	router.POST("/drone/:id/disconnect", h.Disconnect)
	router.GET("/drones", h.List)
	router.GET("/drone/:id/telemetry", h.Telemetry)
	router.GET("/drone/:id/status", h.Status)
	return router, h
}

func TestDroneHandler_ConnectSimulation(t *testing.T) {
	registry := drone.NewRegistry()
	sink := notify.NewMockSink()
	h := NewDroneHandler(registry, nil, config.FleetConfig{}, sink)

	router := newTestRouter()
	router.POST("/drone/:id/connect", h.Connect)

	code, body := doJSON(t, router, http.MethodPost, "/drone/1/connect",
		map[string]interface{}{"simulation": true})

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["connected"])
	assert.Equal(t, true, body["simulation"])

	conn, ok := registry.Get(1)
	require.True(t, ok)
	assert.True(t, conn.Connected())
	defer conn.Disconnect()

	// The lifecycle event reached the sink.
	events := sink.EventsOfKind(notify.KindStatus)
	require.NotEmpty(t, events)
	assert.Equal(t, 1, events[0].DroneID)
}

func TestDroneHandler_ConnectTwiceRejected(t *testing.T) {
	registry := drone.NewRegistry()
	h := NewDroneHandler(registry, nil, config.FleetConfig{}, notify.NewMockSink())

	router := newTestRouter()
	router.POST("/drone/:id/connect", h.Connect)

	code, _ := doJSON(t, router, http.MethodPost, "/drone/1/connect",
		map[string]interface{}{"simulation": true})
	require.Equal(t, http.StatusOK, code)
	conn, _ := registry.Get(1)
	defer conn.Disconnect()

	code, body := doJSON(t, router, http.MethodPost, "/drone/1/connect",
		map[string]interface{}{"simulation": true})

	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, false, body["success"])
}

func TestDroneHandler_ConnectUsesFleetEntry(t *testing.T) {
	registry := drone.NewRegistry()
	fleet := &config.Fleet{Drones: []config.DroneConfig{
		{ID: 7, Name: "scout", Simulation: true},
	}}
	h := NewDroneHandler(registry, fleet, config.FleetConfig{}, notify.NewMockSink())

	router := newTestRouter()
	router.POST("/drone/:id/connect", h.Connect)

	// Empty body; simulation comes from the fleet file.
	code, body := doJSON(t, router, http.MethodPost, "/drone/7/connect", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["simulation"])
	conn, ok := registry.Get(7)
	require.True(t, ok)
	conn.Disconnect()
}

func TestDroneHandler_ConnectInvalidID(t *testing.T) {
	router, _ := newDroneRouter(drone.NewRegistry(), nil, notify.NewMockSink())

	code, body := doJSON(t, router, http.MethodPost, "/drone/abc/connect", nil)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
}

func TestDroneHandler_Disconnect(t *testing.T) {
	registry := drone.NewRegistry()
	connectedSim(t, registry, 1)
	router, _ := newDroneRouter(registry, nil, notify.NewMockSink())

	code, body := doJSON(t, router, http.MethodPost, "/drone/1/disconnect", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	_, ok := registry.Get(1)
	assert.False(t, ok)
}

func TestDroneHandler_DisconnectUnknown(t *testing.T) {
	router, _ := newDroneRouter(drone.NewRegistry(), nil, notify.NewMockSink())

	code, body := doJSON(t, router, http.MethodPost, "/drone/9/disconnect", nil)

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "drone not found", body["error"])
}

func TestDroneHandler_List(t *testing.T) {
	registry := drone.NewRegistry()
	connectedSim(t, registry, 2)
	connectedSim(t, registry, 1)

	fleet := &config.Fleet{Drones: []config.DroneConfig{
		{ID: 1, Name: "scout", Simulation: true},
	}}
	router, _ := newDroneRouter(registry, fleet, notify.NewMockSink())

	code, body := doJSON(t, router, http.MethodGet, "/drones", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["total"])

	drones := body["drones"].([]interface{})
	require.Len(t, drones, 2)
	first := drones[0].(map[string]interface{})
	assert.EqualValues(t, 1, first["id"]) // ordered by id
	assert.Equal(t, "scout", first["name"])
	assert.Equal(t, true, first["connected"])
}

func TestDroneHandler_Telemetry(t *testing.T) {
	registry := drone.NewRegistry()
	connectedSim(t, registry, 1)
	router, _ := newDroneRouter(registry, nil, notify.NewMockSink())

	code, body := doJSON(t, router, http.MethodGet, "/drone/1/telemetry", nil)

	assert.Equal(t, http.StatusOK, code)
	// Simulation seeds a fix near the default home.
	assert.InDelta(t, 12.97, body["latitude"].(float64), 0.1)
	assert.Equal(t, "STABILIZE", body["flight_mode"])
	assert.EqualValues(t, 3, body["gps_fix_type"])
}

func TestDroneHandler_TelemetryUnknown(t *testing.T) {
	router, _ := newDroneRouter(drone.NewRegistry(), nil, notify.NewMockSink())

	code, _ := doJSON(t, router, http.MethodGet, "/drone/5/telemetry", nil)

	assert.Equal(t, http.StatusNotFound, code)
}

func TestDroneHandler_Status(t *testing.T) {
	registry := drone.NewRegistry()
	connectedSim(t, registry, 1)
	router, _ := newDroneRouter(registry, nil, notify.NewMockSink())

	code, body := doJSON(t, router, http.MethodGet, "/drone/1/status", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["connected"])
	assert.Equal(t, true, body["simulation"])
	assert.Equal(t, false, body["armed"])
}
