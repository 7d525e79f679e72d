package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Temutjin2k/ride-realtime/config"
	wshandler "github.com/Temutjin2k/ride-realtime/internal/adapter/http/ws"
	"github.com/Temutjin2k/ride-realtime/internal/adapter/memory"
	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
	"github.com/Temutjin2k/ride-realtime/internal/domain/types"
	"github.com/Temutjin2k/ride-realtime/internal/service/auth"
	ridecalc "github.com/Temutjin2k/ride-realtime/internal/service/calculator"
	"github.com/Temutjin2k/ride-realtime/internal/service/location"
	"github.com/Temutjin2k/ride-realtime/internal/service/ride"
	"github.com/Temutjin2k/ride-realtime/pkg/logger"
	"github.com/Temutjin2k/ride-realtime/pkg/trm"
	ws "github.com/Temutjin2k/ride-realtime/pkg/wsHub"
)

type testEnv struct {
	srv     *httptest.Server
	tokens  *auth.TokenService
	session *wshandler.Session
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logger.Discard()
	cfg := config.Config{ServiceName: "ride-test"}

	tokens := auth.NewTokenService("test-secret-0123456789", time.Minute)
	calc := ridecalc.New()
	registry := ws.NewRegistry(log)
	router := wshandler.NewEventRouter(registry, types.DeliveryBroadcast, log)
	rides := ride.NewRideService(memory.NewRideRepo(), trm.Nop{}, router, calc, log)
	ingest := location.NewIngestService(rides, router, calc, log)
	session := wshandler.NewSession(cfg.ServiceName, registry, ingest, tokens, 0, 1, log)

	api, err := New(cfg, rides, session, session, tokens, WSOptions{Conn: ws.Options{WriteTimeout: time.Second}}, log)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(func() {
		registry.CloseAll()
		srv.Close()
	})

	return &testEnv{srv: srv, tokens: tokens, session: session}
}

func (e *testEnv) token(t *testing.T, userID uuid.UUID, role types.UserRole) string {
	t.Helper()
	tok, err := e.tokens.Issue(models.Identity{UserID: userID, Role: role})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (e *testEnv) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("handshake status = %d", resp.StatusCode)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// OnConnect runs after the handshake, so the client can be faster than the registry
func (e *testEnv) waitConnections(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for e.session.ActiveConnections() != n {
		if time.Now().After(deadline) {
			t.Fatalf("active connections = %d, want %d", e.session.ActiveConnections(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func createRideBody() map[string]any {
	return map[string]any{
		"pickup":  map[string]any{"latitude": 40.7128, "longitude": -74.0060, "address": "Lower Manhattan"},
		"dropoff": map[string]any{"latitude": 40.7589, "longitude": -73.9851, "address": "Times Square"},
	}
}

func TestAPI_Health(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/health", "", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body["status"] != "available" {
		t.Errorf("body = %v", body)
	}
}

func TestAPI_RideEndpointsRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodPost, "/api/v1/rides", "", createRideBody())
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}

	driverToken := env.token(t, uuid.New(), types.DriverRole)
	status, _ = env.do(t, http.MethodPost, "/api/v1/rides", driverToken, createRideBody())
	if status != http.StatusForbidden {
		t.Fatalf("driver create status = %d, want 403", status)
	}
}

func TestAPI_RideLifecycleOverHTTPAndWebSocket(t *testing.T) {
	env := newTestEnv(t)

	riderID, driverID := uuid.New(), uuid.New()
	riderToken := env.token(t, riderID, types.RiderRole)
	driverToken := env.token(t, driverID, types.DriverRole)

	conn := env.dial(t, riderToken)
	env.waitConnections(t, 1)

	status, body := env.do(t, http.MethodPost, "/api/v1/rides", riderToken, createRideBody())
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, body = %v", status, body)
	}
	created, _ := body["ride"].(map[string]any)
	rideID, _ := created["ride_id"].(string)
	if rideID == "" || created["status"] != types.StatusPending.String() {
		t.Fatalf("unexpected create response: %v", body)
	}

	// чужой пассажир не видит поездку
	otherToken := env.token(t, uuid.New(), types.RiderRole)
	if status, _ := env.do(t, http.MethodGet, "/api/v1/rides/"+rideID, otherToken, nil); status != http.StatusNotFound {
		t.Fatalf("foreign rider get status = %d, want 404", status)
	}

	status, body = env.do(t, http.MethodPost, "/api/v1/rides/"+rideID+"/accept", driverToken,
		map[string]any{"vehicle_id": uuid.NewString()})
	if status != http.StatusOK {
		t.Fatalf("accept status = %d, body = %v", status, body)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event struct {
		RideID    string `json:"rideId"`
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read status event: %v", err)
	}
	if event.RideID != rideID || event.Status != types.StatusAccepted.String() {
		t.Errorf("event = %+v, want ride %s ACCEPTED", event, rideID)
	}
	if _, err := time.Parse("2006-01-02T15:04:05Z", event.Timestamp); err != nil {
		t.Errorf("timestamp %q: %v", event.Timestamp, err)
	}

	// повторный accept проигрывает
	status, _ = env.do(t, http.MethodPost, "/api/v1/rides/"+rideID+"/accept", env.token(t, uuid.New(), types.DriverRole),
		map[string]any{"vehicle_id": uuid.NewString()})
	if status != http.StatusConflict {
		t.Fatalf("second accept status = %d, want 409", status)
	}

	status, body = env.do(t, http.MethodPost, "/api/v1/rides/"+rideID+"/cancel", riderToken,
		map[string]any{"reason": "changed plans"})
	if status != http.StatusOK {
		t.Fatalf("cancel status = %d, body = %v", status, body)
	}
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read cancel event: %v", err)
	}
	if event.Status != types.StatusCancelled.String() {
		t.Errorf("event status = %s, want CANCELLED", event.Status)
	}
}

func TestAPI_WebSocketEcho(t *testing.T) {
	env := newTestEnv(t)

	conn := env.dial(t, env.token(t, uuid.New(), types.RiderRole))
	env.waitConnections(t, 1)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(msg) != "Echo: hello" {
		t.Errorf("reply = %q, want %q", msg, "Echo: hello")
	}

	_ = conn.Close()
	env.waitConnections(t, 0)
}

func TestAPI_WebSocketRejectsBadToken(t *testing.T) {
	env := newTestEnv(t)

	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws?token=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("response = %v, want 401", resp)
	}
}
