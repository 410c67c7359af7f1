package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/npezzotti/go-social/internal/config"
	"github.com/npezzotti/go-social/internal/database"
	"github.com/npezzotti/go-social/internal/server"
	"github.com/npezzotti/go-social/internal/stats"
	"github.com/npezzotti/go-social/internal/testutil"
	"github.com/npezzotti/go-social/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var testConfig = &config.Config{
	ServerAddr:     "localhost:8000",
	DatabaseDSN:    "dsn",
	SigningKey:     []byte("test-signing-key"),
	AllowedOrigins: []string{"http://localhost:3000"},
	TokenExpiry:    time.Hour,
}

func newTestApp(t *testing.T, db database.GoSocialRepository, cs *server.ChatServer) *GoSocialApp {
	return NewGoSocialApp(http.NewServeMux(), testutil.TestLogger(t), cs, db, testConfig)
}

func newTestChatServer(t *testing.T, bridge server.SessionBridge) *server.ChatServer {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything).Return()
	su.On("Incr", mock.Anything).Return().Maybe()
	su.On("Decr", mock.Anything).Return().Maybe()

	cs, err := server.NewChatServer(testutil.TestLogger(t), bridge, su)
	if err != nil {
		t.Fatalf("failed to create chat server: %v", err)
	}
	return cs
}

// nobodyBridge rejects every realtime connection.
var nobodyBridge = server.SessionBridgeFunc(func(r *http.Request) (types.User, bool) {
	return types.User{}, false
})

func withUser(req *http.Request, userId int) *http.Request {
	return req.WithContext(WithUserId(req.Context(), userId))
}

func decodeApiError(t *testing.T, rr *httptest.ResponseRecorder) ApiError {
	t.Helper()
	var apiErr ApiError
	if err := json.NewDecoder(rr.Body).Decode(&apiErr); err != nil {
		t.Fatalf("failed to decode ApiError response: %v", err)
	}
	return apiErr
}

func TestNewGoSocialApp(t *testing.T) {
	mux := http.NewServeMux()
	logger := testutil.TestLogger(t)
	cs := &server.ChatServer{}
	db := &database.MockGoSocialRepository{}

	app := NewGoSocialApp(mux, logger, cs, db, testConfig)

	assert.NotNil(t, app, "expected app to be initialized")
	assert.NotNil(t, app.mux, "expected server to be initialized")
	assert.NotNil(t, app.upgrader, "expected upgrader to be initialized")
	assert.NotNil(t, app.generateShortId, "expected id generator to be set")
	assert.Equal(t, logger, app.log, "expected logger to be set")
	assert.Equal(t, db, app.db, "expected db to be set")
	assert.Equal(t, cs, app.cs, "expected chat server to be set")
	assert.Equal(t, testConfig.SigningKey, app.signingKey, "expected signing key to be set")
	assert.Equal(t, testConfig.TokenExpiry, app.tokenExpiry, "expected token expiry to be set")
	assert.Equal(t, testConfig.ServerAddr, app.mux.Addr, "expected server address to match config")
}

func TestNewGoSocialApp_DefaultTokenExpiry(t *testing.T) {
	app := NewGoSocialApp(http.NewServeMux(), testutil.TestLogger(t), nil, nil, &config.Config{})
	assert.Equal(t, defaultJwtExpiration, app.tokenExpiry)
}

func TestGoSocialApp_Routes(t *testing.T) {
	app := newTestApp(t, &database.MockGoSocialRepository{}, nil)

	tcases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/auth/session"},
		{http.MethodGet, "/api/events"},
		{http.MethodGet, "/api/events/abc"},
		{http.MethodPost, "/api/events/abc/join"},
		{http.MethodGet, "/api/chats"},
		{http.MethodGet, "/api/notifications"},
		{http.MethodPost, "/api/friends/bob"},
	}

	for _, tc := range tcases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, nil)
			app.mux.Handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code, "expected protected route to require a session")
		})
	}
}

func Test_upgraderCheckOrigin(t *testing.T) {
	app := newTestApp(t, nil, nil)

	tcases := []struct {
		name     string
		origin   string
		expected bool
	}{
		{name: "no origin", origin: "", expected: true},
		{name: "allowed origin", origin: "http://localhost:3000", expected: true},
		{name: "foreign origin", origin: "http://evil.example.com", expected: false},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			assert.Equal(t, tc.expected, app.upgrader.CheckOrigin(req))
		})
	}
}
