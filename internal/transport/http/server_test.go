package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msgboard/internal/bootstrap"
	"msgboard/internal/config"
	"msgboard/internal/model"
	"msgboard/internal/notify"
	"msgboard/internal/pkg/logging"
)

func newTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	cfg := &config.Config{
		App:     config.AppConfig{Name: "msgboard", Env: "test", GinMode: "test"},
		Auth:    config.AuthConfig{BcryptCost: 4},
		Storage: config.StorageConfig{Driver: "sqlite"},
		SQLite:  config.SQLiteConfig{Path: ":memory:"},
		Notify:  config.NotifyConfig{Driver: "memory", ListenerBuffer: 4},
	}
	app, err := bootstrap.NewWithConfig(context.Background(), cfg, logging.NewWithOutput("error", io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_UserLifecycle(t *testing.T) {
	router := NewRouter(newTestApp(t))

	w := do(router, http.MethodPost, "/user/signup", `{"username":"alice","password":"pw1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created model.SafeUser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "alice", created.Username)
	assert.NotContains(t, w.Body.String(), "password")

	w = do(router, http.MethodPost, "/user/signup", `{"username":"alice","password":"pw2"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Username already exists", w.Body.String())

	w = do(router, http.MethodPost, "/user/login", `{"username":"alice","password":"pw1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(router, http.MethodPost, "/user/login", `{"username":"alice","password":"pw2"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodPatch, "/user/resetPassword", `{"username":"alice","password":"pw3"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(router, http.MethodPost, "/user/login", `{"username":"alice","password":"pw1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = do(router, http.MethodPost, "/user/login", `{"username":"alice","password":"pw3"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/user/getUser/alice", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var fetched model.SafeUser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.True(t, created.DateJoined.Equal(fetched.DateJoined))

	w = do(router, http.MethodGet, "/user/getUser/", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodDelete, "/user/deleteUser/alice", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(router, http.MethodGet, "/user/getUser/alice", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", w.Body.String())
}

func TestRouter_MessagesAreBroadcastAndListedInOrder(t *testing.T) {
	app := newTestApp(t)
	router := NewRouter(app)
	sub, err := app.Hub.Subscribe()
	require.NoError(t, err)

	w := do(router, http.MethodPost, "/messaging/addMessage",
		`{"messageToAdd":{"msg":"Hi","msgFrom":"User2","msgDateTime":"2024-06-05T00:00:00.000Z"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(router, http.MethodPost, "/messaging/addMessage",
		`{"messageToAdd":{"msg":"Hello","msgFrom":"User1","msgDateTime":"2024-06-04T00:00:00.000Z"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	first := <-sub.Events()
	assert.Equal(t, notify.EventMessageUpdate, first.Name)
	var payload notify.MessageUpdatePayload
	require.NoError(t, json.Unmarshal(first.Payload, &payload))
	assert.Equal(t, "Hi", payload.Message.Msg)
	assert.NotEmpty(t, payload.Message.ID)
	assert.Len(t, sub.Events(), 1)

	w = do(router, http.MethodGet, "/messaging/getMessages", "")
	require.Equal(t, http.StatusOK, w.Code)
	var messages []model.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, "Hello", messages[0].Msg)
	assert.Equal(t, "Hi", messages[1].Msg)
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	router := NewRouter(newTestApp(t))

	w := do(router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "msgboard_http_requests_total")
}
