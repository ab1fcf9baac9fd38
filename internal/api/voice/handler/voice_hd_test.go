package voiceHandler

import (
	"AgriVoice/internal/api/voice"
	"AgriVoice/internal/middleware"
	jwtPkg "AgriVoice/pkg/jwt"
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	mu sync.Mutex

	userID      string
	page, limit int
	updatedPage string
	streamed    []byte
	processErr  error
	updateErr   error
	audio       map[string][]byte
}

func (f *fakeService) ProcessVoiceCommand(_ context.Context, userID string, req voice.ProcessVoiceRequest) (*voice.VoiceCommandResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userID = userID
	if f.processErr != nil {
		return nil, f.processErr
	}
	return &voice.VoiceCommandResponse{
		CommandID:  "cmd-1",
		Transcript: "open dashboard " + req.AudioFile.Filename,
		Matched:    true,
		PageID:     "dashboard",
		Route:      "/dashboard",
		Message:    "Opened dashboard page",
	}, nil
}

func (f *fakeService) ProcessStream(_ context.Context, userID string, stream io.Reader) (*voice.VoiceCommandResponse, error) {
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userID = userID
	f.streamed = data
	return &voice.VoiceCommandResponse{Transcript: string(data)}, nil
}

func (f *fakeService) MatchText(_ context.Context, req voice.MatchRequest) voice.MatchResponse {
	return voice.MatchResponse{Text: req.Text, Matched: strings.Contains(req.Text, "home"), Route: "/home"}
}

func (f *fakeService) GetVoiceHistory(_ context.Context, userID string, page, limit int) ([]voice.VoiceCommandHistory, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userID, f.page, f.limit = userID, page, limit
	return []voice.VoiceCommandHistory{{ID: "cmd-1"}}, 1, nil
}

func (f *fakeService) GetRoutes(context.Context) ([]voice.RouteResponse, error) {
	return []voice.RouteResponse{{PageID: "home", Path: "/home"}}, nil
}

func (f *fakeService) CreateRoute(_ context.Context, req voice.RouteRequest) (*voice.RouteResponse, error) {
	return &voice.RouteResponse{PageID: req.PageID, Path: req.Path, Keywords: req.Keywords, IsActive: true}, nil
}

func (f *fakeService) UpdateRoute(_ context.Context, pageID string, req voice.RouteRequest) (*voice.RouteResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updatedPage = pageID
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &voice.RouteResponse{PageID: pageID, Path: req.Path}, nil
}

func (f *fakeService) SeedDefaultRoutes(context.Context) error { return nil }

func (f *fakeService) ReloadRoutes(context.Context) error { return nil }

func (f *fakeService) ServeAudioFile(_ context.Context, filename string) ([]byte, error) {
	data, ok := f.audio[filename]
	if !ok {
		return nil, voice.ErrAudioNotFound
	}
	return data, nil
}

func newTestApp(t *testing.T) (*fiber.App, *fakeService, string) {
	t.Helper()
	t.Setenv(jwtPkg.AccessTokenSecretEnv, "test-secret")
	t.Setenv(middleware.AdminTokenEnv, testAdminToken)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	mw := middleware.New(logger)
	svc := &fakeService{audio: map[string][]byte{"tts-abc.mp3": []byte("mp3")}}

	app := fiber.New()
	app.Use(mw.NewRequestIDMiddleware())
	New(logger, validator.New(), mw, svc).Start(app.Group("/api/v1"))

	token, _, err := jwtPkg.Sign(map[string]interface{}{
		jwtPkg.ClaimID:          "customer-1",
		jwtPkg.ClaimPhoneNumber: "+6281234567890",
	}, time.Hour, jwtPkg.AccessTokenSecretEnv)
	require.NoError(t, err)

	return app, svc, token
}

const testAdminToken = "admin-secret"

func doJSON(t *testing.T, app *fiber.App, method, target, token, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	return doJSONAs(t, app, method, target, token, "", body)
}

func doAdminJSON(t *testing.T, app *fiber.App, method, target, token, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	return doJSONAs(t, app, method, target, token, testAdminToken, body)
}

func doJSONAs(t *testing.T, app *fiber.App, method, target, token, adminToken, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if adminToken != "" {
		req.Header.Set(middleware.AdminTokenHeader, adminToken)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var out map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	_ = jsoniter.Unmarshal(raw, &out)
	return resp, out
}

func TestProcessVoiceCommand(t *testing.T) {
	app, svc, token := newTestApp(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("audio", "clip.webm")
	require.NoError(t, err)
	_, _ = part.Write([]byte("clip"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice/command", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out voice.VoiceCommandResponse
	require.NoError(t, jsoniter.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "/dashboard", out.Route)
	assert.Equal(t, "open dashboard clip.webm", out.Transcript)
	assert.Equal(t, "customer-1", svc.userID)
}

func TestProcessVoiceCommand_Errors(t *testing.T) {
	app, svc, token := newTestApp(t)

	resp, out := doJSON(t, app, http.MethodPost, "/api/v1/voice/command", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, out = doJSON(t, app, http.MethodPost, "/api/v1/voice/command", token, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", out["code"])

	svc.processErr = voice.ErrTranscriptionFailed
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, _ := w.CreateFormFile("audio", "clip.webm")
	_, _ = part.Write([]byte("clip"))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice/command", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	httpResp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, httpResp.StatusCode)
}

func TestMatchText(t *testing.T) {
	app, _, token := newTestApp(t)

	resp, out := doJSON(t, app, http.MethodPost, "/api/v1/voice/match", token, `{"text":"go home"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["matched"])
	assert.Equal(t, "/home", out["route"])

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/voice/match", token, `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetVoiceHistory_ClampsPaging(t *testing.T) {
	app, svc, token := newTestApp(t)

	resp, out := doJSON(t, app, http.MethodGet, "/api/v1/voice/history?page=0&limit=500", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), out["total"])
	assert.Equal(t, 1, svc.page)
	assert.Equal(t, 20, svc.limit)
	assert.Equal(t, "customer-1", svc.userID)
}

func TestRoutes(t *testing.T) {
	app, svc, token := newTestApp(t)

	resp, out := doJSON(t, app, http.MethodGet, "/api/v1/voice/routes", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), out["total"])

	resp, out = doAdminJSON(t, app, http.MethodPost, "/api/v1/voice/routes", token,
		`{"page_id":"weather","path":"/weather","keywords":["open weather"]}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "weather", out["page_id"])

	resp, _ = doAdminJSON(t, app, http.MethodPost, "/api/v1/voice/routes", token,
		`{"page_id":"weather","path":"weather","keywords":["open weather"]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, out = doAdminJSON(t, app, http.MethodPut, "/api/v1/voice/routes/weather", token,
		`{"path":"/weather","keywords":["weather"]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "weather", svc.updatedPage)

	svc.updateErr = voice.ErrRouteNotFound
	resp, out = doAdminJSON(t, app, http.MethodPut, "/api/v1/voice/routes/missing", token,
		`{"path":"/missing","keywords":["missing"]}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "ROUTE_NOT_FOUND", out["code"])
}

func TestRoutes_WritesRequireAdmin(t *testing.T) {
	app, svc, token := newTestApp(t)

	resp, out := doJSON(t, app, http.MethodPost, "/api/v1/voice/routes", token,
		`{"page_id":"weather","path":"/weather","keywords":["open weather"]}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", out["code"])

	resp, _ = doJSONAs(t, app, http.MethodPut, "/api/v1/voice/routes/home", token, "wrong-secret",
		`{"path":"/home","keywords":["home"],"is_active":false}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, svc.updatedPage)

	// the admin token alone does not replace a customer session
	resp, _ = doAdminJSON(t, app, http.MethodPost, "/api/v1/voice/routes", "",
		`{"page_id":"weather","path":"/weather","keywords":["open weather"]}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/voice/routes", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServeAudioFile(t *testing.T) {
	app, _, token := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/voice/audio/tts-abc.mp3?token="+token, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/mpeg", resp.Header.Get("Content-Type"))
	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "mp3", string(data))

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/voice/audio/none.mp3", token, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStream_RequiresUpgrade(t *testing.T) {
	app, _, token := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/voice/stream", token, "")
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestStream(t *testing.T) {
	app, svc, token := newTestApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	url := "ws://" + ln.Addr().String() + "/api/v1/voice/stream?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("open ")))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("home")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"stop"}`)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var out voice.VoiceCommandResponse
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, "open home", out.Transcript)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Equal(t, "customer-1", svc.userID)
}
