package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weightmate/internal/bot"
	"weightmate/internal/config"
	"weightmate/internal/domain"
	"weightmate/internal/memory"
	"weightmate/internal/services"
)

const testSecret = "testsecret"

type fakeMessenger struct {
	mu      sync.Mutex
	replies []string
}

func (m *fakeMessenger) ReplyText(ctx context.Context, replyToken, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, text)
	return nil
}

func (m *fakeMessenger) ReplyImage(ctx context.Context, replyToken, imageURL string) error {
	return nil
}

func (m *fakeMessenger) PushText(ctx context.Context, to, text string) error { return nil }

func (m *fakeMessenger) PushImage(ctx context.Context, to, imageURL string) error { return nil }

type fakeRenderer struct{}

func (fakeRenderer) RenderTrend(ctx context.Context, username string, observations []domain.Observation) (string, error) {
	return username + ".png", nil
}

func newTestServer(t *testing.T, graphDir string) (*Server, *fakeMessenger) {
	t.Helper()
	store := memory.New()
	messenger := &fakeMessenger{}
	interp := bot.NewInterpreter(
		services.NewRegistryService(store),
		services.NewLedgerService(store),
		fakeRenderer{},
		messenger,
		"https://example.com",
	)
	line, err := bot.NewLineMessenger(config.LineConfig{
		ChannelSecret:      testSecret,
		ChannelAccessToken: "testtoken",
	})
	require.NoError(t, err)
	return New(line, interp, config.ServerConfig{GraphDir: graphDir}), messenger
}

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

const webhookBody = `{
	"destination": "xxx",
	"events": [{
		"type": "message",
		"replyToken": "rt",
		"source": {"type": "user", "userId": "U1"},
		"message": {"type": "text", "id": "1", "text": "ヘルプ"}
	}]
}`

func TestCallbackDispatchesTextMessage(t *testing.T) {
	srv, messenger := newTestServer(t, t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(webhookBody))
	req.Header.Set("X-Line-Signature", sign(webhookBody))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, messenger.replies, 1)
	assert.Contains(t, messenger.replies[0], "コマンド一覧")
}

func TestCallbackRejectsBadSignature(t *testing.T) {
	srv, messenger := newTestServer(t, t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(webhookBody))
	req.Header.Set("X-Line-Signature", "bm90IGEgc2lnbmF0dXJl")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, messenger.replies)
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")
}

func TestServesRenderedCharts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taro_weight_1month.png"), []byte("png-bytes"), 0o644))
	srv, _ := newTestServer(t, dir)

	req := httptest.NewRequest(http.MethodGet, "/static/graphs/taro_weight_1month.png", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/static/graphs/missing.png", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
