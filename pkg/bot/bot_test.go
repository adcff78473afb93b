package bot

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jirwin/modbot/pkg/builtin_plugins"
	"github.com/jirwin/modbot/pkg/data_store/boltdb"
	"github.com/jirwin/modbot/pkg/framework"
	"github.com/jirwin/modbot/pkg/slack_client"
	"github.com/jirwin/modbot/pkg/webhook_server"
)

const signingSecret = "8f742231b10e8888abcd99yyyzzz85a5"

type fakeSlack struct {
	mu    sync.Mutex
	posts []url.Values
}

func (f *fakeSlack) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth.test":
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "user_id": "UBOT", "bot_id": "BBOT"})
	case "/chat.postMessage":
		_ = r.ParseForm()
		f.mu.Lock()
		f.posts = append(f.posts, r.PostForm)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": r.PostForm.Get("channel"), "ts": "1.2"})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func signedRequest(t *testing.T, path, contentType, body string) *http.Request {
	t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(signingSecret))
	_, err := mac.Write([]byte(fmt.Sprintf("v0:%s:%s", ts, body)))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func newTestBot(t *testing.T, l *zap.Logger) (*ModBot, *webhook_server.Server, *fakeSlack, string) {
	t.Helper()

	api := &fakeSlack{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	base := t.TempDir()
	for _, dir := range []string{"commands", "events", "services"} {
		require.NoError(t, os.Mkdir(filepath.Join(base, dir), 0o700))
	}
	ping := "run = 'echo pong'\ndescription = 'Replies pong.'\n"
	require.NoError(t, os.WriteFile(filepath.Join(base, "commands", "ping.toml"), []byte(ping), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(base, "services", "karma.toml"), []byte("type = 'kv'\n"), 0o600))

	client, err := slack_client.New(slack_client.Config{ApiKey: "xoxb-test", APIURL: srv.URL + "/"}, l)
	require.NoError(t, err)

	cmds, events := builtin_plugins.Defaults("!", "karma")
	fw, err := framework.New(&framework.Options{
		Client:   client,
		Paths:    framework.Paths{Base: base},
		Logger:   l,
		Commands: cmds,
		Events:   events,
	})
	require.NoError(t, err)

	server, err := webhook_server.New(webhook_server.Config{ListenAddress: "127.0.0.1:0", SigningSecret: signingSecret}, l)
	require.NoError(t, err)

	b, err := New(Config{}, l, client, fw, server)
	require.NoError(t, err)
	return b, server, api, base
}

func TestModBot_SlashCommand(t *testing.T) {
	b, server, api, _ := newTestBot(t, zaptest.NewLogger(t))
	require.NoError(t, b.Start(context.Background()))

	form := url.Values{"command": {"/ping"}, "channel_id": {"C1"}, "user_id": {"U1"}}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, signedRequest(t, "/slack/command", "application/x-www-form-urlencoded", form.Encode()))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, b.Stop())

	require.Len(t, api.posts, 1)
	require.Equal(t, "C1", api.posts[0].Get("channel"))
	require.Equal(t, "pong", api.posts[0].Get("text"))
}

func TestModBot_MessageEvent(t *testing.T) {
	b, server, api, _ := newTestBot(t, zaptest.NewLogger(t))
	require.NoError(t, b.Start(context.Background()))

	body := `{"type":"event_callback","event":{"type":"message","channel":"C2","user":"U1","text":"!echo hi there","ts":"1.1"}}`
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, signedRequest(t, "/slack/event", "application/json", body))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, b.Stop())

	require.Len(t, api.posts, 1)
	require.Equal(t, "C2", api.posts[0].Get("channel"))
	require.Equal(t, "hi there", api.posts[0].Get("text"))
}

func TestModBot_StopDrainsEvents(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b, server, _, base := newTestBot(t, zap.New(core))
	require.NoError(t, b.Start(context.Background()))

	body := `{"type":"event_callback","event":{"type":"message","channel":"C2","user":"U1","text":"gopher++","ts":"1.1"}}`
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, signedRequest(t, "/slack/event", "application/json", body))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, b.Stop())
	require.Zero(t, logs.FilterMessage("error handling event").Len())

	db, err := boltdb.Open(filepath.Join(base, "services", "modbot.db"))
	require.NoError(t, err)
	defer db.Close()
	store, err := db.Bucket("karma")
	require.NoError(t, err)
	val, err := store.Get("gopher")
	require.NoError(t, err)
	require.Equal(t, "1", string(val))
}

func TestModBot_UnsignedWebhook(t *testing.T) {
	b, server, api, _ := newTestBot(t, zaptest.NewLogger(t))
	require.NoError(t, b.Start(context.Background()))

	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader("command=/ping"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	require.NoError(t, b.Stop())
	require.Empty(t, api.posts)
}

func TestModBot_StartFails(t *testing.T) {
	b, _, _, _ := newTestBot(t, zaptest.NewLogger(t))
	b.slackClient = mustClient(t, "http://127.0.0.1:1/")

	require.Error(t, b.Start(context.Background()))
	require.NoError(t, b.Stop())
}

func mustClient(t *testing.T, apiURL string) *slack_client.Client {
	t.Helper()
	c, err := slack_client.New(slack_client.Config{ApiKey: "xoxb-test", APIURL: apiURL}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c
}
