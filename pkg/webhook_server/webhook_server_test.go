package webhook_server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSecret = "e6b19c573432dcc6b075501d51b51bb8"

func sign(t *testing.T, req *http.Request, body string) {
	t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(testSecret))
	_, err := mac.Write([]byte(fmt.Sprintf("v0:%s:%s", ts, body)))
	require.NoError(t, err)

	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
}

func newTestServer(t *testing.T) (*Server, *[]string) {
	t.Helper()
	s, err := New(Config{ListenAddress: "127.0.0.1:0", SigningSecret: testSecret}, zaptest.NewLogger(t))
	require.NoError(t, err)

	var bodies []string
	handler := func(rw http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		bodies = append(bodies, string(b))
		rw.WriteHeader(http.StatusOK)
	}
	s.RegisterRoute("/signed", handler, []string{"POST"}, true)
	s.RegisterRoute("/open", handler, []string{"POST"}, false)
	return s, &bodies
}

func TestRegisterRoute_RejectsUnsigned(t *testing.T) {
	s, bodies := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/signed", strings.NewReader("payload")))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, *bodies)
}

func TestRegisterRoute_RejectsBadSignature(t *testing.T) {
	s, bodies := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/signed", strings.NewReader("payload"))
	sign(t, req, "something else")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, *bodies)
}

func TestRegisterRoute_AcceptsSigned(t *testing.T) {
	s, bodies := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/signed", strings.NewReader("payload"))
	sign(t, req, "payload")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"payload"}, *bodies)
}

func TestRegisterRoute_Unvalidated(t *testing.T) {
	s, bodies := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/open", strings.NewReader("hello")))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"hello"}, *bodies)
}

func TestRegisterRoute_MethodMismatch(t *testing.T) {
	s, bodies := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Empty(t, *bodies)
}

func TestNewConfig(t *testing.T) {
	t.Setenv("MODBOT_LISTEN_ADDR", "")
	t.Setenv("SLACK_SIGNING_SECRET", "")
	_, err := NewConfig()
	require.Error(t, err)

	t.Setenv("MODBOT_LISTEN_ADDR", "0.0.0.0:8000")
	_, err = NewConfig()
	require.Error(t, err)

	t.Setenv("SLACK_SIGNING_SECRET", testSecret)
	c, err := NewConfig()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8000", c.ListenAddress)
	require.Equal(t, testSecret, c.SigningSecret)
}
