package slack_client

import (
	"bytes"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// tracingHTTPClient logs every Slack API response body when request tracing is on.
type tracingHTTPClient struct {
	l       *zap.Logger
	client  *http.Client
	tracing bool
}

func (t *tracingHTTPClient) Do(req *http.Request) (*http.Response, error) {
	r, err := t.client.Do(req)
	if r == nil || !t.tracing {
		return r, err
	}

	data, _ := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewBuffer(data))

	t.l.Debug("request complete",
		zap.String("url", req.URL.String()),
		zap.Int("status", r.StatusCode),
		zap.String("payload", string(data)),
	)

	return r, err
}
