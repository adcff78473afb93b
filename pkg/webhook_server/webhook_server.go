package webhook_server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

type Config struct {
	ListenAddress string
	SigningSecret string
}

func NewConfig() (Config, error) {
	c := Config{}

	listenAddr := os.Getenv("MODBOT_LISTEN_ADDR")
	if listenAddr == "" {
		return Config{}, fmt.Errorf("MODBOT_LISTEN_ADDR must be set e.g. 0.0.0.0:8000")
	}
	c.ListenAddress = listenAddr

	signingSecret := os.Getenv("SLACK_SIGNING_SECRET")
	if signingSecret == "" {
		return Config{}, fmt.Errorf("SLACK_SIGNING_SECRET must be set")
	}
	c.SigningSecret = signingSecret

	return c, nil
}

var InvalidRequestSignature = errors.New("invalid request signature")

// Server serves the Slack webhooks.
type Server struct {
	l      *zap.Logger
	c      Config
	router *mux.Router
	server *http.Server
}

func New(c Config, l *zap.Logger) (*Server, error) {
	router := mux.NewRouter()
	s := &Server{
		l:      l.Named("webhook-server"),
		c:      c,
		router: router,
		server: &http.Server{
			Addr:    c.ListenAddress,
			Handler: router,
		},
	}

	return s, nil
}

// Handler returns the router, for mounting the server elsewhere or testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.l.Error("listen error", zap.Error(err))
		}
	}()
	s.l.Info("listening", zap.String("addr", s.c.ListenAddress))

	<-ctx.Done()

	s.l.Info("Shutting down webhook server")
	// shut down gracefully, but wait no longer than 5 seconds before halting
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.l.Info("Shut down webhook server")
}

// RegisterRoute mounts f at path. When validateSlack is set, requests must
// carry a valid Slack signature.
func (s *Server) RegisterRoute(path string, f http.HandlerFunc, methods []string, validateSlack bool) {
	handler := f
	if validateSlack {
		handler = s.ValidateSlackWebhook(f)
	}

	s.router.HandleFunc(path, handler).Methods(methods...)
	s.l.Info("registering route", zap.String("path", path), zap.Strings("methods", methods))
}

// ValidateSlackWebhook wraps f with Slack request signature verification.
func (s *Server) ValidateSlackWebhook(f http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		err := s.verify(r)
		if err != nil {
			s.l.Warn("rejecting webhook", zap.String("path", r.URL.Path), zap.Error(err))
			rw.WriteHeader(http.StatusUnauthorized)
			return
		}

		f(rw, r)
	}
}

func (s *Server) verify(r *http.Request) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	sv, err := slack.NewSecretsVerifier(r.Header, s.c.SigningSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", InvalidRequestSignature, err)
	}

	_, err = sv.Write(body)
	if err != nil {
		return err
	}

	err = sv.Ensure()
	if err != nil {
		return fmt.Errorf("%w: %v", InvalidRequestSignature, err)
	}

	return nil
}
