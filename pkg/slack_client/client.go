package slack_client

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/jirwin/modbot/pkg/event_bus"
	"github.com/jirwin/modbot/pkg/framework"
)

// Events emitted on the client bus.
const (
	EventReady               = "ready"
	EventMessage             = "message"
	EventAppMention          = "app_mention"
	EventReactionAdded       = "reaction_added"
	EventMemberJoinedChannel = "member_joined_channel"
	EventSlashCommand        = "slash_command"
)

type Config struct {
	ApiKey         string
	Debug          bool
	RequestTracing bool
	// APIURL overrides the Slack API endpoint. Mostly useful in tests.
	APIURL string
}

func NewConfig() (Config, error) {
	c := Config{}
	apiKey := os.Getenv("SLACK_API_KEY")
	if apiKey == "" {
		return Config{}, fmt.Errorf("SLACK_API_KEY must be set")
	}
	c.ApiKey = apiKey

	if os.Getenv("SLACK_DEBUG") != "" {
		c.Debug = true
	}

	if os.Getenv("SLACK_REQUEST_TRACING") != "" {
		c.RequestTracing = true
	}

	c.APIURL = os.Getenv("SLACK_API_URL")

	return c, nil
}

// Router is where the client mounts its Slack webhook handlers.
type Router interface {
	RegisterRoute(path string, f http.HandlerFunc, methods []string, validateSlack bool)
}

// Client connects slack-go to the framework. Incoming Slack events are
// emitted on the embedded bus; services handed over by the framework are
// kept per namespace.
type Client struct {
	*event_bus.Bus

	l   *zap.Logger
	c   Config
	api *slack.Client

	mu       sync.RWMutex
	services map[string]*framework.Services
	userID   string
	botID    string

	ctx context.Context
	wg  sync.WaitGroup
}

func New(c Config, l *zap.Logger) (*Client, error) {
	l = l.Named("slack-client")

	opts := []slack.Option{
		slack.OptionHTTPClient(&tracingHTTPClient{
			l:       l,
			client:  &http.Client{},
			tracing: c.RequestTracing,
		}),
	}
	if c.Debug {
		opts = append(opts, slack.OptionDebug(true))
	}
	if c.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(c.APIURL))
	}

	return &Client{
		Bus:      event_bus.New(),
		l:        l,
		c:        c,
		api:      slack.New(c.ApiKey, opts...),
		services: make(map[string]*framework.Services),
		ctx:      context.Background(),
	}, nil
}

// Api returns the underlying slack-go client.
func (c *Client) Api() *slack.Client {
	return c.api
}

// SetServices stores the services namespace under its name.
func (c *Client) SetServices(namespace string, services *framework.Services) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.services[namespace] = services
}

// Services returns the services attached under namespace.
func (c *Client) Services(namespace string) (*framework.Services, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.services[namespace]
	return s, ok
}

// Start authenticates with Slack and emits the ready event.
func (c *Client) Start(ctx context.Context) error {
	at, err := c.api.AuthTestContext(ctx)
	if err != nil {
		c.l.Error("unable to auth", zap.Error(err))
		return err
	}

	c.mu.Lock()
	c.userID = at.UserID
	c.botID = at.BotID
	c.ctx = ctx
	c.mu.Unlock()

	c.l.Info("authenticated", zap.String("user_id", at.UserID), zap.String("bot_id", at.BotID))

	return c.Emit(ctx, EventReady, at)
}

// GetUserId returns the Slack user ID of the bot.
func (c *Client) GetUserId() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.userID
}

// GetBotId returns the Slack bot ID.
func (c *Client) GetBotId() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.botID
}

// Reply posts text to the channel msg came from, in its thread if it has one.
func (c *Client) Reply(ctx context.Context, msg *slack.Msg, text string) error {
	opts := []slack.MsgOption{
		slack.MsgOptionText(text, false),
	}
	if msg.ThreadTimestamp != "" {
		opts = append(opts, slack.MsgOptionTS(msg.ThreadTimestamp))
	}

	_, _, err := c.api.PostMessageContext(ctx, msg.Channel, opts...)
	if err != nil {
		c.l.Error("error replying to message", zap.Error(err), zap.String("channel", msg.Channel))
		return err
	}

	return nil
}

// RegisterRoutes mounts the Slack webhook endpoints on r.
func (c *Client) RegisterRoutes(r Router) {
	r.RegisterRoute("/slack/event", c.handleSlackEvent, []string{"POST"}, true)
	r.RegisterRoute("/slack/command", c.handleSlackCommand, []string{"POST"}, true)
}

// dispatch emits event in the background so webhook requests are acked right away.
func (c *Client) dispatch(event string, args ...any) {
	c.mu.RLock()
	ctx := c.ctx
	c.mu.RUnlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		err := c.Emit(ctx, event, args...)
		if err != nil {
			c.l.Error("error handling event", zap.String("event", event), zap.Error(err))
		}
	}()
}

// Wait blocks until every dispatched event has been handled.
func (c *Client) Wait() {
	c.wg.Wait()
}
