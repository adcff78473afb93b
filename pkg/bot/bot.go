package bot

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/jirwin/modbot/pkg/framework"
	"github.com/jirwin/modbot/pkg/slack_client"
	"github.com/jirwin/modbot/pkg/webhook_server"
)

type Config struct{}

func NewConfig() (Config, error) {
	return Config{}, nil
}

// ModBot ties the Slack client, the plugin framework and the webhook server together.
type ModBot struct {
	l             *zap.Logger
	c             Config
	slackClient   *slack_client.Client
	framework     *framework.Framework
	webhookServer *webhook_server.Server

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(
	c Config,
	l *zap.Logger,
	slackClient *slack_client.Client,
	fw *framework.Framework,
	webhookServer *webhook_server.Server,
) (*ModBot, error) {
	b := &ModBot{
		c:             c,
		l:             l.Named("modbot"),
		slackClient:   slackClient,
		framework:     fw,
		webhookServer: webhookServer,
	}

	slackClient.RegisterRoutes(webhookServer)

	return b, nil
}

// Framework returns the plugin framework the bot was built with.
func (b *ModBot) Framework() *framework.Framework {
	return b.framework
}

// Start serves webhooks and authenticates with Slack. Events keep the
// context passed in, so they can finish while the server shuts down.
func (b *ModBot) Start(ctx context.Context) error {
	serverCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.webhookServer.Run(serverCtx)
	}()

	err := b.slackClient.Start(ctx)
	if err != nil {
		b.l.Error("error initializing slack", zap.Error(err))
		b.cancel()
		b.wg.Wait()
		return err
	}

	b.l.Info("modbot started")
	return nil
}

// Stop shuts the webhook server down, waits for the events it dispatched and
// closes the framework's services.
func (b *ModBot) Stop() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	b.slackClient.Wait()

	return b.framework.Close()
}
