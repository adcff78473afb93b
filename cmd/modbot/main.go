package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/jirwin/modbot/pkg/bot"
	"github.com/jirwin/modbot/pkg/builtin_plugins"
	"github.com/jirwin/modbot/pkg/framework"
	"github.com/jirwin/modbot/pkg/slack_client"
	"github.com/jirwin/modbot/pkg/uzap"
	"github.com/jirwin/modbot/pkg/webhook_server"
)

const Version = "0.0.1"

func run(c *cli.Context) error {
	if !c.IsSet("api-key") {
		cli.ShowAppHelp(c)
		return cli.NewExitError("Missing --api-key arg.", 1)
	}

	if !c.IsSet("signing-secret") {
		cli.ShowAppHelp(c)
		return cli.NewExitError("Missing --signing-secret arg.", 1)
	}

	lc, err := uzap.NewConfig()
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if c.Bool("dev") {
		lc.Dev = true
	}
	if c.IsSet("log-level") {
		lc.Level = c.String("log-level")
	}
	l, err := uzap.New(lc)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer l.Sync() //nolint:errcheck

	slackClient, err := slack_client.New(slack_client.Config{
		ApiKey:         c.String("api-key"),
		Debug:          c.Bool("slack-debug"),
		RequestTracing: c.Bool("request-tracing"),
	}, l)
	if err != nil {
		l.Error("error creating slack client", zap.Error(err))
		return err
	}

	cmds, events := builtin_plugins.Defaults(c.String("prefix"), c.String("karma-service"))
	fw, err := framework.New(&framework.Options{
		Client: slackClient,
		Paths: framework.Paths{
			Base:     c.String("base-path"),
			Commands: c.String("commands-path"),
			Events:   c.String("events-path"),
			Services: c.String("services-path"),
		},
		Services: c.String("services-namespace"),
		Logger:   l,
		Commands: cmds,
		Events:   events,
	})
	if err != nil {
		l.Error("error loading plugins", zap.Error(err))
		return cli.NewExitError(err.Error(), 1)
	}

	server, err := webhook_server.New(webhook_server.Config{
		ListenAddress: c.String("listen-addr"),
		SigningSecret: c.String("signing-secret"),
	}, l)
	if err != nil {
		l.Error("error creating webhook server", zap.Error(err))
		return err
	}

	bc, err := bot.NewConfig()
	if err != nil {
		return err
	}
	b, err := bot.New(bc, l, slackClient, fw, server)
	if err != nil {
		l.Error("error creating bot", zap.Error(err))
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)

	err = b.Start(context.Background())
	if err != nil {
		_ = b.Stop()
		return cli.NewExitError(err.Error(), 1)
	}
	<-signals

	return b.Stop()
}

func main() {
	app := cli.NewApp()
	app.Name = "modbot"
	app.Version = Version
	app.Usage = "a slack bot assembled from plugin directories"
	app.Action = run
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "api-key",
			Usage:  "The slack api token for the bot",
			EnvVar: "SLACK_API_KEY",
		},
		cli.StringFlag{
			Name:   "signing-secret",
			Usage:  "The slack signing secret used to verify webhooks.",
			EnvVar: "SLACK_SIGNING_SECRET",
		},
		cli.StringFlag{
			Name:   "listen-addr",
			Usage:  "The address the webhook server listens on.",
			Value:  "0.0.0.0:8000",
			EnvVar: "MODBOT_LISTEN_ADDR",
		},
		cli.StringFlag{
			Name:   "base-path",
			Usage:  "The directory the plugin directories are relative to.",
			Value:  ".",
			EnvVar: "MODBOT_BASE_PATH",
		},
		cli.StringFlag{
			Name:   "commands-path",
			Usage:  "The command plugin directory.",
			Value:  framework.DefaultCommandsPath,
			EnvVar: "MODBOT_COMMANDS_PATH",
		},
		cli.StringFlag{
			Name:   "events-path",
			Usage:  "The event plugin directory.",
			Value:  framework.DefaultEventsPath,
			EnvVar: "MODBOT_EVENTS_PATH",
		},
		cli.StringFlag{
			Name:   "services-path",
			Usage:  "The service plugin directory.",
			Value:  framework.DefaultServicesPath,
			EnvVar: "MODBOT_SERVICES_PATH",
		},
		cli.StringFlag{
			Name:   "services-namespace",
			Usage:  "The name the services are attached to the client under.",
			Value:  framework.DefaultNamespace,
			EnvVar: "MODBOT_SERVICES_NAMESPACE",
		},
		cli.StringFlag{
			Name:   "prefix",
			Usage:  "The prefix chat messages must start with to run a command.",
			Value:  "!",
			EnvVar: "MODBOT_PREFIX",
		},
		cli.StringFlag{
			Name:   "karma-service",
			Usage:  "Enables the karma plugin, backed by the named kv service.",
			EnvVar: "MODBOT_KARMA_SERVICE",
		},
		cli.StringFlag{
			Name:   "log-level",
			Usage:  "The minimum log level.",
			EnvVar: "MODBOT_LOG_LEVEL",
		},
		cli.BoolFlag{
			Name:   "dev",
			Usage:  "Use development logging.",
			EnvVar: "MODBOT_DEV_MODE",
		},
		cli.BoolFlag{
			Name:   "slack-debug",
			Usage:  "Enable slack-go debug logging.",
			EnvVar: "SLACK_DEBUG",
		},
		cli.BoolFlag{
			Name:   "request-tracing",
			Usage:  "Log every slack api response.",
			EnvVar: "SLACK_REQUEST_TRACING",
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		os.Exit(1)
	}
}
